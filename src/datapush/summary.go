package datapush

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"CuryDashboard/src/processor"
)

// Summary 推送用的每日摘要(markdown)，b应为已筛选的数据
func Summary(b processor.Batch, cutoff time.Time) (title, text string, err error) {
	company, err := processor.BuildCompany(b)
	if err != nil {
		return "", "", fmt.Errorf("build company view: %w", err)
	}
	restaurant, err := processor.BuildRestaurant(b)
	if err != nil {
		return "", "", fmt.Errorf("build restaurant view: %w", err)
	}
	couriers := processor.CourierOverview(b)

	p := message.NewPrinter(language.English)
	title = fmt.Sprintf("Cury Company %s", cutoff.Format("2006-01-02"))

	var sb strings.Builder
	sb.WriteString("### " + title + "\n\n")
	p.Fprintf(&sb, "- Orders before %s: **%d**\n", cutoff.Format("2006-01-02"), company.Orders)
	p.Fprintf(&sb, "- Mean delivery time: **%s** min\n", company.MeanTime)
	p.Fprintf(&sb, "- Unique couriers: **%d**\n", restaurant.UniqueCouriers)
	p.Fprintf(&sb, "- Mean distance: **%s** km\n", restaurant.MeanDistance)
	p.Fprintf(&sb, "- Courier age: %s ~ %s\n", couriers.MinAge, couriers.MaxAge)

	if len(company.TrafficShare) > 0 {
		sb.WriteString("\n#### Traffic\n\n")
		for _, t := range company.TrafficShare {
			p.Fprintf(&sb, "- %s: %d (%.2f%%)\n", t.Traffic, t.Orders, t.Percent)
		}
	}
	if len(restaurant.TimeByCity) > 0 {
		sb.WriteString("\n#### Delivery time by city\n\n")
		for _, c := range restaurant.TimeByCity {
			p.Fprintf(&sb, "- %s: %s ± %s min\n", c.Key, c.Mean, c.Std)
		}
	}
	return title, sb.String(), nil
}
