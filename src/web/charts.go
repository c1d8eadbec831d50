package web

import (
	"io"

	"CuryDashboard/src/chart"
	"CuryDashboard/src/processor"
)

type chartFunc func(w io.Writer, b processor.Batch) error

// charts 页面上的所有图表，key是 /charts/{name}.png 里的name
// 前六个属于公司视图，后三个属于餐厅视图
var charts = map[string]chartFunc{
	"orders-by-day":    ordersByDayChart,
	"traffic-share":    trafficShareChart,
	"traffic-city":     trafficCityChart,
	"orders-by-week":   ordersByWeekChart,
	"week-share":       weekShareChart,
	"locations":        locationsChart,
	"time-by-city":     timeByCityChart,
	"time-by-traffic":  timeByTrafficChart,
	"distance-by-city": distanceByCityChart,
}

func ordersByDayChart(w io.Writer, b processor.Batch) error {
	rows, err := processor.OrdersByDay(b)
	if err != nil {
		return err
	}
	points := make([]chart.Point, len(rows))
	for i, r := range rows {
		points[i] = chart.Point{Label: r.Date, Value: float64(r.Orders)}
	}
	return chart.Bar(w, "Orders by day", points)
}

func trafficShareChart(w io.Writer, b processor.Batch) error {
	rows, err := processor.TrafficOrderShare(b)
	if err != nil {
		return err
	}
	points := make([]chart.Point, len(rows))
	for i, r := range rows {
		points[i] = chart.Point{Label: r.Traffic, Value: r.Percent}
	}
	return chart.Pie(w, "Order share by traffic", points)
}

func trafficCityChart(w io.Writer, b processor.Batch) error {
	rows, err := processor.TrafficOrderCity(b)
	if err != nil {
		return err
	}
	points := make([]chart.BubblePoint, len(rows))
	for i, r := range rows {
		points[i] = chart.BubblePoint{X: r.City, Y: r.Traffic, Size: float64(r.Orders)}
	}
	return chart.Bubble(w, "Orders by city and traffic", points)
}

func ordersByWeekChart(w io.Writer, b processor.Batch) error {
	rows, err := processor.OrdersByWeek(b)
	if err != nil {
		return err
	}
	points := make([]chart.Point, len(rows))
	for i, r := range rows {
		points[i] = chart.Point{Label: r.Week, Value: float64(r.Orders)}
	}
	return chart.Line(w, "Orders by week", points)
}

func weekShareChart(w io.Writer, b processor.Batch) error {
	rows, err := processor.OrderShareByWeek(b)
	if err != nil {
		return err
	}
	points := make([]chart.Point, len(rows))
	for i, r := range rows {
		points[i] = chart.Point{Label: r.Week, Value: r.OrdersPerCourier.Float()}
	}
	return chart.Line(w, "Orders per courier by week", points)
}

func locationsChart(w io.Writer, b processor.Batch) error {
	rows, err := processor.CityTrafficLocations(b)
	if err != nil {
		return err
	}
	markers := make([]chart.Marker, len(rows))
	for i, r := range rows {
		markers[i] = chart.Marker{
			Label:     r.City + "/" + r.Traffic,
			Latitude:  r.Latitude.Float(),
			Longitude: r.Longitude.Float(),
		}
	}
	return chart.Markers(w, "Delivery locations by city and traffic", markers)
}

func timeByCityChart(w io.Writer, b processor.Batch) error {
	rows, err := processor.TimeByCity(b)
	if err != nil {
		return err
	}
	points := make([]chart.ErrorPoint, len(rows))
	for i, r := range rows {
		points[i] = chart.ErrorPoint{Label: r.Key, Mean: r.Mean.Float(), Std: r.Std.Float()}
	}
	return chart.ErrorBars(w, "Delivery time by city", points)
}

func timeByTrafficChart(w io.Writer, b processor.Batch) error {
	rows, err := processor.TimeByCityTraffic(b)
	if err != nil {
		return err
	}
	points := make([]chart.Point, len(rows))
	for i, r := range rows {
		points[i] = chart.Point{Label: r.City + "/" + r.Group, Value: r.Mean.Float()}
	}
	return chart.Donut(w, "Delivery time by city and traffic", points)
}

func distanceByCityChart(w io.Writer, b processor.Batch) error {
	rows, err := processor.MeanDistanceByCity(b)
	if err != nil {
		return err
	}
	points := make([]chart.Point, len(rows))
	for i, r := range rows {
		points[i] = chart.Point{Label: r.City, Value: r.Distance.Float()}
	}
	return chart.Pie(w, "Mean distance by city", points)
}
