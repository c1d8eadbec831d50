package chart

import (
	"fmt"
	"io"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// lineStyle 折线带数据点
func lineStyle(col drawing.Color) gochart.Style {
	return gochart.Style{
		StrokeWidth: 2,
		StrokeColor: col,
		DotWidth:    4,
		DotColor:    col,
	}
}

func background() gochart.Style {
	return gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}}
}

// Bar 柱状图，NaN按0画
func Bar(w io.Writer, title string, points []Point) error {
	if len(points) == 0 {
		return ErrNoData
	}

	bars := make([]gochart.Value, len(points))
	for i, p := range points {
		bars[i] = gochart.Value{Label: p.Label, Value: orZero(p.Value)}
	}
	lo, hi := valueRange(points)

	bc := gochart.BarChart{
		Title:      title,
		Width:      Width,
		Height:     Height,
		Background: background(),
		BarWidth:   barWidth(len(points)),
		BarSpacing: 4,
		YAxis:      gochart.YAxis{Range: &gochart.ContinuousRange{Min: lo, Max: hi}},
		Bars:       bars,
	}
	if err := bc.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("render bar chart: %w", err)
	}
	return nil
}

// barWidth 类别多时把柱子变窄
func barWidth(n int) int {
	width := (Width - 120) / n
	switch {
	case width > 60:
		return 60
	case width < 4:
		return 4
	}
	return width - 4
}

// Line 折线图，X轴是类别(例如周数)
func Line(w io.Writer, title string, points []Point) error {
	if len(points) == 0 {
		return ErrNoData
	}

	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	// 两端的空刻度撑开X轴，单个点时范围也不为0
	ticks := []gochart.Tick{{Value: -0.5}}
	for i, p := range points {
		xs[i] = float64(i)
		ys[i] = orZero(p.Value)
		ticks = append(ticks, gochart.Tick{Value: float64(i), Label: p.Label})
	}
	ticks = append(ticks, gochart.Tick{Value: float64(len(points)) - 0.5})
	lo, hi := valueRange(points)

	ch := gochart.Chart{
		Title:      title,
		Width:      Width,
		Height:     Height,
		Background: background(),
		XAxis:      gochart.XAxis{Ticks: ticks},
		YAxis:      gochart.YAxis{Range: &gochart.ContinuousRange{Min: lo, Max: hi}},
		Series: []gochart.Series{
			gochart.ContinuousSeries{
				Name:    title,
				XValues: xs,
				YValues: ys,
				Style:   lineStyle(gochart.ColorBlue),
			},
		},
	}
	if err := ch.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("render line chart: %w", err)
	}
	return nil
}

func sliceValues(points []Point) ([]gochart.Value, error) {
	points = positive(points)
	if len(points) == 0 {
		return nil, ErrNoData
	}
	values := make([]gochart.Value, len(points))
	for i, p := range points {
		values[i] = gochart.Value{Label: p.Label, Value: p.Value}
	}
	return values, nil
}

// Pie 饼图，只画大于0的部分
func Pie(w io.Writer, title string, points []Point) error {
	values, err := sliceValues(points)
	if err != nil {
		return err
	}

	pc := gochart.PieChart{
		Title:      title,
		Width:      Width,
		Height:     Height,
		Background: background(),
		Values:     values,
	}
	if err := pc.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("render pie chart: %w", err)
	}
	return nil
}

// Donut 环形图
func Donut(w io.Writer, title string, points []Point) error {
	values, err := sliceValues(points)
	if err != nil {
		return err
	}

	dc := gochart.DonutChart{
		Title:      title,
		Width:      Width,
		Height:     Height,
		Background: background(),
		Values:     values,
	}
	if err := dc.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("render donut chart: %w", err)
	}
	return nil
}
