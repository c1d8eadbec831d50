package chart

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var (
	bubbleColor = color.RGBA{R: 0, G: 116, B: 217, A: 160}
	barColor    = color.RGBA{R: 0, G: 116, B: 217, A: 255}
	markerColor = color.RGBA{R: 217, G: 0, B: 116, A: 255}
)

func newPlot(title string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	return p
}

// save 按96DPI输出和go-chart同样大小的PNG
func save(p *plot.Plot, w io.Writer) error {
	wt, err := p.WriterTo(vg.Points(Width*0.75), vg.Points(Height*0.75), "png")
	if err != nil {
		return fmt.Errorf("render plot: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write plot: %w", err)
	}
	return nil
}

// indexOf 按出现顺序给类别编号
func indexOf(values []string) (map[string]int, []string) {
	idx := make(map[string]int)
	var names []string
	for _, v := range values {
		if _, ok := idx[v]; !ok {
			idx[v] = len(names)
			names = append(names, v)
		}
	}
	return idx, names
}

// Bubble 气泡图，气泡面积和Size成正比，气泡上标出数值
func Bubble(w io.Writer, title string, points []BubblePoint) error {
	kept := make([]BubblePoint, 0, len(points))
	maxSize := 0.0
	for _, pt := range points {
		if finite(pt.Size) && pt.Size > 0 {
			kept = append(kept, pt)
			maxSize = math.Max(maxSize, pt.Size)
		}
	}
	if len(kept) == 0 {
		return ErrNoData
	}

	xLabels := make([]string, len(kept))
	yLabels := make([]string, len(kept))
	for i, pt := range kept {
		xLabels[i], yLabels[i] = pt.X, pt.Y
	}
	xIdx, xNames := indexOf(xLabels)
	yIdx, yNames := indexOf(yLabels)

	xys := make(plotter.XYs, len(kept))
	texts := make([]string, len(kept))
	for i, pt := range kept {
		xys[i].X = float64(xIdx[pt.X])
		xys[i].Y = float64(yIdx[pt.Y])
		texts[i] = strconv.FormatFloat(pt.Size, 'f', -1, 64)
	}

	scatter, err := plotter.NewScatter(xys)
	if err != nil {
		return fmt.Errorf("bubble: %w", err)
	}
	scatter.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		radius := 4 + 20*math.Sqrt(kept[i].Size/maxSize)
		return draw.GlyphStyle{Color: bubbleColor, Radius: vg.Points(radius), Shape: draw.CircleGlyph{}}
	}

	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: texts})
	if err != nil {
		return fmt.Errorf("bubble labels: %w", err)
	}

	p := newPlot(title)
	p.Add(plotter.NewGrid(), scatter, labels)
	p.NominalX(xNames...)
	p.NominalY(yNames...)
	p.X.Min, p.X.Max = -0.5, float64(len(xNames))-0.5
	p.Y.Min, p.Y.Max = -0.5, float64(len(yNames))-0.5
	return save(p, w)
}

// meanErrors 误差棒的数据源
type meanErrors struct {
	plotter.XYs
	plotter.YErrors
}

// ErrorBars 均值柱状图加标准差误差棒
func ErrorBars(w io.Writer, title string, points []ErrorPoint) error {
	if len(points) == 0 {
		return ErrNoData
	}

	values := make(plotter.Values, len(points))
	names := make([]string, len(points))
	data := meanErrors{
		XYs:     make(plotter.XYs, len(points)),
		YErrors: make(plotter.YErrors, len(points)),
	}
	top := 0.0
	for i, pt := range points {
		mean, std := orZero(pt.Mean), orZero(pt.Std)
		values[i] = mean
		names[i] = pt.Label
		data.XYs[i] = plotter.XY{X: float64(i), Y: mean}
		data.YErrors[i].Low, data.YErrors[i].High = std, std
		top = math.Max(top, mean+std)
	}

	bars, err := plotter.NewBarChart(values, vg.Points(40))
	if err != nil {
		return fmt.Errorf("error bars: %w", err)
	}
	bars.Color = barColor
	bars.LineStyle.Width = vg.Length(0)

	errBars, err := plotter.NewYErrorBars(data)
	if err != nil {
		return fmt.Errorf("error bars: %w", err)
	}

	p := newPlot(title)
	p.Add(plotter.NewGrid(), bars, errBars)
	p.NominalX(names...)
	p.X.Min, p.X.Max = -0.5, float64(len(points))-0.5
	p.Y.Min = 0
	if top == 0 {
		top = 1
	}
	p.Y.Max = top * 1.1
	return save(p, w)
}

// Markers 按经纬度画标注点，坐标为NaN的点跳过
func Markers(w io.Writer, title string, markers []Marker) error {
	var (
		xys   plotter.XYs
		texts []string
	)
	for _, m := range markers {
		if !finite(m.Latitude) || !finite(m.Longitude) {
			continue
		}
		xys = append(xys, plotter.XY{X: m.Longitude, Y: m.Latitude})
		texts = append(texts, m.Label)
	}
	if len(xys) == 0 {
		return ErrNoData
	}

	scatter, err := plotter.NewScatter(xys)
	if err != nil {
		return fmt.Errorf("markers: %w", err)
	}
	scatter.GlyphStyle.Color = markerColor
	scatter.GlyphStyle.Radius = vg.Points(5)
	scatter.GlyphStyle.Shape = draw.CircleGlyph{}

	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: texts})
	if err != nil {
		return fmt.Errorf("marker labels: %w", err)
	}
	labels.Offset = vg.Point{X: vg.Points(6), Y: vg.Points(2)}

	p := newPlot(title)
	p.X.Label.Text = "Longitude"
	p.Y.Label.Text = "Latitude"
	p.Add(plotter.NewGrid(), scatter, labels)

	xmin, xmax, ymin, ymax := plotter.XYRange(xys)
	p.X.Min, p.X.Max = pad(xmin, xmax)
	p.Y.Min, p.Y.Max = pad(ymin, ymax)
	return save(p, w)
}

// pad 两端各留5%，只有一个点时留0.5度
func pad(lo, hi float64) (float64, float64) {
	margin := (hi - lo) * 0.05
	if margin == 0 {
		margin = 0.5
	}
	return lo - margin, hi + margin
}
