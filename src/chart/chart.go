// Package chart 把聚合结果渲染成PNG图片
// 柱状图、折线图、饼图、环形图用go-chart，气泡图、误差棒和坐标图用gonum/plot
package chart

import (
	"errors"
	"math"
)

// ErrNoData 没有可画的数据(空表或全部是NaN/0)
var ErrNoData = errors.New("chart: no data")

const (
	Width  = 800
	Height = 480
)

// Point 一个类别和对应的数值
type Point struct {
	Label string
	Value float64
}

// BubblePoint 两个类别轴上的一个气泡，Size决定半径
type BubblePoint struct {
	X, Y string
	Size float64
}

// ErrorPoint 均值和标准差，标准差为NaN时不画误差棒
type ErrorPoint struct {
	Label string
	Mean  float64
	Std   float64
}

// Marker 地图上的一个标注点
type Marker struct {
	Label     string
	Latitude  float64
	Longitude float64
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// orZero NaN/Inf按0处理
func orZero(v float64) float64 {
	if finite(v) {
		return v
	}
	return 0
}

// valueRange 返回从0开始的坐标范围，顶部留10%
func valueRange(points []Point) (float64, float64) {
	max := 0.0
	for _, p := range points {
		max = math.Max(max, orZero(p.Value))
	}
	if max == 0 {
		return 0, 1
	}
	return 0, max * 1.1
}

// positive 只保留大于0的点，饼图不能画0和负数
func positive(points []Point) []Point {
	out := make([]Point, 0, len(points))
	for _, p := range points {
		if finite(p.Value) && p.Value > 0 {
			out = append(out, p)
		}
	}
	return out
}
