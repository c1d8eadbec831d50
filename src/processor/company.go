package processor

import (
	"CuryDashboard/src/utils"
	"fmt"
	"math"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// DayCount 每天的订单数
type DayCount struct {
	Date   string `json:"order_date"`
	Orders int    `json:"orders"`
}

// TrafficShare 每种交通状况的订单数和占比
type TrafficShare struct {
	Traffic string  `json:"traffic"`
	Orders  int     `json:"orders"`
	Percent float64 `json:"percent"`
}

// CityTrafficCount 城市 x 交通状况的订单数
type CityTrafficCount struct {
	City    string `json:"city"`
	Traffic string `json:"traffic"`
	Orders  int    `json:"orders"`
}

// WeekCount 每周订单数
type WeekCount struct {
	Week   string `json:"week"`
	Orders int    `json:"orders"`
}

// WeekShare 每周订单数 / 每周去重配送员数
type WeekShare struct {
	Week             string `json:"week"`
	Orders           int    `json:"orders"`
	Couriers         int    `json:"couriers"`
	OrdersPerCourier Stat   `json:"orders_per_courier"`
}

// Location 城市 x 交通状况的送达位置中位数
type Location struct {
	City      string `json:"city"`
	Traffic   string `json:"traffic"`
	Latitude  Stat   `json:"latitude"`
	Longitude Stat   `json:"longitude"`
}

// OrdersByDay 按 Order_Date 统计订单数
func OrdersByDay(b Batch) ([]DayCount, error) {
	groups, err := utils.GroupFrames(b.df, []string{ColOrderDate}, ColID)
	if err != nil {
		return nil, err
	}
	out := make([]DayCount, 0, len(groups))
	for _, g := range groups {
		out = append(out, DayCount{Date: g.Keys[0], Orders: g.Frame.Nrow()})
	}
	return out, nil
}

// TrafficOrderShare 各交通状况订单占比(百分比)
func TrafficOrderShare(b Batch) ([]TrafficShare, error) {
	groups, err := utils.GroupFrames(b.df, []string{ColTraffic}, ColID)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, g := range groups {
		total += g.Frame.Nrow()
	}
	out := make([]TrafficShare, 0, len(groups))
	for _, g := range groups {
		n := g.Frame.Nrow()
		out = append(out, TrafficShare{
			Traffic: g.Keys[0],
			Orders:  n,
			Percent: 100 * float64(n) / float64(total),
		})
	}
	return out, nil
}

// TrafficOrderCity 城市 x 交通状况订单数
func TrafficOrderCity(b Batch) ([]CityTrafficCount, error) {
	groups, err := utils.GroupFrames(b.df, []string{ColCity, ColTraffic}, ColID)
	if err != nil {
		return nil, err
	}
	out := make([]CityTrafficCount, 0, len(groups))
	for _, g := range groups {
		out = append(out, CityTrafficCount{City: g.Keys[0], Traffic: g.Keys[1], Orders: g.Frame.Nrow()})
	}
	return out, nil
}

// OrdersByWeek 按周统计订单数
func OrdersByWeek(b Batch) ([]WeekCount, error) {
	groups, err := utils.GroupFrames(b.df, []string{ColWeek}, ColID)
	if err != nil {
		return nil, err
	}
	out := make([]WeekCount, 0, len(groups))
	for _, g := range groups {
		out = append(out, WeekCount{Week: g.Keys[0], Orders: g.Frame.Nrow()})
	}
	return out, nil
}

// OrderShareByWeek 每周平均每个配送员的订单数
func OrderShareByWeek(b Batch) ([]WeekShare, error) {
	orders, err := OrdersByWeek(b)
	if err != nil {
		return nil, err
	}
	groups, err := utils.GroupFrames(b.df, []string{ColWeek}, ColCourierID)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 || len(groups) == 0 {
		return []WeekShare{}, nil
	}

	weeks := make([]string, len(orders))
	counts := make([]int, len(orders))
	for i, w := range orders {
		weeks[i] = w.Week
		counts[i] = w.Orders
	}
	couriersWeeks := make([]string, len(groups))
	couriers := make([]int, len(groups))
	for i, g := range groups {
		couriersWeeks[i] = g.Keys[0]
		couriers[i] = len(utils.Unique(g.Frame.Col(ColCourierID).Records()))
	}

	left := dataframe.New(
		series.New(weeks, series.String, ColWeek),
		series.New(counts, series.Int, ColID),
	)
	right := dataframe.New(
		series.New(couriersWeeks, series.String, ColWeek),
		series.New(couriers, series.Int, ColCourierID),
	)
	joined := left.InnerJoin(right, ColWeek)
	if joined.Err != nil {
		return nil, fmt.Errorf("order share by week: %w", joined.Err)
	}
	joined = joined.Arrange(dataframe.Sort(ColWeek))

	weekCol := joined.Col(ColWeek).Records()
	orderCol, err := joined.Col(ColID).Int()
	if err != nil {
		return nil, fmt.Errorf("order share by week: %w", err)
	}
	courierCol, err := joined.Col(ColCourierID).Int()
	if err != nil {
		return nil, fmt.Errorf("order share by week: %w", err)
	}

	out := make([]WeekShare, 0, joined.Nrow())
	for i := range weekCol {
		share := NaN()
		if courierCol[i] > 0 {
			share = Stat(float64(orderCol[i]) / float64(courierCol[i]))
		}
		out = append(out, WeekShare{
			Week:             weekCol[i],
			Orders:           orderCol[i],
			Couriers:         courierCol[i],
			OrdersPerCourier: share,
		})
	}
	return out, nil
}

// CityTrafficLocations 城市 x 交通状况送达经纬度中位数
func CityTrafficLocations(b Batch) ([]Location, error) {
	groups, err := utils.GroupFrames(b.df, []string{ColCity, ColTraffic}, ColDeliveryLat, ColDeliveryLon)
	if err != nil {
		return nil, err
	}
	out := make([]Location, 0, len(groups))
	for _, g := range groups {
		out = append(out, Location{
			City:      g.Keys[0],
			Traffic:   g.Keys[1],
			Latitude:  median(g.Frame.Col(ColDeliveryLat)),
			Longitude: median(g.Frame.Col(ColDeliveryLon)),
		})
	}
	return out, nil
}

// median 跳过NaN的中位数
func median(s series.Series) Stat {
	values := finite(s.Float())
	if len(values) == 0 {
		return NaN()
	}
	return Stat(series.Floats(values).Median())
}

func finite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
