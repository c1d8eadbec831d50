package processor

import (
	"CuryDashboard/src/utils"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// FestivalTime 节日/非节日订单的配送时间
type FestivalTime struct {
	Festival string `json:"festival"`
	Mean     Stat   `json:"avg_time"`
	Std      Stat   `json:"std_time"`
}

// PairStat 两个分组键下配送时间的均值和标准差
type PairStat struct {
	City  string `json:"city"`
	Group string `json:"group"`
	Mean  Stat   `json:"avg_time"`
	Std   Stat   `json:"std_time"`
}

// UniqueCouriers 去重后的配送员数量
func UniqueCouriers(b Batch) int {
	if b.Empty() {
		return 0
	}
	return len(utils.Unique(b.df.Col(ColCourierID).Records()))
}

// TimeByFestival 某个 Festival 取值(Yes/No)下配送时间的均值和标准差，保留两位小数
func TimeByFestival(b Batch, festival string) FestivalTime {
	out := FestivalTime{Festival: festival, Mean: NaN(), Std: NaN()}
	if b.Empty() {
		return out
	}
	df := b.df.Filter(dataframe.F{
		Colname:    ColFestival,
		Comparator: series.CompFunc,
		Comparando: func(el series.Element) bool { return el.String() == festival },
	})
	if df.Err != nil || df.Nrow() == 0 {
		return out
	}
	s := df.Col(ColTimeTaken)
	out.Mean = mean(s).Round(2)
	out.Std = stdDev(s).Round(2)
	return out
}

// TimeByCity 各城市配送时间的均值和标准差
func TimeByCity(b Batch) ([]MeanStd, error) {
	return meanStdBy(b, ColCity, ColTimeTaken)
}

// TimeByCityOrderType 城市 x 订单类型
func TimeByCityOrderType(b Batch) ([]PairStat, error) {
	return pairStats(b, ColOrderType)
}

// TimeByCityTraffic 城市 x 交通状况
func TimeByCityTraffic(b Batch) ([]PairStat, error) {
	return pairStats(b, ColTraffic)
}

func pairStats(b Batch, second string) ([]PairStat, error) {
	groups, err := utils.GroupFrames(b.df, []string{ColCity, second}, ColTimeTaken)
	if err != nil {
		return nil, err
	}
	out := make([]PairStat, 0, len(groups))
	for _, g := range groups {
		s := g.Frame.Col(ColTimeTaken)
		out = append(out, PairStat{City: g.Keys[0], Group: g.Keys[1], Mean: mean(s), Std: stdDev(s)})
	}
	return out, nil
}
