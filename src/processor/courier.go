package processor

import (
	"CuryDashboard/src/utils"
	"sort"

	"github.com/go-gota/gota/series"
)

// CourierMetrics 配送员总体指标
type CourierMetrics struct {
	MaxAge         Stat `json:"max_age"`
	MinAge         Stat `json:"min_age"`
	BestCondition  Stat `json:"best_condition"`
	WorstCondition Stat `json:"worst_condition"`
}

// CourierRating 每个配送员的平均评分
type CourierRating struct {
	Courier string `json:"courier"`
	Rating  Stat   `json:"rating"`
}

// MeanStd 某个分组的均值和标准差
type MeanStd struct {
	Key  string `json:"key"`
	Mean Stat   `json:"mean"`
	Std  Stat   `json:"std"`
}

// CourierTime 配送员在某城市的平均配送时间
type CourierTime struct {
	City    string `json:"city"`
	Courier string `json:"courier"`
	Time    Stat   `json:"time_taken"`
}

// CourierOverview 年龄和车辆状况的最大最小值
func CourierOverview(b Batch) CourierMetrics {
	if b.Empty() {
		return CourierMetrics{MaxAge: NaN(), MinAge: NaN(), BestCondition: NaN(), WorstCondition: NaN()}
	}
	age := b.df.Col(ColCourierAge)
	cond := b.df.Col(ColVehicleCondition)
	return CourierMetrics{
		MaxAge:         Stat(age.Max()),
		MinAge:         Stat(age.Min()),
		BestCondition:  Stat(cond.Max()),
		WorstCondition: Stat(cond.Min()),
	}
}

// RatingByCourier 每个配送员的平均评分
func RatingByCourier(b Batch) ([]CourierRating, error) {
	groups, err := utils.GroupFrames(b.df, []string{ColCourierID}, ColCourierRating)
	if err != nil {
		return nil, err
	}
	out := make([]CourierRating, 0, len(groups))
	for _, g := range groups {
		out = append(out, CourierRating{Courier: g.Keys[0], Rating: mean(g.Frame.Col(ColCourierRating))})
	}
	return out, nil
}

// RatingByTraffic 各交通状况下评分的均值和标准差
func RatingByTraffic(b Batch) ([]MeanStd, error) {
	return meanStdBy(b, ColTraffic, ColCourierRating)
}

// RatingByWeather 各天气下评分的均值和标准差
func RatingByWeather(b Batch) ([]MeanStd, error) {
	return meanStdBy(b, ColWeather, ColCourierRating)
}

// TopCouriers 每个城市最快(fastest=true)或最慢的n个配送员
// 城市按cities的顺序输出，不在cities中的城市忽略
func TopCouriers(b Batch, cities []string, n int, fastest bool) ([]CourierTime, error) {
	groups, err := utils.GroupFrames(b.df, []string{ColCity, ColCourierID}, ColTimeTaken)
	if err != nil {
		return nil, err
	}

	byCity := make(map[string][]CourierTime)
	for _, g := range groups {
		city := g.Keys[0]
		byCity[city] = append(byCity[city], CourierTime{
			City:    city,
			Courier: g.Keys[1],
			Time:    mean(g.Frame.Col(ColTimeTaken)),
		})
	}

	out := make([]CourierTime, 0)
	for _, city := range cities {
		rows := byCity[city]
		sort.SliceStable(rows, func(i, j int) bool {
			if rows[i].Time != rows[j].Time {
				if fastest {
					return rows[i].Time < rows[j].Time
				}
				return rows[i].Time > rows[j].Time
			}
			return rows[i].Courier < rows[j].Courier
		})
		if len(rows) > n {
			rows = rows[:n]
		}
		out = append(out, rows...)
	}
	return out, nil
}

func meanStdBy(b Batch, key, col string) ([]MeanStd, error) {
	groups, err := utils.GroupFrames(b.df, []string{key}, col)
	if err != nil {
		return nil, err
	}
	out := make([]MeanStd, 0, len(groups))
	for _, g := range groups {
		s := g.Frame.Col(col)
		out = append(out, MeanStd{Key: g.Keys[0], Mean: mean(s), Std: stdDev(s)})
	}
	return out, nil
}

func mean(s series.Series) Stat {
	if s.Len() == 0 {
		return NaN()
	}
	return Stat(s.Mean())
}

// stdDev 样本标准差，只有一个值时为NaN
func stdDev(s series.Series) Stat {
	if s.Len() < 2 {
		return NaN()
	}
	return Stat(s.StdDev())
}
