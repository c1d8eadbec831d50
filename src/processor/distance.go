package processor

import (
	"CuryDashboard/src/utils"
	"math"

	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/stat"
)

// EarthRadiusKm 地球平均半径
const EarthRadiusKm = 6371.0088

// ColDistance 派生的距离列(km)
const ColDistance = "Distance"

// Haversine 两点之间的大圆距离(km)，不校验坐标范围
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(a))
}

// Distances 每行餐厅到送达地点的距离，坐标非法时为NaN
func Distances(b Batch) []float64 {
	if b.Empty() {
		return []float64{}
	}
	rLat := b.df.Col(ColRestaurantLat).Float()
	rLon := b.df.Col(ColRestaurantLon).Float()
	dLat := b.df.Col(ColDeliveryLat).Float()
	dLon := b.df.Col(ColDeliveryLon).Float()

	out := make([]float64, len(rLat))
	for i := range out {
		out[i] = Haversine(rLat[i], rLon[i], dLat[i], dLon[i])
	}
	return out
}

// MeanDistance 平均配送距离，保留两位小数，跳过NaN
func MeanDistance(b Batch) Stat {
	values := finite(Distances(b))
	if len(values) == 0 {
		return NaN()
	}
	return Stat(stat.Mean(values, nil)).Round(2)
}

// CityDistance 每个城市的平均配送距离
type CityDistance struct {
	City     string `json:"city"`
	Distance Stat   `json:"distance"`
}

// MeanDistanceByCity 按城市统计平均距离
func MeanDistanceByCity(b Batch) ([]CityDistance, error) {
	if b.Empty() {
		return []CityDistance{}, nil
	}
	df := b.df.Mutate(series.New(Distances(b), series.Float, ColDistance))
	groups, err := utils.GroupFrames(df, []string{ColCity}, ColDistance)
	if err != nil {
		return nil, err
	}
	out := make([]CityDistance, 0, len(groups))
	for _, g := range groups {
		values := finite(g.Frame.Col(ColDistance).Float())
		d := NaN()
		if len(values) > 0 {
			d = Stat(stat.Mean(values, nil))
		}
		out = append(out, CityDistance{City: g.Keys[0], Distance: d})
	}
	return out, nil
}
