package processor

import "fmt"

// CompanyView 公司视图: 管理、战术、地理三个标签页
type CompanyView struct {
	Orders       int                `json:"orders"`
	OrdersByDay  []DayCount         `json:"orders_by_day"`
	TrafficShare []TrafficShare     `json:"traffic_share"`
	TrafficCity  []CityTrafficCount `json:"traffic_city"`
	OrdersByWeek []WeekCount        `json:"orders_by_week"`
	WeekShare    []WeekShare        `json:"week_share"`
	Locations    []Location         `json:"locations"`
	MeanTime     Stat               `json:"mean_time"`
}

// CourierView 配送员视图
type CourierView struct {
	Metrics         CourierMetrics  `json:"metrics"`
	RatingByCourier []CourierRating `json:"rating_by_courier"`
	RatingByTraffic []MeanStd       `json:"rating_by_traffic"`
	RatingByWeather []MeanStd       `json:"rating_by_weather"`
	Fastest         []CourierTime   `json:"fastest"`
	Slowest         []CourierTime   `json:"slowest"`
}

// RestaurantView 餐厅视图
type RestaurantView struct {
	UniqueCouriers  int            `json:"unique_couriers"`
	MeanDistance    Stat           `json:"mean_distance"`
	Festival        FestivalTime   `json:"festival"`
	NoFestival      FestivalTime   `json:"no_festival"`
	TimeByCity      []MeanStd      `json:"time_by_city"`
	TimeByOrderType []PairStat     `json:"time_by_order_type"`
	TimeByTraffic   []PairStat     `json:"time_by_traffic"`
	DistanceByCity  []CityDistance `json:"distance_by_city"`
}

// BuildCompany 计算公司视图
func BuildCompany(b Batch) (CompanyView, error) {
	var (
		v   CompanyView
		err error
	)
	v.Orders = b.Len()
	if v.OrdersByDay, err = OrdersByDay(b); err != nil {
		return v, fmt.Errorf("orders by day: %w", err)
	}
	if v.TrafficShare, err = TrafficOrderShare(b); err != nil {
		return v, fmt.Errorf("traffic order share: %w", err)
	}
	if v.TrafficCity, err = TrafficOrderCity(b); err != nil {
		return v, fmt.Errorf("traffic order city: %w", err)
	}
	if v.OrdersByWeek, err = OrdersByWeek(b); err != nil {
		return v, fmt.Errorf("orders by week: %w", err)
	}
	if v.WeekShare, err = OrderShareByWeek(b); err != nil {
		return v, err
	}
	if v.Locations, err = CityTrafficLocations(b); err != nil {
		return v, fmt.Errorf("city traffic locations: %w", err)
	}
	v.MeanTime = NaN()
	if !b.Empty() {
		v.MeanTime = mean(b.df.Col(ColTimeTaken)).Round(2)
	}
	return v, nil
}

// BuildCourier 计算配送员视图
func BuildCourier(b Batch, cities []string, topN int) (CourierView, error) {
	var (
		v   CourierView
		err error
	)
	v.Metrics = CourierOverview(b)
	if v.RatingByCourier, err = RatingByCourier(b); err != nil {
		return v, fmt.Errorf("rating by courier: %w", err)
	}
	if v.RatingByTraffic, err = RatingByTraffic(b); err != nil {
		return v, fmt.Errorf("rating by traffic: %w", err)
	}
	if v.RatingByWeather, err = RatingByWeather(b); err != nil {
		return v, fmt.Errorf("rating by weather: %w", err)
	}
	if v.Fastest, err = TopCouriers(b, cities, topN, true); err != nil {
		return v, fmt.Errorf("top couriers: %w", err)
	}
	if v.Slowest, err = TopCouriers(b, cities, topN, false); err != nil {
		return v, fmt.Errorf("top couriers: %w", err)
	}
	return v, nil
}

// BuildRestaurant 计算餐厅视图
func BuildRestaurant(b Batch) (RestaurantView, error) {
	var (
		v   RestaurantView
		err error
	)
	v.UniqueCouriers = UniqueCouriers(b)
	v.MeanDistance = MeanDistance(b)
	v.Festival = TimeByFestival(b, "Yes")
	v.NoFestival = TimeByFestival(b, "No")
	if v.TimeByCity, err = TimeByCity(b); err != nil {
		return v, fmt.Errorf("time by city: %w", err)
	}
	if v.TimeByOrderType, err = TimeByCityOrderType(b); err != nil {
		return v, fmt.Errorf("time by order type: %w", err)
	}
	if v.TimeByTraffic, err = TimeByCityTraffic(b); err != nil {
		return v, fmt.Errorf("time by traffic: %w", err)
	}
	if v.DistanceByCity, err = MeanDistanceByCity(b); err != nil {
		return v, fmt.Errorf("distance by city: %w", err)
	}
	return v, nil
}
