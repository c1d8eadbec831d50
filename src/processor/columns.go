package processor

// 数据集列名
const (
	ColID               = "ID"
	ColCourierID        = "Delivery_person_ID"
	ColCourierAge       = "Delivery_person_Age"
	ColCourierRating    = "Delivery_person_Ratings"
	ColRestaurantLat    = "Restaurant_latitude"
	ColRestaurantLon    = "Restaurant_longitude"
	ColDeliveryLat      = "Delivery_location_latitude"
	ColDeliveryLon      = "Delivery_location_longitude"
	ColOrderDate        = "Order_Date"
	ColTimeOrdered      = "Time_Orderd"
	ColTimePicked       = "Time_Order_picked"
	ColWeather          = "Weatherconditions"
	ColTraffic          = "Road_traffic_density"
	ColVehicleCondition = "Vehicle_condition"
	ColOrderType        = "Type_of_order"
	ColVehicleType      = "Type_of_vehicle"
	ColMultiple         = "multiple_deliveries"
	ColFestival         = "Festival"
	ColCity             = "City"
	ColTimeTaken        = "Time_taken(min)"

	// 清洗时派生的列
	ColWeek = "week_of_year"
)

// castKind 清洗后列的目标类型
type castKind int

const (
	castInt castKind = iota
	castFloat
	castDate
)

// castColumns 必须成功转换的列，失败即整体失败
var castColumns = []struct {
	name string
	kind castKind
}{
	{ColCourierAge, castInt},
	{ColCourierRating, castFloat},
	{ColOrderDate, castDate},
	{ColVehicleCondition, castInt},
	{ColMultiple, castInt},
	{ColTimeTaken, castInt},
}

// coordinateColumns 坐标列，非法值静默变为NaN
var coordinateColumns = []string{ColRestaurantLat, ColRestaurantLon, ColDeliveryLat, ColDeliveryLon}
