package processor

import (
	"strings"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/require"
)

const csvHeader = "ID,Delivery_person_ID,Delivery_person_Age,Delivery_person_Ratings," +
	"Restaurant_latitude,Restaurant_longitude,Delivery_location_latitude,Delivery_location_longitude," +
	"Order_Date,Time_Orderd,Time_Order_picked,Weatherconditions,Road_traffic_density,Vehicle_condition," +
	"Type_of_order,Type_of_vehicle,multiple_deliveries,Festival,City,Time_taken(min)"

// 两组坐标: 约3.03km 和 约20.18km
var (
	nearCoords = [4]string{"22.745049", "75.892471", "22.765049", "75.912471"}
	farCoords  = [4]string{"12.913041", "77.683237", "13.043041", "77.813237"}
)

type orderRow struct {
	id, courier, age, rating string
	coords                   [4]string
	date, weather, traffic   string
	condition, orderType     string
	festival, city, minutes  string
}

func (r orderRow) csv() string {
	if r.coords == [4]string{} {
		r.coords = nearCoords
	}
	if r.weather == "" {
		r.weather = "conditions Sunny"
	}
	if r.orderType == "" {
		r.orderType = "Snack"
	}
	if r.condition == "" {
		r.condition = "2"
	}
	return strings.Join([]string{
		r.id + " ", r.courier + " ", r.age, r.rating,
		r.coords[0], r.coords[1], r.coords[2], r.coords[3],
		r.date, "11:30:00", "11:45:00", r.weather, r.traffic + " ", r.condition,
		r.orderType + " ", "motorcycle ", "0", r.festival + " ", r.city + " ", "(min) " + r.minutes,
	}, ",")
}

// sampleRows 6行原始数据，其中2行含缺失标记
var sampleRows = []orderRow{
	{id: "0x01", courier: "C1", age: "37", rating: "4.9", date: "19-03-2022", traffic: "High", festival: "No", city: "Urban", minutes: "24"},
	{id: "0x02", courier: "C2", age: "34", rating: "4.5", coords: farCoords, date: "25-03-2022", weather: "conditions Stormy", traffic: "Jam", orderType: "Meal", condition: "1", festival: "No", city: "Metropolitian", minutes: "33"},
	{id: "0x03", courier: "C1", age: "37", rating: "4.4", date: "15-03-2022", weather: "conditions Sandstorms", traffic: "Low", orderType: "Drinks", festival: "Yes", city: "Urban", minutes: "26"},
	{id: "0x04", courier: "C3", age: "38", rating: "4.7", coords: farCoords, date: "13-04-2022", traffic: "Medium", orderType: "Buffet", festival: "No", city: "Metropolitian", minutes: "21"},
	{id: "0x05", courier: "C4", age: "NaN", rating: "NaN", date: "20-03-2022", traffic: "Low", festival: "No", city: "Urban", minutes: "30"},
	{id: "0x06", courier: "C5", age: "22", rating: "4.8", date: "11-03-2022", traffic: "NaN", festival: "No", city: "Semi-Urban", minutes: "40"},
}

func rawFrame(t *testing.T, rows ...orderRow) dataframe.DataFrame {
	t.Helper()
	lines := []string{csvHeader}
	for _, r := range rows {
		lines = append(lines, r.csv())
	}
	df := dataframe.ReadCSV(strings.NewReader(strings.Join(lines, "\n")),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	require.NoError(t, df.Err)
	return df
}

func cleanBatch(t *testing.T, rows ...orderRow) Batch {
	t.Helper()
	b, err := CleanOrders(rawFrame(t, rows...), DefaultCleanOptions())
	require.NoError(t, err)
	return b
}
