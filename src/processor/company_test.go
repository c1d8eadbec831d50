package processor

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filtered(t *testing.T) Batch {
	t.Helper()
	return Filter{Cutoff: date("2022-04-13"), Traffic: allTraffic}.Apply(cleanBatch(t, sampleRows...))
}

func TestOrdersByDay(t *testing.T) {
	got, err := OrdersByDay(filtered(t))
	require.NoError(t, err)
	assert.Equal(t, []DayCount{
		{Date: "2022-03-15", Orders: 1},
		{Date: "2022-03-19", Orders: 1},
		{Date: "2022-03-25", Orders: 1},
	}, got)
}

func TestTrafficOrderShareLowJam(t *testing.T) {
	b := Filter{Cutoff: date("2022-04-13"), Traffic: []string{"Low", "Jam"}}.Apply(cleanBatch(t, sampleRows...))
	require.Equal(t, 2, b.Len())

	got, err := TrafficOrderShare(b)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Jam", got[0].Traffic)
	assert.Equal(t, "Low", got[1].Traffic)
	assert.InDelta(t, 50.0, got[0].Percent, 1e-9)
	assert.InDelta(t, 50.0, got[1].Percent, 1e-9)
}

func TestTrafficOrderShareSumsTo100(t *testing.T) {
	got, err := TrafficOrderShare(cleanBatch(t, sampleRows...))
	require.NoError(t, err)
	require.Len(t, got, 4)

	sum := 0.0
	for _, s := range got {
		sum += s.Percent
	}
	assert.InDelta(t, 100.0, sum, 1e-9)
}

func TestTrafficOrderCity(t *testing.T) {
	got, err := TrafficOrderCity(cleanBatch(t, sampleRows...))
	require.NoError(t, err)
	assert.Equal(t, []CityTrafficCount{
		{City: "Metropolitian", Traffic: "Jam", Orders: 1},
		{City: "Metropolitian", Traffic: "Medium", Orders: 1},
		{City: "Urban", Traffic: "High", Orders: 1},
		{City: "Urban", Traffic: "Low", Orders: 1},
	}, got)
}

func TestOrdersByWeekAndShare(t *testing.T) {
	b := filtered(t)

	weeks, err := OrdersByWeek(b)
	require.NoError(t, err)
	assert.Equal(t, []WeekCount{{Week: "11", Orders: 2}, {Week: "12", Orders: 1}}, weeks)

	share, err := OrderShareByWeek(b)
	require.NoError(t, err)
	require.Len(t, share, 2)
	assert.Equal(t, "11", share[0].Week)
	assert.Equal(t, 2, share[0].Orders)
	assert.Equal(t, 1, share[0].Couriers) // C1 两单
	assert.InDelta(t, 2.0, share[0].OrdersPerCourier.Float(), 1e-9)
	assert.Equal(t, "12", share[1].Week)
	assert.InDelta(t, 1.0, share[1].OrdersPerCourier.Float(), 1e-9)
}

func TestCityTrafficLocations(t *testing.T) {
	got, err := CityTrafficLocations(cleanBatch(t, sampleRows...))
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, "Metropolitian", got[0].City)
	assert.Equal(t, "Jam", got[0].Traffic)
	assert.InDelta(t, 13.043041, got[0].Latitude.Float(), 1e-9)
	assert.InDelta(t, 77.813237, got[0].Longitude.Float(), 1e-9)
}

func TestMedianSkipsNaN(t *testing.T) {
	rows := []orderRow{sampleRows[0], sampleRows[2], sampleRows[2]}
	rows[1].coords = [4]string{"22.7", "75.8", "bad", "75.9"}
	rows[2].coords = [4]string{"22.7", "75.8", "10", "75.9"}
	got, err := CityTrafficLocations(cleanBatch(t, rows...))
	require.NoError(t, err)
	require.Len(t, got, 2)
	// Urban/Low 组只有一个有效纬度
	assert.Equal(t, "Low", got[1].Traffic)
	assert.InDelta(t, 10.0, got[1].Latitude.Float(), 1e-9)
}

func TestStatJSON(t *testing.T) {
	out, err := json.Marshal(struct {
		A Stat `json:"a"`
		B Stat `json:"b"`
	}{A: NaN(), B: 2.5})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":null,"b":2.5}`, string(out))

	assert.Equal(t, Stat(6.24), Stat(6.244997998).Round(2))
	assert.Equal(t, "NaN", NaN().String())
	assert.Equal(t, "3.03", Stat(3.0251).String())
}
