package processor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaversine(t *testing.T) {
	assert.InDelta(t, 111.195, Haversine(0, 0, 0, 1), 1e-3)
	assert.InDelta(t, 3.0252, Haversine(22.745049, 75.892471, 22.765049, 75.912471), 1e-4)
	assert.Zero(t, Haversine(10, 10, 10, 10))
	assert.True(t, math.IsNaN(Haversine(math.NaN(), 0, 0, 0)))
}

func TestMeanDistance(t *testing.T) {
	b := cleanBatch(t, sampleRows...)
	// 两单约3.03km，两单约20.18km
	assert.Equal(t, Stat(11.6), MeanDistance(b))

	byCity, err := MeanDistanceByCity(b)
	require.NoError(t, err)
	require.Len(t, byCity, 2)
	assert.Equal(t, "Metropolitian", byCity[0].City)
	assert.InDelta(t, 20.1836, byCity[0].Distance.Float(), 1e-3)
	assert.Equal(t, "Urban", byCity[1].City)
	assert.InDelta(t, 3.0252, byCity[1].Distance.Float(), 1e-3)
}

func TestMeanDistanceSkipsMalformed(t *testing.T) {
	bad := sampleRows[2]
	bad.coords = [4]string{"abc", "75.892471", "22.765049", "75.912471"}
	b := cleanBatch(t, sampleRows[0], bad)

	d := Distances(b)
	require.Len(t, d, 2)
	assert.True(t, math.IsNaN(d[1]))
	assert.Equal(t, Stat(3.03), MeanDistance(b))
}

func TestUniqueCouriers(t *testing.T) {
	assert.Equal(t, 3, UniqueCouriers(cleanBatch(t, sampleRows...)))
}

func TestTimeByFestival(t *testing.T) {
	b := cleanBatch(t, sampleRows...)

	no := TimeByFestival(b, "No")
	assert.Equal(t, Stat(26), no.Mean)
	assert.Equal(t, Stat(6.24), no.Std)

	yes := TimeByFestival(b, "Yes")
	assert.Equal(t, Stat(26), yes.Mean)
	assert.True(t, yes.Std.IsNaN())

	none := TimeByFestival(b, "Maybe")
	assert.True(t, none.Mean.IsNaN())
}

func TestTimeByCity(t *testing.T) {
	got, err := TimeByCity(cleanBatch(t, sampleRows...))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Metropolitian", got[0].Key)
	assert.InDelta(t, 27.0, got[0].Mean.Float(), 1e-9)
	assert.InDelta(t, 8.48528, got[0].Std.Float(), 1e-4)
	assert.Equal(t, "Urban", got[1].Key)
	assert.InDelta(t, 25.0, got[1].Mean.Float(), 1e-9)
	assert.InDelta(t, math.Sqrt2, got[1].Std.Float(), 1e-9)
}

func TestTimeByCityPairs(t *testing.T) {
	b := cleanBatch(t, sampleRows...)

	byType, err := TimeByCityOrderType(b)
	require.NoError(t, err)
	assert.Len(t, byType, 4)
	assert.Equal(t, "Metropolitian", byType[0].City)
	assert.Equal(t, "Buffet", byType[0].Group)
	assert.Equal(t, Stat(21), byType[0].Mean)
	assert.True(t, byType[0].Std.IsNaN())

	byTraffic, err := TimeByCityTraffic(b)
	require.NoError(t, err)
	require.Len(t, byTraffic, 4)
	assert.Equal(t, "Urban", byTraffic[3].City)
	assert.Equal(t, "Low", byTraffic[3].Group)
	assert.Equal(t, Stat(26), byTraffic[3].Mean)
}
