package processor

import (
	"errors"
	"testing"
	"time"

	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanOrders(t *testing.T) {
	raw := rawFrame(t, sampleRows...)
	b, err := CleanOrders(raw, DefaultCleanOptions())
	require.NoError(t, err)

	assert.Equal(t, 4, b.Len())
	assert.LessOrEqual(t, b.Len(), raw.Nrow())
	assert.Equal(t, 6, raw.Nrow(), "原始数据不应被修改")

	df := b.Frame()
	assert.Equal(t, []string{"0x01", "0x02", "0x03", "0x04"}, df.Col(ColID).Records())
	assert.Equal(t, []string{"Urban", "Metropolitian", "Urban", "Metropolitian"}, df.Col(ColCity).Records())
	assert.Equal(t, []string{"High", "Jam", "Low", "Medium"}, df.Col(ColTraffic).Records())
	assert.Equal(t, []string{"2022-03-19", "2022-03-25", "2022-03-15", "2022-04-13"}, df.Col(ColOrderDate).Records())
	assert.Equal(t, []string{"11", "12", "11", "15"}, df.Col(ColWeek).Records())

	minutes, err := df.Col(ColTimeTaken).Int()
	require.NoError(t, err)
	assert.Equal(t, []int{24, 33, 26, 21}, minutes)

	assert.Equal(t, series.Int, df.Col(ColCourierAge).Type())
	assert.Equal(t, series.Float, df.Col(ColCourierRating).Type())
	assert.Equal(t, series.Int, df.Col(ColVehicleCondition).Type())
	assert.Equal(t, series.Int, df.Col(ColMultiple).Type())
	assert.Equal(t, series.Int, df.Col(ColTimeTaken).Type())
	assert.Equal(t, series.Float, df.Col(ColDeliveryLat).Type())

	for _, name := range DefaultCleanOptions().StripColumns {
		assert.NotContains(t, df.Col(name).Records(), "NaN", name)
	}
}

func TestCleanOrdersCastError(t *testing.T) {
	bad := sampleRows[0]
	bad.age = "abc"
	_, err := CleanOrders(rawFrame(t, sampleRows[1], bad), DefaultCleanOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCast))

	var castErr *CastError
	require.True(t, errors.As(err, &castErr))
	assert.Equal(t, ColCourierAge, castErr.Column)
	assert.Equal(t, 1, castErr.Row)
	assert.Equal(t, "abc", castErr.Value)

	bad = sampleRows[0]
	bad.date = "2022/03/19"
	_, err = CleanOrders(rawFrame(t, bad), DefaultCleanOptions())
	assert.ErrorIs(t, err, ErrCast)
}

func TestCleanOrdersMissingColumn(t *testing.T) {
	raw := rawFrame(t, sampleRows...).Drop(ColFestival)
	_, err := CleanOrders(raw, DefaultCleanOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), ColFestival)
}

func TestCleanOrdersAllMissing(t *testing.T) {
	b, err := CleanOrders(rawFrame(t, sampleRows[4], sampleRows[5]), DefaultCleanOptions())
	require.NoError(t, err)
	assert.True(t, b.Empty())
}

func TestCleanOrdersMalformedCoordinates(t *testing.T) {
	bad := sampleRows[0]
	bad.coords = [4]string{"abc", "75.892471", "22.765049", "75.912471"}
	b, err := CleanOrders(rawFrame(t, bad), DefaultCleanOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, b.Len())
}

func TestStripValue(t *testing.T) {
	assert.Equal(t, "24", stripValue("(min) 24", "(min)"))
	assert.Equal(t, "Urban", stripValue("Urban ", "(min)"))
	// 只去掉完整的单位标记
	assert.Equal(t, "Jam", stripValue("Jam ", "(min)"))
	assert.Equal(t, "Medium", stripValue(" Medium", "(min)"))
	assert.Equal(t, "x", stripValue(" x ", ""))
}

func TestWeekOfYear(t *testing.T) {
	cases := map[string]string{
		"2022-01-01": "00", // 周六，第一个周日之前
		"2022-01-02": "01",
		"2022-02-11": "06",
		"2022-03-19": "11",
		"2022-04-06": "14",
		"2022-12-31": "52",
	}
	for date, want := range cases {
		d, err := time.Parse("2006-01-02", date)
		require.NoError(t, err)
		assert.Equal(t, want, WeekOfYear(d), date)
	}
}
