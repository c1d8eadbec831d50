package processor

import (
	"CuryDashboard/src/config"
	"CuryDashboard/src/utils"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// CleanOptions 清洗参数，来自dataconfig.json
type CleanOptions struct {
	StripColumns  []string
	MissingMarker string
	UnitToken     string
	DateLayout    string
}

// OptionsFrom 从DataConfig取出清洗参数
func OptionsFrom(dcfg *config.DataConfig) CleanOptions {
	return CleanOptions{
		StripColumns:  append([]string(nil), dcfg.StripColumns...),
		MissingMarker: dcfg.MissingMarker,
		UnitToken:     dcfg.UnitToken,
		DateLayout:    dcfg.DateLayout,
	}
}

// DefaultCleanOptions 默认清洗参数
func DefaultCleanOptions() CleanOptions {
	return OptionsFrom(config.DefaultData())
}

// CleanOrders 清洗原始订单数据
//  1. 去掉字符串列两端空白和单位标记
//  2. 删除含缺失标记的行
//  3. 转换列类型，任何一个值转换失败都返回错误
//  4. 派生 week_of_year 列
//
// raw 的所有列应为字符串类型，raw 本身不会被修改
func CleanOrders(raw dataframe.DataFrame, opts CleanOptions) (Batch, error) {
	if raw.Err != nil {
		return Batch{}, fmt.Errorf("clean orders: %w", raw.Err)
	}

	required := append([]string{}, opts.StripColumns...)
	for _, c := range castColumns {
		required = append(required, c.name)
	}
	required = append(required, coordinateColumns...)
	if missing := utils.MissingColumns(raw, required...); len(missing) > 0 {
		return Batch{}, fmt.Errorf("clean orders: %w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}

	df := raw.Copy()

	// 1. 去除空白和单位
	for _, name := range opts.StripColumns {
		values := df.Col(name).Records()
		for i, v := range values {
			values[i] = stripValue(v, opts.UnitToken)
		}
		df = df.Mutate(series.New(values, series.String, name))
	}
	if df.Err != nil {
		return Batch{}, fmt.Errorf("clean orders: %w", df.Err)
	}

	// 2. 删除缺失行
	for _, name := range opts.StripColumns {
		df = df.Filter(dataframe.F{
			Colname:    name,
			Comparator: series.CompFunc,
			Comparando: func(el series.Element) bool {
				return !el.IsNA() && el.String() != opts.MissingMarker
			},
		})
	}
	if df.Err != nil {
		return Batch{}, fmt.Errorf("clean orders: %w", df.Err)
	}

	// 3. 类型转换
	for _, c := range castColumns {
		col, err := castColumn(df.Col(c.name), c.kind, opts.DateLayout)
		if err != nil {
			return Batch{}, err
		}
		df = df.Mutate(col)
	}

	// 坐标列不做校验
	for _, name := range coordinateColumns {
		df = df.Mutate(series.New(df.Col(name).Records(), series.Float, name))
	}

	df = df.Mutate(weekColumn(df.Col(ColOrderDate)))
	if df.Err != nil {
		return Batch{}, fmt.Errorf("clean orders: %w", df.Err)
	}
	return NewBatch(df), nil
}

// stripValue 去掉两端空白和单位标记，例如 "(min) 24" -> "24"
func stripValue(v, unit string) string {
	v = strings.TrimSpace(v)
	if unit != "" {
		v = strings.TrimSpace(strings.TrimPrefix(v, unit))
		v = strings.TrimSpace(strings.TrimSuffix(v, unit))
	}
	return v
}

func castColumn(s series.Series, kind castKind, layout string) (series.Series, error) {
	records := s.Records()
	switch kind {
	case castInt:
		values := make([]int, len(records))
		for i, r := range records {
			n, err := strconv.Atoi(strings.TrimSpace(r))
			if err != nil {
				return series.Series{}, &CastError{Row: i, Column: s.Name, Value: r, Err: err}
			}
			values[i] = n
		}
		return series.New(values, series.Int, s.Name), nil
	case castFloat:
		values := make([]float64, len(records))
		for i, r := range records {
			f, err := strconv.ParseFloat(strings.TrimSpace(r), 64)
			if err == nil && math.IsNaN(f) {
				err = fmt.Errorf("NaN value")
			}
			if err != nil {
				return series.Series{}, &CastError{Row: i, Column: s.Name, Value: r, Err: err}
			}
			values[i] = f
		}
		return series.New(values, series.Float, s.Name), nil
	case castDate:
		values := make([]string, len(records))
		for i, r := range records {
			t, err := time.Parse(layout, strings.TrimSpace(r))
			if err != nil {
				return series.Series{}, &CastError{Row: i, Column: s.Name, Value: r, Err: err}
			}
			values[i] = t.Format(isoDate)
		}
		return series.New(values, series.String, s.Name), nil
	}
	return series.Series{}, fmt.Errorf("unknown cast kind %d", kind)
}

const isoDate = "2006-01-02"

// WeekOfYear 一年中的第几周，周日为一周的第一天，第一个周日之前为第00周
func WeekOfYear(t time.Time) string {
	yday := t.YearDay() - 1
	week := (yday + 7 - int(t.Weekday())) / 7
	return fmt.Sprintf("%02d", week)
}

func weekColumn(dates series.Series) series.Series {
	records := dates.Records()
	weeks := make([]string, len(records))
	for i, r := range records {
		t, err := time.Parse(isoDate, r)
		if err != nil {
			continue
		}
		weeks[i] = WeekOfYear(t)
	}
	return series.New(weeks, series.String, ColWeek)
}
