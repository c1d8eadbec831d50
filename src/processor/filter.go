package processor

import (
	"CuryDashboard/src/utils"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Filter 页面侧边栏的筛选条件
type Filter struct {
	Cutoff  time.Time // 只保留 Order_Date < Cutoff 的订单
	Traffic []string  // 只保留这些交通状况
}

// Apply 按日期和交通状况筛选，b 不会被修改
// 空的 Traffic 得到空结果
func (f Filter) Apply(b Batch) Batch {
	if b.Empty() {
		return b
	}
	cutoff := f.Cutoff.Format(isoDate)
	traffic := append([]string(nil), f.Traffic...)

	df := b.df.Filter(dataframe.F{
		Colname:    ColOrderDate,
		Comparator: series.CompFunc,
		Comparando: func(el series.Element) bool {
			return el.String() < cutoff
		},
	})
	df = df.Filter(dataframe.F{
		Colname:    ColTraffic,
		Comparator: series.CompFunc,
		Comparando: func(el series.Element) bool {
			return utils.Contains(traffic, el.String())
		},
	})
	return NewBatch(df)
}
