// data.go
package processor

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/go-gota/gota/dataframe"
)

var (
	// ErrMissingColumn 数据集缺少必需的列
	ErrMissingColumn = errors.New("missing column")
	// ErrCast 列值无法转换为目标类型
	ErrCast = errors.New("cast failed")
)

// CastError 记录转换失败的位置
type CastError struct {
	Row    int
	Column string
	Value  string
	Err    error
}

func (e *CastError) Error() string {
	return fmt.Sprintf("cast %s at row %d (%q): %v", e.Column, e.Row, e.Value, e.Err)
}

func (e *CastError) Unwrap() error { return e.Err }

func (e *CastError) Is(target error) bool { return target == ErrCast }

// Batch 清洗后的订单数据，只读
// Order_Date 以 "2006-01-02" 字符串保存
type Batch struct {
	df dataframe.DataFrame
}

// NewBatch 包装一个已经清洗过的DataFrame
func NewBatch(df dataframe.DataFrame) Batch {
	return Batch{df: df}
}

func (b Batch) Frame() dataframe.DataFrame { return b.df }

func (b Batch) Len() int {
	if b.df.Ncol() == 0 {
		return 0
	}
	return b.df.Nrow()
}

func (b Batch) Empty() bool { return b.Len() == 0 }

func (b Batch) Names() []string { return b.df.Names() }

// Stat 聚合结果，NaN序列化为null
type Stat float64

func NaN() Stat { return Stat(math.NaN()) }

func (s Stat) Float() float64 { return float64(s) }

func (s Stat) IsNaN() bool { return math.IsNaN(float64(s)) }

// Round 保留places位小数
func (s Stat) Round(places int) Stat {
	if s.IsNaN() {
		return s
	}
	p := math.Pow(10, float64(places))
	return Stat(math.Round(float64(s)*p) / p)
}

func (s Stat) String() string {
	if s.IsNaN() {
		return "NaN"
	}
	return strconv.FormatFloat(float64(s), 'f', 2, 64)
}

func (s Stat) MarshalJSON() ([]byte, error) {
	if s.IsNaN() || math.IsInf(float64(s), 0) {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(float64(s), 'f', -1, 64)), nil
}
