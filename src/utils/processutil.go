package utils

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"
)

func Contains[T comparable](slice []T, item T) bool {
	for _, v := range slice {
		if v == item {
			return true
		}
	}
	return false
}

// 辅助函数：判断DataFrame是否有某列
func HasColumn(df dataframe.DataFrame, name string) bool {
	return Contains(df.Names(), name)
}

// MissingColumns 返回df中不存在的列名
func MissingColumns(df dataframe.DataFrame, names ...string) []string {
	have := df.Names()
	var missing []string
	for _, n := range names {
		if !Contains(have, n) && !Contains(missing, n) {
			missing = append(missing, n)
		}
	}
	return missing
}

// Group 一个分组：分组键的取值和组内数据
type Group struct {
	Keys  []string
	Frame dataframe.DataFrame
}

// GroupFrames 按keys分组，只保留keys和cols列
// 空DataFrame返回空结果，结果按分组键升序排列
func GroupFrames(df dataframe.DataFrame, keys []string, cols ...string) ([]Group, error) {
	if df.Err != nil {
		return nil, df.Err
	}
	if df.Ncol() == 0 || df.Nrow() == 0 {
		return nil, nil
	}

	selected := append(append([]string{}, keys...), cols...)
	sub := df.Select(selected)
	if sub.Err != nil {
		return nil, fmt.Errorf("group by %v: %w", keys, sub.Err)
	}

	gps := sub.GroupBy(keys...)
	if gps == nil {
		return nil, fmt.Errorf("group by: no keys")
	}
	if gps.Err != nil {
		return nil, fmt.Errorf("group by %v: %w", keys, gps.Err)
	}

	groups := make([]Group, 0, len(gps.GetGroups()))
	for _, frame := range gps.GetGroups() {
		if frame.Err != nil {
			return nil, fmt.Errorf("group by %v: %w", keys, frame.Err)
		}
		values := make([]string, len(keys))
		for i, k := range keys {
			values[i] = frame.Col(k).Elem(0).String()
		}
		groups = append(groups, Group{Keys: values, Frame: frame})
	}

	// GroupBy的结果是map，顺序不固定
	sort.Slice(groups, func(i, j int) bool {
		a, b := groups[i].Keys, groups[j].Keys
		for k := range a {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return false
	})
	return groups, nil
}

// Unique 去重后的取值，保持首次出现的顺序
func Unique(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0)
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// WriteExcel 把DataFrame写成xlsx
func WriteExcel(df dataframe.DataFrame, sheetName string, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheetName != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheetName); err != nil {
			return fmt.Errorf("设置工作表名失败: %w", err)
		}
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return fmt.Errorf("创建写入器失败: %w", err)
	}

	// 写入列名
	colNames := df.Names()
	header := make([]interface{}, len(colNames))
	columns := make([]series.Series, len(colNames))
	for i, name := range colNames {
		header[i] = name
		columns[i] = df.Col(name)
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	// 写入数据
	for rowIdx := 0; rowIdx < df.Nrow(); rowIdx++ {
		row := make([]interface{}, len(colNames))
		for colIdx, col := range columns {
			row[colIdx] = col.Val(rowIdx)
		}
		cell, _ := excelize.CoordinatesToCellName(1, rowIdx+2)
		if err := sw.SetRow(cell, row); err != nil {
			return err
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("保存Excel文件失败: %w", err)
	}
	return nil
}

func SaveToExcel(df dataframe.DataFrame, sheetName, filePath string) error {
	f, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("创建文件失败: %w", err)
	}
	defer f.Close()
	return WriteExcel(df, sheetName, f)
}
