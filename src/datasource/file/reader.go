// reader.go
package file

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/tealeg/xlsx"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const Number string = "^[0-9]+(\\.[0-9]+)?$"

var numberRe = regexp.MustCompile(Number)

// LoadOrders 按扩展名读取订单数据集(.csv/.xlsx)，所有列都是字符串
func LoadOrders(path string) (dataframe.DataFrame, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return dataframe.DataFrame{}, fmt.Errorf("open dataset: %w", err)
		}
		defer f.Close()
		return ReadCSV(f)
	case ".xlsx":
		return ReadXLSX(path, "")
	default:
		return dataframe.DataFrame{}, fmt.Errorf("unsupported dataset format: %s", path)
	}
}

// ReadCSV 读取CSV，去掉UTF-8 BOM，不做类型推断
func ReadCSV(r io.Reader) (dataframe.DataFrame, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	df := dataframe.ReadCSV(decoded,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.WithLazyQuotes(true),
	)
	if df.Err != nil {
		return df, fmt.Errorf("read csv: %w", df.Err)
	}
	return df, nil
}

// ReadXLSX 读取xlsx文件，sheetName为空时取第一个工作表
func ReadXLSX(filePath, sheetName string) (dataframe.DataFrame, error) {
	// 1. 使用tealeg/xlsx打开Excel文件
	xlFile, err := xlsx.OpenFile(filePath)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("xlsx open file false: %w", err)
	}
	return sheetFrame(xlFile, sheetName)
}

// ReadXLSXBinary 从内存读取xlsx(邮件附件)
func ReadXLSXBinary(data []byte, sheetName string) (dataframe.DataFrame, error) {
	xlFile, err := xlsx.OpenBinary(data)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("xlsx open binary false: %w", err)
	}
	return sheetFrame(xlFile, sheetName)
}

func sheetFrame(xlFile *xlsx.File, sheetName string) (dataframe.DataFrame, error) {
	// 2. 获取工作表
	if len(xlFile.Sheets) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("excel文件中没有工作表")
	}
	sheet := xlFile.Sheets[0]
	if sheetName != "" {
		s, ok := xlFile.Sheet[sheetName]
		if !ok {
			return dataframe.DataFrame{}, fmt.Errorf("工作表 %s 不存在", sheetName)
		}
		sheet = s
	}

	// 3. 转换为Gota DataFrame
	return convertSheetToDataFrame(sheet)
}

// convertSheetToDataFrame 将xlsx.Sheet转换为dataframe.DataFrame
// 第一行是标题行
func convertSheetToDataFrame(sheet *xlsx.Sheet) (dataframe.DataFrame, error) {
	if len(sheet.Rows) < 2 {
		return dataframe.DataFrame{}, fmt.Errorf("工作表 %s 没有数据", sheet.Name)
	}

	var headers []string
	for _, cell := range sheet.Rows[0].Cells {
		headers = append(headers, strings.TrimSpace(cell.String()))
	}

	// 准备数据列
	columns := make([][]string, len(headers))
	for i := range columns {
		columns[i] = make([]string, 0, len(sheet.Rows)-1)
	}

	// 填充数据，短行补空字符串
	for _, row := range sheet.Rows[1:] {
		for i := range headers {
			value := ""
			if i < len(row.Cells) {
				value = row.Cells[i].String()
			}
			columns[i] = append(columns[i], value)
		}
	}

	seriesList := make([]series.Series, len(headers))
	for i, colName := range headers {
		values := columns[i]
		if colName == "Order_Date" {
			values = excelDates(values)
		}
		seriesList[i] = series.New(values, series.String, colName)
	}

	df := dataframe.New(seriesList...)
	if df.Err != nil {
		return df, fmt.Errorf("convert sheet: %w", df.Err)
	}
	return df, nil
}

// excelDates 把Excel日期序列号转成 dd-mm-yyyy，其它值原样保留
func excelDates(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v
		if t, ok := excelToTime(strings.TrimSpace(v)); ok {
			out[i] = t.Format("02-01-2006")
		}
	}
	return out
}

// excel时间类型转time.Time类型
func excelToTime(v string) (time.Time, bool) {
	// 1. 检查是否为数值
	if !numberRe.MatchString(v) {
		return time.Time{}, false
	}

	var excelDays float64
	if _, err := fmt.Sscanf(v, "%g", &excelDays); err != nil {
		return time.Time{}, false
	}

	// 2. 以1899-12-30为基准，已包含Excel的1900闰年错误
	base := time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
	days := int(excelDays)
	fraction := excelDays - float64(days)

	// 3. 包含小数部分(一天中的时间)
	result := base.AddDate(0, 0, days).
		Add(time.Duration(86400*fraction*1e9) * time.Nanosecond)
	return result, true
}
