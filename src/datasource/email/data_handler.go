// data_handler.go
package email

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"

	"CuryDashboard/src/datasource/file"
	"CuryDashboard/src/processor"
)

// ErrUnsupportedAttachment 附件不是数据集格式
var ErrUnsupportedAttachment = errors.New("unsupported attachment")

// IsDataset 附件是否是.csv/.xlsx数据集
func IsDataset(a *Attachment) bool {
	switch strings.ToLower(filepath.Ext(a.Filename)) {
	case ".csv", ".xlsx":
		return true
	}
	return false
}

// AttachmentFrame 把附件读成原始DataFrame，所有列都是字符串
func AttachmentFrame(a *Attachment) (dataframe.DataFrame, error) {
	switch strings.ToLower(filepath.Ext(a.Filename)) {
	case ".csv":
		return file.ReadCSV(bytes.NewReader(a.Content))
	case ".xlsx":
		return file.ReadXLSXBinary(a.Content, "")
	default:
		return dataframe.DataFrame{}, fmt.Errorf("%w: %s", ErrUnsupportedAttachment, a.Filename)
	}
}

// ValidateAttachment 读取附件并试清洗一遍
// 清洗失败的附件不能替换当前数据集
func ValidateAttachment(a *Attachment, opts processor.CleanOptions) (dataframe.DataFrame, processor.Batch, error) {
	raw, err := AttachmentFrame(a)
	if err != nil {
		return raw, processor.Batch{}, err
	}
	batch, err := processor.CleanOrders(raw, opts)
	if err != nil {
		return raw, processor.Batch{}, fmt.Errorf("附件 %s 清洗失败: %w", a.Filename, err)
	}
	if batch.Empty() {
		return raw, batch, fmt.Errorf("附件 %s 清洗后没有数据", a.Filename)
	}
	return raw, batch, nil
}
