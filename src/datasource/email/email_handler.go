// email_handler.go
package email

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-gota/gota/dataframe"

	"CuryDashboard/src/processor"
	"CuryDashboard/src/storage"
	"CuryDashboard/src/utils"
)

// ====================== 邮件处理器实现 ======================

var (
	// ErrAlreadyProcessed 同一封邮件只处理一次
	ErrAlreadyProcessed = errors.New("邮件已处理")
	// ErrNoDataset 邮件中没有可用的数据集附件
	ErrNoDataset = errors.New("邮件中没有数据集附件")
)

// DatasetAttachmentHandler 把邮件里的数据集附件替换为当前数据集
// 附件先归档到ArchiveDir，试清洗通过后再原子替换DataPath
type DatasetAttachmentHandler struct {
	TargetSubject string // 目标邮件主题关键词
	DataPath      string // 当前数据集路径
	ArchiveDir    string // 附件归档目录
	opts          processor.CleanOptions
	logger        *storage.Logger
	now           func() time.Time
	processedUIDs map[uint32]bool // 已处理邮件UID记录
	mu            sync.RWMutex    // 保护processedUIDs的读写锁
}

func NewDatasetAttachmentHandler(subject, dataPath, archiveDir string, opts processor.CleanOptions, logger *storage.Logger) *DatasetAttachmentHandler {
	return &DatasetAttachmentHandler{
		TargetSubject: subject,
		DataPath:      dataPath,
		ArchiveDir:    archiveDir,
		opts:          opts,
		logger:        logger,
		now:           time.Now,
		processedUIDs: make(map[uint32]bool),
	}
}

// IsProcessed 检查邮件是否已处理过（线程安全）
func (h *DatasetAttachmentHandler) IsProcessed(uid uint32) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.processedUIDs[uid]
}

// markAsProcessed 标记邮件为已处理（线程安全）
func (h *DatasetAttachmentHandler) markAsProcessed(uid uint32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.processedUIDs[uid] = true
}

// Handle 处理单个邮件
// 使用第一个能通过清洗的数据集附件，其余附件忽略
func (h *DatasetAttachmentHandler) Handle(email *Email) error {
	if h.IsProcessed(email.UID) {
		return ErrAlreadyProcessed
	}

	if !strings.Contains(email.Subject, h.TargetSubject) {
		h.logger.Debug(fmt.Sprintf("跳过主题不匹配的邮件: %s", email.Subject))
		return ErrNoDataset
	}

	h.logger.Info(fmt.Sprintf("处理邮件: %s 发件人: %s 日期: %s",
		email.Subject, email.From, email.Date.Format("2006-01-02 15:04:05")))

	var lastErr error
	for _, attachment := range email.Attachments {
		if !IsDataset(attachment) {
			continue
		}
		h.logger.Info("找到数据集附件: " + attachment.Filename)

		if err := h.archive(attachment); err != nil {
			h.logger.Warning(err.Error())
		}

		raw, batch, err := ValidateAttachment(attachment, h.opts)
		if err != nil {
			h.logger.Warning(err.Error())
			lastErr = err
			continue
		}

		if err := h.replaceDataset(attachment, raw); err != nil {
			return err
		}
		h.markAsProcessed(email.UID)
		h.logger.Info(fmt.Sprintf("数据集已替换: %s (%d行可用)", h.DataPath, batch.Len()))
		return nil
	}

	// 附件都不可用也记为已处理，避免每次检查重复报错
	h.markAsProcessed(email.UID)
	if lastErr != nil {
		return fmt.Errorf("%w: %v", ErrNoDataset, lastErr)
	}
	return ErrNoDataset
}

// archive 原样保存附件，文件名加上时间戳
func (h *DatasetAttachmentHandler) archive(a *Attachment) error {
	if h.ArchiveDir == "" {
		return nil
	}
	if err := os.MkdirAll(h.ArchiveDir, 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}
	name := h.now().Format("20060102150405") + "_" + filepath.Base(a.Filename)
	if err := os.WriteFile(filepath.Join(h.ArchiveDir, name), a.Content, 0644); err != nil {
		return fmt.Errorf("保存附件失败: %w", err)
	}
	return nil
}

// replaceDataset 写临时文件后重命名，读取方不会看到写了一半的文件
// 附件格式和DataPath不同时转换格式
func (h *DatasetAttachmentHandler) replaceDataset(a *Attachment, raw dataframe.DataFrame) error {
	dir := filepath.Dir(h.DataPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".dataset-*")
	if err != nil {
		return fmt.Errorf("创建临时文件失败: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := writeDataset(tmp, a, raw, filepath.Ext(h.DataPath)); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("保存数据集失败: %w", err)
	}
	if err := os.Rename(tmpName, h.DataPath); err != nil {
		return fmt.Errorf("替换数据集失败: %w", err)
	}
	return nil
}

func writeDataset(w io.Writer, a *Attachment, raw dataframe.DataFrame, targetExt string) error {
	targetExt = strings.ToLower(targetExt)
	if strings.ToLower(filepath.Ext(a.Filename)) == targetExt {
		if _, err := w.Write(a.Content); err != nil {
			return fmt.Errorf("保存数据集失败: %w", err)
		}
		return nil
	}

	switch targetExt {
	case ".csv":
		if err := raw.WriteCSV(w); err != nil {
			return fmt.Errorf("转换为csv失败: %w", err)
		}
	case ".xlsx":
		if err := utils.WriteExcel(raw, "Sheet1", w); err != nil {
			return fmt.Errorf("转换为xlsx失败: %w", err)
		}
	default:
		return fmt.Errorf("%w: dataset path %s", ErrUnsupportedAttachment, targetExt)
	}
	return nil
}
