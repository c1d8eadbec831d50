// report.go
package email

import (
	"bytes"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"

	"CuryDashboard/src/config"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportSender 通过SMTP(SSL)发送日报邮件
type ReportSender struct {
	server   string
	username string
	password string
	to       []string
	subject  string
}

func NewReportSender(c *config.Config) *ReportSender {
	return &ReportSender{
		server:   c.SendEmail.Server,
		username: c.SendEmail.Username,
		password: c.SendEmail.Password,
		to:       c.SendEmail.To,
		subject:  c.SendEmail.TargetSubject,
	}
}

// Enabled 配置了服务器和收件人才发送
func (r *ReportSender) Enabled() bool {
	return r.server != "" && len(r.to) > 0
}

// Build 构建邮件，attachment为空时不带附件
func (r *ReportSender) Build(body, attachmentName string, attachment []byte) (*email.Email, error) {
	e := email.NewEmail()
	e.From = fmt.Sprintf("Cury Dashboard <%s>", r.username)
	e.To = r.to
	e.Subject = r.subject
	e.Text = []byte(body)

	if len(attachment) > 0 {
		if _, err := e.Attach(bytes.NewReader(attachment), attachmentName, xlsxContentType); err != nil {
			return nil, fmt.Errorf("附件添加失败: %w", err)
		}
	}
	return e, nil
}

// Send 发送日报
func (r *ReportSender) Send(body, attachmentName string, attachment []byte) error {
	if !r.Enabled() {
		return errors.New("未配置发件服务器或收件人")
	}
	e, err := r.Build(body, attachmentName, attachment)
	if err != nil {
		return err
	}

	// 确保服务器地址包含端口
	smtpAddr := r.server
	if !strings.Contains(smtpAddr, ":") {
		smtpAddr += ":465" // 默认 SSL 端口
	}
	host, _, err := net.SplitHostPort(smtpAddr)
	if err != nil {
		return fmt.Errorf("无效的服务器地址 %s: %w", smtpAddr, err)
	}

	// 显式 TLS
	err = e.SendWithTLS(
		smtpAddr,
		smtp.PlainAuth("", r.username, r.password, host),
		&tls.Config{ServerName: host},
	)
	if err != nil {
		return fmt.Errorf("邮件发送失败: %w (Server: %s)", err, smtpAddr)
	}
	return nil
}
