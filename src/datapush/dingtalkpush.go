package datapush

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"CuryDashboard/src/config"
)

// 常量定义
const (
	RETRY_TIMES    = 5
	RETRY_INTERVAL = 2 * time.Second
	HTTP_TIMEOUT   = 10 * time.Second
	// 机器人每分钟最多20条
	SEND_INTERVAL  = 3 * time.Second
)

var ErrDisabled = errors.New("dingtalk push disabled: webhook not configured")

// 钉钉 API 响应结构体
type DingTalkResponse struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

// markdown 消息
type markdownMessage struct {
	MsgType  string `json:"msgtype"`
	Markdown struct {
		Title string `json:"title"`
		Text  string `json:"text"`
	} `json:"markdown"`
}

// Pusher 钉钉群机器人推送
type Pusher struct {
	webhook  string
	secret   string
	client   *http.Client
	limiter  *rate.Limiter
	retries  int
	interval time.Duration
	now      func() time.Time
}

func NewPusher(c *config.Config) *Pusher {
	return &Pusher{
		webhook:  c.Push.Webhook,
		secret:   c.Push.Secret,
		client:   &http.Client{Timeout: HTTP_TIMEOUT},
		limiter:  rate.NewLimiter(rate.Every(SEND_INTERVAL), 1),
		retries:  RETRY_TIMES,
		interval: RETRY_INTERVAL,
		now:      time.Now,
	}
}

func (p *Pusher) Enabled() bool { return p.webhook != "" }

// signedURL 加签: timestamp + "\n" + secret 做 HmacSHA256 后 base64
func (p *Pusher) signedURL() (string, error) {
	if p.secret == "" {
		return p.webhook, nil
	}
	u, err := url.Parse(p.webhook)
	if err != nil {
		return "", fmt.Errorf("解析 webhook 失败: %v", err)
	}
	timestamp := strconv.FormatInt(p.now().UnixMilli(), 10)
	mac := hmac.New(sha256.New, []byte(p.secret))
	mac.Write([]byte(timestamp + "\n" + p.secret))

	q := u.Query()
	q.Set("timestamp", timestamp)
	q.Set("sign", base64.StdEncoding.EncodeToString(mac.Sum(nil)))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// PushMarkdown 发送markdown消息，失败时重试
func (p *Pusher) PushMarkdown(ctx context.Context, title, text string) error {
	if !p.Enabled() {
		return ErrDisabled
	}
	msg := markdownMessage{MsgType: "markdown"}
	msg.Markdown.Title = title
	msg.Markdown.Text = text

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("序列化请求体失败: %v", err)
	}
	return retry(ctx, func() error {
		return p.send(ctx, payload)
	}, p.retries, p.interval)
}

func (p *Pusher) send(ctx context.Context, payload []byte) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}
	// 每次请求重新签名，钉钉要求时间戳在1小时内
	target, err := p.signedURL()
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("创建请求失败: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("发送请求失败: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("读取响应失败: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("发送消息失败: HTTP %d", resp.StatusCode)
	}

	var result DingTalkResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return fmt.Errorf("解析响应失败: %v", err)
	}
	if result.ErrCode != 0 {
		return fmt.Errorf("发送消息失败: %s", result.ErrMsg)
	}
	return nil
}

// 重试函数
func retry(ctx context.Context, fn func() error, times int, interval time.Duration) error {
	var err error
	for i := 0; i < times; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i < times-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(interval):
			}
		}
	}
	return fmt.Errorf("重试 %d 次后失败: %v", times, err)
}
