package datapush

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"CuryDashboard/src/config"
	"CuryDashboard/src/datasource/file"
	"CuryDashboard/src/processor"
)

func newTestPusher(webhook, secret string) *Pusher {
	cfg := config.Default()
	cfg.Push.Webhook = webhook
	cfg.Push.Secret = secret
	p := NewPusher(cfg)
	p.interval = time.Millisecond
	p.limiter = rate.NewLimiter(rate.Inf, 1)
	p.now = func() time.Time { return time.UnixMilli(1650000000000) }
	return p
}

func TestPushMarkdownSigned(t *testing.T) {
	var got markdownMessage
	var query map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = map[string]string{
			"access_token": r.URL.Query().Get("access_token"),
			"timestamp":    r.URL.Query().Get("timestamp"),
			"sign":         r.URL.Query().Get("sign"),
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"errcode":0,"errmsg":"ok"}`))
	}))
	defer srv.Close()

	p := newTestPusher(srv.URL+"/robot/send?access_token=abc", "SECtest")
	require.NoError(t, p.PushMarkdown(context.Background(), "daily", "### hello"))

	assert.Equal(t, "markdown", got.MsgType)
	assert.Equal(t, "daily", got.Markdown.Title)
	assert.Equal(t, "### hello", got.Markdown.Text)

	mac := hmac.New(sha256.New, []byte("SECtest"))
	mac.Write([]byte("1650000000000\nSECtest"))
	assert.Equal(t, "abc", query["access_token"])
	assert.Equal(t, "1650000000000", query["timestamp"])
	assert.Equal(t, base64.StdEncoding.EncodeToString(mac.Sum(nil)), query["sign"])
}

func TestPushMarkdownRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.Write([]byte(`{"errcode":130101,"errmsg":"send too fast"}`))
			return
		}
		w.Write([]byte(`{"errcode":0,"errmsg":"ok"}`))
	}))
	defer srv.Close()

	p := newTestPusher(srv.URL, "")
	require.NoError(t, p.PushMarkdown(context.Background(), "t", "x"))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestPushMarkdownGivesUp(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{"errcode":310000,"errmsg":"sign not match"}`))
	}))
	defer srv.Close()

	p := newTestPusher(srv.URL, "bad")
	err := p.PushMarkdown(context.Background(), "t", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sign not match")
	assert.Equal(t, int32(RETRY_TIMES), atomic.LoadInt32(&calls))
}

func TestPushMarkdownRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errcode":0,"errmsg":"ok"}`))
	}))
	defer srv.Close()

	p := newTestPusher(srv.URL, "")
	p.limiter = rate.NewLimiter(rate.Every(time.Hour), 1)
	require.NoError(t, p.PushMarkdown(context.Background(), "t", "first"))

	// 第二条要等一个小时，ctx先超时
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.Error(t, p.PushMarkdown(ctx, "t", "second"))
}

func TestPushDisabled(t *testing.T) {
	p := newTestPusher("", "")
	assert.False(t, p.Enabled())
	assert.ErrorIs(t, p.PushMarkdown(context.Background(), "t", "x"), ErrDisabled)
}

func TestSummary(t *testing.T) {
	raw, err := file.ReadCSV(strings.NewReader(
		"ID,Delivery_person_ID,Delivery_person_Age,Delivery_person_Ratings," +
			"Restaurant_latitude,Restaurant_longitude,Delivery_location_latitude,Delivery_location_longitude," +
			"Order_Date,Time_Orderd,Time_Order_picked,Weatherconditions,Road_traffic_density,Vehicle_condition," +
			"Type_of_order,Type_of_vehicle,multiple_deliveries,Festival,City,Time_taken(min)\n" +
			"0x4607 ,INDORES13DEL02 ,37,4.9,22.745049,75.892471,22.765049,75.912471,19-03-2022,11:30:00,11:45:00,conditions Sunny,High ,2,Snack ,motorcycle ,0,No ,Urban ,(min) 24\n" +
			"0xb379 ,BANGRES18DEL02 ,34,4.5,12.913041,77.683237,13.043041,77.813237,25-03-2022,19:45:00,19:50:00,conditions Stormy,Jam ,2,Meal ,scooter ,1,No ,Metropolitian ,(min) 33\n"))
	require.NoError(t, err)
	b, err := processor.CleanOrders(raw, processor.DefaultCleanOptions())
	require.NoError(t, err)

	cutoff := time.Date(2022, 4, 13, 0, 0, 0, 0, time.UTC)
	title, text, err := Summary(b, cutoff)
	require.NoError(t, err)
	assert.Equal(t, "Cury Company 2022-04-13", title)
	assert.Contains(t, text, "Orders before 2022-04-13: **2**")
	assert.Contains(t, text, "Mean delivery time: **28.50** min")
	assert.Contains(t, text, "- Jam: 1 (50.00%)")
	assert.Contains(t, text, "Courier age: 34.00 ~ 37.00")

	// 没有勾选交通状况时结果为空
	_, text, err = Summary(processor.Filter{Cutoff: cutoff}.Apply(b), cutoff)
	require.NoError(t, err)
	assert.Contains(t, text, "Mean delivery time: **NaN** min")
}
