package main

import (
	"CuryDashboard/src/config"
	"CuryDashboard/src/datasource/email"
	"CuryDashboard/src/processor"
	"CuryDashboard/src/storage"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "ID,Delivery_person_ID,Delivery_person_Age,Delivery_person_Ratings," +
	"Restaurant_latitude,Restaurant_longitude,Delivery_location_latitude,Delivery_location_longitude," +
	"Order_Date,Time_Orderd,Time_Order_picked,Weatherconditions,Road_traffic_density,Vehicle_condition," +
	"Type_of_order,Type_of_vehicle,multiple_deliveries,Festival,City,Time_taken(min)\n"

const (
	rowA = "0x4607 ,INDORES13DEL02 ,37,4.9,22.745049,75.892471,22.765049,75.912471,19-03-2022,11:30:00,11:45:00,conditions Sunny,High ,2,Snack ,motorcycle ,0,No ,Urban ,(min) 24\n"
	rowB = "0xb379 ,BANGRES18DEL02 ,34,4.5,12.913041,77.683237,13.043041,77.813237,25-03-2022,19:45:00,19:50:00,conditions Stormy,Jam ,2,Meal ,scooter ,1,No ,Metropolitian ,(min) 33\n"
)

func newTestApp(t *testing.T) *app {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.DataPath = filepath.Join(dir, "train.csv")
	cfg.DataDir = filepath.Join(dir, "archive")
	cfg.LogName = filepath.Join(dir, "app.log")
	cfg.Email.TargetSubject = "orders"
	require.NoError(t, os.WriteFile(cfg.DataPath, []byte(header+rowA), 0644))

	logger, err := storage.NewLogger(cfg.LogName)
	require.NoError(t, err)
	t.Cleanup(func() { logger.Close() })

	return newApp(cfg, config.DefaultData(), logger)
}

type fakeMail struct {
	emails []*email.Email
}

func (f *fakeMail) Connect() error                            { return nil }
func (f *fakeMail) Disconnect()                               {}
func (f *fakeMail) FetchUnreadEmails() ([]*email.Email, error) { return f.emails, nil }

func TestCheckEmailsReloadsDataset(t *testing.T) {
	a := newTestApp(t)
	require.NoError(t, a.store.Reload(context.Background(), "startup"))
	b, err := a.store.Current()
	require.NoError(t, err)
	require.Equal(t, 1, b.Len())

	a.mail = &fakeMail{emails: []*email.Email{{
		UID:         7,
		Date:        time.Now(),
		Subject:     "orders 2022-04",
		Attachments: []*email.Attachment{{Filename: "train.csv", Content: []byte(header + rowA + rowB)}},
	}}}
	a.checkEmails()

	b, err = a.store.Current()
	require.NoError(t, err)
	assert.Equal(t, 2, b.Len())
	assert.Equal(t, "email", a.store.LastReload().Source)

	// 同一封邮件不会再次触发加载
	a.checkEmails()
	assert.Equal(t, "email", a.store.LastReload().Source)
}

func TestCheckEmailsWithoutClient(t *testing.T) {
	a := newTestApp(t)
	a.checkEmails()
	assert.Empty(t, a.store.LastReload().Source)
}

func TestPushReport(t *testing.T) {
	a := newTestApp(t)

	// 未配置webhook和SMTP时不推送
	assert.NoError(t, a.pushReport(context.Background()))

	var got struct {
		MsgType  string `json:"msgtype"`
		Markdown struct {
			Title string `json:"title"`
			Text  string `json:"text"`
		} `json:"markdown"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"errcode":0,"errmsg":"ok"}`))
	}))
	defer srv.Close()
	a.cfg.Push.Webhook = srv.URL
	a = newApp(a.cfg, a.dcfg, a.logger)

	// 数据未加载
	assert.ErrorIs(t, a.pushReport(context.Background()), processor.ErrNotLoaded)

	require.NoError(t, a.store.Reload(context.Background(), "startup"))
	require.NoError(t, a.pushReport(context.Background()))
	assert.Equal(t, "markdown", got.MsgType)
	assert.Equal(t, "Cury Company 2022-04-13", got.Markdown.Title)
	assert.Contains(t, got.Markdown.Text, "Orders before 2022-04-13: **1**")
}

func TestSchedule(t *testing.T) {
	a := newTestApp(t)
	c, err := a.schedule()
	require.NoError(t, err)
	// reload、push、日志轮转；没有邮件客户端时不检查邮件
	assert.Len(t, c.Entries(), 3)

	a.cfg.Push.Schedule = "every morning"
	_, err = a.schedule()
	assert.Error(t, err)
}

func TestWritePidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashboard.pid")
	require.NoError(t, writePidFile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), string(data))

	assert.Error(t, writePidFile(""))
}
