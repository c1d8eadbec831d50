package web

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"CuryDashboard/src/processor"
)

// Metrics 看板的prometheus指标
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	reloads  *prometheus.CounterVec
	rows     prometheus.Gauge
	rawRows  prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cury",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cury",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		reloads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cury",
			Name:      "dataset_reloads_total",
			Help:      "Dataset reloads by trigger and result.",
		}, []string{"source", "result"}),
		rows: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "cury",
			Name:      "dataset_rows",
			Help:      "Rows in the cleaned dataset.",
		}),
		rawRows: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "cury",
			Name:      "dataset_raw_rows",
			Help:      "Rows in the raw dataset before cleaning.",
		}),
	}
}

// Middleware 按chi的路由模式统计请求
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		m.duration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObserveReload 记录一次数据加载
func (m *Metrics) ObserveReload(event processor.ReloadEvent) {
	result := "ok"
	if event.Err != "" {
		result = "error"
	}
	m.reloads.WithLabelValues(event.Source, result).Inc()
	if event.Err == "" {
		m.rows.Set(float64(event.Rows))
		m.rawRows.Set(float64(event.RawRows))
	}
}

// Watch 订阅store的加载事件直到ctx结束
func (m *Metrics) Watch(ctx context.Context, store *processor.Store) {
	sub := store.Subscribe()
	defer store.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-sub:
			if !ok {
				return
			}
			m.ObserveReload(event)
		}
	}
}
