// Package web 看板的HTTP服务: 三个页面、图表PNG、JSON接口、导出、实时日志和websocket通知
package web

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"CuryDashboard/src/chart"
	"CuryDashboard/src/config"
	"CuryDashboard/src/processor"
	"CuryDashboard/src/storage"
	"CuryDashboard/src/utils"
)

var errInvalidFilter = errors.New("invalid filter")

// 用户只看到这条信息，详细错误写日志
const genericError = "Something went wrong while building this page. Please try again later."

// Server 看板HTTP服务
type Server struct {
	store    *processor.Store
	dcfg     *config.DataConfig
	logoPath string
	logger   *storage.Logger
	metrics  *Metrics
	gatherer prometheus.Gatherer
	validate *validator.Validate
	printer  *message.Printer
	pages    map[string]*template.Template
	upgrader websocket.Upgrader
}

// Options 创建Server需要的依赖
type Options struct {
	Store    *processor.Store
	Data     *config.DataConfig
	LogoPath string
	Logger   *storage.Logger
	Metrics  *Metrics
	Gatherer prometheus.Gatherer
}

func NewServer(opts Options) (*Server, error) {
	s := &Server{
		store:    opts.Store,
		dcfg:     opts.Data,
		logoPath: opts.LogoPath,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		gatherer: opts.Gatherer,
		validate: newValidator(opts.Data),
		printer:  message.NewPrinter(language.English),
		upgrader: websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
	}
	pages, err := s.parseTemplates()
	if err != nil {
		return nil, err
	}
	s.pages = pages
	return s, nil
}

// Routes 所有路由
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/company?"+r.URL.RawQuery, http.StatusFound)
	})
	r.Get("/{page:company|courier|restaurant}", s.handlePage)
	r.Get("/charts/{name}.png", s.handleChart)
	r.Get("/export.xlsx", s.handleExport)
	r.Get("/logo.png", s.handleLogo)
	r.Get("/logs", s.handleLogs)
	r.Get("/ws", s.handleWS)
	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/{page}", s.handleAPI)
	})

	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// accessLog 请求日志写入storage.Logger
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		msg := fmt.Sprintf("%s %s %d %dB %v [%s]",
			r.Method, r.URL.RequestURI(), status, ww.BytesWritten(), time.Since(start), middleware.GetReqID(r.Context()))
		if status >= http.StatusInternalServerError {
			s.logger.Error(msg)
			return
		}
		s.logger.Debug(msg)
	})
}

// filtered 当前数据按请求参数筛选
func (s *Server) filtered(r *http.Request) (processor.Batch, processor.Filter, error) {
	f, err := parseFilter(s.validate, s.dcfg, r.URL.Query())
	if err != nil {
		return processor.Batch{}, f, err
	}
	b, err := s.store.Current()
	if err != nil {
		return processor.Batch{}, f, err
	}
	return f.Apply(b), f, nil
}

// statusOf 错误对应的状态码和给用户看的信息
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, errInvalidFilter):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, processor.ErrNotLoaded):
		return http.StatusServiceUnavailable, "The dataset is not loaded yet."
	default:
		return http.StatusInternalServerError, genericError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusOf(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(fmt.Sprintf("%s %s: %v", r.Method, r.URL.Path, err))
	}
	http.Error(w, msg, status)
}

// ErrResponse JSON错误
type ErrResponse struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.Status)
	return nil
}

func (s *Server) failJSON(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusOf(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(fmt.Sprintf("%s %s: %v", r.Method, r.URL.Path, err))
	}
	render.Render(w, r, &ErrResponse{Status: status, Message: msg})
}

// handleAPI /api/{page} 返回页面的全部数据
func (s *Server) handleAPI(w http.ResponseWriter, r *http.Request) {
	param := pageParam{Page: chi.URLParam(r, "page")}
	if err := s.validate.Struct(param); err != nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, map[string]string{"error": "unknown page " + param.Page})
		return
	}

	b, _, err := s.filtered(r)
	if err != nil {
		s.failJSON(w, r, err)
		return
	}
	view, err := s.buildView(param.Page, b)
	if err != nil {
		s.failJSON(w, r, err)
		return
	}
	render.JSON(w, r, view)
}

func (s *Server) buildView(page string, b processor.Batch) (interface{}, error) {
	switch page {
	case "company":
		return processor.BuildCompany(b)
	case "courier":
		return processor.BuildCourier(b, s.dcfg.GetCities(), s.dcfg.TopN)
	default:
		return processor.BuildRestaurant(b)
	}
}

// handleChart /charts/{name}.png
// 筛选后没有数据时返回204
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	draw, ok := charts[name]
	if !ok {
		http.NotFound(w, r)
		return
	}

	b, _, err := s.filtered(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := draw(&buf, b); err != nil {
		if errors.Is(err, chart.ErrNoData) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		s.fail(w, r, fmt.Errorf("chart %s: %w", name, err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

// handleExport 导出筛选后的数据
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	b, f, err := s.filtered(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := utils.WriteExcel(b.Frame(), "orders", &buf); err != nil {
		s.fail(w, r, err)
		return
	}
	name := fmt.Sprintf("orders_before_%s.xlsx", f.Cutoff.Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Write(buf.Bytes())
}

func (s *Server) handleLogo(w http.ResponseWriter, r *http.Request) {
	if _, err := os.Stat(s.logoPath); err != nil {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, s.logoPath)
}

// handleLogs 实时日志，chunked输出直到客户端断开
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")

	logChan := s.logger.Subscribe()
	defer s.logger.Unsubscribe(logChan)

	// 长连接不受Server.WriteTimeout限制
	rc := http.NewResponseController(w)
	rc.SetWriteDeadline(time.Time{})
	w.WriteHeader(http.StatusOK)
	rc.Flush()

	for {
		select {
		case msg, ok := <-logChan:
			if !ok {
				return
			}
			if _, err := fmt.Fprint(w, msg); err != nil {
				// 客户端已断开
				return
			}
			rc.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	last := s.store.LastReload()
	_, err := s.store.Current()
	status := http.StatusOK
	state := "ok"
	if err != nil {
		status = http.StatusServiceUnavailable
		state = "loading"
	}
	render.Status(r, status)
	render.JSON(w, r, map[string]interface{}{
		"status":      state,
		"last_reload": last,
	})
}

// trafficOption 侧边栏的一个复选框
type trafficOption struct {
	Name    string
	Checked bool
}

func (s *Server) trafficOptions(selected []string) []trafficOption {
	options := s.dcfg.GetTrafficOptions()
	out := make([]trafficOption, len(options))
	for i, o := range options {
		out[i] = trafficOption{Name: o, Checked: utils.Contains(selected, o)}
	}
	return out
}

// pageData 模板数据
type pageData struct {
	Title      string
	Page       string
	Query      template.URL
	Cutoff     string
	MinCutoff  string
	MaxCutoff  string
	Traffic    []trafficOption
	Orders     int
	Reload     processor.ReloadEvent
	Company    *processor.CompanyView
	Courier    *processor.CourierView
	Restaurant *processor.RestaurantView
}

var pageTitles = map[string]string{
	"company":    "Marketplace - Company View",
	"courier":    "Marketplace - Courier View",
	"restaurant": "Marketplace - Restaurant View",
}

// handlePage 渲染HTML页面
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	page := chi.URLParam(r, "page")
	tmpl, ok := s.pages[page]
	if !ok {
		http.NotFound(w, r)
		return
	}

	b, f, err := s.filtered(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	data := pageData{
		Title:     pageTitles[page],
		Page:      page,
		Query:     template.URL(encodeFilter(f)),
		Cutoff:    f.Cutoff.Format(dateLayout),
		MinCutoff: s.dcfg.MinCutoff.Time().Format(dateLayout),
		MaxCutoff: s.dcfg.MaxCutoff.Time().Format(dateLayout),
		Traffic:   s.trafficOptions(f.Traffic),
		Orders:    b.Len(),
		Reload:    s.store.LastReload(),
	}

	view, err := s.buildView(page, b)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	switch v := view.(type) {
	case processor.CompanyView:
		data.Company = &v
	case processor.CourierView:
		data.Courier = &v
	case processor.RestaurantView:
		data.Restaurant = &v
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		s.fail(w, r, fmt.Errorf("render %s: %w", page, err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (s *Server) funcs() template.FuncMap {
	return template.FuncMap{
		"num": func(v int) string { return s.printer.Sprintf("%d", v) },
		"stat": func(v processor.Stat) string {
			if v.IsNaN() {
				return "NaN"
			}
			return s.printer.Sprintf("%.2f", v.Float())
		},
		"pct": func(v float64) string { return s.printer.Sprintf("%.2f%%", v) },
	}
}
