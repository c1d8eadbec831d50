package main

import (
	"CuryDashboard/src/config"
	"CuryDashboard/src/datapush"
	"CuryDashboard/src/datasource/email"
	"CuryDashboard/src/datasource/file"
	"CuryDashboard/src/processor"
	"CuryDashboard/src/storage"
	"CuryDashboard/src/utils"
	"CuryDashboard/src/web"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robfig/cron"
)

// app 进程内共享的组件
type app struct {
	cfg     *config.Config
	dcfg    *config.DataConfig
	logger  *storage.Logger
	store   *processor.Store
	mail    email.MailService
	handler email.EmailHandler
	pusher  *datapush.Pusher
	sender  *email.ReportSender
}

func main() {
	jsonFolder := "./config"
	jsonFile := "config.json"
	dataJsonFile := "dataconfig.json"
	cfg, dcfg, err := config.LoadConfig(jsonFolder, jsonFile, dataJsonFile)
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// 初始化日志系统
	logger, err := storage.NewLogger(cfg.LogName)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	logger.SetMirror(os.Stdout)

	a := newApp(cfg, dcfg, logger)

	t1 := time.Now()
	if err := a.store.Reload(context.Background(), "startup"); err != nil {
		logger.Fatal(fmt.Sprintf("启动时加载数据失败: %v", err))
		logger.Close()
		os.Exit(1)
	}
	logger.Info(fmt.Sprintf("数据处理时间：%v", time.Since(t1)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := web.NewMetrics(reg)
	metrics.ObserveReload(a.store.LastReload())
	go metrics.Watch(ctx, a.store)

	c, err := a.schedule()
	if err != nil {
		logger.Error("创建定时任务失败: " + err.Error())
		return
	}
	c.Start()
	defer c.Stop()

	if cfg.Reload.Watch {
		go a.watchDataset(ctx)
	}

	s, err := web.NewServer(web.Options{
		Store:    a.store,
		Data:     dcfg,
		LogoPath: cfg.LogoPath,
		Logger:   logger,
		Metrics:  metrics,
		Gatherer: reg,
	})
	if err != nil {
		logger.Error("初始化Web服务失败: " + err.Error())
		return
	}
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      s.Routes(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout),
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout),
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Web服务异常退出: " + err.Error())
			cancel()
		}
	}()

	if err := writePidFile(cfg.PidFile); err != nil {
		logger.Warning(err.Error())
	} else {
		defer os.Remove(cfg.PidFile)
	}

	logger.Info(fmt.Sprintf("看板已启动 http://%s (pid %d)，按Ctrl+C退出", cfg.Server.Addr, os.Getpid()))
	a.waitForShutdown(ctx)

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("关闭Web服务失败: " + err.Error())
	}
	logger.Close()
}

func newApp(cfg *config.Config, dcfg *config.DataConfig, logger *storage.Logger) *app {
	opts := processor.OptionsFrom(dcfg)
	load := func(ctx context.Context) (dataframe.DataFrame, error) {
		return file.LoadOrders(cfg.DataPath)
	}
	a := &app{
		cfg:     cfg,
		dcfg:    dcfg,
		logger:  logger,
		store:   processor.NewStore(load, opts, logger),
		handler: email.NewDatasetAttachmentHandler(cfg.Email.TargetSubject, cfg.DataPath, cfg.DataDir, opts, logger),
		pusher:  datapush.NewPusher(cfg),
		sender:  email.NewReportSender(cfg),
	}
	if cfg.Email.Server != "" {
		a.mail = email.NewEmailClient(cfg.Email.Server, cfg.Email.Username, cfg.Email.Password, logger)
	}
	return a
}

// reload 重新加载数据集，错误已由Store记录
func (a *app) reload(source string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	a.store.Reload(ctx, source)
}

// checkEmails 检查邮箱，收到新数据集后重新加载
func (a *app) checkEmails() {
	if a.mail == nil {
		return
	}
	t1 := time.Now()
	newEmail, err := email.CheckAndProcessEmails(a.mail, a.handler, a.cfg.Email.TargetSubject, a.logger)
	switch {
	case errors.Is(err, email.ErrAlreadyProcessed):
		a.logger.Debug(fmt.Sprintf("邮件已处理过(UID:%d)", newEmail.UID))
		return
	case err != nil:
		a.logger.Error("检查处理邮件失败: " + err.Error())
		return
	case newEmail == nil:
		return
	}
	a.logger.Info(fmt.Sprintf("邮件附件已更新数据集(UID:%d)，耗时%v", newEmail.UID, time.Since(t1)))
	a.reload("email")
}

// pushReport 按默认筛选条件生成摘要，推送到钉钉并把筛选后的数据发邮件
func (a *app) pushReport(ctx context.Context) error {
	if !a.pusher.Enabled() && !a.sender.Enabled() {
		return nil
	}
	b, err := a.store.Current()
	if err != nil {
		return err
	}
	f := processor.Filter{Cutoff: a.dcfg.DefaultCutoff.Time(), Traffic: a.dcfg.GetTrafficOptions()}
	filtered := f.Apply(b)
	title, text, err := datapush.Summary(filtered, f.Cutoff)
	if err != nil {
		return err
	}

	var errs []error
	if a.pusher.Enabled() {
		if err := a.pusher.PushMarkdown(ctx, title, text); err != nil {
			errs = append(errs, fmt.Errorf("钉钉推送失败: %w", err))
		}
	}
	if a.sender.Enabled() {
		var buf bytes.Buffer
		if err := utils.WriteExcel(filtered.Frame(), "orders", &buf); err != nil {
			errs = append(errs, err)
		} else {
			name := fmt.Sprintf("orders_before_%s.xlsx", f.Cutoff.Format("20060102"))
			if err := a.sender.Send(text, name, buf.Bytes()); err != nil {
				errs = append(errs, fmt.Errorf("发送报表邮件失败: %w", err))
			}
		}
	}
	return errors.Join(errs...)
}

// schedule 定时任务: 重新加载、检查邮件、推送报表、日志轮转
func (a *app) schedule() (*cron.Cron, error) {
	c := cron.New()

	if iv := time.Duration(a.cfg.Reload.Interval); iv > 0 {
		if err := c.AddFunc(fmt.Sprintf("@every %s", iv), func() { a.reload("cron") }); err != nil {
			return nil, fmt.Errorf("reload: %w", err)
		}
	}
	if iv := time.Duration(a.cfg.Email.CheckInterval); iv > 0 && a.mail != nil {
		cronSpec := fmt.Sprintf("@every %s", iv)
		if err := c.AddFunc(cronSpec, a.checkEmails); err != nil {
			return nil, fmt.Errorf("email: %w", err)
		}
		a.logger.Info(fmt.Sprintf("邮件监控已启动(检查间隔: %v)", iv))
	}
	if a.cfg.Push.Schedule != "" {
		err := c.AddFunc(a.cfg.Push.Schedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if err := a.pushReport(ctx); err != nil {
				a.logger.Error("推送报表失败: " + err.Error())
			}
		})
		if err != nil {
			return nil, fmt.Errorf("push: %w", err)
		}
	}
	if a.cfg.LogMaxSize != "" {
		err := c.AddFunc("@every 1m", func() {
			if err := a.logger.CheckRotate(a.cfg.LogMaxSize); err != nil {
				log.Println("日志轮转失败:", err)
			}
		})
		if err != nil {
			return nil, fmt.Errorf("rotate: %w", err)
		}
	}
	return c, nil
}

// watchDataset 数据文件变化时重新加载
func (a *app) watchDataset(ctx context.Context) {
	monitor, err := file.NewFileMonitor(a.cfg.DataPath, 2*time.Second)
	if err != nil {
		a.logger.Error("File monitoring error: " + err.Error())
		return
	}
	defer monitor.Close()

	err = monitor.Watch(ctx, func(filePath string) {
		a.logger.Info("数据文件已变化: " + filePath)
		a.reload("watch")
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Error("File monitoring error: " + err.Error())
	}
}

// waitForShutdown SIGHUP重新打开日志并重新加载数据，SIGINT/SIGTERM退出
func (a *app) waitForShutdown(ctx context.Context) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigChan:
			if sig == syscall.SIGHUP {
				if err := a.logger.Reopen(""); err != nil {
					log.Println("重新打开日志失败:", err)
				}
				a.logger.Info("Received signal: SIGHUP, reloading...")
				go a.reload("signal")
				continue
			}
			a.logger.Info("Received signal: " + sig.String() + ", shutting down...")
			return
		}
	}
}

func writePidFile(path string) error {
	if path == "" {
		return errors.New("pid file not configured")
	}
	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0644); err != nil {
		return fmt.Errorf("写入pid文件失败: %w", err)
	}
	return nil
}
