package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/sync/errgroup"
)

// Config 应用程序配置(config.json)
type Config struct {
	DataPath   string `json:"data_path" split_words:"true"`    // 订单数据集路径(.csv/.xlsx)
	LogoPath   string `json:"logo_path" split_words:"true"`    // 侧边栏logo
	DataDir    string `json:"data_dir" split_words:"true"`     // 邮件附件保存目录
	LogName    string `json:"log_name" split_words:"true"`     // 日志文件
	LogMaxSize string `json:"log_max_size" split_words:"true"` // 例如 "10 * 1024 * 1024"
	PidFile    string `json:"pid_file" split_words:"true"`

	Server struct {
		Addr         string   `json:"addr"`
		ReadTimeout  Duration `json:"read_timeout" split_words:"true"`
		WriteTimeout Duration `json:"write_timeout" split_words:"true"`
	} `json:"server"`

	Reload struct {
		Interval Duration `json:"interval"` // 定时重新加载数据集的间隔
		Watch    bool     `json:"watch"`    // 监听数据文件变化
	} `json:"reload"`

	Email struct {
		Server        string   `json:"server"`                            // IMAP服务器地址
		Username      string   `json:"username"`                          // 邮箱用户名
		Password      string   `json:"password"`                          // 邮箱密码/授权码
		TargetSubject string   `json:"target_subject" split_words:"true"` // 需要匹配的邮件主题
		CheckInterval Duration `json:"check_interval" split_words:"true"` // 检查新邮件的间隔时间
	} `json:"email"`

	SendEmail struct {
		Server        string   `json:"server"` // SMTP服务器地址
		Username      string   `json:"username"`
		Password      string   `json:"password"`
		To            []string `json:"to"`
		TargetSubject string   `json:"target_subject" split_words:"true"`
	} `json:"send_email" split_words:"true"`

	Push struct {
		Webhook  string `json:"webhook"`  // 钉钉机器人webhook
		Secret   string `json:"secret"`   // 加签密钥
		Schedule string `json:"schedule"` // cron表达式(含秒)
	} `json:"push"`
}

// DataConfig 数据清洗与筛选配置(dataconfig.json)
type DataConfig struct {
	StripColumns   []string `json:"strip_columns"`
	MissingMarker  string   `json:"missing_marker"`
	UnitToken      string   `json:"unit_token"`
	DateLayout     string   `json:"date_layout"`
	TrafficOptions []string `json:"traffic_options"`
	Cities         []string `json:"cities"`
	TopN           int      `json:"top_n"`
	DefaultCutoff  Date     `json:"default_cutoff"`
	MinCutoff      Date     `json:"min_cutoff"`
	MaxCutoff      Date     `json:"max_cutoff"`
}

const envPrefix = "CURY"

var (
	once               sync.Once
	instance           *Config
	dataConfigInstance *DataConfig
	mu                 sync.RWMutex
)

func LoadConfig(jsonFolder, jsonFile, dataJsonFile string) (*Config, *DataConfig, error) {
	var err error
	once.Do(func() {
		instance, dataConfigInstance, err = loadConfigs(jsonFolder, jsonFile, dataJsonFile)
	})
	return instance, dataConfigInstance, err
}

func loadConfigs(jsonFolder, jsonFile, dataJsonFile string) (*Config, *DataConfig, error) {
	configFile := filepath.Join(jsonFolder, jsonFile)
	dataConfigFile := filepath.Join(jsonFolder, dataJsonFile)

	var (
		cfg  *Config
		dcfg *DataConfig
	)

	// 两个配置文件并行读取解析
	var g errgroup.Group
	g.Go(func() error {
		data, err := readFile(configFile)
		if err != nil {
			return fmt.Errorf("读取配置文件失败: %w", err)
		}
		cfg, err = ParseConfig(data)
		return err
	})
	g.Go(func() error {
		data, err := readFile(dataConfigFile)
		if err != nil {
			return fmt.Errorf("读取数据配置文件失败: %w", err)
		}
		dcfg, err = ParseDataConfig(data)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	if err := applyEnv(cfg); err != nil {
		return nil, nil, err
	}
	return cfg, dcfg, nil
}

func readFile(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("无法读取文件 %s: %w", filePath, err)
	}
	return data, nil
}

// ParseConfig 解析config.json内容并补全默认值
func ParseConfig(data []byte) (*Config, error) {
	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("解析Config失败: %w", err)
	}
	return cfg, nil
}

// ParseDataConfig 解析dataconfig.json内容并补全默认值
func ParseDataConfig(data []byte) (*DataConfig, error) {
	dcfg := DefaultData()
	if err := json.Unmarshal(data, dcfg); err != nil {
		return nil, fmt.Errorf("解析DataConfig失败: %w", err)
	}
	if dcfg.TopN <= 0 {
		return nil, fmt.Errorf("解析DataConfig失败: top_n must be positive, got %d", dcfg.TopN)
	}
	return dcfg, nil
}

// applyEnv 先加载 .env 再用 CURY_* 环境变量覆盖
func applyEnv(cfg *Config) error {
	// .env 不存在时忽略
	_ = godotenv.Load()

	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return fmt.Errorf("环境变量覆盖失败: %w", err)
	}
	return nil
}

// Default 返回带默认值的Config
func Default() *Config {
	cfg := &Config{
		DataPath:   "dataset/train.csv",
		LogoPath:   "logo.png",
		DataDir:    "dataset",
		LogName:    "app.log",
		LogMaxSize: "10 * 1024 * 1024",
		PidFile:    "dashboard.pid",
	}
	cfg.Server.Addr = ":8080"
	cfg.Server.ReadTimeout = Duration(10 * time.Second)
	cfg.Server.WriteTimeout = Duration(60 * time.Second)
	cfg.Reload.Interval = Duration(10 * time.Minute)
	cfg.Reload.Watch = true
	cfg.Email.CheckInterval = Duration(5 * time.Minute)
	cfg.Push.Schedule = "0 0 8 * * *"
	return cfg
}

// DefaultData 返回带默认值的DataConfig
func DefaultData() *DataConfig {
	return &DataConfig{
		StripColumns: []string{
			"ID", "Delivery_person_ID", "Delivery_person_Age", "Delivery_person_Ratings",
			"Order_Date", "Time_Orderd", "Time_Order_picked", "Weatherconditions",
			"Road_traffic_density", "Type_of_order", "Type_of_vehicle", "multiple_deliveries",
			"Festival", "City", "Time_taken(min)",
		},
		MissingMarker:  "NaN",
		UnitToken:      "(min)",
		DateLayout:     "02-01-2006",
		TrafficOptions: []string{"Low", "Medium", "High", "Jam"},
		Cities:         []string{"Metropolitian", "Urban", "Semi-Urban"},
		TopN:           10,
		DefaultCutoff:  Date(time.Date(2022, 4, 13, 0, 0, 0, 0, time.UTC)),
		MinCutoff:      Date(time.Date(2022, 2, 11, 0, 0, 0, 0, time.UTC)),
		MaxCutoff:      Date(time.Date(2022, 4, 6, 0, 0, 0, 0, time.UTC)),
	}
}

// Duration 是time.Duration的自定义包装类型
// 用于支持JSON序列化和反序列化
type Duration time.Duration

// UnmarshalJSON 实现json.Unmarshaler接口
// 用于从JSON字符串解析Duration
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return d.Decode(s)
}

// MarshalJSON 实现json.Marshaler接口
// 用于将Duration序列化为JSON字符串
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Decode 实现envconfig.Decoder接口
func (d *Duration) Decode(value string) error {
	dur, err := time.ParseDuration(value)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// Date 以 "2006-01-02" 表示的日期
type Date time.Time

const dateLayout = "2006-01-02"

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return err
	}
	*d = Date(t)
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(d).Format(dateLayout))
}

func (d Date) Time() time.Time { return time.Time(d) }

func (dc *DataConfig) GetTrafficOptions() []string {
	mu.RLock()
	defer mu.RUnlock()
	return append([]string(nil), dc.TrafficOptions...)
}

func (dc *DataConfig) SetTrafficOptions(options []string) {
	mu.Lock()
	defer mu.Unlock()
	dc.TrafficOptions = append([]string(nil), options...)
}

func (dc *DataConfig) GetCities() []string {
	mu.RLock()
	defer mu.RUnlock()
	return append([]string(nil), dc.Cities...)
}
