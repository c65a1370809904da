package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	API struct {
		BaseURL string        `yaml:"base_url"`
		Project string        `yaml:"project"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"api"`
	Polygon struct {
		WebSocketURL string `yaml:"websocket_url"`
		Token        string `yaml:"token"`
	} `yaml:"polygon"`
	Firestore struct {
		CredentialsFile string `yaml:"credentials_file"`
		Collection      string `yaml:"collection"`
		Doc             string `yaml:"doc"`
	} `yaml:"firestore"`
	Scheduler struct {
		OpenHour    int           `yaml:"open_hour"`
		CloseHour   int           `yaml:"close_hour"`
		SettleDelay time.Duration `yaml:"settle_delay"`
		TickPoll    time.Duration `yaml:"tick_poll"`
	} `yaml:"scheduler"`
	Ensemble struct {
		Timeframes []string `yaml:"timeframes"`
		Remote     struct {
			Enabled bool          `yaml:"enabled"`
			URL     string        `yaml:"url"`
			Timeout time.Duration `yaml:"timeout"`
		} `yaml:"remote"`
	} `yaml:"ensemble"`
	Recorder struct {
		Backend      string        `yaml:"backend"` // none, kafka or clickhouse
		BatchSize    int           `yaml:"batch_size"`
		BatchTimeout time.Duration `yaml:"batch_timeout"`
		Kafka        struct {
			Brokers      []string `yaml:"brokers"`
			Topic        string   `yaml:"topic"`
			RequiredAcks int      `yaml:"required_acks"`
			Compression  string   `yaml:"compression"`
			Producer     struct {
				MaxAttempts  int           `yaml:"max_attempts"`
				Linger       time.Duration `yaml:"linger"`
				BatchBytes   int           `yaml:"batch_bytes"`
				BatchSize    int           `yaml:"batch_size"`
				WriteTimeout time.Duration `yaml:"write_timeout"`
				ReadTimeout  time.Duration `yaml:"read_timeout"`
				Async        bool          `yaml:"async"`
			} `yaml:"producer"`
		} `yaml:"kafka"`
		ClickHouse struct {
			Host             string        `yaml:"host"`
			Port             int           `yaml:"port"`
			Database         string        `yaml:"database"`
			User             string        `yaml:"user"`
			Password         string        `yaml:"password"`
			UseHTTP          bool          `yaml:"use_http"`
			AsyncInsert      bool          `yaml:"async_insert"`
			WaitForAsync     bool          `yaml:"wait_for_async_insert"`
			DialTimeout      time.Duration `yaml:"dial_timeout"`
			ReadTimeout      time.Duration `yaml:"read_timeout"`
			WriteTimeout     time.Duration `yaml:"write_timeout"`
			MaxExecutionTime time.Duration `yaml:"max_execution_time"`
		} `yaml:"clickhouse"`
	} `yaml:"recorder"`
	Cache struct {
		TTL   time.Duration `yaml:"ttl"`
		Redis struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Alerts struct {
		Queue   string `yaml:"queue"`
		Recent  int    `yaml:"recent"`
		Workers int    `yaml:"workers"`
	} `yaml:"alerts"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables
	if v := os.Getenv("API_BASE_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("PROJECT"); v != "" {
		c.API.Project = v
	}
	if v := os.Getenv("POLYGON_TOKEN"); v != "" {
		c.Polygon.Token = v
	}
	if v := os.Getenv("FIREBASE_CREDENTIALS"); v != "" {
		c.Firestore.CredentialsFile = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}
	if v := os.Getenv("RECORDER_BACKEND"); v != "" {
		c.Recorder.Backend = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Recorder.Kafka.Brokers = strings.Split(v, ",")
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if c.API.Project == "" {
		return fmt.Errorf("api.project is required")
	}
	switch c.Recorder.Backend {
	case "", "none", "kafka", "clickhouse":
	default:
		return fmt.Errorf("recorder.backend must be 'none', 'kafka' or 'clickhouse', got '%s'", c.Recorder.Backend)
	}
	if c.Scheduler.OpenHour < 0 || c.Scheduler.OpenHour > 23 {
		return fmt.Errorf("scheduler.open_hour must be within 0..23")
	}
	if c.Scheduler.CloseHour < c.Scheduler.OpenHour || c.Scheduler.CloseHour > 23 {
		return fmt.Errorf("scheduler.close_hour must be within open_hour..23")
	}
	for _, tf := range c.Ensemble.Timeframes {
		switch tf {
		case "1min", "5min", "30min", "1h", "1d", "5d":
		default:
			return fmt.Errorf("ensemble.timeframes contains unknown timeframe '%s'", tf)
		}
	}
	if c.Ensemble.Remote.Enabled && c.Ensemble.Remote.URL == "" {
		return fmt.Errorf("ensemble.remote.url is required when remote scoring is enabled")
	}
	return nil
}
