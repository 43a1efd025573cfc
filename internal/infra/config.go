package infra

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultUserAgent is sent on the websocket handshake
	DefaultUserAgent = "strategy-dash/1.0"
)

// Config는 애플리케이션의 모든 설정을 담습니다.
// LoadConfig로 로드된 후에 환경 변수를 통해 민감 내용을 덮어씁니다.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Channel struct {
		WSURL               string `yaml:"ws_url"`
		HandshakeTimeoutSec int    `yaml:"handshake_timeout_sec"`
		MaxBackoffSec       int    `yaml:"max_backoff_sec"`
		Token               string `yaml:"token"`
	} `yaml:"channel"`

	UI struct {
		DefaultSortField     string          `yaml:"default_sort_field"`
		DefaultSortDirection string          `yaml:"default_sort_direction"`
		ToastDurationMS      int             `yaml:"toast_duration_ms"`
		NotificationsPerCat  int             `yaml:"notifications_per_category"`
		CardHeight           int             `yaml:"card_height"`
		MinCardHeight        int             `yaml:"min_card_height"`
		InboxSize            int             `yaml:"inbox_size"`
		View                 string          `yaml:"view"`
		Notifications        map[string]bool `yaml:"notifications"`
	} `yaml:"ui"`

	Storage struct {
		DSN string `yaml:"dsn"`
	} `yaml:"storage"`

	Logging struct {
		Level string `yaml:"level"`
		Dir   string `yaml:"dir"`
	} `yaml:"logging"`
}

// DefaultConfig returns a configuration usable without a file.
func DefaultConfig() *Config {
	var cfg Config
	cfg.App.Name = "strategy-dash"
	cfg.Channel.WSURL = "ws://localhost:5000/ws"
	cfg.Channel.HandshakeTimeoutSec = 10
	cfg.Channel.MaxBackoffSec = 60
	cfg.UI.DefaultSortField = "change"
	cfg.UI.DefaultSortDirection = "desc"
	cfg.UI.ToastDurationMS = 5000
	cfg.UI.NotificationsPerCat = 50
	cfg.UI.CardHeight = 400
	cfg.UI.MinCardHeight = 200
	cfg.UI.InboxSize = 1024
	cfg.Storage.DSN = "file::memory:?cache=shared"
	cfg.Logging.Level = "info"
	cfg.Logging.Dir = "logs"
	return &cfg
}

// LoadConfig는 설정 파일을 읽고 파싱합니다.
// A missing file yields the defaults; values in the file override them.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// defaults only
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	// 4원칙: 보안 우선 - 환경 변수 오버라이드 지원
	overrideWithEnv(cfg)

	// 5원칙: 설정 유효성 검사
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.Channel.WSURL, "ws://") && !strings.HasPrefix(c.Channel.WSURL, "wss://") {
		return fmt.Errorf("invalid channel WS URL: %q", c.Channel.WSURL)
	}
	if c.UI.ToastDurationMS <= 0 {
		return fmt.Errorf("toast duration must be positive")
	}
	if c.UI.InboxSize <= 0 {
		return fmt.Errorf("inbox size must be positive")
	}
	if c.UI.MinCardHeight <= 0 || c.UI.CardHeight < c.UI.MinCardHeight {
		return fmt.Errorf("card height %d must be at least min height %d", c.UI.CardHeight, c.UI.MinCardHeight)
	}
	if c.Storage.DSN == "" {
		return fmt.Errorf("storage dsn is required")
	}
	return nil
}

// HandshakeTimeout returns the websocket handshake timeout.
func (c *Config) HandshakeTimeout() time.Duration {
	return time.Duration(c.Channel.HandshakeTimeoutSec) * time.Second
}

// MaxBackoff returns the reconnect backoff ceiling.
func (c *Config) MaxBackoff() time.Duration {
	return time.Duration(c.Channel.MaxBackoffSec) * time.Second
}

// ToastDuration returns how long transient notifications stay visible.
func (c *Config) ToastDuration() time.Duration {
	return time.Duration(c.UI.ToastDurationMS) * time.Millisecond
}

// overrideWithEnv는 환경 변수가 존재할 경우 설정 값을 덮어씁니다.
func overrideWithEnv(cfg *Config) {
	if url := os.Getenv("DASH_WS_URL"); url != "" {
		cfg.Channel.WSURL = url
	}
	if token := os.Getenv("DASH_WS_TOKEN"); token != "" {
		cfg.Channel.Token = token
	}
	if level := os.Getenv("DASH_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}
