// Package config holds the hub's key-value configuration: poll cadence,
// upload cadence, display options and per-source settings. Values come from
// defaults, an optional config file and VITALS_-prefixed env overrides, and
// can be re-fetched at runtime; a failed fetch retains the previous
// configuration.
package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config is one immutable configuration snapshot.
type Config struct {
	PollInterval     time.Duration `mapstructure:"poll_interval"`
	CallTimeout      time.Duration `mapstructure:"call_timeout"`
	UploadInterval   time.Duration `mapstructure:"upload_interval"`
	CondensedDisplay bool          `mapstructure:"condensed_display"`
	GroupID          string        `mapstructure:"group_id"`

	Wrist WristConfig `mapstructure:"wrist"`
	Chest ChestConfig `mapstructure:"chest"`
	Phone PhoneConfig `mapstructure:"phone"`
}

// WristConfig holds wrist-band source settings.
type WristConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// ChestConfig holds chest-strap source settings.
type ChestConfig struct {
	Address        string        `mapstructure:"address"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// PhoneConfig holds phone-sensor source settings.
type PhoneConfig struct {
	AudioWindow time.Duration `mapstructure:"audio_window"`
}

// Store owns the current configuration snapshot. Fetch replaces it
// atomically; readers always see a complete snapshot.
type Store struct {
	mu      sync.RWMutex
	current Config

	path   string // explicit config file, empty = search default locations
	logger *logrus.Logger
}

// NewStore creates a Store and performs the initial fetch. If the initial
// fetch fails, the built-in defaults are used and the error is returned so
// the caller can decide whether to proceed.
func NewStore(path string, logger *logrus.Logger) (*Store, error) {
	if logger == nil {
		logger = logrus.New()
	}
	s := &Store{path: path, logger: logger}
	s.current = defaults()

	err := s.Fetch()
	return s, err
}

// Current returns the latest configuration snapshot.
func (s *Store) Current() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Fetch re-reads the configuration. On failure the previous snapshot is
// retained and the error returned; the hub logs it and carries on.
func (s *Store) Fetch() error {
	cfg, err := s.load()
	if err != nil {
		s.logger.WithError(err).Warn("Config fetch failed, keeping previous configuration")
		return fmt.Errorf("config fetch: %w", err)
	}

	s.mu.Lock()
	s.current = cfg
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"poll_interval":   cfg.PollInterval,
		"upload_interval": cfg.UploadInterval,
	}).Info("Configuration fetched")
	return nil
}

func defaults() Config {
	return Config{
		PollInterval:     time.Second,
		CallTimeout:      2 * time.Second,
		UploadInterval:   10 * time.Second,
		CondensedDisplay: true,
		Chest:            ChestConfig{ConnectTimeout: 30 * time.Second},
		Phone:            PhoneConfig{AudioWindow: 5 * time.Second},
	}
}

func (s *Store) load() (Config, error) {
	v := viper.New()

	def := defaults()
	v.SetDefault("poll_interval", def.PollInterval)
	v.SetDefault("call_timeout", def.CallTimeout)
	v.SetDefault("upload_interval", def.UploadInterval)
	v.SetDefault("condensed_display", def.CondensedDisplay)
	v.SetDefault("group_id", def.GroupID)
	v.SetDefault("wrist.api_key", "")
	v.SetDefault("chest.address", "")
	v.SetDefault("chest.connect_timeout", def.Chest.ConnectTimeout)
	v.SetDefault("phone.audio_window", def.Phone.AudioWindow)

	if s.path != "" {
		v.SetConfigFile(s.path)
	} else {
		v.SetConfigName("vitals")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/vitals")
	}

	v.SetEnvPrefix("VITALS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		// A missing file in the search path is fine; an explicit file is not.
		var notFound viper.ConfigFileNotFoundError
		if s.path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.PollInterval <= 0 {
		return Config{}, fmt.Errorf("poll_interval must be positive, got %v", cfg.PollInterval)
	}
	return cfg, nil
}
