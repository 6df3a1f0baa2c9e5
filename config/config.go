// Package config loads trogdor's settings from defaults, an optional YAML
// file, an optional .env file and TROGDOR_* environment variables, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nathoo/trogdor/engine/event"
	"github.com/nathoo/trogdor/engine/timer"
)

// EnvPrefix is prepended to every environment override, so game.dir is
// read from TROGDOR_GAME_DIR.
const EnvPrefix = "TROGDOR"

type Config struct {
	Game    GameConfig    `mapstructure:"game"`
	Timer   TimerConfig   `mapstructure:"timer"`
	Events  EventsConfig  `mapstructure:"events"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	UI      UIConfig      `mapstructure:"ui"`
}

type GameConfig struct {
	Dir    string `mapstructure:"dir"`
	Player string `mapstructure:"player"`
	Seed   int64  `mapstructure:"seed"` // 0 picks a seed from the clock
}

type TimerConfig struct {
	Period time.Duration `mapstructure:"period"`
}

type EventsConfig struct {
	GlobalListener string `mapstructure:"global_listener"`
}

// LoggingConfig says how much to log and where. An empty File means
// stderr.
type LoggingConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
	File        string `mapstructure:"file"`
}

// MetricsConfig holds the address of the Prometheus endpoint. Empty
// disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

type UIConfig struct {
	Plain bool `mapstructure:"plain"`
}

// Options says where Load looks for files. Empty paths are skipped.
type Options struct {
	File    string
	EnvFile string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("game.dir", ".")
	v.SetDefault("game.player", "player")
	v.SetDefault("game.seed", 0)
	v.SetDefault("timer.period", timer.DefaultPeriod)
	v.SetDefault("events.global_listener", "first")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.file", "")
	v.SetDefault("metrics.addr", "")
	v.SetDefault("ui.plain", false)
}

// New returns a viper instance with trogdor's defaults and environment
// binding. Callers may bind command-line flags to it before Load reads it.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the configured files into v and decodes the result. A missing
// .env file is not an error; a missing config file is, since the caller
// asked for it by name.
func Load(v *viper.Viper, o Options) (*Config, error) {
	if o.EnvFile != "" {
		if err := godotenv.Load(o.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", o.EnvFile, err)
		}
	}
	if o.File != "" {
		v.SetConfigFile(o.File)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", o.File, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values viper cannot type-check on its own.
func (c *Config) Validate() error {
	if c.Timer.Period <= 0 {
		return fmt.Errorf("timer.period must be positive, got %s", c.Timer.Period)
	}
	if _, err := c.Policy(); err != nil {
		return fmt.Errorf("events.global_listener: %w", err)
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	if c.Game.Player == "" {
		return errors.New("game.player must not be empty")
	}
	return nil
}

func (c *Config) Policy() (event.Policy, error) {
	return event.ParsePolicy(c.Events.GlobalListener)
}

// Logger builds a zap logger: a console encoder in development, JSON
// otherwise. Output, errors included, goes to File when it is set.
func (c LoggingConfig) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	var zc zap.Config
	if c.Development {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	if c.File != "" {
		zc.OutputPaths = []string{c.File}
		zc.ErrorOutputPaths = []string{c.File}
	}
	return zc.Build()
}
