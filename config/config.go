package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the process configuration, loaded once at startup from a
// TOML file (and CHATDL_* environment variables). Runtime-mutable
// defaults live in runtime.go, not here.
type Config struct {
	Workers  int    `toml:"workers" mapstructure:"workers"`
	DataDir  string `toml:"data_dir" mapstructure:"data_dir"`
	LogLevel string `toml:"log_level" mapstructure:"log_level"`

	// DownloadDir and FilenameTemplate seed the runtime defaults on
	// first start; afterwards the persisted values win.
	DownloadDir      string `toml:"download_dir" mapstructure:"download_dir"`
	FilenameTemplate string `toml:"filename_template" mapstructure:"filename_template"`

	Telegram TelegramConfig `toml:"telegram" mapstructure:"telegram"`
}

// TelegramConfig carries the chat-platform client credentials.
type TelegramConfig struct {
	AppID       int    `toml:"app_id" mapstructure:"app_id"`
	AppHash     string `toml:"app_hash" mapstructure:"app_hash"`
	Phone       string `toml:"phone" mapstructure:"phone"`
	SessionPath string `toml:"session_path" mapstructure:"session_path"`
}

var cfg *Config

// Cfg returns the loaded configuration. Init must have run first.
func Cfg() *Config {
	return cfg
}

// Init reads the config file at path (or ./config.toml when empty)
// and applies defaults and validation.
func Init(path string) error {
	v := viper.New()
	v.SetConfigType("toml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix("chatdl")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return err
	}
	cfg = c
	return nil
}

// SetDefaults fills unset fields with working values.
func (c *Config) SetDefaults() {
	if c.Workers <= 0 {
		c.Workers = 5
	}
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.DownloadDir == "" {
		c.DownloadDir = "downloads"
	}
	if c.FilenameTemplate == "" {
		c.FilenameTemplate = "{message_id}_{file_name}"
	}
	if c.Telegram.SessionPath == "" {
		c.Telegram.SessionPath = c.DataDir + "/session.db"
	}
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	if strings.TrimSpace(c.DownloadDir) == "" {
		return fmt.Errorf("download_dir is required")
	}
	return nil
}
