package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Upload    UploadConfig    `mapstructure:"upload"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Quality   QualityConfig   `mapstructure:"quality"`
	Resize    ResizeConfig    `mapstructure:"resize"`
	Replicate ReplicateConfig `mapstructure:"replicate"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
}

type AppConfig struct {
	LogLevel  string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	PrettyLog bool   `mapstructure:"pretty_log"`
}

type ServerConfig struct {
	Addr          string        `mapstructure:"addr" validate:"required"`
	Mode          string        `mapstructure:"mode" validate:"oneof=debug release test"`
	AllowedOrigin string        `mapstructure:"allowed_origin"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout of 0 leaves long upscaling requests unbounded.
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type UploadConfig struct {
	MaxRequestBodyMB int64 `mapstructure:"max_request_body_mb" validate:"gt=0"`
	// MaxDownloadMB caps upscaled results and images fetched from Telegram.
	MaxDownloadMB int64 `mapstructure:"max_download_mb" validate:"gt=0"`
	// MaxPixels bounds both decoded images and resize targets, as width times height.
	MaxPixels int64 `mapstructure:"max_pixels" validate:"gt=0"`
}

type AuthConfig struct {
	MagicKey string `mapstructure:"magic_key" validate:"required"`
}

type QualityConfig struct {
	Original int `mapstructure:"original" validate:"min=1,max=100"`
	Resized  int `mapstructure:"resized" validate:"min=1,max=100"`
	Upscaled int `mapstructure:"upscaled" validate:"min=1,max=100"`
}

type ResizeConfig struct {
	AllowEnlargement bool `mapstructure:"allow_enlargement"`
}

type ReplicateConfig struct {
	APIKey       string        `mapstructure:"api_key" validate:"required"`
	BaseURL      string        `mapstructure:"base_url" validate:"required,url"`
	ModelVersion string        `mapstructure:"model_version" validate:"required"`
	PollInterval time.Duration `mapstructure:"poll_interval" validate:"gt=0"`
	// Timeout bounds a single HTTP call to the model API, 0 means none.
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	AllowedChatIDs []int64       `mapstructure:"allowed_chat_ids"`
	AdminUsername  string        `mapstructure:"admin_username"`
	HandlerTimeout time.Duration `mapstructure:"handler_timeout" validate:"gt=0"`
}

type SentryConfig struct {
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
}

// Enabled reports whether the Telegram transport should be started.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != ""
}

func (u UploadConfig) MaxRequestBodyBytes() int64 {
	return u.MaxRequestBodyMB << 20
}

func (u UploadConfig) MaxDownloadBytes() int64 {
	return u.MaxDownloadMB << 20
}

const realESRGANVersion = "d0ee3d708c9b911f122a4ad90046c5d26a0293b99476d697f6bb7f2e251ce2d4"

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.pretty_log", false)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.allowed_origin", "*")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "0s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("upload.max_request_body_mb", 32)
	v.SetDefault("upload.max_download_mb", 256)
	v.SetDefault("upload.max_pixels", 100_000_000)

	v.SetDefault("quality.original", 80)
	v.SetDefault("quality.resized", 85)
	v.SetDefault("quality.upscaled", 90)

	v.SetDefault("resize.allow_enlargement", false)

	v.SetDefault("replicate.base_url", "https://api.replicate.com")
	v.SetDefault("replicate.model_version", realESRGANVersion)
	v.SetDefault("replicate.poll_interval", "1s")
	v.SetDefault("replicate.timeout", "0s")

	v.SetDefault("telegram.admin_username", "")
	v.SetDefault("telegram.handler_timeout", "5m")
}

var envBindings = map[string]string{
	"auth.magic_key":     "MAGIC_API_KEY",
	"replicate.api_key":  "REPLICATE_API_KEY",
	"telegram.bot_token": "TELEGRAM_BOT_TOKEN",
	"sentry.dsn":         "SENTRY_DSN",
}

// LoadConfig reads config.toml from dir when present. Defaults and environment overrides apply either way.
func LoadConfig(dir string) (*viper.Viper, error) {
	v := viper.New()

	v.AddConfigPath(dir)
	v.SetConfigName("config")
	v.SetConfigType("toml")

	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}

	err := v.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("could not read config file: %w", err)
		}
	}

	return v, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {
	var c Config

	err := v.Unmarshal(&c)
	if err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	err = validator.New(validator.WithRequiredStructEnabled()).Struct(c)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &c, nil
}

func Load(dir string) (*Config, error) {
	v, err := LoadConfig(dir)
	if err != nil {
		return nil, err
	}

	return ParseConfig(v)
}
