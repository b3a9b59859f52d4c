package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPath = "config/config.yaml"
	ModeDev     = "dev"
	ModeRelease = "release"
)

type DatabaseConfig struct {
	Driver   string `yaml:"driver" validate:"oneof=mysql postgres sqlite"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	// sqlite 用のファイルパス（":memory:" 可）
	Path string `yaml:"path"`
}

type Certs struct {
	Cert string `yaml:"cert"`
	Key  string `yaml:"key"`
}

type ServerConfig struct {
	Addr        string   `yaml:"addr" validate:"required"`
	AllowOrigin []string `yaml:"allow_origins"`
	Certificate Certs    `yaml:"certificate"`
}

type InterpreterConfig struct {
	Provider string        `yaml:"provider" validate:"oneof=openrouter openai gemini"`
	BaseURL  string        `yaml:"base_url"`
	Model    string        `yaml:"model"`
	APIKey   string        `yaml:"api_key"`
	Timeout  time.Duration `yaml:"timeout"`
	// 上流への秒間リクエスト上限
	RPS float64 `yaml:"rps" validate:"gte=0"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type ConfirmationConfig struct {
	Secret           string        `yaml:"secret"`
	TTL              time.Duration `yaml:"ttl"`
	AllowForceResend bool          `yaml:"allow_force_resend"`
	Store            string        `yaml:"store" validate:"oneof=memory redis"`
	Redis            RedisConfig   `yaml:"redis"`
}

type RosterConfig struct {
	Source  string              `yaml:"source" validate:"oneof=static sql"`
	Classes map[string][]string `yaml:"classes"`
}

type LogConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
}

type Config struct {
	Version      string             `yaml:"version"`
	Mode         string             `yaml:"mode" validate:"oneof=dev release"`
	Timezone     string             `yaml:"timezone"`
	Server       ServerConfig       `yaml:"server"`
	DB           DatabaseConfig     `yaml:"database"`
	Interpreter  InterpreterConfig  `yaml:"interpreter"`
	Confirmation ConfirmationConfig `yaml:"confirmation"`
	Roster       RosterConfig       `yaml:"roster"`
	Log          LogConfig          `yaml:"log"`
}

var validate = validator.New()

// LoadConfig は YAML を読み、.env / 環境変数で秘密情報を上書きし、検証する。
func LoadConfig(path string) (*Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(buf)
}

func Parse(buf []byte) (*Config, error) {
	cfg := Defaults()
	if err := yaml.Unmarshal(buf, cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}

	// .env は任意。無ければ実環境変数のみ
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}
	applyEnv(cfg)

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config: invalid: %w", err)
	}
	if _, err := cfg.Location(); err != nil {
		return nil, fmt.Errorf("config: timezone %q: %w", cfg.Timezone, err)
	}
	if cfg.Confirmation.Secret == "" && cfg.Mode == ModeRelease {
		return nil, errors.New("config: confirmation.secret (or CONFIRM_SECRET) is required in release mode")
	}
	return cfg, nil
}

func Defaults() *Config {
	return &Config{
		Mode:     ModeDev,
		Timezone: "UTC",
		Server:   ServerConfig{Addr: ":8080"},
		DB:       DatabaseConfig{Driver: "mysql", Port: 3306},
		Interpreter: InterpreterConfig{
			Provider: "openrouter",
			BaseURL:  "https://openrouter.ai/api/v1",
			Model:    "openai/gpt-4o-mini",
			Timeout:  30 * time.Second,
			RPS:      5,
		},
		Confirmation: ConfirmationConfig{
			TTL:              5 * time.Minute,
			AllowForceResend: true,
			Store:            "memory",
		},
		Roster: RosterConfig{Source: "static"},
		Log:    LogConfig{Level: "info"},
	}
}

func applyEnv(cfg *Config) {
	setString := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	setString(&cfg.Mode, "APP_MODE")
	setString(&cfg.DB.Password, "DB_PASSWORD")
	setString(&cfg.Interpreter.APIKey, "INTERPRETER_API_KEY")
	setString(&cfg.Confirmation.Secret, "CONFIRM_SECRET")
	setString(&cfg.Confirmation.Redis.Password, "REDIS_PASSWORD")
	if v, ok := os.LookupEnv("DB_PORT"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.DB.Port = n
		}
	}
}

func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}
