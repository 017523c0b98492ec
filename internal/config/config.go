package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	App      AppConfig      `toml:"app"`
	Log      LogConfig      `toml:"log"`
	Auth     AuthConfig     `toml:"auth"`
	LLM      LLMConfig      `toml:"llm"`
	Upload   UploadConfig   `toml:"upload"`
	Extract  ExtractConfig  `toml:"extract"`
	Session  SessionConfig  `toml:"session"`
	Redis    RedisConfig    `toml:"redis"`
	RabbitMQ RabbitMQConfig `toml:"rabbitmq"`
}

type AppConfig struct {
	Name    string `toml:"name"`
	Env     string `toml:"env"`
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
	GinMode string `toml:"gin_mode"`
}

type LogConfig struct {
	Level string `toml:"level"`
	// File enables rotated JSON file output in addition to stdout.
	File string `toml:"file"`
}

type AuthConfig struct {
	TokenSecret       string `toml:"token_secret"`
	TokenExpireMinute int    `toml:"token_expire_minute"`
}

type LLMConfig struct {
	Provider       string `toml:"provider"` // "gemini" or "openai"
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxPromptChars int    `toml:"max_prompt_chars"`
}

type UploadConfig struct {
	MaxSizeMB int    `toml:"max_size_mb"`
	TempDir   string `toml:"temp_dir"`
}

type ExtractConfig struct {
	OCRLanguage   string  `toml:"ocr_language"`
	DPI           float64 `toml:"dpi"`
	MaxImageWidth int     `toml:"max_image_width"`
	// OCRClients caps the tesseract clients kept open; 0 means one per CPU.
	OCRClients int `toml:"ocr_clients"`
}

type SessionConfig struct {
	Backend    string `toml:"backend"` // "memory" or "redis"
	TTLMinutes int    `toml:"ttl_minutes"`
}

type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

type RabbitMQConfig struct {
	// URL left empty disables event publishing.
	URL        string `toml:"url"`
	EventQueue string `toml:"event_queue"`
}

func Load() (*Config, error) {
	cfg := defaultConfig()

	configPath := getEnv("CONFIG_FILE", "configs/config.toml")
	if _, err := os.Stat(configPath); err == nil {
		if _, err := toml.DecodeFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("decode config file failed: %w", err)
		}
	}

	overrideByEnv(cfg)
	cfg.clamp()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.App.Host, c.App.Port)
}

func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Upload.MaxSizeMB) << 20
}

// maxPromptChars is the hard ceiling on document text per prompt.
const maxPromptChars = 50000

// clamp pulls tunables back into their allowed range.
func (c *Config) clamp() {
	if c.LLM.MaxPromptChars <= 0 || c.LLM.MaxPromptChars > maxPromptChars {
		c.LLM.MaxPromptChars = maxPromptChars
	}
	if c.Extract.OCRClients < 0 {
		c.Extract.OCRClients = 0
	}
}

func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "gemini", "openai":
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}
	switch c.Session.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown session backend %q", c.Session.Backend)
	}
	if c.Upload.MaxSizeMB <= 0 {
		return fmt.Errorf("upload.max_size_mb must be positive")
	}
	if strings.TrimSpace(c.Auth.TokenSecret) == "" {
		return fmt.Errorf("auth.token_secret is empty")
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:    "pdfchat",
			Env:     "dev",
			Host:    "0.0.0.0",
			Port:    8080,
			GinMode: "debug",
		},
		Log: LogConfig{
			Level: "info",
		},
		Auth: AuthConfig{
			TokenSecret:       "change-me-in-production",
			TokenExpireMinute: 240,
		},
		LLM: LLMConfig{
			Provider:       "gemini",
			BaseURL:        "https://generativelanguage.googleapis.com/v1beta/openai",
			Model:          "gemini-1.5-flash",
			TimeoutSeconds: 60,
			MaxPromptChars: maxPromptChars,
		},
		Upload: UploadConfig{
			MaxSizeMB: 200,
			TempDir:   os.TempDir(),
		},
		Extract: ExtractConfig{
			OCRLanguage:   "eng",
			DPI:           300,
			MaxImageWidth: 2480,
		},
		Session: SessionConfig{
			Backend:    "memory",
			TTLMinutes: 240,
		},
		Redis: RedisConfig{
			Addr: "127.0.0.1:6379",
			DB:   0,
		},
		RabbitMQ: RabbitMQConfig{
			URL:        "",
			EventQueue: "pdfchat.events",
		},
	}
}

func overrideByEnv(cfg *Config) {
	cfg.App.Name = getEnv("APP_NAME", cfg.App.Name)
	cfg.App.Env = getEnv("APP_ENV", cfg.App.Env)
	cfg.App.Host = getEnv("APP_HOST", cfg.App.Host)
	cfg.App.Port = getEnvAsInt("APP_PORT", cfg.App.Port)
	cfg.App.GinMode = getEnv("GIN_MODE", cfg.App.GinMode)

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.File = getEnv("LOG_FILE", cfg.Log.File)

	cfg.Auth.TokenSecret = getEnv("TOKEN_SECRET", cfg.Auth.TokenSecret)
	cfg.Auth.TokenExpireMinute = getEnvAsInt("TOKEN_EXPIRE_MINUTE", cfg.Auth.TokenExpireMinute)

	cfg.LLM.Provider = strings.ToLower(getEnv("LLM_PROVIDER", cfg.LLM.Provider))
	cfg.LLM.BaseURL = getEnv("LLM_BASE_URL", cfg.LLM.BaseURL)
	cfg.LLM.Model = getEnv("LLM_MODEL", cfg.LLM.Model)
	cfg.LLM.TimeoutSeconds = getEnvAsInt("LLM_TIMEOUT_SECONDS", cfg.LLM.TimeoutSeconds)
	cfg.LLM.MaxPromptChars = getEnvAsInt("LLM_MAX_PROMPT_CHARS", cfg.LLM.MaxPromptChars)
	cfg.LLM.APIKey = getEnv("LLM_API_KEY", cfg.LLM.APIKey)
	if cfg.LLM.APIKey == "" && cfg.LLM.Provider == "gemini" {
		cfg.LLM.APIKey = getEnv("GOOGLE_API_KEY", "")
	}

	cfg.Upload.MaxSizeMB = getEnvAsInt("UPLOAD_MAX_SIZE_MB", cfg.Upload.MaxSizeMB)
	cfg.Upload.TempDir = getEnv("UPLOAD_TEMP_DIR", cfg.Upload.TempDir)

	cfg.Extract.OCRLanguage = getEnv("EXTRACT_OCR_LANGUAGE", cfg.Extract.OCRLanguage)
	cfg.Extract.DPI = getEnvAsFloat("EXTRACT_DPI", cfg.Extract.DPI)
	cfg.Extract.MaxImageWidth = getEnvAsInt("EXTRACT_MAX_IMAGE_WIDTH", cfg.Extract.MaxImageWidth)
	cfg.Extract.OCRClients = getEnvAsInt("EXTRACT_OCR_CLIENTS", cfg.Extract.OCRClients)

	cfg.Session.Backend = strings.ToLower(getEnv("SESSION_BACKEND", cfg.Session.Backend))
	cfg.Session.TTLMinutes = getEnvAsInt("SESSION_TTL_MINUTES", cfg.Session.TTLMinutes)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvAsInt("REDIS_DB", cfg.Redis.DB)

	cfg.RabbitMQ.URL = getEnv("RABBITMQ_URL", cfg.RabbitMQ.URL)
	cfg.RabbitMQ.EventQueue = getEnv("RABBITMQ_EVENT_QUEUE", cfg.RabbitMQ.EventQueue)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsFloat(key string, fallback float64) float64 {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
