package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultOpenRouterURL = "https://openrouter.ai/api/v1/chat/completions"
	DefaultModels        = "google/gemma-3-27b-it:free,openai/gpt-oss-20b:free"
)

type Config struct {
	Port         string `yaml:"port"`
	LogLevel     string `yaml:"log_level"`
	UploadDir    string `yaml:"upload_dir"`
	DatabasePath string `yaml:"database_path"`
	InboxDir     string `yaml:"inbox_dir"`

	// OpenRouter
	OpenRouterAPIKey string        `yaml:"openrouter_api_key"`
	OpenRouterURL    string        `yaml:"openrouter_url"`
	Models           []string      `yaml:"models"`
	MaxTokens        int           `yaml:"max_tokens"`
	AppReferer       string        `yaml:"app_referer"`
	AppTitle         string        `yaml:"app_title"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`

	// Batch processing
	PaceDelay     time.Duration `yaml:"pace_delay"`
	MaxUploadSize int64         `yaml:"max_upload_size"`
	PdftoppmPath  string        `yaml:"pdftoppm_path"`

	// S3 archive
	ArchiveEnabled    bool   `yaml:"archive_enabled"`
	S3Endpoint        string `yaml:"s3_endpoint"`
	S3AccessKeyID     string `yaml:"s3_access_key_id"`
	S3SecretAccessKey string `yaml:"s3_secret_access_key"`
	S3BucketName      string `yaml:"s3_bucket_name"`
	S3UseSSL          bool   `yaml:"s3_use_ssl"`
}

// Load builds the configuration from .env, the process environment and,
// when configFile or CONFIG_FILE is set, a YAML file whose values take precedence.
func Load(configFile string) (*Config, error) {
	// Missing .env is not an error.
	_ = godotenv.Load()

	cfg := FromEnv()

	path := configFile
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		if err := cfg.MergeFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// FromEnv reads every setting from the environment, applying defaults.
func FromEnv() *Config {
	return &Config{
		Port:              getEnv("PORT", "8080"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		UploadDir:         getEnv("UPLOAD_DIR", "uploads"),
		DatabasePath:      getEnv("DATABASE_PATH", "data/assistant.db"),
		InboxDir:          getEnv("INBOX_DIR", "inbox"),
		OpenRouterAPIKey:  getEnv("OPENROUTER_API_KEY", ""),
		OpenRouterURL:     getEnv("OPENROUTER_URL", DefaultOpenRouterURL),
		Models:            splitList(getEnv("OPENROUTER_MODELS", DefaultModels)),
		MaxTokens:         getEnvAsInt("OPENROUTER_MAX_TOKENS", 1024),
		AppReferer:        getEnv("APP_REFERER", "https://github.com/BerylCAtieno/document-assistant"),
		AppTitle:          getEnv("APP_TITLE", "Assistente de Documentos"),
		RequestTimeout:    getEnvAsDuration("OPENROUTER_TIMEOUT", 120*time.Second),
		PaceDelay:         getEnvAsDuration("PACE_DELAY", time.Second),
		MaxUploadSize:     int64(getEnvAsInt("MAX_UPLOAD_SIZE", 50<<20)),
		PdftoppmPath:      getEnv("PDFTOPPM_PATH", "pdftoppm"),
		ArchiveEnabled:    getEnv("ARCHIVE_ENABLED", "false") == "true",
		S3Endpoint:        getEnv("S3_ENDPOINT", "localhost:9000"),
		S3AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", "minioadmin"),
		S3SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", "minioadmin"),
		S3BucketName:      getEnv("S3_BUCKET_NAME", "documents"),
		S3UseSSL:          getEnv("S3_USE_SSL", "false") == "true",
	}
}

// MergeFile overlays the non-zero values found in a YAML file.
func (c *Config) MergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.merge(&fileCfg)
	return nil
}

func (c *Config) merge(o *Config) {
	setString(&c.Port, o.Port)
	setString(&c.LogLevel, o.LogLevel)
	setString(&c.UploadDir, o.UploadDir)
	setString(&c.DatabasePath, o.DatabasePath)
	setString(&c.InboxDir, o.InboxDir)
	setString(&c.OpenRouterAPIKey, o.OpenRouterAPIKey)
	setString(&c.OpenRouterURL, o.OpenRouterURL)
	setString(&c.AppReferer, o.AppReferer)
	setString(&c.AppTitle, o.AppTitle)
	setString(&c.PdftoppmPath, o.PdftoppmPath)
	setString(&c.S3Endpoint, o.S3Endpoint)
	setString(&c.S3AccessKeyID, o.S3AccessKeyID)
	setString(&c.S3SecretAccessKey, o.S3SecretAccessKey)
	setString(&c.S3BucketName, o.S3BucketName)

	if len(o.Models) > 0 {
		c.Models = o.Models
	}
	if o.MaxTokens > 0 {
		c.MaxTokens = o.MaxTokens
	}
	if o.RequestTimeout > 0 {
		c.RequestTimeout = o.RequestTimeout
	}
	if o.PaceDelay > 0 {
		c.PaceDelay = o.PaceDelay
	}
	if o.MaxUploadSize > 0 {
		c.MaxUploadSize = o.MaxUploadSize
	}
	if o.ArchiveEnabled {
		c.ArchiveEnabled = true
	}
	if o.S3UseSSL {
		c.S3UseSSL = true
	}
}

func (c *Config) Validate() error {
	if c.OpenRouterAPIKey == "" {
		return fmt.Errorf("OPENROUTER_API_KEY is required")
	}
	if len(c.Models) == 0 {
		return fmt.Errorf("at least one model is required in OPENROUTER_MODELS")
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max tokens must be positive, got %d", c.MaxTokens)
	}
	if c.UploadDir == "" {
		return fmt.Errorf("UPLOAD_DIR must not be empty")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func setString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
