package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	DataDir               string `yaml:"data_dir"`
	DatabaseURL           string `yaml:"database_url"`
	RedisAddr             string `yaml:"redis_addr"`
	RedisPassword         string `yaml:"redis_password"`
	RedisDB               int    `yaml:"redis_db"`
	ReportCacheTTLSeconds int    `yaml:"report_cache_ttl_seconds"`
	SessionSecret         string `yaml:"session_secret"`
	SessionTTLMinutes     int    `yaml:"session_ttl_minutes"`
	ExportDir             string `yaml:"export_dir"`
	LogLevel              string `yaml:"log_level"`
	LogEncoding           string `yaml:"log_encoding"`
	LogOutput             string `yaml:"log_output"`
}

func Default() Config {
	return Config{
		DataDir:               ".",
		ReportCacheTTLSeconds: 60,
		SessionTTLMinutes:     30,
		ExportDir:             ".",
		LogLevel:              "warn",
		LogEncoding:           "console",
		LogOutput:             "stderr",
	}
}

// Load layers defaults, the YAML file named by MART_CONFIG (if any) and the
// environment, in that order.
func Load() (Config, error) {
	cfg := Default()
	if path := strings.TrimSpace(os.Getenv("MART_CONFIG")); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.applyEnv()
	cfg.normalize()
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.DataDir = getEnv("MART_DATA_DIR", c.DataDir)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = getEnv("REDIS_PASSWORD", c.RedisPassword)
	c.RedisDB = getEnvInt("REDIS_DB", c.RedisDB)
	c.ReportCacheTTLSeconds = getEnvInt("REPORT_CACHE_TTL_SECONDS", c.ReportCacheTTLSeconds)
	c.SessionSecret = strings.TrimSpace(getEnv("SESSION_SECRET", c.SessionSecret))
	c.SessionTTLMinutes = getEnvInt("SESSION_TTL_MINUTES", c.SessionTTLMinutes)
	c.ExportDir = getEnv("EXPORT_DIR", c.ExportDir)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogEncoding = getEnv("LOG_ENCODING", c.LogEncoding)
	c.LogOutput = getEnv("LOG_OUTPUT", c.LogOutput)
}

func (c *Config) normalize() {
	defaults := Default()
	if c.DataDir == "" {
		c.DataDir = defaults.DataDir
	}
	if c.ExportDir == "" {
		c.ExportDir = defaults.ExportDir
	}
	if c.ReportCacheTTLSeconds < 1 {
		c.ReportCacheTTLSeconds = defaults.ReportCacheTTLSeconds
	}
	if c.SessionTTLMinutes < 1 {
		c.SessionTTLMinutes = defaults.SessionTTLMinutes
	}
}

func (c Config) LogOutputs() []string {
	outputs := make([]string, 0, 2)
	for _, part := range strings.Split(c.LogOutput, ",") {
		if part = strings.TrimSpace(part); part != "" {
			outputs = append(outputs, part)
		}
	}
	return outputs
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return i
		}
	}
	return fallback
}
