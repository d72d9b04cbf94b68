package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port          string
	GinMode       string
	ModelDir      string
	PreloadModels bool
	LogLevel      string
	LogFormat     string
	AppName       string
	CORSOrigins   []string
	MaxBodyBytes  int64
	RiskThreshold int
	APIRateLimit  float64
	APIRateBurst  int
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("PRELOAD_MODELS", true)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("APP_NAME", "chronic-risk")
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("MAX_BODY_BYTES", 1<<20)
	v.SetDefault("RISK_THRESHOLD", 75)
	v.SetDefault("API_RATE_LIMIT", 0)
	v.SetDefault("API_RATE_BURST", 20)

	cfg := &Config{
		Port:          v.GetString("PORT"),
		GinMode:       v.GetString("GIN_MODE"),
		ModelDir:      v.GetString("MODEL_DIR"),
		PreloadModels: v.GetBool("PRELOAD_MODELS"),
		LogLevel:      strings.ToLower(v.GetString("LOG_LEVEL")),
		LogFormat:     strings.ToLower(v.GetString("LOG_FORMAT")),
		AppName:       v.GetString("APP_NAME"),
		CORSOrigins:   splitList(v.GetString("CORS_ORIGINS")),
		MaxBodyBytes:  v.GetInt64("MAX_BODY_BYTES"),
		RiskThreshold: v.GetInt("RISK_THRESHOLD"),
		APIRateLimit:  v.GetFloat64("API_RATE_LIMIT"),
		APIRateBurst:  v.GetInt("API_RATE_BURST"),
	}
	if cfg.ModelDir == "" {
		cfg.ModelDir = detectModelDir()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.LogFormat {
	case "console", "json", "ecs":
	default:
		return fmt.Errorf("LOG_FORMAT must be console, json or ecs, got %q", c.LogFormat)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive, got %d", c.MaxBodyBytes)
	}
	if c.RiskThreshold < 0 || c.RiskThreshold > 100 {
		return fmt.Errorf("RISK_THRESHOLD must be within [0,100], got %d", c.RiskThreshold)
	}
	if c.APIRateLimit < 0 || (c.APIRateLimit > 0 && c.APIRateBurst <= 0) {
		return fmt.Errorf("API_RATE_LIMIT must be >= 0 with a positive API_RATE_BURST, got %v/%d", c.APIRateLimit, c.APIRateBurst)
	}
	if len(c.CORSOrigins) == 0 {
		return fmt.Errorf("CORS_ORIGINS must list at least one origin")
	}
	return nil
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// detectModelDir looks for a models directory next to the working
// directory or up to two levels above it.
func detectModelDir() string {
	startDir, err := os.Getwd()
	if err != nil {
		return "models"
	}

	candidates := []string{
		startDir,
		filepath.Dir(startDir),
		filepath.Dir(filepath.Dir(startDir)),
	}

	for _, dir := range candidates {
		if dirExists(filepath.Join(dir, "models")) {
			return filepath.Join(dir, "models")
		}
	}

	return filepath.Join(startDir, "models")
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
