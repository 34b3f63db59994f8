package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ============================================================
// Configuration
// ============================================================

type Config struct {
	Port         string
	Environment  string
	ReadTimeout  int
	WriteTimeout int
	DBPath       string
	SessionTTL   time.Duration
	LogLevel     string
	CORSOrigins  []string
	SnapPolicy   string
}

// Load загружает конфигурацию из переменных окружения
func Load() *Config {
	return FromViper(viper.New())
}

// FromViper читает конфигурацию из переданного экземпляра viper,
// предварительно выставив значения по умолчанию и привязку к env.
func FromViper(v *viper.Viper) *Config {
	v.SetDefault("port", "3003")
	v.SetDefault("env", "development")
	v.SetDefault("read_timeout", 10)
	v.SetDefault("write_timeout", 10)
	v.SetDefault("designer_db_path", "data/db/designer.db")
	v.SetDefault("session_ttl", "30m")
	v.SetDefault("log_level", "info")
	v.SetDefault("cors_origins", "*")
	v.SetDefault("snap_policy", "last-match")
	v.AutomaticEnv()

	ttl := v.GetDuration("session_ttl")
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}

	return &Config{
		Port:         v.GetString("port"),
		Environment:  v.GetString("env"),
		ReadTimeout:  v.GetInt("read_timeout"),
		WriteTimeout: v.GetInt("write_timeout"),
		DBPath:       v.GetString("designer_db_path"),
		SessionTTL:   ttl,
		LogLevel:     v.GetString("log_level"),
		CORSOrigins:  splitList(v.GetString("cors_origins")),
		SnapPolicy:   strings.ToLower(strings.TrimSpace(v.GetString("snap_policy"))),
	}
}

// IsDevelopment включает трассировку стека в recover middleware.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
