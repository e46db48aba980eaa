package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"

	sharedConfig "github.com/campusportal/admission/internal/shared/config"
)

type Config struct {
	Server    sharedConfig.ServerConfig            `mapstructure:"server"`
	Logger    sharedConfig.LoggerConfig            `mapstructure:"logger"`
	Redis     sharedConfig.RedisConfig             `mapstructure:"redis"`
	Auth      sharedConfig.AuthConfig              `mapstructure:"auth"`
	RateLimit sharedConfig.RateLimitConfig         `mapstructure:"rate_limit"`
	Abuse     sharedConfig.AbuseConfig             `mapstructure:"abuse"`
	Policies  map[string]sharedConfig.PolicyConfig `mapstructure:"policies"`
	Admin     sharedConfig.AdminConfig             `mapstructure:"admin"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load loads configuration from configs/config.yaml and ADMISSION_* environment variables.
// Extra search paths are consulted before the defaults.
func Load(env string, searchPaths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range searchPaths {
		v.AddConfigPath(p)
	}
	v.AddConfigPath("./configs")
	v.AddConfigPath("../configs")
	v.AddConfigPath("../../configs")

	v.SetEnvPrefix("ADMISSION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if env != "" && env != "default" {
		v.Set("server.mode", env)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

// Get returns the most recently loaded configuration.
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output_path", "stdout")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.dial_timeout_ms", 500)
	v.SetDefault("redis.read_timeout_ms", 200)
	v.SetDefault("redis.write_timeout_ms", 200)

	v.SetDefault("auth.jwt.secret", "change-me-in-production")
	v.SetDefault("auth.jwt.access_exp_minutes", 15)

	v.SetDefault("rate_limit.store_timeout_ms", 100)
	v.SetDefault("rate_limit.breaker_failure_threshold", 5)
	v.SetDefault("rate_limit.breaker_cooldown_seconds", 30)
	v.SetDefault("rate_limit.fallback_sweep_schedule", "@every 1m")

	v.SetDefault("abuse.threshold_ratio", 1.5)
	v.SetDefault("abuse.high_ratio", 2.0)
	v.SetDefault("abuse.list_capacity", 10000)
	v.SetDefault("abuse.ttl_hours", 24*7)
	v.SetDefault("abuse.cooldown_seconds", 300)
	v.SetDefault("abuse.channel", "ratelimit:abuse_alerts:events")
}
