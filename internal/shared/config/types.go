package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"`
	TrustedProxies []string `mapstructure:"trusted_proxies"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type RedisConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Password       string `mapstructure:"password"`
	DB             int    `mapstructure:"db"`
	DialTimeoutMs  int    `mapstructure:"dial_timeout_ms"`
	ReadTimeoutMs  int    `mapstructure:"read_timeout_ms"`
	WriteTimeoutMs int    `mapstructure:"write_timeout_ms"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret           string `mapstructure:"secret"`
	AccessExpMinutes int    `mapstructure:"access_exp_minutes"`
}

type AuthConfig struct {
	JWT JWTConfig `mapstructure:"jwt"`
}

// RateLimitConfig tunes the limiter core and its degraded mode.
type RateLimitConfig struct {
	StoreTimeoutMs          int    `mapstructure:"store_timeout_ms"`
	BreakerFailureThreshold int    `mapstructure:"breaker_failure_threshold"`
	BreakerCooldownSeconds  int    `mapstructure:"breaker_cooldown_seconds"`
	FallbackSweepSchedule   string `mapstructure:"fallback_sweep_schedule"`
}

func (r *RateLimitConfig) StoreTimeout() time.Duration {
	return time.Duration(r.StoreTimeoutMs) * time.Millisecond
}

func (r *RateLimitConfig) BreakerCooldown() time.Duration {
	return time.Duration(r.BreakerCooldownSeconds) * time.Second
}

// AbuseConfig controls abuse detection and the alert log.
type AbuseConfig struct {
	ThresholdRatio  float64 `mapstructure:"threshold_ratio"`
	HighRatio       float64 `mapstructure:"high_ratio"`
	ListCapacity    int     `mapstructure:"list_capacity"`
	TTLHours        int     `mapstructure:"ttl_hours"`
	CooldownSeconds int     `mapstructure:"cooldown_seconds"`
	Channel         string  `mapstructure:"channel"`
}

func (a *AbuseConfig) TTL() time.Duration {
	return time.Duration(a.TTLHours) * time.Hour
}

func (a *AbuseConfig) Cooldown() time.Duration {
	return time.Duration(a.CooldownSeconds) * time.Second
}

// PolicyConfig is one entry of the endpoint policy table.
type PolicyConfig struct {
	Limit         int `mapstructure:"limit"`
	WindowSeconds int `mapstructure:"window_seconds"`
	Cost          int `mapstructure:"cost"`
}

// AdminConfig holds the casbin policy guarding the admin interface.
// Policies are "role, resource, action" triples; Roles are "child, parent" pairs.
type AdminConfig struct {
	Policies [][]string `mapstructure:"policies"`
	Roles    [][]string `mapstructure:"roles"`
}
