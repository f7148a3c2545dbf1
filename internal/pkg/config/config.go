package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/facilops/sitepane/internal/core/domain"
	"github.com/facilops/sitepane/internal/core/gesture"
	"github.com/facilops/sitepane/internal/core/viewport"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Gesture   GestureConfig   `mapstructure:"gesture"`
	Viewport  ViewportConfig  `mapstructure:"viewport"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

// GestureConfig exposes the interaction thresholds for tuning without a
// redeploy. Distances are screen points, velocities points per second,
// windows milliseconds.
type GestureConfig struct {
	DetectThreshold  float64 `mapstructure:"detect_threshold"`
	PanThreshold     float64 `mapstructure:"pan_threshold"`
	VerticalBias     float64 `mapstructure:"vertical_bias"`
	DismissThreshold float64 `mapstructure:"dismiss_threshold"`
	FlickVelocity    float64 `mapstructure:"flick_velocity"`
	CooldownMS       int     `mapstructure:"cooldown_ms"`
	WatchdogMS       int     `mapstructure:"watchdog_ms"`
	GraceMS          int     `mapstructure:"grace_ms"`
}

// Runtime converts to the interaction core's config.
func (g GestureConfig) Runtime() gesture.Config {
	return gesture.Config{
		DetectThreshold:  g.DetectThreshold,
		PanThreshold:     g.PanThreshold,
		VerticalBias:     g.VerticalBias,
		DismissThreshold: g.DismissThreshold,
		FlickVelocity:    g.FlickVelocity,
		Cooldown:         time.Duration(g.CooldownMS) * time.Millisecond,
		Watchdog:         time.Duration(g.WatchdogMS) * time.Millisecond,
		Grace:            time.Duration(g.GraceMS) * time.Millisecond,
	}
}

// ViewportConfig exposes the auto-fit parameters and the fallback region.
type ViewportConfig struct {
	PaddingFactor float64 `mapstructure:"padding_factor"`
	MinSpan       float64 `mapstructure:"min_span"`
	DefaultLat    float64 `mapstructure:"default_lat"`
	DefaultLon    float64 `mapstructure:"default_lon"`
	DefaultSpan   float64 `mapstructure:"default_span"`
}

// Runtime converts to the fitter's config.
func (v ViewportConfig) Runtime() viewport.Config {
	return viewport.Config{
		PaddingFactor: v.PaddingFactor,
		MinSpan:       v.MinSpan,
		Default: domain.Viewport{
			Center:  domain.GeoPoint{Lat: v.DefaultLat, Lon: v.DefaultLon},
			SpanLat: v.DefaultSpan,
			SpanLon: v.DefaultSpan,
		},
	}
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "facilops")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "sitepane")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("gesture.detect_threshold", 5.0)
	v.SetDefault("gesture.pan_threshold", 15.0)
	v.SetDefault("gesture.vertical_bias", 0.7)
	v.SetDefault("gesture.dismiss_threshold", 120.0)
	v.SetDefault("gesture.flick_velocity", 300.0)
	v.SetDefault("gesture.cooldown_ms", 300)
	v.SetDefault("gesture.watchdog_ms", 2000)
	v.SetDefault("gesture.grace_ms", 500)
	v.SetDefault("viewport.padding_factor", 1.3)
	v.SetDefault("viewport.min_span", 0.01)
	v.SetDefault("viewport.default_lat", 40.7128)
	v.SetDefault("viewport.default_lon", -74.0060)
	v.SetDefault("viewport.default_span", 0.25)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: SITEPANE_DATABASE_HOST → database.host
	v.SetEnvPrefix("SITEPANE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Database.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, "database.user is required")
	}
	if c.Database.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Gesture.DetectThreshold <= 0 {
		errs = append(errs, "gesture.detect_threshold must be positive")
	}
	if c.Gesture.PanThreshold <= c.Gesture.DetectThreshold {
		errs = append(errs, fmt.Sprintf("gesture.pan_threshold must exceed detect_threshold, got %v <= %v",
			c.Gesture.PanThreshold, c.Gesture.DetectThreshold))
	}
	if c.Gesture.VerticalBias <= 0 || c.Gesture.VerticalBias >= 1 {
		errs = append(errs, fmt.Sprintf("gesture.vertical_bias must be in (0, 1), got %v", c.Gesture.VerticalBias))
	}
	if c.Gesture.DismissThreshold <= 0 {
		errs = append(errs, "gesture.dismiss_threshold must be positive")
	}
	if c.Gesture.FlickVelocity <= 0 {
		errs = append(errs, "gesture.flick_velocity must be positive")
	}
	if c.Gesture.CooldownMS <= 0 || c.Gesture.WatchdogMS <= 0 || c.Gesture.GraceMS <= 0 {
		errs = append(errs, "gesture windows (cooldown_ms, watchdog_ms, grace_ms) must be positive")
	}
	if c.Viewport.PaddingFactor < 1 {
		errs = append(errs, fmt.Sprintf("viewport.padding_factor must be >= 1, got %v", c.Viewport.PaddingFactor))
	}
	if c.Viewport.MinSpan <= 0 {
		errs = append(errs, "viewport.min_span must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
