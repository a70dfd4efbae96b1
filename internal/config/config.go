// Package config loads scantrack settings from defaults, an optional
// scantrack.yaml, SCANTRACK_* environment variables and command flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config keys.
const (
	KeyConfigFile         = "config"
	KeyDB                 = "db"
	KeyAddr               = "addr"
	KeyLog                = "log"
	KeyJWTTTL             = "jwt_ttl"
	KeyScanDebounce       = "scan.debounce"
	KeyRefreshInterval    = "refresh_interval"
	KeyTokenPurgeInterval = "token_purge_interval"
	KeyNATSURL            = "nats.url"
	KeyNATSSubject        = "nats.subject"
	KeyMetricsEnabled     = "metrics.enabled"
	KeyUnlockRate         = "unlock.rate"
	KeyUnlockBurst        = "unlock.burst"
)

const envPrefix = "SCANTRACK"

// Config holds all application configuration.
type Config struct {
	DB   string
	Addr string
	Log  string

	JWTTTL             time.Duration
	ScanDebounce       time.Duration
	RefreshInterval    time.Duration
	TokenPurgeInterval time.Duration

	NATS    NATSConfig
	Metrics MetricsConfig
	Unlock  UnlockConfig
}

// NATSConfig configures the shared change feed. An empty URL selects the
// in-process feed.
type NATSConfig struct {
	URL     string
	Subject string
}

// MetricsConfig toggles the /metrics endpoint.
type MetricsConfig struct {
	Enabled bool
}

// UnlockConfig limits password attempts per client. Rate is in attempts per
// second.
type UnlockConfig struct {
	Rate  float64
	Burst int
}

// SetDefaults registers the built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyDB, "scantrack.sqlite3")
	v.SetDefault(KeyAddr, ":8080")
	v.SetDefault(KeyLog, "")
	v.SetDefault(KeyJWTTTL, 15*time.Minute)
	v.SetDefault(KeyScanDebounce, 2*time.Second)
	v.SetDefault(KeyRefreshInterval, 30*time.Second)
	v.SetDefault(KeyTokenPurgeInterval, time.Hour)
	v.SetDefault(KeyNATSURL, "")
	v.SetDefault(KeyNATSSubject, "scantrack.changes")
	v.SetDefault(KeyMetricsEnabled, true)
	v.SetDefault(KeyUnlockRate, 0.2)
	v.SetDefault(KeyUnlockBurst, 5)
}

// New returns a viper instance with defaults, the config file search path
// and environment overrides set up. Flags are bound by the caller.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	v.SetConfigName("scantrack")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/scantrack")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadDotEnv loads environment variables from a .env file. A missing file
// is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Load reads the config file (if any) into v and returns the validated
// configuration.
func Load(v *viper.Viper) (*Config, error) {
	if file := v.GetString(KeyConfigFile); file != "" {
		v.SetConfigFile(file)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// No config file: defaults, env and flags only.
	}

	cfg := &Config{
		DB:                 v.GetString(KeyDB),
		Addr:               v.GetString(KeyAddr),
		Log:                v.GetString(KeyLog),
		JWTTTL:             v.GetDuration(KeyJWTTTL),
		ScanDebounce:       v.GetDuration(KeyScanDebounce),
		RefreshInterval:    v.GetDuration(KeyRefreshInterval),
		TokenPurgeInterval: v.GetDuration(KeyTokenPurgeInterval),
		NATS: NATSConfig{
			URL:     v.GetString(KeyNATSURL),
			Subject: v.GetString(KeyNATSSubject),
		},
		Metrics: MetricsConfig{
			Enabled: v.GetBool(KeyMetricsEnabled),
		},
		Unlock: UnlockConfig{
			Rate:  v.GetFloat64(KeyUnlockRate),
			Burst: v.GetInt(KeyUnlockBurst),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.DB) == "" {
		errs = append(errs, fmt.Errorf("%s must not be empty", KeyDB))
	}
	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, fmt.Errorf("%s must not be empty", KeyAddr))
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", KeyJWTTTL))
	}
	if c.ScanDebounce < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative", KeyScanDebounce))
	}
	if c.RefreshInterval < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative", KeyRefreshInterval))
	}
	if c.TokenPurgeInterval < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative", KeyTokenPurgeInterval))
	}
	if c.NATS.URL != "" && strings.TrimSpace(c.NATS.Subject) == "" {
		errs = append(errs, fmt.Errorf("%s is required when %s is set", KeyNATSSubject, KeyNATSURL))
	}
	if c.Unlock.Rate <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", KeyUnlockRate))
	}
	if c.Unlock.Burst < 1 {
		errs = append(errs, fmt.Errorf("%s must be at least 1", KeyUnlockBurst))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}
