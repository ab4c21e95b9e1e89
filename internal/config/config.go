package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port              string        `mapstructure:"PORT"`
	Env               string        `mapstructure:"ENV"`
	DatabaseURL       string        `mapstructure:"DATABASE_URL"`
	DBMaxConns        int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns        int32         `mapstructure:"DB_MIN_CONNS"`
	JWTSigningKey     string        `mapstructure:"JWT_SIGNING_KEY"`
	CORSOrigins       []string      `mapstructure:"CORS_ORIGINS"`
	ShiftRotation     string        `mapstructure:"SHIFT_ROTATION"`
	UnitID            string        `mapstructure:"UNIT_ID"`
	SweepInterval     time.Duration `mapstructure:"SWEEP_INTERVAL"`
	SweepInitialDelay time.Duration `mapstructure:"SWEEP_INITIAL_DELAY"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("SHIFT_ROTATION", "day=07:00-19:00,night=19:00-07:00")
	v.SetDefault("UNIT_ID", "default")
	v.SetDefault("SWEEP_INTERVAL", "1h")
	v.SetDefault("SWEEP_INITIAL_DELAY", "1m")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("JWT_SIGNING_KEY")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("SHIFT_ROTATION")
	v.BindEnv("UNIT_ID")
	v.BindEnv("SWEEP_INTERVAL")
	v.BindEnv("SWEEP_INITIAL_DELAY")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate checks that the configuration is safe to run. Outside development
// a JWT signing key must be set so that bearer tokens are actually verified,
// and the sweeper timings must be sane.
func (c *Config) Validate() error {
	if !c.IsDev() && c.JWTSigningKey == "" {
		return fmt.Errorf("JWT_SIGNING_KEY is required when ENV is not \"development\"")
	}
	if c.ShiftRotation == "" {
		return fmt.Errorf("SHIFT_ROTATION is required")
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be positive, got %s", c.SweepInterval)
	}
	if c.SweepInitialDelay < 0 {
		return fmt.Errorf("SWEEP_INITIAL_DELAY must not be negative, got %s", c.SweepInitialDelay)
	}
	return nil
}
