package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port           string   `mapstructure:"PORT"`
	Env            string   `mapstructure:"ENV"`
	DatabaseURL    string   `mapstructure:"DATABASE_URL"`
	DBMaxConns     int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns     int32    `mapstructure:"DB_MIN_CONNS"`
	JWTSecret      string   `mapstructure:"JWT_SECRET"`
	TokenTTLHours  int      `mapstructure:"TOKEN_TTL_HOURS"`
	CORSOrigins    []string `mapstructure:"CORS_ORIGINS"`
	MigrationsDir  string   `mapstructure:"MIGRATIONS_DIR"`
	WorkDayStart   string   `mapstructure:"WORK_DAY_START"`
	WorkDayEnd     string   `mapstructure:"WORK_DAY_END"`
	SlotGranuMin   int      `mapstructure:"SLOT_GRANULARITY_MIN"`
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
	v.SetDefault("TOKEN_TTL_HOURS", 24)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("MIGRATIONS_DIR", "migrations")
	v.SetDefault("WORK_DAY_START", "09:00")
	v.SetDefault("WORK_DAY_END", "17:00")
	v.SetDefault("SLOT_GRANULARITY_MIN", 30)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("TOKEN_TTL_HOURS")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("MIGRATIONS_DIR")
	v.BindEnv("WORK_DAY_START")
	v.BindEnv("WORK_DAY_END")
	v.BindEnv("SLOT_GRANULARITY_MIN")

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

// Validate checks the configuration is safe to run. Outside development
// a real JWT secret is mandatory, and the working-hours window must be
// a valid, non-empty interval.
func (c *Config) Validate() error {
	if !c.IsDev() && len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 bytes outside development")
	}
	start, err := parseClock(c.WorkDayStart)
	if err != nil {
		return fmt.Errorf("WORK_DAY_START: %w", err)
	}
	end, err := parseClock(c.WorkDayEnd)
	if err != nil {
		return fmt.Errorf("WORK_DAY_END: %w", err)
	}
	if start >= end {
		return fmt.Errorf("working hours window %s-%s is empty", c.WorkDayStart, c.WorkDayEnd)
	}
	if c.SlotGranuMin < 15 {
		return fmt.Errorf("SLOT_GRANULARITY_MIN must be at least 15, got %d", c.SlotGranuMin)
	}
	return nil
}

// Hours is the work-day window in minutes since midnight.
type Hours struct {
	Start int
	End   int
}

// WorkingHours parses WORK_DAY_START and WORK_DAY_END.
func (c *Config) WorkingHours() (Hours, error) {
	start, err := parseClock(c.WorkDayStart)
	if err != nil {
		return Hours{}, fmt.Errorf("WORK_DAY_START: %w", err)
	}
	end, err := parseClock(c.WorkDayEnd)
	if err != nil {
		return Hours{}, fmt.Errorf("WORK_DAY_END: %w", err)
	}
	return Hours{Start: start, End: end}, nil
}

func parseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid HH:MM value %q", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid HH:MM value %q", s)
	}
	return h*60 + m, nil
}
