package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const devJWTSecret = "foodbridge-dev-secret"

type Config struct {
	Port          string `mapstructure:"port"`
	MongoURI      string `mapstructure:"mongo_uri"`
	MongoDB       string `mapstructure:"mongo_db"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	EventsChannel string `mapstructure:"events_channel"`

	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`

	CORSOrigins    []string `mapstructure:"cors_origins"`
	RateLimitRPS   float64  `mapstructure:"rate_limit_rps"`
	RateLimitBurst int      `mapstructure:"rate_limit_burst"`

	SweepInterval       time.Duration `mapstructure:"sweep_interval"`
	MinDeliveredPickups int           `mapstructure:"min_delivered_pickups"`
	ChartDays           int           `mapstructure:"chart_days"`

	AdminEmail    string `mapstructure:"admin_email"`
	AdminPassword string `mapstructure:"admin_password"`
}

var defaults = map[string]any{
	"port":                  ":8080",
	"mongo_uri":             "mongodb://localhost:27017",
	"mongo_db":              "foodbridge",
	"redis_addr":            "localhost:6379",
	"redis_password":        "",
	"redis_db":              0,
	"events_channel":        "foodbridge-events",
	"jwt_secret":            "",
	"token_ttl":             "168h",
	"cors_origins":          "*",
	"rate_limit_rps":        5,
	"rate_limit_burst":      10,
	"sweep_interval":        "1m",
	"min_delivered_pickups": 3,
	"chart_days":            30,
	"admin_email":           "",
	"admin_password":        "",
}

// Load reads an optional .env, then the config file (if given), then the
// environment. Environment variables are the upper-cased keys.
func Load(cfgFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		log.Println("Using config file:", v.ConfigFileUsed())
	}

	var cfg Config
	decoderConfigOption := viper.DecoderConfigOption(func(dc *mapstructure.DecoderConfig) {
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	})
	if err := v.Unmarshal(&cfg, decoderConfigOption); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	if c.Port != "" && c.Port[0] != ':' && !strings.Contains(c.Port, ":") {
		c.Port = ":" + c.Port
	}
	for i, o := range c.CORSOrigins {
		c.CORSOrigins[i] = strings.TrimSpace(o)
	}
	if c.JWTSecret == "" {
		log.Println("JWT_SECRET not set; using the development secret")
		c.JWTSecret = devJWTSecret
	}

	var problems []string
	if c.TokenTTL <= 0 {
		problems = append(problems, "token_ttl must be positive")
	}
	if c.SweepInterval <= 0 {
		problems = append(problems, "sweep_interval must be positive")
	}
	if c.MinDeliveredPickups < 0 {
		problems = append(problems, "min_delivered_pickups must not be negative")
	}
	if c.ChartDays < 1 || c.ChartDays > 365 {
		problems = append(problems, "chart_days must be between 1 and 365")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst < 1 {
		problems = append(problems, "rate_limit_rps and rate_limit_burst must be positive")
	}
	if len(problems) > 0 {
		return errors.New("invalid config: " + strings.Join(problems, "; "))
	}
	return nil
}
