package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Encoder   EncoderConfig
	Scoring   ScoringConfig
	Registry  RegistryConfig
	Cache     CacheConfig
	Redis     RedisConfig
	Assistant AssistantConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    int
	WriteTimeout   int
	BodyLimit      int
	AllowedOrigins []string
	IsDevelopment  bool
}

// EncoderConfig bounds the required input fields. ReferenceDate pins the
// reference time used for age and season features; empty means "now".
type EncoderConfig struct {
	MinYear       int
	MaxYear       int
	MaxMileage    int
	ReferenceDate string
}

type ScoringConfig struct {
	Mode       string
	ModelURL   string
	TimeoutSec int
	RMSE       float64
	MinPrice   float64
	Jitter     float64
}

type RegistryConfig struct {
	BaseURL           string
	TimeoutSec        int
	MaxAttempts       int
	BreakerFailures   int
	BreakerTimeoutSec int
}

type CacheConfig struct {
	TTLSec     int
	MaxEntries int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type AssistantConfig struct {
	Enabled     bool
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float32
	MaxTokens   int
	MaxAttempts int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/car-price")

	viper.SetEnvPrefix("CAR_PRICE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects settings the services cannot start with.
func (c *Config) Validate() error {
	if c.Encoder.MinYear > c.Encoder.MaxYear {
		return fmt.Errorf("encoder.minYear %d is after encoder.maxYear %d", c.Encoder.MinYear, c.Encoder.MaxYear)
	}
	if c.Encoder.MaxMileage <= 0 {
		return fmt.Errorf("encoder.maxMileage must be positive")
	}
	if _, err := c.Encoder.Reference(); err != nil {
		return err
	}
	switch c.Scoring.Mode {
	case "model", "heuristic":
	default:
		return fmt.Errorf("scoring.mode must be model or heuristic, got %q", c.Scoring.Mode)
	}
	if c.Cache.MaxEntries <= 0 {
		return fmt.Errorf("cache.maxEntries must be positive")
	}
	return nil
}

// Reference parses ReferenceDate. The zero time means "use the clock".
func (e EncoderConfig) Reference() (time.Time, error) {
	if e.ReferenceDate == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", e.ReferenceDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid encoder.referenceDate: %w", err)
	}
	return t, nil
}

func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSec) * time.Second
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8000)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 30)
	viper.SetDefault("server.bodyLimit", 1048576)
	viper.SetDefault("server.allowedOrigins", []string{"*"})
	viper.SetDefault("server.isDevelopment", false)

	viper.SetDefault("encoder.minYear", 2001)
	viper.SetDefault("encoder.maxYear", 2025)
	viper.SetDefault("encoder.maxMileage", 200000)
	viper.SetDefault("encoder.referenceDate", "")

	viper.SetDefault("scoring.mode", "heuristic")
	viper.SetDefault("scoring.modelURL", "")
	viper.SetDefault("scoring.timeoutSec", 10)
	viper.SetDefault("scoring.rmse", 1970)
	viper.SetDefault("scoring.minPrice", 1000)
	viper.SetDefault("scoring.jitter", 0.05)

	viper.SetDefault("registry.baseURL", "https://vpic.nhtsa.dot.gov/api/vehicles")
	viper.SetDefault("registry.timeoutSec", 30)
	viper.SetDefault("registry.maxAttempts", 1)
	viper.SetDefault("registry.breakerFailures", 5)
	viper.SetDefault("registry.breakerTimeoutSec", 60)

	viper.SetDefault("cache.ttlSec", 3600)
	viper.SetDefault("cache.maxEntries", 100)

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("assistant.enabled", false)
	viper.SetDefault("assistant.apiKey", "")
	viper.SetDefault("assistant.model", "gpt-4o-mini")
	viper.SetDefault("assistant.baseURL", "")
	viper.SetDefault("assistant.temperature", 0.3)
	viper.SetDefault("assistant.maxTokens", 512)
	viper.SetDefault("assistant.maxAttempts", 2)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
