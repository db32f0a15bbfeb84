package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ProviderMock        = "mock"
	ProviderOpenWeather = "openweather"
	ProviderWeatherAPI  = "weatherapi"
	ProviderOpenMeteo   = "openmeteo"
)

type AppConfig struct {
	Port string

	// Provider selects the weather source: mock, openweather, weatherapi or openmeteo.
	Provider          string
	OpenWeatherAPIKey string
	OpenWeatherURL    string
	WeatherAPIKey     string
	WeatherAPIURL     string
	HTTPTimeout       time.Duration
	MaxRetries        int     // transport retries per call (0 = none)
	RateLimitRPS      float64 // outbound provider calls per second
	RateLimitBurst    int

	DefaultCity string
	ErrorTTL    time.Duration

	// AutoRefreshInterval re-fetches the displayed city (0 = disabled).
	AutoRefreshInterval time.Duration

	LogLevel  string
	LogFormat string
}

// Load reads configuration from .env, an optional config.yaml and the
// environment, with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("weather_provider", ProviderMock)
	v.SetDefault("openweather_api_key", "")
	v.SetDefault("openweather_base_url", "")
	v.SetDefault("weatherapi_api_key", "")
	v.SetDefault("weatherapi_base_url", "")
	v.SetDefault("http_timeout", "10s")
	v.SetDefault("provider_max_retries", 0)
	v.SetDefault("provider_rps", 1.0)
	v.SetDefault("provider_burst", 3)
	v.SetDefault("default_city", "London")
	v.SetDefault("error_ttl", "5s")
	v.SetDefault("auto_refresh_interval", "0s")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
}

func fromViper(v *viper.Viper) (*AppConfig, error) {
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &AppConfig{
		Port:              v.GetString("port"),
		Provider:          strings.ToLower(v.GetString("weather_provider")),
		OpenWeatherAPIKey: v.GetString("openweather_api_key"),
		OpenWeatherURL:    v.GetString("openweather_base_url"),
		WeatherAPIKey:     v.GetString("weatherapi_api_key"),
		WeatherAPIURL:     v.GetString("weatherapi_base_url"),
		MaxRetries:        v.GetInt("provider_max_retries"),
		RateLimitRPS:      v.GetFloat64("provider_rps"),
		RateLimitBurst:    v.GetInt("provider_burst"),
		DefaultCity:       strings.TrimSpace(v.GetString("default_city")),
		LogLevel:          v.GetString("log_level"),
		LogFormat:         v.GetString("log_format"),
	}

	var err error
	if cfg.HTTPTimeout, err = parseDuration(v, "http_timeout"); err != nil {
		return nil, err
	}
	if cfg.ErrorTTL, err = parseDuration(v, "error_ttl"); err != nil {
		return nil, err
	}
	if cfg.AutoRefreshInterval, err = parseDuration(v, "auto_refresh_interval"); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", strings.ToUpper(key), err)
	}
	return d, nil
}

func (c *AppConfig) validate() error {
	switch c.Provider {
	case ProviderMock, ProviderOpenWeather, ProviderWeatherAPI, ProviderOpenMeteo:
	default:
		return fmt.Errorf("invalid WEATHER_PROVIDER %q: want one of %s",
			c.Provider, strings.Join([]string{ProviderMock, ProviderOpenWeather, ProviderWeatherAPI, ProviderOpenMeteo}, ", "))
	}
	if c.DefaultCity == "" {
		return fmt.Errorf("DEFAULT_CITY must not be empty")
	}
	if c.ErrorTTL <= 0 {
		return fmt.Errorf("ERROR_TTL must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("PROVIDER_MAX_RETRIES must not be negative")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("PROVIDER_RPS and PROVIDER_BURST must be positive")
	}
	return nil
}
