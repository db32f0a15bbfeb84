package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/i474232898/weather-widget/internal/weather"
)

// DefaultOpenWeatherBaseURL is the OpenWeatherMap 2.5 API root.
const DefaultOpenWeatherBaseURL = "https://api.openweathermap.org/data/2.5"

// Forecast list entries are 3 hours apart; these indexes give now, +6h and +12h.
var forecastCheckpointIndexes = []int{0, 2, 4}

// OpenWeatherConfig configures the OpenWeatherMap provider.
type OpenWeatherConfig struct {
	APIKey     string
	BaseURL    string
	MaxRetries int
}

// OpenWeatherProvider implements weather.Provider for OpenWeatherMap.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

func NewOpenWeatherProvider(client *http.Client, cfg OpenWeatherConfig, logger *zap.Logger) *OpenWeatherProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultOpenWeatherBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCfg: HTTPClientConfig{
			Client: client,
			Backoff: BackoffConfig{
				MaxRetries:      cfg.MaxRetries,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit: newCircuitBreaker("openweather"),
		logger:  logger.Named("openweather"),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

type owmCondition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
}

func (p *OpenWeatherProvider) get(ctx context.Context, endpoint, city string) (*http.Response, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("%w: openweather api key is not configured", weather.ErrProviderUnavailable)
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("q", city)
		values.Set("units", "metric")
		values.Set("appid", p.apiKey)

		u := fmt.Sprintf("%s/%s?%s", p.baseURL, endpoint, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		if errors.Is(err, errRejected) {
			return nil, fmt.Errorf("%w: %q", weather.ErrInvalidCity, city)
		}
		return nil, fmt.Errorf("%w: %v", weather.ErrProviderUnavailable, err)
	}
	return resp, nil
}

func (p *OpenWeatherProvider) FetchCurrent(ctx context.Context, city string) (weather.WeatherSnapshot, error) {
	resp, err := p.get(ctx, "weather", city)
	if err != nil {
		return weather.WeatherSnapshot{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp      float64 `json:"temp"`
			FeelsLike float64 `json:"feels_like"`
			Humidity  float64 `json:"humidity"`
		} `json:"main"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Visibility float64        `json:"visibility"`
		Weather    []owmCondition `json:"weather"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.WeatherSnapshot{}, fmt.Errorf("%w: decode current weather: %v", weather.ErrProviderUnavailable, err)
	}

	ts := time.Now().UTC()
	if payload.Dt > 0 {
		ts = time.Unix(payload.Dt, 0).UTC()
	}

	return weather.WeatherSnapshot{
		City:         city,
		TemperatureC: payload.Main.Temp,
		FeelsLikeC:   payload.Main.FeelsLike,
		HumidityPct:  clampPercent(payload.Main.Humidity),
		// metric units report wind in m/s and visibility in metres.
		WindKph:      nonNegative(payload.Wind.Speed * 3.6),
		VisibilityKm: nonNegative(payload.Visibility / 1000),
		Condition:    mapOpenWeatherCondition(payload.Weather),
		FetchedAt:    ts,
	}, nil
}

func (p *OpenWeatherProvider) FetchForecast(ctx context.Context, city string) weather.ForecastSet {
	resp, err := p.get(ctx, "forecast", city)
	if err != nil {
		p.logger.Warn("forecast fetch failed", zap.String("city", city), zap.Error(err))
		return weather.ForecastSet{}
	}
	defer resp.Body.Close()

	var payload struct {
		List []struct {
			Dt   int64 `json:"dt"`
			Main struct {
				Temp float64 `json:"temp"`
			} `json:"main"`
			Weather []owmCondition `json:"weather"`
		} `json:"list"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		p.logger.Warn("forecast decode failed", zap.String("city", city), zap.Error(err))
		return weather.ForecastSet{}
	}

	set := make(weather.ForecastSet, 0, len(forecastCheckpointIndexes))
	for _, idx := range forecastCheckpointIndexes {
		if idx >= len(payload.List) {
			break
		}
		item := payload.List[idx]
		set = append(set, weather.ForecastEntry{
			Timestamp:    time.Unix(item.Dt, 0).UTC(),
			TemperatureC: item.Main.Temp,
			Condition:    mapOpenWeatherCondition(item.Weather),
		})
	}
	return set
}

func mapOpenWeatherCondition(items []owmCondition) weather.Condition {
	if len(items) == 0 {
		return weather.Condition{Main: weather.CategoryClear, Description: "clear sky"}
	}
	return weather.Condition{
		Main:        weather.ParseCategory(items[0].Main),
		Description: strings.ToLower(items[0].Description),
	}
}

func clampPercent(v float64) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return int(v + 0.5)
	}
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

var _ weather.Provider = (*OpenWeatherProvider)(nil)
