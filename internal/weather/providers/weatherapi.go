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

// DefaultWeatherAPIBaseURL is the WeatherAPI.com v1 root.
const DefaultWeatherAPIBaseURL = "https://api.weatherapi.com/v1"

// Hourly forecast offsets used as checkpoints: now, +6h, +12h.
var hourlyCheckpointOffsets = []int{0, 6, 12}

// WeatherAPIConfig configures the WeatherAPI.com provider.
type WeatherAPIConfig struct {
	APIKey     string
	BaseURL    string
	MaxRetries int
}

// WeatherAPIProvider implements weather.Provider for WeatherAPI.com.
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	logger  *zap.Logger
	now     func() time.Time
}

func NewWeatherAPIProvider(client *http.Client, cfg WeatherAPIConfig, logger *zap.Logger) *WeatherAPIProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultWeatherAPIBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &WeatherAPIProvider{
		name:    "weatherapi",
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
		circuit: newCircuitBreaker("weatherapi"),
		logger:  logger.Named("weatherapi"),
		now:     time.Now,
	}
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

func (p *WeatherAPIProvider) get(ctx context.Context, endpoint, city string, extra url.Values) (*http.Response, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("%w: weatherapi api key is not configured", weather.ErrProviderUnavailable)
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("key", p.apiKey)
		values.Set("q", city)
		for k, v := range extra {
			values[k] = v
		}

		u := fmt.Sprintf("%s/%s?%s", p.baseURL, endpoint, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		// WeatherAPI answers 400 with code 1006 for an unknown location.
		if errors.Is(err, errRejected) {
			return nil, fmt.Errorf("%w: %q", weather.ErrInvalidCity, city)
		}
		return nil, fmt.Errorf("%w: %v", weather.ErrProviderUnavailable, err)
	}
	return resp, nil
}

type wapiCondition struct {
	Text string `json:"text"`
}

func (p *WeatherAPIProvider) FetchCurrent(ctx context.Context, city string) (weather.WeatherSnapshot, error) {
	resp, err := p.get(ctx, "current.json", city, nil)
	if err != nil {
		return weather.WeatherSnapshot{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Current struct {
			LastUpdatedEpoch int64         `json:"last_updated_epoch"`
			TempC            float64       `json:"temp_c"`
			FeelsLikeC       float64       `json:"feelslike_c"`
			Humidity         float64       `json:"humidity"`
			WindKph          float64       `json:"wind_kph"`
			VisKm            float64       `json:"vis_km"`
			Condition        wapiCondition `json:"condition"`
		} `json:"current"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.WeatherSnapshot{}, fmt.Errorf("%w: decode current weather: %v", weather.ErrProviderUnavailable, err)
	}

	ts := p.now().UTC()
	if payload.Current.LastUpdatedEpoch > 0 {
		ts = time.Unix(payload.Current.LastUpdatedEpoch, 0).UTC()
	}

	return weather.WeatherSnapshot{
		City:         city,
		TemperatureC: payload.Current.TempC,
		FeelsLikeC:   payload.Current.FeelsLikeC,
		HumidityPct:  clampPercent(payload.Current.Humidity),
		WindKph:      nonNegative(payload.Current.WindKph),
		VisibilityKm: nonNegative(payload.Current.VisKm),
		Condition:    mapWeatherAPICondition(payload.Current.Condition.Text),
		FetchedAt:    ts,
	}, nil
}

func (p *WeatherAPIProvider) FetchForecast(ctx context.Context, city string) weather.ForecastSet {
	resp, err := p.get(ctx, "forecast.json", city, url.Values{"days": {"2"}})
	if err != nil {
		p.logger.Warn("forecast fetch failed", zap.String("city", city), zap.Error(err))
		return weather.ForecastSet{}
	}
	defer resp.Body.Close()

	var payload struct {
		Forecast struct {
			ForecastDay []struct {
				Hour []struct {
					TimeEpoch int64         `json:"time_epoch"`
					TempC     float64       `json:"temp_c"`
					Condition wapiCondition `json:"condition"`
				} `json:"hour"`
			} `json:"forecastday"`
		} `json:"forecast"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		p.logger.Warn("forecast decode failed", zap.String("city", city), zap.Error(err))
		return weather.ForecastSet{}
	}

	// Hours are chronological across days; start from the current hour.
	cutoff := p.now().Truncate(time.Hour).Unix()
	var upcoming []weather.ForecastEntry
	for _, day := range payload.Forecast.ForecastDay {
		for _, h := range day.Hour {
			if h.TimeEpoch < cutoff {
				continue
			}
			upcoming = append(upcoming, weather.ForecastEntry{
				Timestamp:    time.Unix(h.TimeEpoch, 0).UTC(),
				TemperatureC: h.TempC,
				Condition:    mapWeatherAPICondition(h.Condition.Text),
			})
		}
	}

	set := make(weather.ForecastSet, 0, len(hourlyCheckpointOffsets))
	for _, off := range hourlyCheckpointOffsets {
		if off >= len(upcoming) {
			break
		}
		set = append(set, upcoming[off])
	}
	return set
}

func mapWeatherAPICondition(text string) weather.Condition {
	desc := strings.ToLower(strings.TrimSpace(text))

	var main weather.Category
	switch {
	case desc == "":
		return weather.Condition{Main: weather.CategoryClear, Description: "clear sky"}
	case containsAny(desc, "snow", "sleet", "blizzard", "ice pellets"):
		main = weather.CategorySnow
	case containsAny(desc, "rain", "shower", "drizzle", "thunder"):
		main = weather.CategoryRain
	case containsAny(desc, "mist", "fog", "haze"):
		main = weather.CategoryMist
	case containsAny(desc, "cloud", "overcast"):
		main = weather.CategoryClouds
	default:
		main = weather.CategoryClear
	}
	return weather.Condition{Main: main, Description: desc}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

var _ weather.Provider = (*WeatherAPIProvider)(nil)
