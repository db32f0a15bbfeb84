package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/i474232898/weather-widget/internal/weather"
)

// API Docs: https://open-meteo.com/en/docs and https://open-meteo.com/en/docs/geocoding-api
const (
	DefaultOpenMeteoForecastURL  = "https://api.open-meteo.com/v1/forecast"
	DefaultOpenMeteoGeocodingURL = "https://geocoding-api.open-meteo.com/v1/search"
)

// OpenMeteoConfig configures the Open-Meteo provider. No API key is needed.
type OpenMeteoConfig struct {
	ForecastURL  string
	GeocodingURL string
	MaxRetries   int
}

// OpenMeteoProvider implements weather.Provider for Open-Meteo. City names
// are resolved to coordinates through the Open-Meteo geocoding API first.
type OpenMeteoProvider struct {
	name         string
	forecastURL  string
	geocodingURL string
	httpCfg      HTTPClientConfig
	circuit      *gobreaker.CircuitBreaker
	logger       *zap.Logger
	now          func() time.Time
}

func NewOpenMeteoProvider(client *http.Client, cfg OpenMeteoConfig, logger *zap.Logger) *OpenMeteoProvider {
	forecastURL := cfg.ForecastURL
	if forecastURL == "" {
		forecastURL = DefaultOpenMeteoForecastURL
	}
	geocodingURL := cfg.GeocodingURL
	if geocodingURL == "" {
		geocodingURL = DefaultOpenMeteoGeocodingURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &OpenMeteoProvider{
		name:         "openmeteo",
		forecastURL:  forecastURL,
		geocodingURL: geocodingURL,
		httpCfg: HTTPClientConfig{
			Client: client,
			Backoff: BackoffConfig{
				MaxRetries:      cfg.MaxRetries,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit: newCircuitBreaker("openmeteo"),
		logger:  logger.Named("openmeteo"),
		now:     time.Now,
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

type coordinates struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (p *OpenMeteoProvider) getJSON(ctx context.Context, base string, values url.Values, out any) error {
	buildRequest := func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, base+"?"+values.Encode(), nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		if errors.Is(err, errRejected) {
			return fmt.Errorf("%w: %v", weather.ErrInvalidCity, err)
		}
		return fmt.Errorf("%w: %v", weather.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", weather.ErrProviderUnavailable, err)
	}
	return nil
}

// geocode resolves a city name to its best-ranked match.
func (p *OpenMeteoProvider) geocode(ctx context.Context, city string) (coordinates, error) {
	values := url.Values{}
	values.Set("name", city)
	values.Set("count", "1")
	values.Set("format", "json")

	var payload struct {
		Results []coordinates `json:"results"`
	}
	if err := p.getJSON(ctx, p.geocodingURL, values, &payload); err != nil {
		return coordinates{}, err
	}
	// An unknown name yields 200 with no results.
	if len(payload.Results) == 0 {
		return coordinates{}, fmt.Errorf("%w: %q", weather.ErrInvalidCity, city)
	}
	return payload.Results[0], nil
}

func (p *OpenMeteoProvider) forecastQuery(loc coordinates) url.Values {
	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(loc.Latitude, 'f', 4, 64))
	values.Set("longitude", strconv.FormatFloat(loc.Longitude, 'f', 4, 64))
	values.Set("timezone", "GMT")
	values.Set("timeformat", "unixtime")
	values.Set("wind_speed_unit", "kmh")
	values.Set("temperature_unit", "celsius")
	return values
}

func (p *OpenMeteoProvider) FetchCurrent(ctx context.Context, city string) (weather.WeatherSnapshot, error) {
	loc, err := p.geocode(ctx, city)
	if err != nil {
		return weather.WeatherSnapshot{}, err
	}

	values := p.forecastQuery(loc)
	values.Set("current", strings.Join([]string{
		"temperature_2m",
		"apparent_temperature",
		"relative_humidity_2m",
		"wind_speed_10m",
		"visibility",
		"weather_code",
	}, ","))

	var payload struct {
		Current struct {
			Time                int64   `json:"time"`
			Temperature2m       float64 `json:"temperature_2m"`
			ApparentTemperature float64 `json:"apparent_temperature"`
			RelativeHumidity2m  float64 `json:"relative_humidity_2m"`
			WindSpeed10m        float64 `json:"wind_speed_10m"`
			Visibility          float64 `json:"visibility"`
			WeatherCode         int     `json:"weather_code"`
		} `json:"current"`
	}
	if err := p.getJSON(ctx, p.forecastURL, values, &payload); err != nil {
		return weather.WeatherSnapshot{}, err
	}

	ts := p.now().UTC()
	if payload.Current.Time > 0 {
		ts = time.Unix(payload.Current.Time, 0).UTC()
	}

	return weather.WeatherSnapshot{
		City:         city,
		TemperatureC: payload.Current.Temperature2m,
		FeelsLikeC:   payload.Current.ApparentTemperature,
		HumidityPct:  clampPercent(payload.Current.RelativeHumidity2m),
		WindKph:      nonNegative(payload.Current.WindSpeed10m),
		VisibilityKm: nonNegative(payload.Current.Visibility / 1000),
		Condition:    mapOpenMeteoCondition(payload.Current.WeatherCode),
		FetchedAt:    ts,
	}, nil
}

func (p *OpenMeteoProvider) FetchForecast(ctx context.Context, city string) weather.ForecastSet {
	loc, err := p.geocode(ctx, city)
	if err != nil {
		p.logger.Warn("forecast geocode failed", zap.String("city", city), zap.Error(err))
		return weather.ForecastSet{}
	}

	values := p.forecastQuery(loc)
	values.Set("hourly", "temperature_2m,weather_code")
	values.Set("forecast_days", "2")

	var payload struct {
		Hourly struct {
			Time          []int64   `json:"time"`
			Temperature2m []float64 `json:"temperature_2m"`
			WeatherCode   []int     `json:"weather_code"`
		} `json:"hourly"`
	}
	if err := p.getJSON(ctx, p.forecastURL, values, &payload); err != nil {
		p.logger.Warn("forecast fetch failed", zap.String("city", city), zap.Error(err))
		return weather.ForecastSet{}
	}

	h := payload.Hourly
	n := min(len(h.Time), len(h.Temperature2m), len(h.WeatherCode))

	cutoff := p.now().Truncate(time.Hour).Unix()
	first := 0
	for first < n && h.Time[first] < cutoff {
		first++
	}

	set := make(weather.ForecastSet, 0, len(hourlyCheckpointOffsets))
	for _, off := range hourlyCheckpointOffsets {
		i := first + off
		if i >= n {
			break
		}
		set = append(set, weather.ForecastEntry{
			Timestamp:    time.Unix(h.Time[i], 0).UTC(),
			TemperatureC: h.Temperature2m[i],
			Condition:    mapOpenMeteoCondition(h.WeatherCode[i]),
		})
	}
	return set
}

// mapOpenMeteoCondition translates a WMO weather interpretation code.
func mapOpenMeteoCondition(code int) weather.Condition {
	switch {
	case code == 0:
		return weather.Condition{Main: weather.CategoryClear, Description: "clear sky"}
	case code == 1:
		return weather.Condition{Main: weather.CategoryClouds, Description: "few clouds"}
	case code == 2:
		return weather.Condition{Main: weather.CategoryClouds, Description: "scattered clouds"}
	case code == 3:
		return weather.Condition{Main: weather.CategoryClouds, Description: "overcast clouds"}
	case code == 45 || code == 48:
		return weather.Condition{Main: weather.CategoryMist, Description: "fog"}
	case code >= 51 && code <= 57:
		return weather.Condition{Main: weather.CategoryRain, Description: "drizzle"}
	case code == 61 || code == 80:
		return weather.Condition{Main: weather.CategoryRain, Description: "light rain"}
	case code == 63 || code == 66 || code == 81:
		return weather.Condition{Main: weather.CategoryRain, Description: "moderate rain"}
	case code == 65 || code == 67 || code == 82:
		return weather.Condition{Main: weather.CategoryRain, Description: "heavy rain"}
	case code == 71 || code == 77 || code == 85:
		return weather.Condition{Main: weather.CategorySnow, Description: "light snow"}
	case code == 73:
		return weather.Condition{Main: weather.CategorySnow, Description: "moderate snow"}
	case code == 75 || code == 86:
		return weather.Condition{Main: weather.CategorySnow, Description: "heavy snow"}
	case code >= 95:
		return weather.Condition{Main: weather.CategoryRain, Description: "thunderstorm"}
	default:
		return weather.Condition{Main: weather.CategoryClear, Description: "clear sky"}
	}
}

var _ weather.Provider = (*OpenMeteoProvider)(nil)
