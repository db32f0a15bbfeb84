package weather

import (
	"context"
)

// Provider abstracts a weather data source (the mock generator, OpenWeatherMap, ...).
// Any type exposing these operations can back the widget.
type Provider interface {
	Name() string

	// FetchCurrent returns the current conditions for city. Errors wrap
	// ErrProviderUnavailable or ErrInvalidCity.
	FetchCurrent(ctx context.Context, city string) (WeatherSnapshot, error)

	// FetchForecast is best-effort: on any failure it returns an empty set.
	FetchForecast(ctx context.Context, city string) ForecastSet
}
