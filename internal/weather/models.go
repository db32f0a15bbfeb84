package weather

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrProviderUnavailable is returned when the provider could not be reached
	// or answered with something unusable.
	ErrProviderUnavailable = errors.New("weather provider unavailable")
	// ErrInvalidCity is returned when the provider does not know the city.
	ErrInvalidCity = errors.New("invalid city")
)

// Category is the coarse weather category reported alongside a description.
type Category string

const (
	CategoryClear  Category = "Clear"
	CategoryClouds Category = "Clouds"
	CategoryRain   Category = "Rain"
	CategorySnow   Category = "Snow"
	CategoryMist   Category = "Mist"
)

// ParseCategory maps a provider "main" string onto a Category.
// Unknown values are kept verbatim so the icon lookup can still try them.
func ParseCategory(s string) Category {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "clear":
		return CategoryClear
	case "clouds":
		return CategoryClouds
	case "rain", "drizzle", "thunderstorm":
		return CategoryRain
	case "snow":
		return CategorySnow
	case "mist", "fog", "haze", "smoke", "dust":
		return CategoryMist
	default:
		return Category(s)
	}
}

// Condition pairs a category with the provider's free-text description.
type Condition struct {
	Main        Category `json:"main"`
	Description string   `json:"description"`
}

// WeatherSnapshot is the current conditions for a city at fetch time.
// Snapshots are values and are never modified after a provider returns them.
type WeatherSnapshot struct {
	City         string    `json:"city"`
	TemperatureC float64   `json:"temperatureC"`
	FeelsLikeC   float64   `json:"feelsLikeC"`
	HumidityPct  int       `json:"humidityPct"`
	WindKph      float64   `json:"windKph"`
	VisibilityKm float64   `json:"visibilityKm"`
	Condition    Condition `json:"condition"`
	FetchedAt    time.Time `json:"fetchedAt"` // always UTC
}

// ForecastEntry is one near-term checkpoint.
type ForecastEntry struct {
	Timestamp    time.Time `json:"timestamp"`
	TemperatureC float64   `json:"temperatureC"`
	Condition    Condition `json:"condition"`
}

// MaxForecastEntries is the number of checkpoints the widget renders.
const MaxForecastEntries = 3

// ForecastSet holds up to MaxForecastEntries checkpoints in chronological order.
type ForecastSet []ForecastEntry

// Truncate returns at most MaxForecastEntries entries, keeping their order.
func (f ForecastSet) Truncate() ForecastSet {
	if len(f) <= MaxForecastEntries {
		return f
	}
	return f[:MaxForecastEntries]
}
