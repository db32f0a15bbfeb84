package widget

import (
	"fmt"
	"math"
	"time"

	"github.com/i474232898/weather-widget/internal/icons"
)

// DateLayout renders dates as "Saturday, October 17, 2026".
const DateLayout = "Monday, January 2, 2006"

// RenderedView is what a client draws. Text fields may hold intermediate
// values while a transition is running.
type RenderedView struct {
	Phase       Phase          `json:"phase"`
	Loading     bool           `json:"loading"`
	City        string         `json:"city,omitempty"`
	Date        string         `json:"date,omitempty"`
	Temperature string         `json:"temperature,omitempty"`
	Description string         `json:"description,omitempty"`
	Humidity    string         `json:"humidity,omitempty"`
	Wind        string         `json:"wind,omitempty"`
	Visibility  string         `json:"visibility,omitempty"`
	FeelsLike   string         `json:"feelsLike,omitempty"`
	Icon        icons.AssetID  `json:"icon,omitempty"`
	Theme       string         `json:"theme,omitempty"`
	Forecast    []ForecastView `json:"forecast,omitempty"`
	Error       *Banner        `json:"error,omitempty"`
	Unit        Unit           `json:"unit"`
	Effects     []string       `json:"effects,omitempty"`
	Version     uint64         `json:"version"`
}

// ForecastView is one rendered forecast checkpoint.
type ForecastView struct {
	Time        time.Time     `json:"time"`
	Temperature string        `json:"temperature"`
	Icon        icons.AssetID `json:"icon"`
}

// Banner is the auto-expiring error message.
type Banner struct {
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// CelsiusToFahrenheit converts with F = C×9/5+32.
func CelsiusToFahrenheit(c float64) float64 {
	return c*9/5 + 32
}

// FahrenheitToCelsius converts with C = (F−32)×5/9.
func FahrenheitToCelsius(f float64) float64 {
	return (f - 32) * 5 / 9
}

func roundInt(v float64) int {
	return int(math.Round(v))
}

// FormatTemperature renders a stored Celsius value in unit.
func FormatTemperature(celsius float64, unit Unit) string {
	if unit == Fahrenheit {
		return fmt.Sprintf("%d°F", roundInt(CelsiusToFahrenheit(celsius)))
	}
	return fmt.Sprintf("%d°C", roundInt(celsius))
}

func formatCelsius(n int) string    { return fmt.Sprintf("%d°C", n) }
func formatPercent(n int) string    { return fmt.Sprintf("%d%%", n) }
func formatKph(n int) string        { return fmt.Sprintf("%d km/h", n) }
func formatKm(n int) string         { return fmt.Sprintf("%d km", n) }
func formatCheckpoint(n int) string { return fmt.Sprintf("%d°", n) }

// render builds the settled view for a state.
func render(s State, unit Unit, resolver *icons.Resolver, now time.Time) RenderedView {
	v := RenderedView{
		Phase:   s.Phase,
		Loading: s.Phase == PhaseLoading,
		Unit:    unit,
		Version: s.Version,
	}

	switch s.Phase {
	case PhaseError:
		v.Error = &Banner{Message: s.Message, ExpiresAt: s.ExpiresAt}
	case PhaseDisplay:
		snap := s.Snapshot
		v.City = snap.City
		v.Date = now.Format(DateLayout)
		v.Temperature = FormatTemperature(snap.TemperatureC, unit)
		v.Description = snap.Condition.Description
		v.Humidity = formatPercent(snap.HumidityPct)
		v.Wind = formatKph(roundInt(snap.WindKph))
		v.Visibility = formatKm(roundInt(snap.VisibilityKm))
		v.FeelsLike = formatCelsius(roundInt(snap.FeelsLikeC))
		v.Icon = resolver.Resolve(snap.Condition.Description, string(snap.Condition.Main))
		v.Theme = resolver.Theme(string(snap.Condition.Main))

		for _, e := range s.Forecast {
			v.Forecast = append(v.Forecast, ForecastView{
				Time:        e.Timestamp,
				Temperature: formatCheckpoint(roundInt(e.TemperatureC)),
				Icon:        resolver.Resolve(e.Condition.Description, string(e.Condition.Main)),
			})
		}
	}

	return v
}
