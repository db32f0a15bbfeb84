package widget

import (
	"errors"
	"fmt"
	"time"

	"github.com/i474232898/weather-widget/internal/weather"
)

const (
	// MsgEmptyInput is shown when a search is submitted without a city.
	MsgEmptyInput = "Please enter a city name"
	// MsgFetchFailed is shown when the current conditions could not be fetched.
	MsgFetchFailed = "Failed to fetch weather data. Please try again."
)

var (
	// ErrNotDisplaying is returned by commands that need weather on screen.
	ErrNotDisplaying = errors.New("no weather is displayed")
	// ErrNothingToRefresh is returned by RefreshCurrent when no city is displayed.
	ErrNothingToRefresh = errors.New("no displayed city to refresh")
	// ErrClosed is returned once the controller has been torn down.
	ErrClosed = errors.New("controller closed")
)

// Phase is the active UI state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseDisplay
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseDisplay:
		return "display"
	case PhaseError:
		return "error"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// State is the controller's single source of truth. Snapshot and Forecast
// are set only in PhaseDisplay; Message and ExpiresAt only in PhaseError.
type State struct {
	Phase     Phase
	Snapshot  *weather.WeatherSnapshot
	Forecast  weather.ForecastSet
	Message   string
	ExpiresAt time.Time

	// Version increases on every transition and view change.
	Version uint64
}

// Unit is the temperature unit the view renders in.
type Unit int

const (
	Celsius Unit = iota
	Fahrenheit
)

func (u Unit) String() string {
	if u == Fahrenheit {
		return "fahrenheit"
	}
	return "celsius"
}

func (u Unit) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// Toggle returns the other unit.
func (u Unit) Toggle() Unit {
	if u == Fahrenheit {
		return Celsius
	}
	return Fahrenheit
}
