package providers

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"
	"unicode"

	"github.com/i474232898/weather-widget/internal/weather"
)

// mockPalette is the fixed set of conditions the mock draws from.
var mockPalette = []weather.Condition{
	{Main: weather.CategoryClear, Description: "clear sky"},
	{Main: weather.CategoryClouds, Description: "few clouds"},
	{Main: weather.CategoryClouds, Description: "scattered clouds"},
	{Main: weather.CategoryRain, Description: "light rain"},
	{Main: weather.CategorySnow, Description: "light snow"},
	{Main: weather.CategoryMist, Description: "mist"},
}

// Forecast checkpoints: now, +6h, +12h.
var mockCheckpoints = []struct {
	offset    time.Duration
	condition weather.Condition
}{
	{0, weather.Condition{Main: weather.CategoryClear, Description: "clear sky"}},
	{6 * time.Hour, weather.Condition{Main: weather.CategoryClouds, Description: "scattered clouds"}},
	{12 * time.Hour, weather.Condition{Main: weather.CategoryMist, Description: "mist"}},
}

// MockProvider generates plausible random weather without any network call.
type MockProvider struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewMockProvider creates a mock seeded from src. A nil src uses a random seed.
func NewMockProvider(src rand.Source) *MockProvider {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &MockProvider{
		rng: rand.New(src),
		now: time.Now,
	}
}

func (p *MockProvider) Name() string {
	return "mock"
}

// between returns an integer in [lo, hi].
func (p *MockProvider) between(lo, hi int) int {
	return lo + p.rng.IntN(hi-lo+1)
}

func (p *MockProvider) FetchCurrent(ctx context.Context, city string) (weather.WeatherSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return weather.WeatherSnapshot{}, fmt.Errorf("%w: %v", weather.ErrProviderUnavailable, err)
	}
	if !hasLetter(city) {
		return weather.WeatherSnapshot{}, fmt.Errorf("%w: %q", weather.ErrInvalidCity, city)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	return weather.WeatherSnapshot{
		City:         city,
		TemperatureC: float64(p.between(5, 35)),
		FeelsLikeC:   float64(p.between(5, 35)),
		HumidityPct:  p.between(40, 80),
		WindKph:      float64(p.between(2, 17)),
		VisibilityKm: float64(p.between(8, 13)),
		Condition:    mockPalette[p.rng.IntN(len(mockPalette))],
		FetchedAt:    p.now().UTC(),
	}, nil
}

func (p *MockProvider) FetchForecast(ctx context.Context, city string) weather.ForecastSet {
	if ctx.Err() != nil {
		return weather.ForecastSet{}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now().UTC()
	set := make(weather.ForecastSet, 0, len(mockCheckpoints))
	for _, cp := range mockCheckpoints {
		set = append(set, weather.ForecastEntry{
			Timestamp:    now.Add(cp.offset),
			TemperatureC: float64(p.between(5, 35)),
			Condition:    cp.condition,
		})
	}
	return set
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

var _ weather.Provider = (*MockProvider)(nil)
