package providers

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/i474232898/weather-widget/internal/weather"
)

// RateLimitedProvider wraps a weather.Provider with a token-bucket limiter.
type RateLimitedProvider struct {
	provider weather.Provider
	limiter  *rate.Limiter
	name     string
	logger   *zap.Logger
}

// NewRateLimitedProvider creates a rate limited provider.
// rps is the maximum requests per second (can be fractional), burst the maximum burst size.
func NewRateLimitedProvider(provider weather.Provider, rps float64, burst int, logger *zap.Logger) *RateLimitedProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimitedProvider{
		provider: provider,
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
		name:     fmt.Sprintf("%s [rate limited]", provider.Name()),
		logger:   logger,
	}
}

func (r *RateLimitedProvider) Name() string {
	return r.name
}

func (r *RateLimitedProvider) FetchCurrent(ctx context.Context, city string) (weather.WeatherSnapshot, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return weather.WeatherSnapshot{}, fmt.Errorf("%w: rate limit wait canceled: %v", weather.ErrProviderUnavailable, err)
	}
	return r.provider.FetchCurrent(ctx, city)
}

func (r *RateLimitedProvider) FetchForecast(ctx context.Context, city string) weather.ForecastSet {
	if err := r.limiter.Wait(ctx); err != nil {
		r.logger.Warn("forecast skipped by rate limiter", zap.String("city", city), zap.Error(err))
		return weather.ForecastSet{}
	}
	return r.provider.FetchForecast(ctx, city)
}

var _ weather.Provider = (*RateLimitedProvider)(nil)
