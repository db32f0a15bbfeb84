package widget

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/i474232898/weather-widget/internal/weather"
)

// manualClock fires timers only when Advance is called.
type manualClock struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*manualTimer
}

type manualTimer struct {
	clock   *manualClock
	at      time.Time
	seq     int
	fn      func()
	stopped bool
	fired   bool
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2026, time.October, 17, 9, 30, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) AfterFunc(d time.Duration, fn func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	t := &manualTimer{clock: c, at: c.now.Add(d), seq: c.seq, fn: fn}
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// Advance moves time forward by d, running due timers in order. Timers
// scheduled by callbacks run too if they fall inside the window.
func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		var due []*manualTimer
		for _, t := range c.timers {
			if !t.stopped && !t.fired && !t.at.After(target) {
				due = append(due, t)
			}
		}
		if len(due) == 0 {
			c.now = target
			c.mu.Unlock()
			return
		}
		sort.Slice(due, func(i, j int) bool {
			if due[i].at.Equal(due[j].at) {
				return due[i].seq < due[j].seq
			}
			return due[i].at.Before(due[j].at)
		})
		next := due[0]
		next.fired = true
		c.now = next.at
		c.compactLocked()
		c.mu.Unlock()

		next.fn()
	}
}

func (c *manualClock) compactLocked() {
	live := c.timers[:0]
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			live = append(live, t)
		}
	}
	c.timers = live
}

// stubProvider returns canned data. FetchCurrent blocks on a city's gate
// until it is released.
type stubProvider struct {
	mu       sync.Mutex
	calls    []string
	gates    map[string]chan struct{}
	failures map[string]error
	temps    map[string]float64
	forecast weather.ForecastSet
}

func newStubProvider() *stubProvider {
	return &stubProvider{
		gates:    make(map[string]chan struct{}),
		failures: make(map[string]error),
		temps:    make(map[string]float64),
	}
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) gate(city string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gates[city] = make(chan struct{})
}

func (p *stubProvider) release(city string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	close(p.gates[city])
}

func (p *stubProvider) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func (p *stubProvider) FetchCurrent(ctx context.Context, city string) (weather.WeatherSnapshot, error) {
	p.mu.Lock()
	p.calls = append(p.calls, city)
	gate := p.gates[city]
	err := p.failures[city]
	temp, ok := p.temps[city]
	p.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return weather.WeatherSnapshot{}, fmt.Errorf("%w: %v", weather.ErrProviderUnavailable, ctx.Err())
		}
	}
	if err != nil {
		return weather.WeatherSnapshot{}, err
	}
	if !ok {
		temp = 21.4
	}

	return weather.WeatherSnapshot{
		// A provider may normalise the name; the controller must not use it.
		City:         "provider-" + city,
		TemperatureC: temp,
		FeelsLikeC:   19,
		HumidityPct:  64,
		WindKph:      11,
		VisibilityKm: 10,
		Condition:    weather.Condition{Main: weather.CategoryRain, Description: "light rain"},
	}, nil
}

func (p *stubProvider) FetchForecast(ctx context.Context, city string) weather.ForecastSet {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.forecast
}
