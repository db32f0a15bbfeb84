// Package widget implements the weather widget's presentation state machine.
//
// A Controller owns exactly one State (idle, loading, display or error) and
// the RenderedView derived from it. User commands and provider responses are
// the only inputs; every one of them maps to a single next state. Fetches are
// tagged with a monotonically increasing request id and only the latest id may
// apply its result. Visual transitions are scheduled on the Clock and carry
// the state version they were issued for, so a superseded counter or fade can
// never overwrite newer state.
package widget

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/i474232898/weather-widget/internal/icons"
	"github.com/i474232898/weather-widget/internal/weather"
)

const (
	DefaultCity         = "London"
	DefaultErrorTTL     = 5 * time.Second
	DefaultFetchTimeout = 30 * time.Second
)

// Options configures a Controller. Zero values fall back to defaults.
type Options struct {
	DefaultCity  string
	ErrorTTL     time.Duration
	FetchTimeout time.Duration
	Clock        Clock
	Icons        *icons.Resolver
	Logger       *zap.Logger
}

// Controller is the presentation state machine.
type Controller struct {
	provider     weather.Provider
	resolver     *icons.Resolver
	clock        Clock
	logger       *zap.Logger
	defaultCity  string
	errorTTL     time.Duration
	fetchTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	state       State
	unit        Unit
	view        RenderedView
	version     uint64
	lastRequest uint64
	inFlight    bool
	pendingCity string
	pendingID   uint64
	errTimer    Timer
	effects     []effect
	effectSeq   uint64
	closed      bool
}

// NewController creates a Controller in the idle state. Call Start to load
// the default city.
func NewController(provider weather.Provider, opts Options) *Controller {
	if opts.DefaultCity == "" {
		opts.DefaultCity = DefaultCity
	}
	if opts.ErrorTTL <= 0 {
		opts.ErrorTTL = DefaultErrorTTL
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if opts.Clock == nil {
		opts.Clock = WallClock()
	}
	if opts.Icons == nil {
		opts.Icons = icons.NewResolver()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		provider:     provider,
		resolver:     opts.Icons,
		clock:        opts.Clock,
		logger:       opts.Logger.Named("widget"),
		defaultCity:  opts.DefaultCity,
		errorTTL:     opts.ErrorTTL,
		fetchTimeout: opts.FetchTimeout,
		ctx:          ctx,
		cancel:       cancel,
	}
	c.view = render(c.state, c.unit, c.resolver, c.clock.Now())
	return c
}

// Start loads the default city.
func (c *Controller) Start() error {
	c.logger.Info("starting widget", zap.String("provider", c.provider.Name()), zap.String("city", c.defaultCity))
	return c.Refresh(c.defaultCity)
}

// Close stops all timers and waits for in-flight fetches to return.
// Results that arrive after Close are discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.stopErrorTimerLocked()
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
	c.logger.Info("widget stopped")
}

// Wait blocks until no fetch is in flight, including coalesced follow-ups.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// OnSearchRequested handles an explicit search. Blank input shows the
// empty-input banner without contacting the provider.
func (c *Controller) OnSearchRequested(raw string) error {
	city := strings.TrimSpace(raw)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	c.flash(EffectRipple, rippleDuration)
	if city == "" {
		c.emptyInputLocked()
		return nil
	}
	c.refreshLocked(city)
	return nil
}

// Refresh fetches weather for city. While a fetch is already in flight the
// request is coalesced: city becomes the next one fetched and the in-flight
// result is discarded.
func (c *Controller) Refresh(city string) error {
	city = strings.TrimSpace(city)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if city == "" {
		c.emptyInputLocked()
		return nil
	}
	c.refreshLocked(city)
	return nil
}

// RefreshCurrent re-fetches the displayed city.
func (c *Controller) RefreshCurrent() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.state.Phase != PhaseDisplay {
		return ErrNothingToRefresh
	}
	c.refreshLocked(c.state.Snapshot.City)
	return nil
}

// ToggleUnit switches between Celsius and Fahrenheit. Only the rendered
// temperature changes; the stored snapshot keeps its Celsius value.
func (c *Controller) ToggleUnit() (Unit, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return c.unit, ErrClosed
	}
	if c.state.Phase != PhaseDisplay {
		return c.unit, ErrNotDisplaying
	}

	// Settle running transitions so none of them can write the old unit later.
	c.bumpLocked()
	c.view = render(c.state, c.unit, c.resolver, c.clock.Now())

	c.unit = c.unit.Toggle()
	c.view.Unit = c.unit
	text := FormatTemperature(c.state.Snapshot.TemperatureC, c.unit)

	c.flash(EffectTemperatureIn, unitSwapDelay+unitSettleDelay)
	c.after(unitSwapDelay, func() { c.view.Temperature = text })

	c.logger.Debug("unit toggled", zap.Stringer("unit", c.unit))
	return c.unit, nil
}

// DismissError clears the error banner early.
func (c *Controller) DismissError() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	switch c.state.Phase {
	case PhaseError:
		c.enterIdleLocked()
	case PhaseLoading:
		c.view.Error = nil
	}
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.state
	if s.Snapshot != nil {
		snap := *s.Snapshot
		s.Snapshot = &snap
	}
	s.Forecast = append(weather.ForecastSet(nil), s.Forecast...)
	return s
}

// View returns a copy of what the client should draw right now.
func (c *Controller) View() RenderedView {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := c.view
	v.Forecast = append([]ForecastView(nil), c.view.Forecast...)
	if c.view.Error != nil {
		b := *c.view.Error
		v.Error = &b
	}
	v.Effects = c.activeEffects()
	return v
}

func (c *Controller) refreshLocked(city string) {
	c.lastRequest++
	id := c.lastRequest

	c.enterLoadingLocked()

	if c.inFlight {
		if c.pendingCity != "" {
			c.logger.Debug("pending refresh replaced", zap.String("dropped", c.pendingCity), zap.String("city", city))
		}
		c.pendingCity = city
		c.pendingID = id
		return
	}
	c.startFetchLocked(id, city)
}

func (c *Controller) startFetchLocked(id uint64, city string) {
	c.inFlight = true
	c.wg.Add(1)
	go c.fetch(id, city)
}

func (c *Controller) fetch(id uint64, city string) {
	defer c.wg.Done()

	log := c.logger.With(
		zap.String("city", city),
		zap.Uint64("request_id", id),
		zap.String("fetch_id", uuid.NewString()),
	)
	log.Debug("fetching weather")

	ctx, cancel := context.WithTimeout(c.ctx, c.fetchTimeout)
	defer cancel()

	snap, err := c.provider.FetchCurrent(ctx, city)
	var forecast weather.ForecastSet
	if err == nil {
		forecast = c.provider.FetchForecast(ctx, city)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.inFlight = false
	if c.closed {
		return
	}

	if id != c.lastRequest {
		log.Debug("discarding superseded response", zap.Uint64("latest_request_id", c.lastRequest))
		if c.pendingCity != "" {
			next, nextID := c.pendingCity, c.pendingID
			c.pendingCity, c.pendingID = "", 0
			c.startFetchLocked(nextID, next)
		}
		return
	}

	if err != nil {
		log.Warn("weather fetch failed", zap.Error(err))
		c.showErrorLocked(MsgFetchFailed)
		return
	}

	if len(forecast) == 0 {
		log.Info("forecast unavailable; displaying current conditions only")
	}

	snap.City = city
	c.enterDisplayLocked(snap, forecast.Truncate())
	log.Info("weather displayed",
		zap.Float64("temperature_c", snap.TemperatureC),
		zap.String("condition", snap.Condition.Description),
		zap.Int("forecast_entries", len(c.state.Forecast)),
	)
}

// bumpLocked advances the version, invalidating every scheduled transition.
func (c *Controller) bumpLocked() {
	c.version++
	c.state.Version = c.version
	c.view.Version = c.version
}

func (c *Controller) setStateLocked(s State) {
	c.stopErrorTimerLocked()
	c.state = s
	c.bumpLocked()
	c.view = render(c.state, c.unit, c.resolver, c.clock.Now())
}

func (c *Controller) enterIdleLocked() {
	c.setStateLocked(State{Phase: PhaseIdle})
}

func (c *Controller) enterLoadingLocked() {
	if c.state.Phase == PhaseLoading {
		return
	}
	c.setStateLocked(State{Phase: PhaseLoading})
}

// emptyInputLocked answers a blank search. While a fetch is in flight the
// phase stays Loading and the banner is drawn over the loading view until it
// expires or the fetch lands.
func (c *Controller) emptyInputLocked() {
	if !c.inFlight {
		c.showErrorLocked(MsgEmptyInput)
		return
	}

	c.flash(EffectShake, shakeDuration)
	c.view.Error = &Banner{Message: MsgEmptyInput, ExpiresAt: c.clock.Now().Add(c.errorTTL)}
	banner := c.view.Error
	c.after(c.errorTTL, func() {
		if c.view.Error == banner {
			c.view.Error = nil
		}
	})
}

func (c *Controller) showErrorLocked(msg string) {
	c.setStateLocked(State{
		Phase:     PhaseError,
		Message:   msg,
		ExpiresAt: c.clock.Now().Add(c.errorTTL),
	})
	c.flash(EffectShake, shakeDuration)

	issued := c.version
	c.errTimer = c.clock.AfterFunc(c.errorTTL, func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		if c.closed || c.version != issued {
			return
		}
		c.enterIdleLocked()
	})
}

func (c *Controller) stopErrorTimerLocked() {
	if c.errTimer != nil {
		c.errTimer.Stop()
		c.errTimer = nil
	}
}

func (c *Controller) enterDisplayLocked(snap weather.WeatherSnapshot, forecast weather.ForecastSet) {
	c.unit = Celsius
	c.setStateLocked(State{
		Phase:    PhaseDisplay,
		Snapshot: &snap,
		Forecast: forecast,
	})

	final := c.view
	v := &c.view

	c.fadeIn(func(s string) { v.City = s }, final.City)
	c.fadeIn(func(s string) { v.Description = s }, final.Description)

	v.Icon = ""
	c.after(iconSwapDelay, func() { v.Icon = final.Icon })

	c.countUp(func(s string) { v.Temperature = s }, snap.TemperatureC, temperatureCount, formatCelsius)
	c.countUp(func(s string) { v.Humidity = s }, float64(snap.HumidityPct), humidityCount, formatPercent)
	c.countUp(func(s string) { v.Wind = s }, snap.WindKph, windCount, formatKph)
	c.countUp(func(s string) { v.Visibility = s }, snap.VisibilityKm, visibilityCount, formatKm)
	c.countUp(func(s string) { v.FeelsLike = s }, snap.FeelsLikeC, feelsLikeCount, formatCelsius)

	c.flash(EffectCardEntrance, entranceDuration)
}
