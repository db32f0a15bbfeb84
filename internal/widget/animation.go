package widget

import (
	"time"
)

// Transition timings.
const (
	counterTick      = 16 * time.Millisecond
	fadeDelay        = 200 * time.Millisecond
	iconSwapDelay    = 200 * time.Millisecond
	unitSwapDelay    = 150 * time.Millisecond
	unitSettleDelay  = 200 * time.Millisecond
	rippleDuration   = 600 * time.Millisecond
	shakeDuration    = 500 * time.Millisecond
	entranceDuration = 600 * time.Millisecond

	temperatureCount = 1000 * time.Millisecond
	humidityCount    = 50 * time.Millisecond
	windCount        = 30 * time.Millisecond
	visibilityCount  = 50 * time.Millisecond
	feelsLikeCount   = 50 * time.Millisecond
)

// Effect names exposed in RenderedView.Effects.
const (
	EffectRipple        = "ripple"
	EffectShake         = "shake"
	EffectCardEntrance  = "card-entrance"
	EffectTemperatureIn = "temperature-swap"
)

type effect struct {
	id   uint64
	name string
}

// after schedules fn under the controller lock. The callback is dropped if the
// state version changed since it was scheduled or the controller was closed.
// Callers must hold c.mu.
func (c *Controller) after(d time.Duration, fn func()) {
	issued := c.version
	c.clock.AfterFunc(d, func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		if c.closed || c.version != issued {
			return
		}
		fn()
	})
}

// countUp moves a numeric text field from 0 to end in counterTick steps,
// finishing after roughly duration. Callers must hold c.mu.
func (c *Controller) countUp(set func(string), end float64, duration time.Duration, format func(int) string) {
	final := format(roundInt(end))
	steps := float64(duration) / float64(counterTick)
	if end == 0 || steps <= 0 {
		set(final)
		return
	}

	increment := end / steps
	set(format(0))

	current := 0.0
	var tick func()
	tick = func() {
		current += increment
		if (increment > 0 && current >= end) || (increment < 0 && current <= end) {
			set(final)
			return
		}
		set(format(roundInt(current)))
		c.after(counterTick, tick)
	}
	c.after(counterTick, tick)
}

// fadeIn blanks a text field and writes text after the fade delay.
// Callers must hold c.mu.
func (c *Controller) fadeIn(set func(string), text string) {
	set("")
	c.after(fadeDelay, func() { set(text) })
}

// flash shows a named effect for d. Effects are keyed by id, so removal is
// safe regardless of what the state did in the meantime.
// Callers must hold c.mu.
func (c *Controller) flash(name string, d time.Duration) {
	c.effectSeq++
	id := c.effectSeq
	c.effects = append(c.effects, effect{id: id, name: name})

	c.clock.AfterFunc(d, func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		for i, e := range c.effects {
			if e.id == id {
				c.effects = append(c.effects[:i], c.effects[i+1:]...)
				return
			}
		}
	})
}

func (c *Controller) activeEffects() []string {
	if len(c.effects) == 0 {
		return nil
	}
	names := make([]string, 0, len(c.effects))
	for _, e := range c.effects {
		names = append(names, e.name)
	}
	return names
}
