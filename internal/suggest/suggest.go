// Package suggest offers city-name completions from a fixed list.
package suggest

import "strings"

// MaxSuggestions caps how many names Suggest returns.
const MaxSuggestions = 5

// DefaultCities is the built-in list, in display order.
var DefaultCities = []string{
	"London", "New York", "Tokyo", "Paris", "Sydney", "Dubai",
	"Mumbai", "Singapore", "Berlin", "Rome", "Madrid", "Barcelona",
}

// Engine filters a fixed city list by prefix.
type Engine struct {
	cities []string
	lower  []string
}

// NewEngine builds an Engine over cities. A nil slice means DefaultCities.
func NewEngine(cities []string) *Engine {
	if cities == nil {
		cities = DefaultCities
	}
	e := &Engine{
		cities: append([]string(nil), cities...),
		lower:  make([]string, len(cities)),
	}
	for i, c := range e.cities {
		e.lower[i] = strings.ToLower(c)
	}
	return e
}

// Suggest returns up to MaxSuggestions cities whose name starts with prefix,
// ignoring case, in list order. A blank prefix yields nil.
func (e *Engine) Suggest(prefix string) []string {
	p := strings.ToLower(strings.TrimSpace(prefix))
	if p == "" {
		return nil
	}

	var out []string
	for i, name := range e.lower {
		if !strings.HasPrefix(name, p) {
			continue
		}
		out = append(out, e.cities[i])
		if len(out) == MaxSuggestions {
			break
		}
	}
	return out
}
