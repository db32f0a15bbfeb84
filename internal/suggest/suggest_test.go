package suggest

import (
	"reflect"
	"testing"
)

func TestSuggest(t *testing.T) {
	e := NewEngine(nil)

	tests := []struct {
		name     string
		prefix   string
		expected []string
	}{
		{name: "single match", prefix: "Lo", expected: []string{"London"}},
		{name: "case insensitive", prefix: "lo", expected: []string{"London"}},
		{name: "keeps list order", prefix: "m", expected: []string{"Mumbai", "Madrid"}},
		{name: "surrounding space trimmed", prefix: "  to ", expected: []string{"Tokyo"}},
		{name: "no match", prefix: "zz", expected: nil},
		{name: "empty prefix suppressed", prefix: "", expected: nil},
		{name: "blank prefix suppressed", prefix: "   ", expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Suggest(tt.prefix)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Suggest(%q) = %v, want %v", tt.prefix, got, tt.expected)
			}
		})
	}
}

func TestSuggestCapsResults(t *testing.T) {
	e := NewEngine([]string{"Bath", "Bari", "Basel", "Bamako", "Bangkok", "Baku", "Banjul"})

	got := e.Suggest("ba")
	want := []string{"Bath", "Bari", "Basel", "Bamako", "Bangkok"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Suggest(\"ba\") = %v, want %v", got, want)
	}
}
