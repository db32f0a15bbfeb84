package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/i474232898/weather-widget/internal/weather"
)

func newOpenMeteoTestServer(t *testing.T, forecast http.HandlerFunc) (*OpenMeteoProvider, *atomic.Int32) {
	t.Helper()

	var geocodes atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/search", func(w http.ResponseWriter, r *http.Request) {
		geocodes.Add(1)
		switch r.URL.Query().Get("name") {
		case "Nowhere":
			w.Write([]byte(`{"generationtime_ms": 0.4}`))
			return
		case "x":
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error": true, "reason": "Parameter 'name' must be at least 2 characters"}`))
			return
		}
		w.Write([]byte(`{"results": [{"name": "Oslo", "latitude": 59.9127, "longitude": 10.7461}]}`))
	})
	mux.HandleFunc("/v1/forecast", forecast)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	p := NewOpenMeteoProvider(&http.Client{Timeout: 5 * time.Second}, OpenMeteoConfig{
		ForecastURL:  srv.URL + "/v1/forecast",
		GeocodingURL: srv.URL + "/v1/search",
	}, nil)
	return p, &geocodes
}

func TestOpenMeteoFetchCurrent(t *testing.T) {
	p, geocodes := newOpenMeteoTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("latitude") != "59.9127" || q.Get("longitude") != "10.7461" {
			t.Errorf("unexpected coordinates %s", r.URL.RawQuery)
		}
		if !strings.Contains(q.Get("current"), "apparent_temperature") {
			t.Errorf("expected current variables, got %q", q.Get("current"))
		}
		w.Write([]byte(`{"current": {
			"time": 1736942400, "temperature_2m": -3.4, "apparent_temperature": -8.1,
			"relative_humidity_2m": 91, "wind_speed_10m": 12.6, "visibility": 2400,
			"weather_code": 73
		}}`))
	})

	snap, err := p.FetchCurrent(context.Background(), "Oslo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if geocodes.Load() != 1 {
		t.Errorf("expected one geocoding call, got %d", geocodes.Load())
	}
	if snap.City != "Oslo" || snap.TemperatureC != -3.4 || snap.FeelsLikeC != -8.1 {
		t.Errorf("unexpected snapshot %+v", snap)
	}
	if snap.HumidityPct != 91 || snap.WindKph != 12.6 || snap.VisibilityKm != 2.4 {
		t.Errorf("unexpected measurements %+v", snap)
	}
	if snap.Condition.Main != weather.CategorySnow || snap.Condition.Description != "moderate snow" {
		t.Errorf("unexpected condition %+v", snap.Condition)
	}
}

func TestOpenMeteoUnknownCity(t *testing.T) {
	var forecastCalls atomic.Int32
	p, _ := newOpenMeteoTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		forecastCalls.Add(1)
	})

	_, err := p.FetchCurrent(context.Background(), "Nowhere")
	if !errors.Is(err, weather.ErrInvalidCity) {
		t.Fatalf("expected ErrInvalidCity, got %v", err)
	}
	if forecastCalls.Load() != 0 {
		t.Errorf("expected no forecast call for an unknown city")
	}

	if set := p.FetchForecast(context.Background(), "Nowhere"); len(set) != 0 {
		t.Errorf("expected empty forecast, got %+v", set)
	}
}

func TestOpenMeteoRejectedGeocodeQuery(t *testing.T) {
	p, _ := newOpenMeteoTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("forecast must not be requested for a rejected name")
	})

	_, err := p.FetchCurrent(context.Background(), "x")
	if !errors.Is(err, weather.ErrInvalidCity) {
		t.Fatalf("expected ErrInvalidCity, got %v", err)
	}
	if errors.Is(err, weather.ErrProviderUnavailable) {
		t.Errorf("a rejected query must not report the provider as unavailable: %v", err)
	}
}

func TestOpenMeteoForecastCheckpoints(t *testing.T) {
	now := time.Date(2025, 1, 15, 10, 20, 0, 0, time.UTC)
	start := now.Truncate(24 * time.Hour)

	var times, temps, codes []string
	for i := 0; i < 48; i++ {
		times = append(times, fmt.Sprint(start.Add(time.Duration(i)*time.Hour).Unix()))
		temps = append(temps, fmt.Sprint(i))
		codes = append(codes, "2")
	}
	body := fmt.Sprintf(`{"hourly": {"time": [%s], "temperature_2m": [%s], "weather_code": [%s]}}`,
		strings.Join(times, ","), strings.Join(temps, ","), strings.Join(codes, ","))

	p, _ := newOpenMeteoTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("hourly") != "temperature_2m,weather_code" {
			t.Errorf("unexpected hourly variables %s", r.URL.RawQuery)
		}
		w.Write([]byte(body))
	})
	p.now = func() time.Time { return now }

	set := p.FetchForecast(context.Background(), "Oslo")
	if len(set) != 3 {
		t.Fatalf("expected 3 checkpoints, got %d", len(set))
	}
	for i, want := range []float64{10, 16, 22} {
		if set[i].TemperatureC != want {
			t.Errorf("checkpoint %d: expected %v, got %v", i, want, set[i].TemperatureC)
		}
		if set[i].Condition.Description != "scattered clouds" {
			t.Errorf("checkpoint %d: unexpected condition %+v", i, set[i].Condition)
		}
	}
	if gap := set[1].Timestamp.Sub(set[0].Timestamp); gap != 6*time.Hour {
		t.Errorf("expected 6h between checkpoints, got %v", gap)
	}
}

func TestOpenMeteoServerError(t *testing.T) {
	p, _ := newOpenMeteoTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := p.FetchCurrent(context.Background(), "Oslo")
	if !errors.Is(err, weather.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestMapOpenMeteoCondition(t *testing.T) {
	tests := []struct {
		code int
		main weather.Category
		desc string
	}{
		{0, weather.CategoryClear, "clear sky"},
		{1, weather.CategoryClouds, "few clouds"},
		{45, weather.CategoryMist, "fog"},
		{53, weather.CategoryRain, "drizzle"},
		{65, weather.CategoryRain, "heavy rain"},
		{71, weather.CategorySnow, "light snow"},
		{96, weather.CategoryRain, "thunderstorm"},
	}

	for _, tt := range tests {
		got := mapOpenMeteoCondition(tt.code)
		if got.Main != tt.main || got.Description != tt.desc {
			t.Errorf("code %d: got %+v, want %s/%s", tt.code, got, tt.main, tt.desc)
		}
	}
}
