// Package icons maps weather conditions to display assets and card themes.
package icons

import "strings"

// AssetID identifies an image the view renders for a condition.
type AssetID string

const (
	AssetClear     AssetID = "images/clean sun.webp"
	AssetFewClouds AssetID = "images/clouds and sun.png"
	AssetCloudy    AssetID = "images/cloudy weather3.avif"
	AssetRain      AssetID = "images/rain.png"
	AssetSnow      AssetID = "images/snow .png"
	AssetMist      AssetID = "images/mist.png"
)

// DefaultAsset is shown when neither description nor category match.
const DefaultAsset = AssetClear

var descriptionAssets = map[string]AssetID{
	"clear sky":        AssetClear,
	"few clouds":       AssetFewClouds,
	"scattered clouds": AssetCloudy,
	"broken clouds":    AssetCloudy,
	"overcast clouds":  AssetCloudy,
	"light rain":       AssetRain,
	"moderate rain":    AssetRain,
	"heavy rain":       AssetRain,
	"light snow":       AssetSnow,
	"moderate snow":    AssetSnow,
	"heavy snow":       AssetSnow,
	"mist":             AssetMist,
	"fog":              AssetMist,
	"haze":             AssetMist,
}

var categoryAssets = map[string]AssetID{
	"clear":        AssetClear,
	"clouds":       AssetCloudy,
	"rain":         AssetRain,
	"drizzle":      AssetRain,
	"thunderstorm": AssetRain,
	"snow":         AssetSnow,
	"mist":         AssetMist,
	"fog":          AssetMist,
	"haze":         AssetMist,
}

// Resolver looks up icon assets. The zero value is ready to use.
type Resolver struct{}

// NewResolver returns a Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve returns the asset for a condition. The description is consulted
// first, then the main category, then DefaultAsset.
func (r *Resolver) Resolve(description, mainCategory string) AssetID {
	if a, ok := descriptionAssets[strings.ToLower(strings.TrimSpace(description))]; ok {
		return a
	}
	if a, ok := categoryAssets[strings.ToLower(strings.TrimSpace(mainCategory))]; ok {
		return a
	}
	return DefaultAsset
}

// Theme returns the weather-card background class for a main category,
// or "" when none applies.
func (r *Resolver) Theme(mainCategory string) string {
	c := strings.ToLower(mainCategory)
	switch {
	case strings.Contains(c, "clear"):
		return "sunny"
	case strings.Contains(c, "cloud"):
		return "cloudy"
	case strings.Contains(c, "rain"):
		return "rainy"
	case strings.Contains(c, "snow"):
		return "snowy"
	case strings.Contains(c, "mist"), strings.Contains(c, "fog"), strings.Contains(c, "haze"):
		return "misty"
	default:
		return ""
	}
}
