package weather

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownIcon is returned for an icon code outside the table.
var ErrUnknownIcon = errors.New("unknown icon code")

// Icon is the artwork for a condition code.
type Icon struct {
	Asset string
	Glyph string
}

const iconDir = "resource/iconfinder-lineart-weather/"

var icons = map[string]Icon{
	"03": {iconDir + "809976_cloud_overcast_weather_icon.svg", "☁"},
	"04": {iconDir + "809978_cloud_clouds_overcast_weather_icon.svg", "☁"},
	"09": {iconDir + "809980_cloud_rain_rainy_weather_icon.svg", "🌧"},
	"10": {iconDir + "809979_cloud_rain_rainy_weather_icon.svg", "🌦"},
	"11": {iconDir + "809985_cloud_thunder_thunderbolt_weather_icon.svg", "⛈"},
	"13": {iconDir + "809992_snowflake_weather_winter_icon.svg", "❄"},
	"50": {"resource/8680112_mist_fill_icon.svg", "🌫"},
}

// IconFor maps an OpenWeather icon code such as "10d" by its two-character
// prefix. Clear and few-clouds codes differ by day and night.
func IconFor(code string) (Icon, error) {
	if len(code) < 2 {
		return Icon{}, fmt.Errorf("%w: %q", ErrUnknownIcon, code)
	}
	day := strings.HasSuffix(code, "d")
	switch code[:2] {
	case "01":
		if day {
			return Icon{iconDir + "809988_day_sun_sunny_weather_icon.svg", "☀"}, nil
		}
		return Icon{iconDir + "810000_moon_night_weather_icon.svg", "☾"}, nil
	case "02":
		if day {
			return Icon{iconDir + "809977_cloud_overcast_sun_weather_icon.svg", "⛅"}, nil
		}
		return Icon{iconDir + "809976_cloud_overcast_weather_icon.svg", "☁"}, nil
	}
	if icon, ok := icons[code[:2]]; ok {
		return icon, nil
	}
	return Icon{}, fmt.Errorf("%w: %q", ErrUnknownIcon, code)
}
