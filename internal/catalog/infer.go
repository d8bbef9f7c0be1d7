package catalog

import "strings"

// classify buckets a parameter into a physical-subsystem category from its
// display name and unit. Categories drive threshold inference and the
// catalog listing; they never affect resolution.
func classify(friendly, unit string) string {
	name := strings.ToLower(friendly)
	u := strings.ToLower(strings.TrimSpace(unit))
	switch {
	case strings.Contains(name, "flow") || strings.Contains(u, "l/min") || u == "l/m":
		return "flow"
	case strings.Contains(name, "temp") || strings.Contains(u, "°c") || strings.Contains(u, "celsius"):
		return "temperature"
	case strings.Contains(name, "voltage") || u == "v":
		return "voltage"
	case strings.Contains(name, "pressure") || strings.Contains(u, "psi"):
		return "pressure"
	case strings.Contains(name, "humidity") || strings.Contains(u, "%") || strings.Contains(name, "relative"):
		return "humidity"
	case strings.Contains(name, "speed") || strings.Contains(u, "rpm"):
		return "fan_speed"
	case strings.Contains(name, "drift") || u == "mm":
		return "motion"
	default:
		return "general"
	}
}

// categoryRanges holds the default expected/critical intervals per category.
// They are deliberately wide: the catalog source can always carry tighter
// per-parameter ranges, these only cover parameters that declare none.
var categoryRanges = map[string][2]Range{
	"flow":        {{Low: 5, High: 20}, {Low: 2, High: 25}},
	"temperature": {{Low: 15, High: 85}, {Low: 5, High: 100}},
	"voltage":     {{Low: -50, High: 50}, {Low: -60, High: 60}},
	"pressure":    {{Low: 10, High: 50}, {Low: 5, High: 80}},
	"humidity":    {{Low: 30, High: 70}, {Low: 10, High: 90}},
	"fan_speed":   {{Low: 1000, High: 5000}, {Low: 500, High: 8000}},
	"motion":      {{Low: -2, High: 2}, {Low: -5, High: 5}},
}

// inferRanges returns the default expected and critical ranges for a
// category, or nils when the category has no sensible default (general,
// event).
func inferRanges(category string) (expected, critical *Range) {
	rs, ok := categoryRanges[category]
	if !ok {
		return nil, nil
	}
	e, c := rs[0], rs[1]
	return &e, &c
}
