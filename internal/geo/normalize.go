// Package geo maps the dataset's free-text country and region labels to
// canonical country names usable by a map renderer.
package geo

import (
	"sync"

	"github.com/pariz/gountries"

	"dataco-dashboard/internal/models"
)

// regionFallback covers labels the standards lookup cannot resolve. Several
// multi-country regions map to a single representative country; that is an
// approximation inherited from the dataset, good enough to place the region
// on a map.
var regionFallback = map[string]string{
	"USA":             "United States",
	"UK":              "United Kingdom",
	"UAE":             "United Arab Emirates",
	"South of USA":    "United States",
	"East of USA":     "United States",
	"Central America": "Mexico",
	"Western Europe":  "France",
	"Northern Europe": "Germany",
	"Southern Europe": "Italy",
	"Southeast Asia":  "Thailand",
	"Oceania":         "Australia",
	"Caribbean":       "Jamaica",
	"North Africa":    "Egypt",
	"East Africa":     "Kenya",
	"Central Africa":  "Congo",
}

var (
	queryOnce sync.Once
	query     *gountries.Query
)

// Canonical resolves a free-text label to a canonical country name. The
// standards lookup is tried first; on failure the manual fallback table is
// consulted. The second return is false when neither path matches.
func Canonical(label string) (string, bool) {
	queryOnce.Do(func() { query = gountries.New() })

	if country, err := query.FindCountryByName(label); err == nil {
		return country.Name.Common, true
	}
	if name, ok := regionFallback[label]; ok {
		return name, true
	}
	return "", false
}

// MapReady annotates country stats with canonical names and drops rows that
// resolve to nothing. Dropping here affects the map output only; the
// underlying metrics keep every row.
func MapReady(stats []models.CountryStat) []models.CountryStat {
	out := make([]models.CountryStat, 0, len(stats))
	for _, cs := range stats {
		name, ok := Canonical(cs.Country)
		if !ok {
			continue
		}
		cs.Canonical = name
		out = append(out, cs)
	}
	return out
}
