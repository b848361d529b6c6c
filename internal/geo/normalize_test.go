package geo

import (
	"testing"

	"dataco-dashboard/internal/models"
)

func TestCanonical(t *testing.T) {
	tests := []struct {
		label string
		want  string
		ok    bool
	}{
		{"France", "France", true},
		{"Germany", "Germany", true},
		{"USA", "United States", true},
		{"Western Europe", "France", true},
		{"Caribbean", "Jamaica", true},
		{"Central Africa", "Congo", true},
		{"Not A Place", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, ok := Canonical(tt.label)
			if ok != tt.ok {
				t.Fatalf("Canonical(%q) ok = %v, want %v", tt.label, ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("Canonical(%q) = %q, want %q", tt.label, got, tt.want)
			}
		})
	}
}

func TestMapReady(t *testing.T) {
	stats := []models.CountryStat{
		{Country: "France", Orders: 10, Revenue: 1000},
		{Country: "Not A Place", Orders: 5, Revenue: 500},
		{Country: "Oceania", Orders: 3, Revenue: 300},
	}

	out := MapReady(stats)
	if len(out) != 2 {
		t.Fatalf("got %d rows, want 2 (unresolvable label dropped)", len(out))
	}
	if out[0].Canonical != "France" || out[0].Orders != 10 {
		t.Errorf("first row = %+v", out[0])
	}
	if out[1].Canonical != "Australia" {
		t.Errorf("Oceania should resolve to Australia, got %q", out[1].Canonical)
	}

	// input must be untouched
	if stats[0].Canonical != "" {
		t.Error("MapReady mutated its input")
	}
}
