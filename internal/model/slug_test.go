package model

import (
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"city council budget vote", "city-council-budget-vote"},
		{"  City Council Budget Vote  ", "city-council-budget-vote"},
		{`"Quoted" headline: what's next?`, "quoted-headline-what-s-next"},
		{"---", ""},
		{"AI & ML — 2026 outlook!!", "ai-ml-2026-outlook"},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSlugifyDeterministic(t *testing.T) {
	a := Slugify("Federal Budget Vote")
	b := Slugify("  federal budget VOTE ")
	if a != b {
		t.Errorf("normalized-equal queries got different slugs: %q vs %q", a, b)
	}
}

func TestSlugifyBounded(t *testing.T) {
	long := strings.Repeat("word ", 50)
	slug := Slugify(long)
	if len(slug) > 80 {
		t.Errorf("slug length %d exceeds bound", len(slug))
	}
	if strings.HasSuffix(slug, "-") || strings.HasPrefix(slug, "-") {
		t.Errorf("slug has dangling hyphen: %q", slug)
	}
}
