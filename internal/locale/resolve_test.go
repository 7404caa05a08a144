package locale

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func variant(l Lang, title string) Variant {
	return Variant{Lang: l, Title: title, Description: title + " description"}
}

func TestResolve(t *testing.T) {
	en := variant(English, "Haunted House Night")
	fr := variant(French, "Soirée Maison Hantée")

	tests := []struct {
		name         string
		variants     []Variant
		preferred    Lang
		wantTitle    string
		wantServed   Lang
		wantFallback bool
	}{
		{"exact french", []Variant{en, fr}, French, fr.Title, French, false},
		{"exact english", []Variant{fr, en}, English, en.Title, English, false},
		{"unsupported falls back to english", []Variant{fr, en}, Lang("es"), en.Title, English, true},
		{"missing french falls back to english", []Variant{en}, French, en.Title, English, true},
		{"no english takes first available", []Variant{fr}, Lang("de"), fr.Title, French, true},
		{"empty keeps preferred", nil, French, "", French, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.variants, tt.preferred)
			assert.Equal(t, tt.wantServed, got.ServedLang)
			assert.Equal(t, tt.wantFallback, got.IsFallback)
			assert.Len(t, got.AvailableLangs, len(tt.variants))
			if tt.wantTitle == "" {
				assert.Nil(t, got.Chosen)
				return
			}
			require.NotNil(t, got.Chosen)
			assert.Equal(t, tt.wantTitle, got.Chosen.Title)
		})
	}
}

func TestResolveProperties(t *testing.T) {
	en := variant(English, "en")
	fr := variant(French, "fr")
	sets := [][]Variant{nil, {en}, {fr}, {en, fr}, {fr, en}}
	prefs := []Lang{English, French, Lang("es"), Lang("")}

	for _, set := range sets {
		for _, p := range prefs {
			got := Resolve(set, p)
			if len(set) == 0 {
				assert.Nil(t, got.Chosen)
				assert.False(t, got.IsFallback)
				continue
			}
			require.NotNil(t, got.Chosen)
			assert.Contains(t, set, *got.Chosen)

			hasPreferred := indexOf(set, p) >= 0
			if hasPreferred {
				assert.False(t, got.IsFallback)
				assert.Equal(t, p, got.ServedLang)
			} else if indexOf(set, English) >= 0 {
				assert.Equal(t, English, got.ServedLang)
				assert.Equal(t, p != English, got.IsFallback)
			}
		}
	}
}

func TestResolveDoesNotAliasInput(t *testing.T) {
	set := []Variant{variant(English, "original")}
	got := Resolve(set, English)
	got.Chosen.Title = "changed"
	assert.Equal(t, "original", set[0].Title)
}
