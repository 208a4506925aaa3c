package importer_test

import (
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/mudworld/internal/game/world"
	"github.com/cory-johannsen/mudworld/internal/importer"
)

func TestKeyword_KnownValues(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"Grunting Boar's Inn", "grunting-boars-inn"},
		{"The Temple of Midgaard", "the-temple-of-midgaard"},
		{"Sewer Level 2", "sewer-level-2"},
		{"Haon-Dor", "haon-dor"},
		{"  Café  Ünder--Hill ", "cafe-under-hill"},
		{"Frostfang Slums", "frostfang-slums"},
		{"The", ""},
		{"!!!", ""},
	}
	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.want, importer.Keyword(tc.input))
		})
	}
}

func TestKeyword_Truncates(t *testing.T) {
	kw := importer.Keyword(strings.Repeat("ab ", 40))
	assert.LessOrEqual(t, len(kw), world.MaxKeywordLength)
	assert.False(t, strings.HasSuffix(kw, "-"))
}

func TestPropertyKeywordIsValidAndIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		name := rapid.StringOf(rapid.RuneFrom([]rune{' ', '-', '\''}, unicode.Letter, unicode.Digit)).Draw(t, "name")
		kw := importer.Keyword(name)
		if kw == "" {
			return
		}
		assert.True(t, world.IsValidKeyword(kw), "keyword %q", kw)
		assert.Equal(t, kw, importer.Keyword(kw))
		for _, r := range kw {
			assert.True(t, r == '-' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'),
				"unexpected char %q in %q", r, kw)
		}
	})
}
