package world

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestNewEntity_NameIsKeyword(t *testing.T) {
	e := NewEntity(3001, "Guard")
	assert.Equal(t, []string{"guard"}, e.Keywords())
	assert.True(t, e.MatchesKeyword("GUARD"))
	assert.Equal(t, "Guard", e.ShortDesc(), "short falls back to name")
	assert.False(t, e.HasShortDesc())
}

func TestEntity_SetKeywords_DropsInvalidAndDuplicates(t *testing.T) {
	e := NewEntityWithKeywords(10, "sword", []string{"Sword", "sharp", "the", "it's", "SHARP", ""}, "", "")
	assert.Equal(t, []string{"sword", "sharp"}, e.Keywords())
}

func TestEntity_RemoveKeyword_NameIsProtected(t *testing.T) {
	e := NewEntityWithKeywords(10, "sword", []string{"blade"}, "", "")
	err := e.RemoveKeyword("SWORD")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidState)

	require.NoError(t, e.RemoveKeyword("blade"))
	assert.False(t, e.MatchesKeyword("blade"))
	require.NoError(t, e.RemoveKeyword("missing"), "removing an absent keyword is a no-op")
}

func TestEntity_MatchesTargetString(t *testing.T) {
	e := NewEntityWithKeywords(10, "sleeves", []string{"magician", "silk"}, "", "")
	assert.True(t, e.MatchesTargetString("magician-sleeves"))
	assert.True(t, e.MatchesTargetString("mag sle"))
	assert.False(t, e.MatchesTargetString("magician-gloves"))
	assert.False(t, e.MatchesTargetString(""), "an empty target matches nothing")
}

func TestEntity_Validate(t *testing.T) {
	e := NewEntity(InvalidID, "")
	err := e.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Contains(t, err.Error(), "invalid id")
	assert.Contains(t, err.Error(), "name cannot be empty")

	ok := NewEntity(1, "x")
	assert.NoError(t, ok.Validate())
}

func TestFormatEntityName(t *testing.T) {
	assert.Equal(t, "an apple", FormatEntityName("apple", "", true, false))
	assert.Equal(t, "the apple", FormatEntityName("apple", "", true, true))
	assert.Equal(t, "some bread", FormatEntityName("bread", "some bread", true, false))
	assert.Equal(t, "bread", FormatEntityName("bread", "", false, false))
}

func TestParseEntityID(t *testing.T) {
	id, err := ParseEntityID(" 3001 ")
	require.NoError(t, err)
	assert.Equal(t, EntityID(3001), id)
	assert.Equal(t, uint64(30), id.ZoneNumber())
	assert.Equal(t, uint64(1), id.LocalNumber())

	id, err = ParseEntityID("-1")
	require.NoError(t, err)
	assert.False(t, id.IsValid())
	assert.Equal(t, "invalid", id.String())

	_, err = ParseEntityID("abc")
	assert.ErrorIs(t, err, ErrParse)
}

// TestEntityID_ZeroEncoding shows that id 0 survives encoding because ids
// are written as numbers; only a legacy string "0" is remapped.
func TestEntityID_ZeroEncoding(t *testing.T) {
	o, err := NewObject(0, "relic", ObjectOther)
	require.NoError(t, err)
	data, err := o.MarshalJSON()
	require.NoError(t, err)
	back, err := ObjectFromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, EntityID(0), back.ID())

	legacy, err := ObjectFromJSON([]byte(`{"id": "0", "name": "relic", "type": "OTHER"}`))
	require.NoError(t, err)
	assert.Equal(t, EntityID(1000), legacy.ID())

	id, err := ParseEntityID(EntityID(0).String())
	require.NoError(t, err)
	assert.Equal(t, EntityID(0), id, "ParseEntityID does not remap")
}

func TestTargetTokens_Dedupes(t *testing.T) {
	assert.Equal(t, []string{"red", "cloak"}, TargetTokens("Red-cloak  red"))
}

// TestPropertyKeywordPrefixMatches verifies that every non-empty prefix of
// a stored keyword matches by prefix.
func TestPropertyKeywordPrefixMatches(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		kw := rapid.StringMatching(`[a-z]{1,12}`).Draw(t, "keyword")
		if !IsValidKeyword(kw) {
			t.Skip("article")
		}
		n := rapid.IntRange(1, len(kw)).Draw(t, "prefix_len")
		e := NewEntityWithKeywords(1, "thing", []string{kw}, "", "")
		assert.True(t, e.MatchesAllKeywords([]string{kw[:n]}))
		assert.True(t, e.MatchesKeyword(strings.ToUpper(kw)))
	})
}

// TestPropertyNormalizeKeywordIdempotent verifies Normalize(Normalize(k)) == Normalize(k).
func TestPropertyNormalizeKeywordIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		k := rapid.StringMatching(`[A-Za-z \t]{0,24}`).Draw(t, "k")
		once := NormalizeKeyword(k)
		assert.Equal(t, once, NormalizeKeyword(once))
	})
}
