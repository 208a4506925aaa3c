package world

import (
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MaxKeywordLength bounds a single keyword.
const MaxKeywordLength = 50

var articles = map[string]struct{}{"a": {}, "an": {}, "the": {}, "some": {}}

// Entity is the identity, naming and keyword core shared by objects, rooms
// and zones.
//
// keywords preserves insertion order for serialization; keywordSet is the
// same content kept sorted for lower-bound prefix lookup.
type Entity struct {
	id         EntityID
	name       string
	keywords   []string
	keywordSet []string
	ground     string
	short      string
}

// NewEntity creates an entity whose keyword list contains the normalized name.
func NewEntity(id EntityID, name string) Entity {
	e := Entity{id: id, name: name}
	e.ensureNameInKeywords()
	return e
}

// NewEntityWithKeywords creates an entity with an explicit keyword list.
// Invalid keywords are dropped and duplicates collapsed.
func NewEntityWithKeywords(id EntityID, name string, keywords []string, ground, short string) Entity {
	e := Entity{id: id, name: name, ground: ground, short: short}
	e.SetKeywords(keywords)
	return e
}

// ID returns the immutable entity id.
func (e *Entity) ID() EntityID { return e.id }

// Name returns the primary keyword and display fallback.
func (e *Entity) Name() string { return e.name }

// SetName replaces the name and makes sure it is present as a keyword.
func (e *Entity) SetName(name string) {
	e.name = name
	e.ensureNameInKeywords()
}

// Keywords returns a copy of the keyword list in insertion order.
func (e *Entity) Keywords() []string { return slices.Clone(e.keywords) }

// Ground returns the description shown while the entity lies in a room.
func (e *Entity) Ground() string { return e.ground }

// SetGround sets the ground description.
func (e *Entity) SetGround(s string) { e.ground = s }

// ShortDesc returns the short description, falling back to the name.
func (e *Entity) ShortDesc() string {
	if e.short == "" {
		return e.name
	}
	return e.short
}

// HasShortDesc reports whether an explicit short description is set.
func (e *Entity) HasShortDesc() bool { return e.short != "" }

// SetShortDesc sets the short description.
func (e *Entity) SetShortDesc(s string) { e.short = s }

// MatchesKeyword reports whether the normalized k equals a stored keyword.
func (e *Entity) MatchesKeyword(k string) bool {
	_, found := slices.BinarySearch(e.keywordSet, NormalizeKeyword(k))
	return found
}

// MatchesAnyKeyword reports whether any of ks matches exactly.
func (e *Entity) MatchesAnyKeyword(ks []string) bool {
	for _, k := range ks {
		if e.MatchesKeyword(k) {
			return true
		}
	}
	return false
}

// MatchesAllKeywords reports whether every word is a prefix of some stored
// keyword. An empty word list matches nothing.
func (e *Entity) MatchesAllKeywords(words []string) bool {
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		w = NormalizeKeyword(w)
		if w == "" || !e.hasKeywordPrefix(w) {
			return false
		}
	}
	return true
}

// MatchesTargetString matches a player-typed target such as
// "magician-sleeves": hyphen and whitespace separated tokens must all match
// by prefix.
func (e *Entity) MatchesTargetString(target string) bool {
	return e.MatchesAllKeywords(TargetTokens(target))
}

func (e *Entity) hasKeywordPrefix(prefix string) bool {
	i, _ := slices.BinarySearch(e.keywordSet, prefix)
	return i < len(e.keywordSet) && strings.HasPrefix(e.keywordSet[i], prefix)
}

// SetKeywords replaces the keyword list.
//
// Postcondition: the normalized name is the first keyword unless it was
// already present in keywords.
func (e *Entity) SetKeywords(keywords []string) {
	e.keywords = e.keywords[:0]
	e.keywordSet = e.keywordSet[:0]
	for _, k := range keywords {
		e.AddKeyword(k)
	}
	e.ensureNameInKeywords()
}

// AddKeyword appends k if it is valid and not already present.
func (e *Entity) AddKeyword(k string) {
	if !IsValidKeyword(k) {
		return
	}
	e.insertKeyword(NormalizeKeyword(k), false)
}

// RemoveKeyword removes k.
//
// Postcondition: returns an ErrInvalidState error when k is the entity name.
func (e *Entity) RemoveKeyword(k string) error {
	n := NormalizeKeyword(k)
	if n == NormalizeKeyword(e.name) {
		return invalidState("RemoveKeyword", "cannot remove primary name keyword %q", n)
	}
	i, found := slices.BinarySearch(e.keywordSet, n)
	if !found {
		return nil
	}
	e.keywordSet = slices.Delete(e.keywordSet, i, i+1)
	e.keywords = slices.DeleteFunc(e.keywords, func(s string) bool { return s == n })
	return nil
}

func (e *Entity) insertKeyword(n string, front bool) {
	i, found := slices.BinarySearch(e.keywordSet, n)
	if found || n == "" {
		return
	}
	e.keywordSet = slices.Insert(e.keywordSet, i, n)
	if front {
		e.keywords = slices.Insert(e.keywords, 0, n)
	} else {
		e.keywords = append(e.keywords, n)
	}
}

func (e *Entity) ensureNameInKeywords() {
	if e.name == "" {
		return
	}
	e.insertKeyword(NormalizeKeyword(e.name), true)
}

// DisplayName returns the short description (or name), optionally prefixed
// with an indefinite article unless it already carries one.
func (e *Entity) DisplayName(withArticle bool) string {
	return FormatEntityName(e.name, e.short, withArticle, false)
}

// Validate checks the identity invariants.
func (e *Entity) Validate() error {
	var errs []string
	if !e.id.IsValid() {
		errs = append(errs, "entity has invalid id")
	}
	if e.name == "" {
		errs = append(errs, "entity name cannot be empty")
	}
	if len(e.keywords) == 0 {
		errs = append(errs, "entity must have at least one keyword")
	}
	if len(errs) > 0 {
		return invalidState("Validate", "%s", strings.Join(errs, "; "))
	}
	return nil
}

// NormalizeKeyword lowercases k and collapses whitespace runs into single
// spaces, trimming both ends.
func NormalizeKeyword(k string) string {
	return strings.Join(strings.Fields(cases.Lower(language.Und).String(k)), " ")
}

// IsValidKeyword reports whether k may be stored as a keyword: 1..50
// printable characters, no quotes, and not an article.
func IsValidKeyword(k string) bool {
	if k == "" || len(k) > MaxKeywordLength {
		return false
	}
	for _, r := range k {
		if r > unicode.MaxASCII || !unicode.IsPrint(r) || r == '"' || r == '\'' {
			return false
		}
	}
	_, isArticle := articles[strings.ToLower(k)]
	return !isArticle
}

// ParseKeywordList splits s on whitespace and returns the valid, normalized,
// sorted and deduplicated keywords.
func ParseKeywordList(s string) []string {
	var out []string
	for _, f := range strings.Fields(s) {
		if IsValidKeyword(f) {
			out = append(out, NormalizeKeyword(f))
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// KeywordString renders keywords as a quoted, space separated list.
func KeywordString(keywords []string) string {
	quoted := make([]string, len(keywords))
	for i, k := range keywords {
		quoted[i] = "'" + k + "'"
	}
	return strings.Join(quoted, " ")
}

// TargetTokens normalizes a target string into its distinct tokens in
// first-seen order. Hyphens and whitespace both separate tokens.
func TargetTokens(target string) []string {
	fields := strings.FieldsFunc(NormalizeKeyword(target), func(r rune) bool {
		return r == '-' || unicode.IsSpace(r)
	})
	seen := make(map[string]struct{}, len(fields))
	out := fields[:0]
	for _, f := range fields {
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// Article returns the article to place before name.
func Article(name string, definite bool) string {
	if definite {
		return "the"
	}
	if name != "" && strings.ContainsRune("aeiou", unicode.ToLower(rune(name[0]))) {
		return "an"
	}
	return "a"
}

// FormatEntityName picks short over name and optionally adds an article.
func FormatEntityName(name, short string, withArticle, definite bool) string {
	display := name
	if short != "" {
		display = short
	}
	if !withArticle {
		return display
	}
	lower := strings.ToLower(display)
	for _, p := range []string{"a ", "an ", "the ", "some ", "this ", "that "} {
		if strings.HasPrefix(lower, p) {
			return display
		}
	}
	return Article(display, definite) + " " + display
}
