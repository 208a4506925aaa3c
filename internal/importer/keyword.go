package importer

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/cory-johannsen/mudworld/internal/game/world"
)

// foldAccents strips combining marks, so "Café" becomes "Cafe".
var foldAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Keyword turns a display name into a single room keyword: ASCII letters
// and digits, lowercase, with each run of separators replaced by one
// hyphen. Apostrophes vanish without separating ("Boar's" becomes "boars").
// Characters without an ASCII base letter are dropped.
//
// Postcondition: the result is empty or a valid world keyword, and
// Keyword(Keyword(s)) == Keyword(s).
func Keyword(name string) string {
	folded, _, err := transform.String(foldAccents, name)
	if err != nil {
		folded = name
	}
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r == '\'' || r == '’':
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if pendingSep && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingSep = false
			b.WriteRune(r)
		default:
			pendingSep = true
		}
	}
	kw := b.String()
	if len(kw) > world.MaxKeywordLength {
		kw = strings.TrimRight(kw[:world.MaxKeywordLength], "-")
	}
	if !world.IsValidKeyword(kw) {
		return ""
	}
	return kw
}
