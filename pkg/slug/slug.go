package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Generate lowercases name, strips diacritics and joins words with hyphens:
//
//	"Cosmétiques"  -> "cosmetiques"
//	"Auto Pièces"  -> "auto-pieces"
//	"Électroménager" -> "electromenager"
func Generate(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		folded = strings.ToLower(strings.TrimSpace(name))
	}
	return strings.Trim(nonAlnum.ReplaceAllString(folded, "-"), "-")
}
