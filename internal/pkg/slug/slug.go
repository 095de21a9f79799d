// Package slug turns post titles into URL-safe identifiers.
//
// Latin titles go through github.com/gosimple/slug. Titles that carry letters
// from other scripts (Chinese, Japanese, Cyrillic...) keep those letters: the
// title is NFKC-normalized and runs of punctuation, symbols and whitespace
// collapse into single hyphens.
package slug

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	gosimple "github.com/gosimple/slug"
	"golang.org/x/text/unicode/norm"
)

const (
	// MaxLength is the longest slug a post may carry, in runes.
	MaxLength = 200
	// Fallback is used when a title produces no slug characters at all.
	Fallback = "post"

	suffixDigits = 4
)

// separators matches runs of Unicode punctuation, symbols and whitespace,
// hyphens included.
var separators = regexp.MustCompile(`[\p{P}\p{S}\s]+`)

// Slugify converts s into slug form, truncated to MaxLength. It may return
// an empty string.
func Slugify(s string) string {
	s = strings.TrimSpace(s)
	if hasNonLatinLetters(s) {
		s = unicodeSlug(s)
	} else {
		s = gosimple.Make(s)
	}
	return Truncate(s, MaxLength)
}

// FromTitle derives a candidate slug from a post title. It never returns an
// empty string.
func FromTitle(title string) string {
	if s := Slugify(title); s != "" {
		return s
	}
	return Fallback
}

// Make returns explicit when it has content, otherwise a slug derived from title.
func Make(explicit, title string) string {
	if s := Truncate(strings.TrimSpace(explicit), MaxLength); s != "" {
		return s
	}
	return FromTitle(title)
}

// Truncate cuts s to at most n runes and strips whitespace and hyphens left
// dangling at either end.
func Truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > n {
		s = string([]rune(s)[:n])
	}
	return strings.Trim(s, "- \t\r\n")
}

// WithSuffix appends "-NNNN" to base, shortening base so the result still
// fits in MaxLength runes.
func WithSuffix(base string, n int) string {
	suffix := fmt.Sprintf("-%0*d", suffixDigits, n%10000)
	room := MaxLength - utf8.RuneCountInString(suffix)
	trimmed := Truncate(base, room)
	if trimmed == "" {
		trimmed = Fallback
	}
	return trimmed + suffix
}

// RandomSuffix returns a number in [0, 9999] for WithSuffix.
func RandomSuffix() int {
	return rand.IntN(10000)
}

func unicodeSlug(title string) string {
	s := norm.NFKC.String(title)
	s = separators.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

func hasNonLatinLetters(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) && !unicode.Is(unicode.Latin, r) {
			return true
		}
	}
	return false
}
