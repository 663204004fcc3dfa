// Package slug derives URL-safe identifiers from human readable names.
package slug

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const Fallback = "job"

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// Make lowercases s, drops diacritics and hyphenates everything that is not
// an ASCII letter or digit.
func Make(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	out := nonAlphanumeric.ReplaceAllString(strings.ToLower(folded), "-")
	out = strings.Trim(out, "-")
	if out == "" {
		return Fallback
	}
	return out
}

// Pattern matches base and its numbered variants. Callers match it
// case-insensitively (Postgres ~*).
func Pattern(base string) string {
	return fmt.Sprintf("^%s(-[0-9]+)?$", regexp.QuoteMeta(base))
}

// Resolve picks the slug for base given the slugs already stored. With n
// matching slugs the candidate is base-(n+1); the suffix keeps growing while
// the candidate is taken.
func Resolve(base string, existing []string) string {
	re := regexp.MustCompile("(?i)" + Pattern(base))

	taken := make(map[string]struct{}, len(existing))
	count := 0
	for _, s := range existing {
		if re.MatchString(s) {
			count++
			taken[strings.ToLower(s)] = struct{}{}
		}
	}
	if count == 0 {
		return base
	}

	for n := count + 1; ; n++ {
		candidate := fmt.Sprintf("%s-%d", base, n)
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
	}
}
