// Package normalize canonicalizes strings, artist and track names, genres, URIs and
// durations so that comparisons across catalog responses are stable.
package normalize

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	whitespace = regexp.MustCompile(`\s+`)

	leadingArticle    = regexp.MustCompile(`^(the|a|an) `)
	generationalTrail = regexp.MustCompile(` (jr|sr|ii|iii|iv|v)$`)

	uriPattern = regexp.MustCompile(`^([a-z][a-z0-9]*):(track|album|playlist|artist):([A-Za-z0-9]+)$`)

	genreAliases = map[string]string{
		"hiphop":      "hip hop",
		"hip-hop":     "hip hop",
		"rnb":         "r&b",
		"r and b":     "r&b",
		"r n b":       "r&b",
		"lofi":        "lo-fi",
		"lo fi":       "lo-fi",
		"edm":         "electronic",
		"electronica": "electronic",
	}
)

// CollapseWhitespace trims s and folds every whitespace run into one space.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// StripDiacritics removes combining marks, so "Beyoncé" becomes "Beyonce".
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Text lower-cases s, strips diacritics and punctuation and collapses whitespace.
func Text(s string) string {
	s = strings.ToLower(StripDiacritics(s))
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		case r == '&':
			b.WriteString(" and ")
		}
	}
	return CollapseWhitespace(b.String())
}

// TrackName normalizes a track title for comparison.
func TrackName(name string) string {
	return Text(name)
}

// ArtistName normalizes an artist name and drops a leading article and a trailing
// generational suffix, so "The Beatles" and "Beatles" compare equal.
func ArtistName(name string) string {
	n := Text(name)
	n = leadingArticle.ReplaceAllString(n, "")
	n = generationalTrail.ReplaceAllString(n, "")
	return strings.TrimSpace(n)
}

// ArtistList returns the normalized artists, sorted and without blanks.
func ArtistList(artists []string) []string {
	out := make([]string, 0, len(artists))
	for _, a := range artists {
		if n := Text(a); n != "" {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

// Genre canonicalizes a genre label, folding common spellings onto one form.
func Genre(genre string) string {
	g := CollapseWhitespace(strings.ToLower(StripDiacritics(genre)))
	if alias, ok := genreAliases[g]; ok {
		return alias
	}
	g = strings.ReplaceAll(g, "-", " ")
	if alias, ok := genreAliases[g]; ok {
		return alias
	}
	return g
}

// URI is a parsed catalog URI such as spotify:track:4uLU6hMCjMI75M1A2tKUQC.
type URI struct {
	Scheme string
	Type   string
	ID     string
}

func (u URI) String() string {
	return fmt.Sprintf("%s:%s:%s", u.Scheme, u.Type, u.ID)
}

// ParseURI parses scheme:(track|album|playlist|artist):id.
func ParseURI(uri string) (URI, error) {
	m := uriPattern.FindStringSubmatch(strings.TrimSpace(uri))
	if m == nil {
		return URI{}, fmt.Errorf("invalid uri %q: expected scheme:(track|album|playlist|artist):id", uri)
	}
	return URI{Scheme: m[1], Type: m[2], ID: m[3]}, nil
}

// IsValidURI reports whether uri parses.
func IsValidURI(uri string) bool {
	_, err := ParseURI(uri)
	return err == nil
}

// DurationMinutes converts milliseconds to fractional minutes.
func DurationMinutes(ms int) float64 {
	return float64(ms) / 60000.0
}

// FormatDuration renders milliseconds as m:ss.
func FormatDuration(ms int) string {
	if ms < 0 {
		ms = 0
	}
	total := ms / 1000
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// Truncate shortens s to at most max runes, ending with "..." when cut.
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return strings.TrimRightFunc(string(r[:max-3]), unicode.IsSpace) + "..."
}

// Title capitalizes each word of s.
func Title(s string) string {
	return cases.Title(language.English).String(s)
}
