package playlist

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/toozej/curator/internal/normalize"
	"github.com/toozej/curator/internal/types"
)

var (
	appendPattern = regexp.MustCompile(`(?i)^(?:please\s+)?(?:add|append)\b\s*(.*?)\s*\bto\s+(.+)$`)
	updatePattern = regexp.MustCompile(`(?i)^(?:please\s+)?(?:update|modify)\s+(.+?)(?:\s+(?:with|using|to include)\s+(.+))?$`)
	createPrefix  = regexp.MustCompile(`(?i)^(?:please\s+)?(?:create|make|build|generate|start)\s+(?:me\s+)?(?:a\s+|an\s+)?(?:new\s+)?(?:playlist\s+)?`)

	yearRangePattern = regexp.MustCompile(`(?i)(?:\b(?:from|between)\s+)?\b((?:19|20)\d{2})\s*(?:-|–|to|and)\s*((?:19|20)\d{2})\b`)
	decadePattern    = regexp.MustCompile(`(?i)(?:\b(?:from|in)\s+)?(?:\bthe\s+)?(?:'|\b)(\d0|(?:19|20)\d0)s\b`)
	yearPattern      = regexp.MustCompile(`(?i)(?:\b(?:from|in)\s+)?\b((?:19|20)\d{2})\b`)

	labelPattern     = regexp.MustCompile(`(?i)\b(genres?|artists?)\s*:\s*`)
	listSeparator    = regexp.MustCompile(`(?i)\s*(?:,|\band\b)\s*`)
	playlistSuffix   = regexp.MustCompile(`(?i)\s+playlist$`)
	possessivePrefix = regexp.MustCompile(`(?i)^(?:my|the)\s+`)
)

// genreVocabulary is matched against free text, longest entries first.
var genreVocabulary = []string{
	"drum and bass", "classic rock", "indie rock", "indie pop", "synth pop", "hip hop", "hip-hop",
	"r&b", "lo-fi", "lofi", "k-pop", "rock", "pop", "jazz", "blues", "classical", "country", "folk",
	"metal", "punk", "electronic", "edm", "house", "techno", "ambient", "soul", "funk", "reggae",
	"disco", "indie", "rap", "latin", "gospel", "grunge", "trance", "dubstep", "soundtrack",
}

var genreMatchers = func() []*regexp.Regexp {
	sorted := append([]string(nil), genreVocabulary...)
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })
	matchers := make([]*regexp.Regexp, len(sorted))
	for i, g := range sorted {
		matchers[i] = regexp.MustCompile(`(?i)(?:^|[^\w-])(` + regexp.QuoteMeta(g) + `)(?:$|[^\w&-])`)
	}
	return matchers
}()

var fillerWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "by": {}, "for": {}, "from": {}, "in": {}, "me": {}, "music": {},
	"my": {}, "new": {}, "of": {}, "playlist": {}, "some": {}, "songs": {}, "the": {}, "tracks": {},
	"tunes": {}, "with": {},
}

// ParseIntent extracts an action, an optional target and criteria from free text using
// fixed patterns. It never fails: unrecognized text becomes the query.
func ParseIntent(text string) types.StructuredIntent {
	text = normalize.CollapseWhitespace(text)
	intent := types.StructuredIntent{Action: types.ActionCreate}

	content := text
	if m := appendPattern.FindStringSubmatch(text); m != nil {
		intent.Action = types.ActionAppend
		content, intent.Target = m[1], cleanTarget(m[2])
	} else if m := updatePattern.FindStringSubmatch(text); m != nil {
		intent.Action = types.ActionUpdate
		intent.Target, content = cleanTarget(m[1]), m[2]
	} else {
		content = createPrefix.ReplaceAllString(text, "")
	}

	intent.Criteria = ExtractCriteria(content)
	return intent
}

// ExtractCriteria pulls years, labelled lists, vocabulary genres and a residual query out
// of text. Matched substrings are removed before the next pattern runs.
func ExtractCriteria(text string) types.IntentCriteria {
	var c types.IntentCriteria
	rest := text

	rest = extractYears(rest, &c)
	rest = extractLabels(rest, &c)
	rest = extractGenres(rest, &c)

	c.Query = residualQuery(rest)
	return c
}

func extractYears(text string, c *types.IntentCriteria) string {
	if loc := yearRangePattern.FindStringSubmatchIndex(text); loc != nil {
		from, _ := strconv.Atoi(text[loc[2]:loc[3]])
		to, _ := strconv.Atoi(text[loc[4]:loc[5]])
		if from > to {
			from, to = to, from
		}
		c.YearFrom, c.YearTo = from, to
		return cut(text, loc[0], loc[1])
	}

	if loc := decadePattern.FindStringSubmatchIndex(text); loc != nil {
		decade, _ := strconv.Atoi(text[loc[2]:loc[3]])
		if decade < 100 {
			decade += 1900
		}
		c.YearFrom, c.YearTo = decade, decade+9
		return cut(text, loc[0], loc[1])
	}

	if loc := yearPattern.FindStringSubmatchIndex(text); loc != nil {
		year, _ := strconv.Atoi(text[loc[2]:loc[3]])
		c.YearFrom, c.YearTo = year, year
		return cut(text, loc[0], loc[1])
	}
	return text
}

// extractLabels reads "genre:" and "artist:" lists. Each list runs until the next label
// or the end of text.
func extractLabels(text string, c *types.IntentCriteria) string {
	locs := labelPattern.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return text
	}

	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		values := splitList(text[loc[1]:end])
		if strings.HasPrefix(strings.ToLower(text[loc[2]:loc[3]]), "genre") {
			for _, v := range values {
				c.Genres = appendUnique(c.Genres, normalize.Genre(v))
			}
		} else {
			for _, v := range values {
				c.Artists = appendUnique(c.Artists, v)
			}
		}
	}
	return text[:locs[0][0]]
}

func extractGenres(text string, c *types.IntentCriteria) string {
	for _, matcher := range genreMatchers {
		for {
			loc := matcher.FindStringSubmatchIndex(text)
			if loc == nil {
				break
			}
			c.Genres = appendUnique(c.Genres, normalize.Genre(text[loc[2]:loc[3]]))
			text = cut(text, loc[2], loc[3])
		}
	}
	return text
}

func residualQuery(text string) string {
	words := strings.Fields(text)
	kept := words[:0]
	for _, w := range words {
		w = strings.Trim(w, ",;:.!?\"'")
		if w == "" {
			continue
		}
		if _, filler := fillerWords[strings.ToLower(w)]; filler {
			continue
		}
		kept = append(kept, w)
	}
	return normalize.CollapseWhitespace(strings.Join(kept, " "))
}

func splitList(s string) []string {
	var out []string
	for _, part := range listSeparator.Split(s, -1) {
		part = strings.Trim(normalize.CollapseWhitespace(part), ",;:.\"'")
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func cleanTarget(s string) string {
	s = strings.Trim(normalize.CollapseWhitespace(s), ",;:.!?")
	s = strings.Trim(s, "\"'")
	s = possessivePrefix.ReplaceAllString(s, "")
	s = playlistSuffix.ReplaceAllString(s, "")
	return strings.Trim(s, "\"' ")
}

func cut(s string, start, end int) string {
	return s[:start] + " " + s[end:]
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if strings.EqualFold(existing, v) {
			return list
		}
	}
	return append(list, v)
}
