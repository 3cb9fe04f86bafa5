package playlist

import (
	"fmt"
	"strings"

	"github.com/toozej/curator/internal/normalize"
	"github.com/toozej/curator/internal/types"
)

const defaultName = "Curated Playlist"

// GenerateName builds a playlist name from criteria, capped at the catalog name length.
func GenerateName(c types.IntentCriteria) string {
	var parts []string
	if len(c.Genres) > 0 {
		parts = append(parts, normalize.Title(strings.Join(c.Genres, " & ")))
	}
	if len(c.Artists) > 0 {
		parts = append(parts, strings.Join(c.Artists, " & "))
	}
	if c.HasYears() {
		parts = append(parts, yearLabel(c))
	}
	if c.Query != "" {
		parts = append(parts, normalize.Title(c.Query))
	}
	if len(parts) == 0 {
		return defaultName
	}
	return normalize.Truncate(strings.Join(parts, " ")+" Mix", types.MaxNameLength)
}

// GenerateDescription summarizes criteria in a sentence, or returns "" when there are none.
func GenerateDescription(c types.IntentCriteria) string {
	if c.IsEmpty() {
		return ""
	}

	var b strings.Builder
	b.WriteString("Curated playlist")
	if len(c.Genres) > 0 {
		b.WriteString(" of " + joinWords(c.Genres))
	}
	if len(c.Artists) > 0 {
		b.WriteString(" featuring " + joinWords(c.Artists))
	}
	if c.HasYears() {
		from, to := yearBounds(c)
		switch {
		case from == to:
			fmt.Fprintf(&b, " from %d", from)
		case isDecade(from, to):
			fmt.Fprintf(&b, " from the %ds", from)
		default:
			fmt.Fprintf(&b, " from %d to %d", from, to)
		}
	}
	if c.Query != "" {
		fmt.Fprintf(&b, " matching %q", c.Query)
	}
	b.WriteString(".")
	return normalize.Truncate(b.String(), types.MaxDescriptionLength)
}

// SearchQuery renders criteria as a catalog search query using field filters.
func SearchQuery(c types.IntentCriteria) string {
	var parts []string
	if c.Query != "" {
		parts = append(parts, c.Query)
	}
	for _, g := range c.Genres {
		parts = append(parts, fmt.Sprintf("genre:%q", g))
	}
	for _, a := range c.Artists {
		parts = append(parts, fmt.Sprintf("artist:%q", a))
	}
	if c.HasYears() {
		from, to := yearBounds(c)
		if from == to {
			parts = append(parts, fmt.Sprintf("year:%d", from))
		} else {
			parts = append(parts, fmt.Sprintf("year:%d-%d", from, to))
		}
	}
	return strings.Join(parts, " ")
}

func yearBounds(c types.IntentCriteria) (int, int) {
	from, to := c.YearFrom, c.YearTo
	if from == 0 {
		from = to
	}
	if to == 0 {
		to = from
	}
	return from, to
}

func isDecade(from, to int) bool {
	return from%10 == 0 && to == from+9
}

func yearLabel(c types.IntentCriteria) string {
	from, to := yearBounds(c)
	switch {
	case from == to:
		return fmt.Sprint(from)
	case isDecade(from, to):
		return fmt.Sprintf("%ds", from)
	}
	return fmt.Sprintf("%d-%d", from, to)
}

func joinWords(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
}
