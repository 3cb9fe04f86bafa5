package rules

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/toozej/curator/internal/normalize"
	"github.com/toozej/curator/internal/types"
)

const keySeparator = "|"

// DeduplicateTracks keeps the first occurrence of every composite key built from
// rules.DedupeBy. Later occurrences move to Removed. Both lists keep input order.
// An empty DedupeBy returns the input unchanged.
func (e *Engine) DeduplicateTracks(tracks []types.TrackRef, rules types.Rules) types.DedupeResult {
	if len(rules.DedupeBy) == 0 {
		return types.DedupeResult{
			Deduped: append([]types.TrackRef(nil), tracks...),
			Removed: []types.TrackRef{},
		}
	}

	result := types.DedupeResult{
		Deduped: make([]types.TrackRef, 0, len(tracks)),
		Removed: []types.TrackRef{},
	}
	seen := make(map[string]struct{}, len(tracks))
	for _, track := range tracks {
		key := DedupeKey(track, rules.DedupeBy)
		if _, dup := seen[key]; dup {
			result.Removed = append(result.Removed, track)
			continue
		}
		seen[key] = struct{}{}
		result.Deduped = append(result.Deduped, track)
	}

	e.logger.WithFields(log.Fields{
		"component": "rules_engine",
		"operation": "deduplicate",
		"dedupe_by": rules.DedupeBy,
		"input":     len(tracks),
		"removed":   len(result.Removed),
	}).Debug("Deduplicated tracks")

	return result
}

// DedupeKey builds the composite key of track for the given criteria, in order.
func DedupeKey(track types.TrackRef, by []types.DedupeKey) string {
	parts := make([]string, 0, len(by))
	for _, criterion := range by {
		switch criterion {
		case types.DedupeByURI:
			parts = append(parts, track.URI)
		case types.DedupeByID:
			parts = append(parts, track.ID)
		case types.DedupeByNameArtist:
			parts = append(parts, normalize.TrackName(track.Name)+"::"+strings.Join(normalize.ArtistList(track.Artists), ","))
		case types.DedupeByAudioHash:
			// No fingerprint is available, so fall back to name, duration and artists.
			parts = append(parts, fmt.Sprintf("%s:%d:%s", track.Name, track.DurationMs, strings.Join(track.Artists, ",")))
		}
	}
	return strings.Join(parts, keySeparator)
}
