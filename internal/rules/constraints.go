package rules

import (
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/toozej/curator/internal/normalize"
	"github.com/toozej/curator/internal/types"
)

// Rejection reasons.
const (
	ReasonPopularity     = "popularity"
	ReasonExplicit       = "explicit"
	ReasonMaxTracks      = "exceeds maximum tracks limit"
	ReasonArtistRepeated = "artist already represented"
)

// ApplyConstraints filters items under rules. Per-item checks run first. The global
// constraints then run on the accepted set in fixed order: the maxTracks cap, then
// unique artists.
func (e *Engine) ApplyConstraints(items []types.TrackRef, rules types.Rules) types.ConstraintResult {
	result := types.ConstraintResult{
		Accepted: make([]types.TrackRef, 0, len(items)),
		Rejected: []types.Rejection{},
	}

	for _, item := range items {
		if reasons := itemViolations(item, rules); len(reasons) > 0 {
			result.Rejected = append(result.Rejected, types.Rejection{
				Reason: strings.Join(reasons, "; "),
				Item:   item,
			})
			continue
		}
		result.Accepted = append(result.Accepted, item)
	}

	if rules.MaxTracks != nil && len(result.Accepted) > *rules.MaxTracks {
		limit := max(*rules.MaxTracks, 0)
		for _, item := range result.Accepted[limit:] {
			result.Rejected = append(result.Rejected, types.Rejection{Reason: ReasonMaxTracks, Item: item})
		}
		result.Accepted = result.Accepted[:limit]
	}

	if rules.UniqueArtists {
		kept := make([]types.TrackRef, 0, len(result.Accepted))
		seen := make(map[string]struct{})
		for _, item := range result.Accepted {
			if !hasUnseenArtist(item, seen) {
				result.Rejected = append(result.Rejected, types.Rejection{Reason: ReasonArtistRepeated, Item: item})
				continue
			}
			for _, artist := range item.Artists {
				seen[normalize.ArtistName(artist)] = struct{}{}
			}
			kept = append(kept, item)
		}
		result.Accepted = kept
	}

	e.logger.WithFields(log.Fields{
		"component": "rules_engine",
		"operation": "apply_constraints",
		"input":     len(items),
		"accepted":  len(result.Accepted),
		"rejected":  len(result.Rejected),
	}).Debug("Applied constraints")

	return result
}

func itemViolations(item types.TrackRef, rules types.Rules) []string {
	var reasons []string
	if rules.MinPopularity != nil && item.Popularity != nil && *item.Popularity < *rules.MinPopularity {
		reasons = append(reasons, ReasonPopularity)
	}
	if rules.AllowExplicit != nil && !*rules.AllowExplicit && item.IsExplicit() {
		reasons = append(reasons, ReasonExplicit)
	}
	return reasons
}

func hasUnseenArtist(item types.TrackRef, seen map[string]struct{}) bool {
	for _, artist := range item.Artists {
		if _, ok := seen[normalize.ArtistName(artist)]; !ok {
			return true
		}
	}
	return false
}
