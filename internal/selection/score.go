// Package selection scores candidate tracks and picks a bounded, diverse subset.
package selection

import (
	"math"
	"time"

	"github.com/toozej/curator/internal/normalize"
	"github.com/toozej/curator/internal/types"
)

const (
	neutralPopularity = 50
	recencyDecayDays  = 30.0
	dayMs             = float64(24 * time.Hour / time.Millisecond)
)

// Weights scales each component of ScoreTrack. GenreDiversity is reserved and unused.
type Weights struct {
	Popularity      float64 `json:"popularity"`
	Recency         float64 `json:"recency"`
	Duration        float64 `json:"duration"`
	Explicit        float64 `json:"explicit"`
	ArtistDiversity float64 `json:"artist_diversity"`
	GenreDiversity  float64 `json:"genre_diversity"`
}

// DefaultWeights returns the standard scoring weights.
func DefaultWeights() Weights {
	return Weights{
		Popularity:      0.3,
		Recency:         0.2,
		Duration:        0.1,
		Explicit:        -0.1,
		ArtistDiversity: 0.2,
		GenreDiversity:  0.1,
	}
}

// ScoringContext is the state a score is computed against. ReferenceMs is the instant
// recency is measured from; zero disables the recency bonus. SeenArtists holds the
// normalized artists already in the running selection.
type ScoringContext struct {
	Weights     Weights
	ReferenceMs int64
	SeenArtists map[string]struct{}
}

// TrackScore is a score and its per-component breakdown.
type TrackScore struct {
	Total           float64 `json:"total"`
	Popularity      float64 `json:"popularity"`
	Recency         float64 `json:"recency"`
	Duration        float64 `json:"duration"`
	Explicit        float64 `json:"explicit"`
	ArtistDiversity float64 `json:"artist_diversity"`
}

// ScoreTrack computes a track's desirability. The total is floored at 0 but not capped.
func ScoreTrack(track types.TrackRef, ctx ScoringContext) TrackScore {
	w := ctx.Weights
	var s TrackScore

	s.Popularity = float64(popularityOf(track)) / 100 * w.Popularity

	if days, ok := daysSinceRelease(track, ctx.ReferenceMs); ok {
		s.Recency = math.Exp(-days/recencyDecayDays) * w.Recency
	}

	minutes := normalize.DurationMinutes(track.DurationMs)
	if minutes >= 2 && minutes <= 6 {
		s.Duration = math.Max(0, 1-math.Abs(minutes-3.5)/2.5) * w.Duration
	} else {
		s.Duration = 0.2 * w.Duration
	}

	if track.IsExplicit() {
		s.Explicit = w.Explicit
	}

	if len(track.Artists) > 0 {
		unseen := 0
		for _, artist := range track.Artists {
			if _, ok := ctx.SeenArtists[normalize.ArtistName(artist)]; !ok {
				unseen++
			}
		}
		s.ArtistDiversity = float64(unseen) / float64(len(track.Artists)) * w.ArtistDiversity
	}

	s.Total = math.Max(0, s.Popularity+s.Recency+s.Duration+s.Explicit+s.ArtistDiversity)
	return s
}

// NormalizeScores rescales scores to [0,1] by min and max. When every score is equal
// the result is 1 for positive scores and 0 otherwise.
func NormalizeScores(scores []float64) []float64 {
	out := make([]float64, len(scores))
	if len(scores) == 0 {
		return out
	}

	lo, hi := scores[0], scores[0]
	for _, v := range scores[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	for i, v := range scores {
		switch {
		case hi == lo && hi > 0:
			out[i] = 1
		case hi == lo:
			out[i] = 0
		default:
			out[i] = (v - lo) / (hi - lo)
		}
	}
	return out
}

func popularityOf(track types.TrackRef) int {
	if track.Popularity == nil {
		return neutralPopularity
	}
	return *track.Popularity
}

var releaseLayouts = []string{"2006-01-02", "2006-01", "2006"}

// ParseReleaseDate parses a catalog release date at day, month or year precision.
func ParseReleaseDate(value string) (time.Time, bool) {
	for _, layout := range releaseLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func daysSinceRelease(track types.TrackRef, referenceMs int64) (float64, bool) {
	if referenceMs <= 0 || track.ReleaseDate == "" {
		return 0, false
	}
	released, ok := ParseReleaseDate(track.ReleaseDate)
	if !ok {
		return 0, false
	}
	days := (float64(referenceMs) - float64(released.UnixMilli())) / dayMs
	return math.Max(0, days), true
}

// ScoreBreakdown is one track's component scores plus its total rescaled across the batch.
type ScoreBreakdown struct {
	Track      types.TrackRef `json:"track"`
	Score      TrackScore     `json:"score"`
	Normalized float64        `json:"normalized"`
}

// ScoreTracks scores tracks in order against w, measuring recency from the selector's
// clock. Each track's artists count as seen for the tracks after it.
func (s *Selector) ScoreTracks(tracks []types.TrackRef, w Weights) []ScoreBreakdown {
	ctx := ScoringContext{
		Weights:     w,
		ReferenceMs: s.clock.NowMs(),
		SeenArtists: make(map[string]struct{}),
	}

	out := make([]ScoreBreakdown, len(tracks))
	totals := make([]float64, len(tracks))
	for i, track := range tracks {
		out[i] = ScoreBreakdown{Track: track, Score: ScoreTrack(track, ctx)}
		totals[i] = out[i].Score.Total
		for _, artist := range track.Artists {
			ctx.SeenArtists[normalize.ArtistName(artist)] = struct{}{}
		}
	}
	for i, v := range NormalizeScores(totals) {
		out[i].Normalized = v
	}
	return out
}
