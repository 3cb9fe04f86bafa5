package selection

import (
	"fmt"
	"io"
	"math"
	"sort"

	log "github.com/sirupsen/logrus"
	"github.com/toozej/curator/internal/errs"
	"github.com/toozej/curator/internal/normalize"
	"github.com/toozej/curator/internal/ports"
	"github.com/toozej/curator/internal/rules"
	"github.com/toozej/curator/internal/types"
)

// Option defaults.
const (
	DefaultPopularityWeight = 0.3
	DefaultRecencyBoost     = 0.2
	DefaultDiversityFactor  = 0.0
	DefaultRandomnessFactor = 0.0
)

const (
	selectionBase          = 0.5
	selectionExplicit      = -0.1
	diversityPenaltyFactor = 0.1
	tieEpsilon             = 0.01
)

// Selector ranks candidates and picks the best subset. Randomness and time come only
// from the injected ports.
type Selector struct {
	rules  *rules.Engine
	random ports.RandomPort
	clock  ports.TimePort
	logger *log.Logger
}

// NewSelector creates a selector. Nil ports default to the system implementations and
// a nil logger discards output.
func NewSelector(engine *rules.Engine, random ports.RandomPort, clock ports.TimePort, logger *log.Logger) *Selector {
	if logger == nil {
		logger = log.New()
		logger.SetOutput(io.Discard)
	}
	if engine == nil {
		engine = rules.NewEngine(logger)
	}
	if random == nil {
		random = ports.SystemRandom{}
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &Selector{rules: engine, random: random, clock: clock, logger: logger}
}

// ValidateSelectionOptions checks count and that every supplied weight is in [0,1].
func ValidateSelectionOptions(opts types.SelectionOptions) error {
	var violations []string
	if opts.Count <= 0 {
		violations = append(violations, fmt.Sprintf("count must be greater than 0, got %d", opts.Count))
	}
	for _, f := range []struct {
		name  string
		value *float64
	}{
		{"recencyBoost", opts.RecencyBoost},
		{"popularityWeight", opts.PopularityWeight},
		{"diversityFactor", opts.DiversityFactor},
		{"randomnessFactor", opts.RandomnessFactor},
	} {
		if f.value != nil && (*f.value < 0 || *f.value > 1 || math.IsNaN(*f.value)) {
			violations = append(violations, fmt.Sprintf("%s must be between 0 and 1, got %g", f.name, *f.value))
		}
	}
	if len(violations) > 0 {
		return errs.Validation(violations...)
	}
	return nil
}

type resolvedOptions struct {
	count            int
	recencyBoost     float64
	popularityWeight float64
	diversityFactor  float64
	randomnessFactor float64
}

func resolve(opts types.SelectionOptions) resolvedOptions {
	pick := func(v *float64, def float64) float64 {
		if v == nil {
			return def
		}
		return *v
	}
	return resolvedOptions{
		count:            opts.Count,
		recencyBoost:     pick(opts.RecencyBoost, DefaultRecencyBoost),
		popularityWeight: pick(opts.PopularityWeight, DefaultPopularityWeight),
		diversityFactor:  pick(opts.DiversityFactor, DefaultDiversityFactor),
		randomnessFactor: pick(opts.RandomnessFactor, DefaultRandomnessFactor),
	}
}

// SelectTracks dedupes and filters candidates under rules, scores the survivors, applies
// the diversity penalty and returns the top opts.Count. Scored lists every eligible
// candidate, best first. rules.MaxTracks further caps the count and rules.UniqueArtists
// skips artists already selected.
func (s *Selector) SelectTracks(candidates []types.TrackRef, r types.Rules, opts types.SelectionOptions) (types.SelectionResult, error) {
	if err := ValidateSelectionOptions(opts); err != nil {
		return types.SelectionResult{}, err
	}
	if err := s.rules.ValidateRules(r); err != nil {
		return types.SelectionResult{}, err
	}
	o := resolve(opts)

	eligible := s.rules.DeduplicateTracks(candidates, r).Deduped
	perItem := r
	perItem.MaxTracks = nil
	perItem.UniqueArtists = false
	eligible = s.rules.ApplyConstraints(eligible, perItem).Accepted

	now := s.clock.NowMs()
	scored := make([]types.ScoredCandidate, len(eligible))
	for i, track := range eligible {
		factors := selectionFactors(track, o, now)
		raw := clamp01(factors.Base + factors.Popularity + factors.Recency + factors.Duration + factors.Explicit)
		scored[i] = types.ScoredCandidate{Track: track, RawScore: raw, Score: raw, Factors: factors}
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].RawScore > scored[j].RawScore })

	if o.diversityFactor > 0 {
		applyDiversityPenalty(scored, o.diversityFactor)
		sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	}

	s.breakTies(scored, tieEpsilon*(1+o.randomnessFactor))

	count := o.count
	if r.MaxTracks != nil && *r.MaxTracks < count {
		count = *r.MaxTracks
	}

	selected := make([]types.TrackRef, 0, min(count, len(scored)))
	seen := make(map[string]struct{})
	for _, c := range scored {
		if len(selected) == count {
			break
		}
		if r.UniqueArtists && !anyUnseen(c.Track, seen) {
			continue
		}
		for _, artist := range c.Track.Artists {
			seen[normalize.ArtistName(artist)] = struct{}{}
		}
		selected = append(selected, c.Track)
	}

	s.logger.WithFields(log.Fields{
		"component":  "selector",
		"operation":  "select_tracks",
		"candidates": len(candidates),
		"eligible":   len(eligible),
		"selected":   len(selected),
		"count":      o.count,
	}).Debug("Selected tracks")

	return types.SelectionResult{Selected: selected, Scored: scored}, nil
}

func selectionFactors(track types.TrackRef, o resolvedOptions, nowMs int64) types.SelectionFactors {
	f := types.SelectionFactors{Base: selectionBase}
	f.Popularity = float64(popularityOf(track)) / 100 * o.popularityWeight
	if days, ok := daysSinceRelease(track, nowMs); ok {
		f.Recency = math.Exp(-days/recencyDecayDays) * o.recencyBoost
	}
	f.Duration = durationBonus(normalize.DurationMinutes(track.DurationMs))
	if track.IsExplicit() {
		f.Explicit = selectionExplicit
	}
	return f
}

func durationBonus(minutes float64) float64 {
	switch {
	case minutes >= 2 && minutes <= 5:
		return 0.1
	case minutes > 5 && minutes <= 7:
		return 0.05
	case minutes >= 1.5 && minutes < 2:
		return 0.05
	}
	return 0
}

// applyDiversityPenalty walks scored in its current order. Each track loses
// 0.1*factor for every earlier appearance of each of its artists.
func applyDiversityPenalty(scored []types.ScoredCandidate, factor float64) {
	counts := make(map[string]int)
	for i := range scored {
		repeats := 0
		artists := scored[i].Track.Artists
		for _, artist := range artists {
			repeats += counts[normalize.ArtistName(artist)]
		}
		penalty := diversityPenaltyFactor * factor * float64(repeats)
		scored[i].Factors.DiversityPenalty = penalty
		scored[i].Score = math.Max(0, scored[i].RawScore-penalty)
		for _, artist := range artists {
			counts[normalize.ArtistName(artist)]++
		}
	}
}

// breakTies shuffles each run of candidates whose score is within epsilon of the
// run's first score. scored must already be sorted descending.
func (s *Selector) breakTies(scored []types.ScoredCandidate, epsilon float64) {
	for start := 0; start < len(scored); {
		end := start + 1
		for end < len(scored) && scored[start].Score-scored[end].Score < epsilon {
			end++
		}
		if group := scored[start:end]; len(group) > 1 {
			s.random.Shuffle(len(group), func(i, j int) { group[i], group[j] = group[j], group[i] })
		}
		start = end
	}
}

func anyUnseen(track types.TrackRef, seen map[string]struct{}) bool {
	for _, artist := range track.Artists {
		if _, ok := seen[normalize.ArtistName(artist)]; !ok {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
