// Package planner reconciles an existing ordered track collection with a desired one.
//
// GenerateMutationPlan diffs the two by URI and emits batched add, remove and reorder
// steps. ApplyMutationPlan simulates a plan so the result can be checked. A generated
// plan is idempotent: reconciling its simulated result with itself yields no steps.
package planner

import (
	"cmp"
	"io"
	"slices"

	log "github.com/sirupsen/logrus"
	"github.com/toozej/curator/internal/rules"
	"github.com/toozej/curator/internal/types"
)

// Comparator orders tracks during a full resort.
type Comparator func(a, b types.TrackRef) int

// ByArtistThenName orders by primary artist, then track name.
func ByArtistThenName(a, b types.TrackRef) int {
	if c := cmp.Compare(a.PrimaryArtist(), b.PrimaryArtist()); c != 0 {
		return c
	}
	return cmp.Compare(a.Name, b.Name)
}

// Planner builds and simulates mutation plans.
type Planner struct {
	rules   *rules.Engine
	compare Comparator
	logger  *log.Logger
}

// Option configures a Planner.
type Option func(*Planner)

// WithComparator replaces the resort order used by sentinel reorder steps.
func WithComparator(c Comparator) Option {
	return func(p *Planner) {
		if c != nil {
			p.compare = c
		}
	}
}

// NewPlanner creates a planner. A nil engine uses a fresh rules engine and a nil
// logger discards output.
func NewPlanner(engine *rules.Engine, logger *log.Logger, opts ...Option) *Planner {
	if logger == nil {
		logger = log.New()
		logger.SetOutput(io.Discard)
	}
	if engine == nil {
		engine = rules.NewEngine(logger)
	}
	p := &Planner{rules: engine, compare: ByArtistThenName, logger: logger}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ChunkTracks splits tracks, in order, into groups of at most size.
func ChunkTracks(tracks []types.TrackRef, size int) [][]types.TrackRef {
	if size <= 0 || len(tracks) == 0 {
		return nil
	}
	chunks := make([][]types.TrackRef, 0, (len(tracks)+size-1)/size)
	for start := 0; start < len(tracks); start += size {
		end := min(start+size, len(tracks))
		chunks = append(chunks, slices.Clone(tracks[start:end]))
	}
	return chunks
}

// ValidateRules validates r with the planner's rules engine.
func (p *Planner) ValidateRules(r types.Rules) error {
	return p.rules.ValidateRules(r)
}

// ProcessTarget dedupes target and applies every constraint of r to it.
func (p *Planner) ProcessTarget(target []types.TrackRef, r types.Rules) []types.TrackRef {
	deduped := target
	if len(r.DedupeBy) > 0 {
		deduped = p.rules.DeduplicateTracks(target, r).Deduped
	}
	return p.rules.ApplyConstraints(deduped, r).Accepted
}

// GenerateMutationPlan diffs existing against target after rules are applied to target.
// Adds and removes are chunked at the playlist batch ceiling in original order. A
// single full-resort step is emitted only when r.UniqueArtists is set.
func (p *Planner) GenerateMutationPlan(existing, target []types.TrackRef, r types.Rules) (types.MutationPlan, error) {
	if err := p.rules.ValidateRules(r); err != nil {
		return types.MutationPlan{}, err
	}

	processed := p.ProcessTarget(target, r)
	plan := Diff(existing, processed)
	if r.UniqueArtists {
		plan.Reorders = append(plan.Reorders, types.ResortAll())
	}

	p.logger.WithFields(log.Fields{
		"component":    "planner",
		"operation":    "generate_mutation_plan",
		"existing":     len(existing),
		"target":       len(target),
		"processed":    len(processed),
		"add_steps":    len(plan.Adds),
		"remove_steps": len(plan.Removes),
		"reorders":     len(plan.Reorders),
	}).Debug("Generated mutation plan")

	return plan, nil
}

// Diff compares existing and desired by URI membership and returns the chunked add
// and remove steps. Each URI is removed at most once since a remove step drops every
// occurrence.
func Diff(existing, desired []types.TrackRef) types.MutationPlan {
	existingURIs := uriSet(existing)
	desiredURIs := uriSet(desired)

	var adds []types.TrackRef
	for _, track := range desired {
		if _, ok := existingURIs[track.URI]; !ok {
			adds = append(adds, track)
		}
	}

	var removes []types.TrackRef
	removed := make(map[string]struct{})
	for _, track := range existing {
		if _, keep := desiredURIs[track.URI]; keep {
			continue
		}
		if _, done := removed[track.URI]; done {
			continue
		}
		removed[track.URI] = struct{}{}
		removes = append(removes, track)
	}

	plan := types.MutationPlan{
		Adds:        []types.AddStep{},
		Removes:     []types.RemoveStep{},
		Reorders:    []types.ReorderStep{},
		Annotations: []types.AnnotateStep{},
	}
	for _, chunk := range ChunkTracks(adds, types.MaxTracksPerRequest) {
		plan.Adds = append(plan.Adds, types.AddStep{Tracks: chunk})
	}
	for _, chunk := range ChunkTracks(removes, types.MaxTracksPerRequest) {
		plan.Removes = append(plan.Removes, types.RemoveStep{Tracks: chunk})
	}
	return plan
}

func uriSet(tracks []types.TrackRef) map[string]struct{} {
	set := make(map[string]struct{}, len(tracks))
	for _, track := range tracks {
		set[track.URI] = struct{}{}
	}
	return set
}
