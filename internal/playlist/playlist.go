// Package playlist turns a free-text or structured intent plus named track sources into a
// complete PlaylistPlan.
package playlist

import (
	"fmt"
	"io"
	"reflect"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/toozej/curator/internal/errs"
	"github.com/toozej/curator/internal/normalize"
	"github.com/toozej/curator/internal/planner"
	"github.com/toozej/curator/internal/types"
)

// Builder creates playlist plans. It holds no per-call state.
type Builder struct {
	planner *planner.Planner
	logger  *log.Logger
}

// NewBuilder creates a plan builder on top of p. A nil planner gets a default one and a
// nil logger discards output.
func NewBuilder(p *planner.Planner, logger *log.Logger) *Builder {
	if logger == nil {
		logger = log.New()
		logger.SetOutput(io.Discard)
	}
	if p == nil {
		p = planner.NewPlanner(nil, logger)
	}
	return &Builder{planner: p, logger: logger}
}

// Resolve returns the structured form of intent, parsing the free text when no structured
// intent was supplied.
func Resolve(intent types.PlaylistIntent) (types.StructuredIntent, error) {
	if intent.Structured != nil {
		structured := *intent.Structured
		if structured.Action == "" {
			structured.Action = types.ActionCreate
		}
		return structured, nil
	}
	if strings.TrimSpace(intent.Intent) == "" {
		return types.StructuredIntent{}, errs.Validation("intent text or a structured intent is required")
	}
	return ParseIntent(intent.Intent), nil
}

func validateIntent(intent types.PlaylistIntent, structured types.StructuredIntent) error {
	var violations []string
	if !structured.Action.Valid() {
		violations = append(violations, fmt.Sprintf("unknown action %q", structured.Action))
	}
	if structured.Action != types.ActionCreate && strings.TrimSpace(structured.Target) == "" {
		violations = append(violations, fmt.Sprintf("%s requires a target playlist", structured.Action))
	}
	for i, source := range intent.Sources {
		for j, track := range source.Tracks {
			if err := track.Validate(); err != nil {
				violations = append(violations, fmt.Sprintf("source %d track %d: %v", i, j, err))
			}
		}
	}
	if len(violations) > 0 {
		return errs.Validation(violations...)
	}
	return nil
}

// CreatePlaylistPlan builds the ordered steps for intent: the name annotation for create
// and update, the description annotation when there is one, removes for an update with
// known contents, one add step per 100-track chunk per source in source order, and a
// single full resort when years were given or unique artists is set.
func (b *Builder) CreatePlaylistPlan(intent types.PlaylistIntent) (types.PlaylistPlan, error) {
	structured, err := Resolve(intent)
	if err != nil {
		return types.PlaylistPlan{}, err
	}
	if err := validateIntent(intent, structured); err != nil {
		return types.PlaylistPlan{}, err
	}

	perSource, desired, err := b.processSources(intent.Sources, intent.Rules)
	if err != nil {
		return types.PlaylistPlan{}, err
	}

	plan := types.PlaylistPlan{
		Name:        b.planName(intent, structured),
		Description: planDescription(intent, structured),
		Public:      intent.Public,
		Action:      structured.Action,
		Target:      structured.Target,
		Steps:       types.Steps{},
	}

	if structured.Action != types.ActionAppend {
		plan.Steps = append(plan.Steps, types.AnnotateStep{Field: types.FieldName, Value: plan.Name})
	}
	if plan.Description != "" {
		plan.Steps = append(plan.Steps, types.AnnotateStep{Field: types.FieldDescription, Value: plan.Description})
	}

	present := make(map[string]struct{}, len(intent.Existing))
	if structured.Action != types.ActionCreate {
		for _, track := range intent.Existing {
			present[track.URI] = struct{}{}
		}
	}

	if structured.Action == types.ActionUpdate && len(intent.Existing) > 0 {
		for _, step := range planner.Diff(intent.Existing, desired).Removes {
			plan.Steps = append(plan.Steps, step)
		}
	}

	for _, tracks := range perSource {
		var fresh []types.TrackRef
		for _, track := range tracks {
			if _, ok := present[track.URI]; !ok {
				fresh = append(fresh, track)
			}
		}
		for _, chunk := range planner.ChunkTracks(fresh, types.MaxTracksPerRequest) {
			plan.Steps = append(plan.Steps, types.AddStep{Tracks: chunk})
		}
	}

	if structured.Criteria.HasYears() || intent.Rules.UniqueArtists {
		plan.Steps = append(plan.Steps, types.ResortAll())
	}

	if err := ValidatePlaylistPlan(plan); err != nil {
		b.logger.WithError(err).WithFields(log.Fields{
			"component": "plan_builder",
			"operation": "create_plan",
			"action":    structured.Action,
		}).Warn("Built plan failed validation")
		return types.PlaylistPlan{}, err
	}

	b.logger.WithFields(log.Fields{
		"component": "plan_builder",
		"operation": "create_plan",
		"action":    structured.Action,
		"target":    structured.Target,
		"name":      plan.Name,
		"sources":   len(intent.Sources),
		"steps":     len(plan.Steps),
		"tracks":    plan.AddedTrackCount(),
	}).Debug("Built playlist plan")

	return plan, nil
}

// processSources applies rules across every source combined, then regroups the accepted
// tracks by the source they came from, keeping source order.
func (b *Builder) processSources(sources []types.TrackSource, r types.Rules) ([][]types.TrackRef, []types.TrackRef, error) {
	var combined []types.TrackRef
	origin := make([]int, 0)
	for i, source := range sources {
		combined = append(combined, source.Tracks...)
		for range source.Tracks {
			origin = append(origin, i)
		}
	}

	if err := b.planner.ValidateRules(r); err != nil {
		return nil, nil, err
	}
	accepted := b.planner.ProcessTarget(combined, r)

	perSource := make([][]types.TrackRef, len(sources))
	next := 0
	for i, track := range combined {
		if next == len(accepted) {
			break
		}
		// The rules pass keeps input order, so whole-value equality pins each accepted
		// track to the copy it came from even when another source shares its URI.
		if reflect.DeepEqual(accepted[next], track) {
			perSource[origin[i]] = append(perSource[origin[i]], track)
			next++
		}
	}
	return perSource, accepted, nil
}

func (b *Builder) planName(intent types.PlaylistIntent, structured types.StructuredIntent) string {
	name := strings.TrimSpace(intent.Name)
	if name == "" && structured.Action != types.ActionCreate {
		name = structured.Target
	}
	if name == "" {
		name = GenerateName(structured.Criteria)
	}
	return normalize.Truncate(name, types.MaxNameLength)
}

func planDescription(intent types.PlaylistIntent, structured types.StructuredIntent) string {
	if d := strings.TrimSpace(intent.Description); d != "" {
		return normalize.Truncate(d, types.MaxDescriptionLength)
	}
	if structured.Action == types.ActionAppend {
		return ""
	}
	return GenerateDescription(structured.Criteria)
}

// ValidatePlaylistPlan checks the invariants every built plan must satisfy.
func ValidatePlaylistPlan(plan types.PlaylistPlan) error {
	var violations []string

	if strings.TrimSpace(plan.Name) == "" {
		violations = append(violations, "name is required")
	}
	if n := len([]rune(plan.Name)); n > types.MaxNameLength {
		violations = append(violations, fmt.Sprintf("name is %d characters, maximum is %d", n, types.MaxNameLength))
	}
	if n := len([]rune(plan.Description)); n > types.MaxDescriptionLength {
		violations = append(violations, fmt.Sprintf("description is %d characters, maximum is %d", n, types.MaxDescriptionLength))
	}
	if len(plan.Steps) == 0 {
		violations = append(violations, "plan has no steps")
	}
	for i, step := range plan.Steps {
		switch s := step.(type) {
		case types.AddStep:
			if n := len(s.Tracks); n < 1 || n > types.MaxTracksPerRequest {
				violations = append(violations, fmt.Sprintf("step %d adds %d tracks, must add between 1 and %d", i, n, types.MaxTracksPerRequest))
			}
		case types.RemoveStep:
			if n := len(s.Tracks); n < 1 || n > types.MaxTracksPerRequest {
				violations = append(violations, fmt.Sprintf("step %d removes %d tracks, must remove between 1 and %d", i, n, types.MaxTracksPerRequest))
			}
		case types.ReorderStep, types.AnnotateStep:
		default:
			violations = append(violations, fmt.Sprintf("step %d has unsupported type %T", i, step))
		}
	}
	if total := plan.AddedTrackCount(); total > types.MaxPlanTracks {
		violations = append(violations, fmt.Sprintf("plan adds %d tracks, maximum is %d", total, types.MaxPlanTracks))
	}

	if len(violations) > 0 {
		return errs.Planning(violations...).WithMeta("total_tracks", plan.AddedTrackCount())
	}
	return nil
}
