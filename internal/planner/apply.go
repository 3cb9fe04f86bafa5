package planner

import (
	"fmt"
	"slices"

	log "github.com/sirupsen/logrus"
	"github.com/toozej/curator/internal/errs"
	"github.com/toozej/curator/internal/types"
)

// ApplyMutationPlan simulates plan on a copy of existing: removes first, then adds in
// step order, then reorders. It is used for verification, never for execution.
func (p *Planner) ApplyMutationPlan(existing []types.TrackRef, plan types.MutationPlan) ([]types.TrackRef, error) {
	if err := ValidateMutationPlan(plan); err != nil {
		return nil, err
	}

	result := slices.Clone(existing)

	for _, step := range plan.Removes {
		drop := uriSet(step.Tracks)
		result = slices.DeleteFunc(result, func(t types.TrackRef) bool {
			_, ok := drop[t.URI]
			return ok
		})
	}

	for i, step := range plan.Adds {
		if step.Position == nil {
			result = append(result, step.Tracks...)
			continue
		}
		if *step.Position > len(result) {
			return nil, errs.Validation(fmt.Sprintf("add step %d: position %d is beyond collection length %d", i, *step.Position, len(result)))
		}
		result = slices.Insert(result, *step.Position, step.Tracks...)
	}

	for i, step := range plan.Reorders {
		if step.IsSentinel() {
			slices.SortStableFunc(result, p.compare)
			continue
		}
		moved, err := reorder(result, step)
		if err != nil {
			return nil, errs.Validation(fmt.Sprintf("reorder step %d: %v", i, err))
		}
		result = moved
	}

	p.logger.WithFields(log.Fields{
		"component": "planner",
		"operation": "apply_mutation_plan",
		"before":    len(existing),
		"after":     len(result),
	}).Debug("Simulated mutation plan")

	return result, nil
}

// reorder takes Count items out starting at From and reinserts them at index To of
// the shortened list.
func reorder(tracks []types.TrackRef, step types.ReorderStep) ([]types.TrackRef, error) {
	if step.From+step.Count > len(tracks) {
		return nil, fmt.Errorf("range %d+%d exceeds collection length %d", step.From, step.Count, len(tracks))
	}
	if step.To > len(tracks)-step.Count {
		return nil, fmt.Errorf("insert position %d exceeds remaining length %d", step.To, len(tracks)-step.Count)
	}
	if step.Count == 0 || step.To == step.From {
		return tracks, nil
	}

	moved := slices.Clone(tracks[step.From : step.From+step.Count])
	rest := slices.Delete(slices.Clone(tracks), step.From, step.From+step.Count)
	return slices.Insert(rest, step.To, moved...), nil
}

// VerifyIdempotent generates a plan, simulates it and checks that reconciling the
// simulated result with itself needs no further steps. It returns the simulated result.
func (p *Planner) VerifyIdempotent(existing, target []types.TrackRef, r types.Rules) ([]types.TrackRef, error) {
	plan, err := p.GenerateMutationPlan(existing, target, r)
	if err != nil {
		return nil, err
	}
	result, err := p.ApplyMutationPlan(existing, plan)
	if err != nil {
		return nil, err
	}
	again, err := p.GenerateMutationPlan(result, result, types.Rules{})
	if err != nil {
		return nil, err
	}
	if !again.IsEmpty() {
		return result, errs.Planning(fmt.Sprintf(
			"plan is not idempotent: reconciling the result yields %d add, %d remove and %d reorder steps",
			len(again.Adds), len(again.Removes), len(again.Reorders),
		))
	}
	return result, nil
}
