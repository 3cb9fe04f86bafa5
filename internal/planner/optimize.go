package planner

import (
	"fmt"
	"slices"

	"github.com/toozej/curator/internal/errs"
	"github.com/toozej/curator/internal/types"
)

// OptimizeMutationPlan greedily merges consecutive add steps and consecutive remove
// steps while the merged batch stays within the playlist batch ceiling. Whole steps are
// merged, so track order never crosses a step boundary. Positioned adds merge only
// when the second step continues where the first ends.
func OptimizeMutationPlan(plan types.MutationPlan) types.MutationPlan {
	out := types.MutationPlan{
		Adds:        []types.AddStep{},
		Removes:     []types.RemoveStep{},
		Reorders:    slices.Clone(plan.Reorders),
		Annotations: slices.Clone(plan.Annotations),
	}

	for _, step := range plan.Adds {
		if n := len(out.Adds); n > 0 && canMergeAdds(out.Adds[n-1], step) {
			last := &out.Adds[n-1]
			last.Tracks = append(last.Tracks, step.Tracks...)
			continue
		}
		out.Adds = append(out.Adds, types.AddStep{Tracks: slices.Clone(step.Tracks), Position: step.Position})
	}

	for _, step := range plan.Removes {
		if n := len(out.Removes); n > 0 && len(out.Removes[n-1].Tracks)+len(step.Tracks) <= types.MaxTracksPerRequest {
			out.Removes[n-1].Tracks = append(out.Removes[n-1].Tracks, step.Tracks...)
			continue
		}
		out.Removes = append(out.Removes, types.RemoveStep{Tracks: slices.Clone(step.Tracks)})
	}

	return out
}

func canMergeAdds(prev, next types.AddStep) bool {
	if len(prev.Tracks)+len(next.Tracks) > types.MaxTracksPerRequest {
		return false
	}
	switch {
	case prev.Position == nil && next.Position == nil:
		return true
	case prev.Position != nil && next.Position != nil:
		return *next.Position == *prev.Position+len(prev.Tracks)
	}
	return false
}

// ValidateMutationPlan checks the batch ceiling on every add and remove step and the
// index fields of every reorder step.
func ValidateMutationPlan(plan types.MutationPlan) error {
	var violations []string

	for i, step := range plan.Adds {
		if n := len(step.Tracks); n < 1 || n > types.MaxTracksPerRequest {
			violations = append(violations, fmt.Sprintf("add step %d has %d tracks, must have between 1 and %d", i, n, types.MaxTracksPerRequest))
		}
		if step.Position != nil && *step.Position < 0 {
			violations = append(violations, fmt.Sprintf("add step %d has negative position %d", i, *step.Position))
		}
	}
	for i, step := range plan.Removes {
		if n := len(step.Tracks); n < 1 || n > types.MaxTracksPerRequest {
			violations = append(violations, fmt.Sprintf("remove step %d has %d tracks, must have between 1 and %d", i, n, types.MaxTracksPerRequest))
		}
	}
	for i, step := range plan.Reorders {
		for _, f := range []struct {
			name  string
			value int
		}{{"from", step.From}, {"to", step.To}, {"count", step.Count}} {
			if f.value < types.SentinelIndex {
				violations = append(violations, fmt.Sprintf("reorder step %d: %s must be -1 or non-negative, got %d", i, f.name, f.value))
			}
		}
		if (step.To == types.SentinelIndex) != (step.Count == types.SentinelIndex) {
			violations = append(violations, fmt.Sprintf("reorder step %d: to and count must both be -1 for a full resort", i))
		}
		if step.From == types.SentinelIndex && !step.IsSentinel() {
			violations = append(violations, fmt.Sprintf("reorder step %d: from may only be -1 in a full resort", i))
		}
	}

	if len(violations) > 0 {
		return errs.Validation(violations...)
	}
	return nil
}
