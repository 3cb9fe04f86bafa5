package types

import (
	"encoding/json"
	"fmt"
)

// StepKind discriminates the PlanStep variants on the wire.
type StepKind string

const (
	StepAdd      StepKind = "add"
	StepRemove   StepKind = "remove"
	StepReorder  StepKind = "reorder"
	StepAnnotate StepKind = "annotate"
)

// SentinelIndex in both To and Count of a ReorderStep means "resort the whole collection".
const SentinelIndex = -1

// AnnotationField is the playlist attribute an AnnotateStep sets.
type AnnotationField string

const (
	FieldName        AnnotationField = "name"
	FieldDescription AnnotationField = "description"
)

// PlanStep is a closed union: AddStep, RemoveStep, ReorderStep and AnnotateStep.
// Consumers switch on the concrete type and treat anything else as a programming error.
type PlanStep interface {
	Kind() StepKind
	planStep()
}

// AddStep appends tracks, or inserts them at Position when set.
type AddStep struct {
	Tracks   []TrackRef `json:"tracks"`
	Position *int       `json:"position,omitempty"`
}

// RemoveStep removes every occurrence of the given tracks.
type RemoveStep struct {
	Tracks []TrackRef `json:"tracks"`
}

// ReorderStep moves Count items starting at From so they land before index To.
type ReorderStep struct {
	From  int `json:"from"`
	To    int `json:"to"`
	Count int `json:"count"`
}

// AnnotateStep sets a playlist name or description.
type AnnotateStep struct {
	Field AnnotationField `json:"field"`
	Value string          `json:"value"`
}

// ResortAll returns the sentinel step that resorts the whole collection.
func ResortAll() ReorderStep {
	return ReorderStep{From: 0, To: SentinelIndex, Count: SentinelIndex}
}

// IsSentinel reports whether the step resorts the whole collection.
func (s ReorderStep) IsSentinel() bool {
	return s.To == SentinelIndex && s.Count == SentinelIndex
}

func (AddStep) Kind() StepKind      { return StepAdd }
func (RemoveStep) Kind() StepKind   { return StepRemove }
func (ReorderStep) Kind() StepKind  { return StepReorder }
func (AnnotateStep) Kind() StepKind { return StepAnnotate }

func (AddStep) planStep()      {}
func (RemoveStep) planStep()   {}
func (ReorderStep) planStep()  {}
func (AnnotateStep) planStep() {}

func (s AddStep) MarshalJSON() ([]byte, error) {
	type alias AddStep
	return json.Marshal(struct {
		Type StepKind `json:"type"`
		alias
	}{StepAdd, alias(s)})
}

func (s RemoveStep) MarshalJSON() ([]byte, error) {
	type alias RemoveStep
	return json.Marshal(struct {
		Type StepKind `json:"type"`
		alias
	}{StepRemove, alias(s)})
}

func (s ReorderStep) MarshalJSON() ([]byte, error) {
	type alias ReorderStep
	return json.Marshal(struct {
		Type StepKind `json:"type"`
		alias
	}{StepReorder, alias(s)})
}

func (s AnnotateStep) MarshalJSON() ([]byte, error) {
	type alias AnnotateStep
	return json.Marshal(struct {
		Type StepKind `json:"type"`
		alias
	}{StepAnnotate, alias(s)})
}

// Steps is an ordered PlanStep list that round-trips through JSON using the "type" tag.
type Steps []PlanStep

// UnmarshalJSON decodes each element according to its "type" tag.
func (s *Steps) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	steps := make(Steps, 0, len(raw))
	for i, item := range raw {
		var head struct {
			Type StepKind `json:"type"`
		}
		if err := json.Unmarshal(item, &head); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}

		var step PlanStep
		var err error
		switch head.Type {
		case StepAdd:
			var v AddStep
			err = json.Unmarshal(item, &v)
			step = v
		case StepRemove:
			var v RemoveStep
			err = json.Unmarshal(item, &v)
			step = v
		case StepReorder:
			var v ReorderStep
			err = json.Unmarshal(item, &v)
			step = v
		case StepAnnotate:
			var v AnnotateStep
			err = json.Unmarshal(item, &v)
			step = v
		default:
			return fmt.Errorf("step %d: unknown step type %q", i, head.Type)
		}
		if err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		steps = append(steps, step)
	}

	*s = steps
	return nil
}

// MutationPlan is the batched output of reconciling an existing collection with a target.
type MutationPlan struct {
	Adds        []AddStep      `json:"adds"`
	Removes     []RemoveStep   `json:"removes"`
	Reorders    []ReorderStep  `json:"reorders"`
	Annotations []AnnotateStep `json:"annotations"`
}

// IsEmpty reports whether the plan has no add, remove or reorder steps.
func (p MutationPlan) IsEmpty() bool {
	return len(p.Adds) == 0 && len(p.Removes) == 0 && len(p.Reorders) == 0
}

// Steps flattens the plan into execution order: annotations, removes, adds, reorders.
func (p MutationPlan) Steps() Steps {
	steps := make(Steps, 0, len(p.Annotations)+len(p.Removes)+len(p.Adds)+len(p.Reorders))
	for _, s := range p.Annotations {
		steps = append(steps, s)
	}
	for _, s := range p.Removes {
		steps = append(steps, s)
	}
	for _, s := range p.Adds {
		steps = append(steps, s)
	}
	for _, s := range p.Reorders {
		steps = append(steps, s)
	}
	return steps
}

// PlaylistPlan is a complete, ordered set of instructions for one playlist.
type PlaylistPlan struct {
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Public      *bool        `json:"public,omitempty"`
	Action      IntentAction `json:"action"`
	Target      string       `json:"target,omitempty"`
	Steps       Steps        `json:"steps"`
}

// AddedTrackCount totals the tracks across all add steps.
func (p PlaylistPlan) AddedTrackCount() int {
	total := 0
	for _, step := range p.Steps {
		if add, ok := step.(AddStep); ok {
			total += len(add.Tracks)
		}
	}
	return total
}
