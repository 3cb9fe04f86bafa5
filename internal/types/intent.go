package types

// IntentAction is what a playlist intent asks for.
type IntentAction string

const (
	ActionCreate IntentAction = "create"
	ActionAppend IntentAction = "append"
	ActionUpdate IntentAction = "update"
)

// Valid reports whether a is a known action.
func (a IntentAction) Valid() bool {
	switch a {
	case ActionCreate, ActionAppend, ActionUpdate:
		return true
	}
	return false
}

// IntentCriteria is the structured content extracted from an intent.
// YearFrom and YearTo are zero when no year was given.
type IntentCriteria struct {
	Genres   []string `json:"genres,omitempty" yaml:"genres,omitempty"`
	Artists  []string `json:"artists,omitempty" yaml:"artists,omitempty"`
	YearFrom int      `json:"year_from,omitempty" yaml:"year_from,omitempty"`
	YearTo   int      `json:"year_to,omitempty" yaml:"year_to,omitempty"`
	Query    string   `json:"query,omitempty" yaml:"query,omitempty"`
}

// HasYears reports whether a year or a year range was specified.
func (c IntentCriteria) HasYears() bool {
	return c.YearFrom > 0 || c.YearTo > 0
}

// IsEmpty reports whether no criteria were extracted at all.
func (c IntentCriteria) IsEmpty() bool {
	return len(c.Genres) == 0 && len(c.Artists) == 0 && !c.HasYears() && c.Query == ""
}

// StructuredIntent is a parsed intent.
type StructuredIntent struct {
	Action   IntentAction   `json:"action" yaml:"action"`
	Target   string         `json:"target,omitempty" yaml:"target,omitempty"`
	Criteria IntentCriteria `json:"criteria" yaml:"criteria"`
}

// TrackSource is a named, already-fetched candidate collection.
type TrackSource struct {
	Name   string     `json:"name" yaml:"name"`
	Tracks []TrackRef `json:"tracks" yaml:"tracks"`
}

// PlaylistIntent is the caller's request to the plan builder. When Structured is nil,
// Intent is parsed as free text. Existing carries the target playlist's current contents
// for append and update intents.
type PlaylistIntent struct {
	Intent      string            `json:"intent,omitempty" yaml:"intent,omitempty"`
	Structured  *StructuredIntent `json:"structured,omitempty" yaml:"structured,omitempty"`
	Sources     []TrackSource     `json:"sources" yaml:"sources"`
	Existing    []TrackRef        `json:"existing,omitempty" yaml:"existing,omitempty"`
	Rules       Rules             `json:"rules" yaml:"rules"`
	Name        string            `json:"name,omitempty" yaml:"name,omitempty"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Public      *bool             `json:"public,omitempty" yaml:"public,omitempty"`
}

// SelectionOptions tunes track selection. Nil weights take their defaults.
type SelectionOptions struct {
	Count            int      `json:"count" yaml:"count"`
	RecencyBoost     *float64 `json:"recency_boost,omitempty" yaml:"recency_boost,omitempty"`
	PopularityWeight *float64 `json:"popularity_weight,omitempty" yaml:"popularity_weight,omitempty"`
	DiversityFactor  *float64 `json:"diversity_factor,omitempty" yaml:"diversity_factor,omitempty"`
	RandomnessFactor *float64 `json:"randomness_factor,omitempty" yaml:"randomness_factor,omitempty"`
}

// SelectionFactors breaks a selection score into its parts.
type SelectionFactors struct {
	Base             float64 `json:"base"`
	Popularity       float64 `json:"popularity"`
	Recency          float64 `json:"recency"`
	Duration         float64 `json:"duration"`
	Explicit         float64 `json:"explicit"`
	DiversityPenalty float64 `json:"diversity_penalty"`
}

// ScoredCandidate is a candidate with its raw and diversity-adjusted score.
type ScoredCandidate struct {
	Track    TrackRef         `json:"track"`
	RawScore float64          `json:"raw_score"`
	Score    float64          `json:"score"`
	Factors  SelectionFactors `json:"factors"`
}

// SelectionResult holds the chosen tracks and every candidate's score, best first.
type SelectionResult struct {
	Selected []TrackRef        `json:"selected"`
	Scored   []ScoredCandidate `json:"scored"`
}
