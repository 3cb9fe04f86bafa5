package server

import (
	"net/http"

	"github.com/toozej/curator/internal/library"
	"github.com/toozej/curator/internal/planner"
	"github.com/toozej/curator/internal/selection"
	"github.com/toozej/curator/internal/types"
)

// MutationRequest asks for the plan that turns Existing into Target under Rules.
type MutationRequest struct {
	Existing []types.TrackRef `json:"existing"`
	Target   []types.TrackRef `json:"target"`
	Rules    types.Rules      `json:"rules"`
	Optimize bool             `json:"optimize,omitempty"`
}

// SimulateRequest applies Plan to Existing without touching the catalog.
type SimulateRequest struct {
	Existing []types.TrackRef   `json:"existing"`
	Plan     types.MutationPlan `json:"plan"`
}

// SimulateResponse is the collection after the plan.
type SimulateResponse struct {
	Result []types.TrackRef `json:"result"`
}

// SelectionRequest scores and selects from Candidates.
type SelectionRequest struct {
	Candidates []types.TrackRef       `json:"candidates"`
	Rules      types.Rules            `json:"rules"`
	Options    types.SelectionOptions `json:"options"`
}

// ScoreRequest asks for the component breakdown of each track. Nil Weights uses the
// defaults.
type ScoreRequest struct {
	Tracks  []types.TrackRef   `json:"tracks"`
	Weights *selection.Weights `json:"weights,omitempty"`
}

// ScoreResponse lists one breakdown per requested track, in request order.
type ScoreResponse struct {
	Scores []selection.ScoreBreakdown `json:"scores"`
}

// PlaybackRequest asks whether Action should run given State.
type PlaybackRequest struct {
	State   types.PlaybackState   `json:"state"`
	Action  types.PlaybackAction  `json:"action"`
	Options types.PlaybackOptions `json:"options"`
}

// LibraryDiffRequest diffs saved ids against desired ids. Prune set to false keeps
// every saved id.
type LibraryDiffRequest struct {
	Saved   []string `json:"saved"`
	Desired []string `json:"desired"`
	Prune   *bool    `json:"prune,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "curator",
	})
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	var req types.PlaylistIntent
	if err := decodeBody(w, r, &req); err != nil {
		s.writeBadRequest(w, err)
		return
	}

	plan, err := s.engine.Builder.CreatePlaylistPlan(req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	for _, step := range plan.Steps {
		s.metrics.planSteps.WithLabelValues(string(step.Kind())).Inc()
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleGenerateMutations(w http.ResponseWriter, r *http.Request) {
	var req MutationRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeBadRequest(w, err)
		return
	}

	plan, err := s.engine.Planner.GenerateMutationPlan(req.Existing, req.Target, req.Rules)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Optimize {
		plan = planner.OptimizeMutationPlan(plan)
	}
	for _, step := range plan.Steps() {
		s.metrics.planSteps.WithLabelValues(string(step.Kind())).Inc()
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleSimulateMutations(w http.ResponseWriter, r *http.Request) {
	var req SimulateRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeBadRequest(w, err)
		return
	}

	result, err := s.engine.Planner.ApplyMutationPlan(req.Existing, req.Plan)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SimulateResponse{Result: result})
}

func (s *Server) handleSelectTracks(w http.ResponseWriter, r *http.Request) {
	var req SelectionRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeBadRequest(w, err)
		return
	}

	result, err := s.engine.Selector.SelectTracks(req.Candidates, req.Rules, req.Options)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleScoreTracks(w http.ResponseWriter, r *http.Request) {
	var req ScoreRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeBadRequest(w, err)
		return
	}

	weights := selection.DefaultWeights()
	if req.Weights != nil {
		weights = *req.Weights
	}
	writeJSON(w, http.StatusOK, ScoreResponse{Scores: s.engine.Selector.ScoreTracks(req.Tracks, weights)})
}

func (s *Server) handleDecidePlayback(w http.ResponseWriter, r *http.Request) {
	var req PlaybackRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeBadRequest(w, err)
		return
	}

	decision, err := s.engine.Decider.Decide(req.State, req.Action, req.Options)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, decision)
}

func (s *Server) handleLibraryDiff(w http.ResponseWriter, r *http.Request) {
	var req LibraryDiffRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeBadRequest(w, err)
		return
	}

	diff := library.Diff(req.Saved, req.Desired)
	if req.Prune != nil && !*req.Prune {
		diff.ToRemove = []string{}
	}
	writeJSON(w, http.StatusOK, diff)
}
