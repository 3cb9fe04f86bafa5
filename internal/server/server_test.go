package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toozej/curator/internal/errs"
	"github.com/toozej/curator/internal/ports"
	"github.com/toozej/curator/internal/selection"
	"github.com/toozej/curator/internal/types"
	"github.com/toozej/curator/pkg/config"
)

func tr(id string) types.TrackRef {
	return types.TrackRef{
		URI:        "spotify:track:" + id,
		ID:         id,
		Name:       "Song " + id,
		Artists:    []string{"Artist " + id},
		DurationMs: 200000,
		Popularity: types.Int(50),
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	clock := ports.FixedClockAt(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	engine := NewEngine(ports.NewSeededRandom(1), clock, logger)
	s := New(config.ServerConfig{Host: "127.0.0.1", Port: 0}, 5*time.Second, engine, logger)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, ts *httptest.Server, path string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.Equal(t, "ok", body["status"])
}

func TestMutations(t *testing.T) {
	ts := newTestServer(t)
	x, y, z := tr("x"), tr("y"), tr("z")

	resp := post(t, ts, "/v1/mutations", MutationRequest{
		Existing: []types.TrackRef{x, y},
		Target:   []types.TrackRef{y, z},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	plan := decode[types.MutationPlan](t, resp)
	require.Len(t, plan.Adds, 1)
	require.Len(t, plan.Removes, 1)
	assert.Equal(t, []string{z.URI}, types.URIs(plan.Adds[0].Tracks))
	assert.Equal(t, []string{x.URI}, types.URIs(plan.Removes[0].Tracks))
	assert.Empty(t, plan.Reorders)

	sim := post(t, ts, "/v1/mutations/simulate", SimulateRequest{Existing: []types.TrackRef{x, y}, Plan: plan})
	require.Equal(t, http.StatusOK, sim.StatusCode)
	result := decode[SimulateResponse](t, sim)
	assert.Equal(t, []string{y.URI, z.URI}, types.URIs(result.Result))
}

func TestMutations_RuleViolation(t *testing.T) {
	ts := newTestServer(t)

	resp := post(t, ts, "/v1/mutations", MutationRequest{
		Target: []types.TrackRef{tr("a")},
		Rules:  types.Rules{MaxTracks: types.Int(0)},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	body := decode[errorResponse](t, resp)
	assert.Equal(t, errs.CodeRule, body.Code)
	assert.Equal(t, "maxTracks", body.Meta["rule"])
	assert.Len(t, body.Violations, 1)
}

func TestSimulate_ValidationError(t *testing.T) {
	ts := newTestServer(t)

	resp := post(t, ts, "/v1/mutations/simulate", SimulateRequest{
		Existing: []types.TrackRef{tr("a")},
		Plan:     types.MutationPlan{Adds: []types.AddStep{{Tracks: []types.TrackRef{tr("b")}, Position: types.Int(5)}}},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, errs.CodeValidation, decode[errorResponse](t, resp).Code)
}

func TestPlans(t *testing.T) {
	ts := newTestServer(t)

	resp := post(t, ts, "/v1/plans", types.PlaylistIntent{
		Intent:  "jazz",
		Sources: []types.TrackSource{{Name: "search", Tracks: []types.TrackRef{tr("a"), tr("b")}}},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	plan := decode[types.PlaylistPlan](t, resp)
	assert.Equal(t, types.ActionCreate, plan.Action)
	assert.NotEmpty(t, plan.Name)
	require.NotEmpty(t, plan.Steps)
	add, ok := plan.Steps[len(plan.Steps)-1].(types.AddStep)
	require.True(t, ok)
	assert.Len(t, add.Tracks, 2)

	bad := post(t, ts, "/v1/plans", types.PlaylistIntent{})
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestSelections(t *testing.T) {
	ts := newTestServer(t)

	resp := post(t, ts, "/v1/selections", SelectionRequest{
		Candidates: []types.TrackRef{tr("a"), tr("b"), tr("c")},
		Options:    types.SelectionOptions{Count: 2},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decode[types.SelectionResult](t, resp)
	assert.Len(t, result.Selected, 2)
	assert.Len(t, result.Scored, 3)

	bad := post(t, ts, "/v1/selections", SelectionRequest{Options: types.SelectionOptions{Count: 0}})
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestScores(t *testing.T) {
	ts := newTestServer(t)
	a, b := tr("a"), tr("b")
	b.Artists = a.Artists

	resp := post(t, ts, "/v1/scores", ScoreRequest{
		Tracks:  []types.TrackRef{a, b},
		Weights: &selection.Weights{ArtistDiversity: 1},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	scores := decode[ScoreResponse](t, resp).Scores
	require.Len(t, scores, 2)
	assert.Equal(t, "a", scores[0].Track.ID)
	assert.InDelta(t, 1, scores[0].Score.Total, 1e-9)
	assert.InDelta(t, 1, scores[0].Normalized, 1e-9)
	assert.Zero(t, scores[1].Score.ArtistDiversity)
	assert.Zero(t, scores[1].Normalized)

	defaults := post(t, ts, "/v1/scores", ScoreRequest{Tracks: []types.TrackRef{a}})
	require.Equal(t, http.StatusOK, defaults.StatusCode)
	single := decode[ScoreResponse](t, defaults).Scores
	require.Len(t, single, 1)
	assert.InDelta(t, 0.15, single[0].Score.Popularity, 1e-9)
}

func TestPlaybackDecisions(t *testing.T) {
	ts := newTestServer(t)

	resp := post(t, ts, "/v1/playback/decisions", PlaybackRequest{
		State:  types.PlaybackState{IsPlaying: false, RepeatState: types.RepeatOff},
		Action: types.PlaybackPause,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decision := decode[types.PlaybackDecision](t, resp)
	assert.False(t, decision.ShouldExecute)
	assert.NotEmpty(t, decision.Reason)
	assert.Nil(t, decision.Command)

	bad := post(t, ts, "/v1/playback/decisions", PlaybackRequest{Action: "rewind"})
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestLibraryDiff(t *testing.T) {
	ts := newTestServer(t)

	resp := post(t, ts, "/v1/library/diff", LibraryDiffRequest{
		Saved:   []string{"b", "c"},
		Desired: []string{"a", "b"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	diff := decode[types.LibraryDiff](t, resp)
	assert.Equal(t, []string{"a"}, diff.ToSave)
	assert.Equal(t, []string{"c"}, diff.ToRemove)

	keep := post(t, ts, "/v1/library/diff", LibraryDiffRequest{
		Saved:   []string{"b", "c"},
		Desired: []string{"a", "b"},
		Prune:   types.Bool(false),
	})
	assert.Empty(t, decode[types.LibraryDiff](t, keep).ToRemove)
}

func TestBadRequests(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/v1/mutations", "application/json", strings.NewReader(`{"existing": [`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, codeBadRequest, decode[errorResponse](t, resp).Code)

	text, err := http.Post(ts.URL+"/v1/mutations", "text/plain", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer text.Body.Close()
	assert.Equal(t, http.StatusUnsupportedMediaType, text.StatusCode)
}

func TestMetrics(t *testing.T) {
	ts := newTestServer(t)
	post(t, ts, "/v1/library/diff", LibraryDiffRequest{Desired: []string{"a"}})

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `curator_http_requests_total{method="POST",route="/v1/library/diff",status="200"} 1`)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", errs.Validation("bad"), http.StatusBadRequest, errs.CodeValidation},
		{"rule", errs.RuleViolation("maxTracks", nil, "bad"), http.StatusUnprocessableEntity, errs.CodeRule},
		{"planning", errs.Planning("bad"), http.StatusUnprocessableEntity, errs.CodePlanning},
		{"selection", errs.Selection("bad"), http.StatusUnprocessableEntity, errs.CodeSelection},
		{"aggregate", errs.Aggregate(errs.Validation("a"), errs.Planning("b")), http.StatusUnprocessableEntity, errs.CodeAggregate},
		{"foreign", io.ErrUnexpectedEOF, http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := statusFor(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, resp.Code)
		})
	}
}
