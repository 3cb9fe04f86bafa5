package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toozej/curator/internal/planner"
	"github.com/toozej/curator/internal/types"
)

func track(id, artist string) types.TrackRef {
	return types.TrackRef{
		URI:        "spotify:track:" + id,
		ID:         id,
		Name:       "Song " + id,
		Artists:    []string{artist},
		DurationMs: 180000,
	}
}

func tracksFile(t *testing.T, name string, tracks ...types.TrackRef) string {
	t.Helper()
	data, err := json.Marshal(tracks)
	require.NoError(t, err)
	return writeFile(t, name, string(data))
}

func TestRunReconcile(t *testing.T) {
	x, y, z := track("x", "X"), track("y", "Y"), track("z", "Z")
	existing := tracksFile(t, "existing.json", x, y)
	target := tracksFile(t, "target.json", y, z)

	var buf bytes.Buffer
	err := runReconcile(context.Background(), &buf, &reconcileOptions{
		existingFile: existing,
		targetFile:   target,
		verify:       true,
	})
	require.NoError(t, err)

	var out reconcileOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out.Plan.Adds, 1)
	require.Len(t, out.Plan.Removes, 1)
	assert.Equal(t, []string{z.URI}, types.URIs(out.Plan.Adds[0].Tracks))
	assert.Equal(t, []string{x.URI}, types.URIs(out.Plan.Removes[0].Tracks))
	assert.Equal(t, []string{y.URI, z.URI}, types.URIs(out.Result))
	assert.Nil(t, out.Report)
}

func TestRunReconcile_Errors(t *testing.T) {
	target := tracksFile(t, "target.json", track("a", "A"))

	tests := []struct {
		name string
		opts reconcileOptions
	}{
		{name: "missing target", opts: reconcileOptions{}},
		{name: "execute without playlist", opts: reconcileOptions{targetFile: target, execute: true}},
		{name: "bad rules", opts: reconcileOptions{targetFile: target, rulesFile: writeFile(t, "rules.json", `{"max_tracks": 0}`)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			assert.Error(t, runReconcile(context.Background(), &buf, &tt.opts))
			assert.Empty(t, buf.String())
		})
	}
}

func TestReconcile(t *testing.T) {
	p := planner.NewPlanner(nil, nil)
	a1, a2, b := track("a1", "A"), track("a2", "A"), track("b", "B")

	tests := []struct {
		name     string
		existing []types.TrackRef
		target   []types.TrackRef
		rules    types.Rules
		optimize bool
		result   []string
		reorders int
	}{
		{
			name:   "empty playlist gets every track",
			target: []types.TrackRef{b, a1},
			result: []string{b.URI, a1.URI},
		},
		{
			name:     "unique artists resorts",
			existing: []types.TrackRef{b},
			target:   []types.TrackRef{b, a1, a2},
			rules:    types.Rules{UniqueArtists: true},
			result:   []string{a1.URI, b.URI},
			reorders: 1,
		},
		{
			name:     "optimize keeps the result",
			target:   []types.TrackRef{a1, b},
			optimize: true,
			result:   []string{a1.URI, b.URI},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := reconcile(p, tt.existing, tt.target, tt.rules, tt.optimize, true)
			require.NoError(t, err)
			assert.Equal(t, tt.result, types.URIs(out.Result))
			assert.Len(t, out.Plan.Reorders, tt.reorders)
		})
	}
}
