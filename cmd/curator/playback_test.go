package cmd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toozej/curator/internal/types"
)

func TestPlaybackCmd(t *testing.T) {
	paused := writeFile(t, "paused.json", `{"is_playing": false, "repeat_state": "off"}`)
	playing := writeFile(t, "playing.yaml", "is_playing: true\nrepeat_state: off\ncurrent_track:\n  uri: spotify:track:abc\n  name: Song\n  artists: [Artist]\n  duration_ms: 200000\nprogress_ms: 1000\n")

	tests := []struct {
		name    string
		args    []string
		execute bool
		command types.CommandType
	}{
		{name: "pause while paused", args: []string{"pause", "--state", paused}},
		{name: "pause while playing", args: []string{"pause", "--state", playing}, execute: true, command: types.CommandPause},
		{name: "play same track", args: []string{"play", "--state", playing, "--track", "spotify:track:abc"}},
		{name: "play new track", args: []string{"play", "--state", playing, "--track", "spotify:track:def"}, execute: true, command: types.CommandPlay},
		{name: "seek within track", args: []string{"play", "--state", playing, "--track", "spotify:track:abc", "--position", "60000"}, execute: true, command: types.CommandSeek},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := executeCmd(t, newPlaybackCmd, tt.args...)
			require.NoError(t, err)

			var decision types.PlaybackDecision
			require.NoError(t, json.Unmarshal([]byte(out), &decision))
			assert.Equal(t, tt.execute, decision.ShouldExecute)
			if tt.execute {
				require.NotNil(t, decision.Command)
				assert.Equal(t, tt.command, decision.Command.Type)
			} else {
				assert.NotEmpty(t, decision.Reason)
			}
		})
	}
}

func TestPlaybackCmd_Errors(t *testing.T) {
	state := writeFile(t, "state.json", `{"is_playing": false}`)

	tests := []struct {
		name string
		args []string
	}{
		{name: "no action", args: []string{"--state", state}},
		{name: "unknown action", args: []string{"rewind", "--state", state}},
		{name: "invalid uri", args: []string{"play", "--state", state, "--track", "not-a-uri"}},
		{name: "negative position", args: []string{"play", "--state", state, "--position", "-5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeCmd(t, newPlaybackCmd, tt.args...)
			assert.Error(t, err)
		})
	}
}
