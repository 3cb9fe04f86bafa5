package types

// PlaybackAction is a requested transport action.
type PlaybackAction string

const (
	PlaybackPlay     PlaybackAction = "play"
	PlaybackPause    PlaybackAction = "pause"
	PlaybackNext     PlaybackAction = "next"
	PlaybackPrevious PlaybackAction = "previous"
)

// CommandType is the instruction an executor sends to the player.
type CommandType string

const (
	CommandPlay     CommandType = "play"
	CommandPause    CommandType = "pause"
	CommandNext     CommandType = "next"
	CommandPrevious CommandType = "previous"
	CommandSeek     CommandType = "seek"
)

// Repeat states reported by the player.
const (
	RepeatOff     = "off"
	RepeatTrack   = "track"
	RepeatContext = "context"
)

// PlaybackContext is the album, playlist or artist a track is playing from.
type PlaybackContext struct {
	URI  string `json:"uri" yaml:"uri"`
	Type string `json:"type,omitempty" yaml:"type,omitempty"`
}

// PlaybackState is a snapshot of the player.
type PlaybackState struct {
	IsPlaying    bool             `json:"is_playing" yaml:"is_playing"`
	CurrentTrack *TrackRef        `json:"current_track,omitempty" yaml:"current_track,omitempty"`
	Context      *PlaybackContext `json:"context,omitempty" yaml:"context,omitempty"`
	ProgressMs   *int64           `json:"progress_ms,omitempty" yaml:"progress_ms,omitempty"`
	ShuffleState bool             `json:"shuffle_state" yaml:"shuffle_state"`
	RepeatState  string           `json:"repeat_state" yaml:"repeat_state"`
	DeviceID     string           `json:"device_id,omitempty" yaml:"device_id,omitempty"`
}

// PlaybackOptions carries the optional arguments of a playback request.
type PlaybackOptions struct {
	ContextURI string `json:"context_uri,omitempty" yaml:"context_uri,omitempty"`
	TrackURI   string `json:"track_uri,omitempty" yaml:"track_uri,omitempty"`
	PositionMs *int64 `json:"position_ms,omitempty" yaml:"position_ms,omitempty"`
	DeviceID   string `json:"device_id,omitempty" yaml:"device_id,omitempty"`
}

// PlaybackCommand is an executable player instruction.
type PlaybackCommand struct {
	Type       CommandType `json:"type"`
	ContextURI string      `json:"context_uri,omitempty"`
	TrackURI   string      `json:"track_uri,omitempty"`
	PositionMs *int64      `json:"position_ms,omitempty"`
	DeviceID   string      `json:"device_id,omitempty"`
}

// PlaybackDecision says whether to execute Command, and why not when it should not.
type PlaybackDecision struct {
	ShouldExecute bool             `json:"should_execute"`
	Reason        string           `json:"reason,omitempty"`
	Command       *PlaybackCommand `json:"command,omitempty"`
}
