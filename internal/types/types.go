// Package types holds the data model shared by the curation engine and its adapters.
//
// Every value in this package is a plain, serializable value. The engine never
// mutates a TrackRef or a Rules value it receives; callers own everything it returns.
package types

import (
	"fmt"
	"strings"
)

// Catalog batch ceilings. They come from different endpoints and are not interchangeable.
const (
	// MaxTracksPerRequest caps playlist track add/remove calls.
	MaxTracksPerRequest = 100
	// MaxIDsPerLibraryRequest caps bulk is-saved / save / remove library calls.
	MaxIDsPerLibraryRequest = 50
	// MaxPlanTracks caps the total number of tracks added by one PlaylistPlan.
	MaxPlanTracks = 10000
	// MaxNameLength caps playlist names.
	MaxNameLength = 100
	// MaxDescriptionLength caps playlist descriptions.
	MaxDescriptionLength = 300
)

// TrackRef identifies a catalog track. URI is the identity used by every set operation.
type TrackRef struct {
	URI         string   `json:"uri" yaml:"uri"`
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Artists     []string `json:"artists" yaml:"artists"`
	DurationMs  int      `json:"duration_ms" yaml:"duration_ms"`
	Explicit    *bool    `json:"explicit,omitempty" yaml:"explicit,omitempty"`
	Popularity  *int     `json:"popularity,omitempty" yaml:"popularity,omitempty"`
	ReleaseDate string   `json:"release_date,omitempty" yaml:"release_date,omitempty"`
}

// PrimaryArtist returns the first credited artist, or "" when there is none.
func (t TrackRef) PrimaryArtist() string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0]
}

// IsExplicit reports whether the track is known to be explicit.
func (t TrackRef) IsExplicit() bool {
	return t.Explicit != nil && *t.Explicit
}

// Validate checks the structural invariants adapters are expected to uphold.
func (t TrackRef) Validate() error {
	var problems []string
	if strings.TrimSpace(t.URI) == "" {
		problems = append(problems, "uri is required")
	}
	if len(t.Artists) == 0 {
		problems = append(problems, "at least one artist is required")
	}
	if t.DurationMs <= 0 {
		problems = append(problems, "duration_ms must be greater than 0")
	}
	if t.Popularity != nil && (*t.Popularity < 0 || *t.Popularity > 100) {
		problems = append(problems, "popularity must be between 0 and 100")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid track %q: %s", t.URI, strings.Join(problems, "; "))
	}
	return nil
}

// String returns a human readable representation of the track
func (t TrackRef) String() string {
	if len(t.Artists) == 0 {
		return t.Name
	}
	return fmt.Sprintf("%s - %s", strings.Join(t.Artists, ", "), t.Name)
}

// URIs extracts the URIs of tracks in order.
func URIs(tracks []TrackRef) []string {
	uris := make([]string, len(tracks))
	for i, track := range tracks {
		uris[i] = track.URI
	}
	return uris
}

// DedupeKey names one component of a composite deduplication key.
type DedupeKey string

const (
	DedupeByURI        DedupeKey = "uri"
	DedupeByID         DedupeKey = "id"
	DedupeByAudioHash  DedupeKey = "audioHash"
	DedupeByNameArtist DedupeKey = "name+artist"
)

// Valid reports whether k is one of the known keys.
func (k DedupeKey) Valid() bool {
	switch k {
	case DedupeByURI, DedupeByID, DedupeByAudioHash, DedupeByNameArtist:
		return true
	}
	return false
}

// Rules is a declarative rule set applied by the rules engine and the planner.
// Order of DedupeBy defines key-construction priority.
type Rules struct {
	MaxTracks     *int        `json:"max_tracks,omitempty" yaml:"max_tracks,omitempty" toml:"max_tracks"`
	AllowExplicit *bool       `json:"allow_explicit,omitempty" yaml:"allow_explicit,omitempty" toml:"allow_explicit"`
	DedupeBy      []DedupeKey `json:"dedupe_by,omitempty" yaml:"dedupe_by,omitempty" toml:"dedupe_by"`
	MinPopularity *int        `json:"min_popularity,omitempty" yaml:"min_popularity,omitempty" toml:"min_popularity"`
	UniqueArtists bool        `json:"unique_artists,omitempty" yaml:"unique_artists,omitempty" toml:"unique_artists"`
}

// IsZero reports whether no rule is set.
func (r Rules) IsZero() bool {
	return r.MaxTracks == nil && r.AllowExplicit == nil && len(r.DedupeBy) == 0 &&
		r.MinPopularity == nil && !r.UniqueArtists
}

// DedupeResult splits a track list into first occurrences and later duplicates.
type DedupeResult struct {
	Deduped []TrackRef `json:"deduped"`
	Removed []TrackRef `json:"removed"`
}

// Rejection records why an item was not accepted.
type Rejection struct {
	Reason string   `json:"reason"`
	Item   TrackRef `json:"item"`
}

// ConstraintResult holds the outcome of applying rule constraints.
type ConstraintResult struct {
	Accepted []TrackRef  `json:"accepted"`
	Rejected []Rejection `json:"rejected"`
}

// LibraryDiff lists the ids to save and to remove so a library matches a desired set.
type LibraryDiff struct {
	ToSave   []string `json:"to_save"`
	ToRemove []string `json:"to_remove"`
}

// IsEmpty reports whether the library already matches.
func (d LibraryDiff) IsEmpty() bool {
	return len(d.ToSave) == 0 && len(d.ToRemove) == 0
}

// Bool returns a pointer to b.
func Bool(b bool) *bool { return &b }

// Int returns a pointer to i.
func Int(i int) *int { return &i }

// Int64 returns a pointer to i.
func Int64(i int64) *int64 { return &i }

// Float returns a pointer to f.
func Float(f float64) *float64 { return &f }

// PlaylistSummary is a playlist as listed in the user's library.
type PlaylistSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	URI        string `json:"uri"`
	Owner      string `json:"owner,omitempty"`
	TrackCount int    `json:"track_count"`
}
