// Package search resolves loosely typed names against fetched catalog data using fuzzy
// matching.
package search

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/sirupsen/logrus"
	"github.com/toozej/curator/internal/normalize"
	"github.com/toozej/curator/internal/types"
)

// MinConfidence is the lowest confidence ResolvePlaylist accepts.
const MinConfidence = 0.5

// FuzzySearcher matches queries against playlists and tracks
type FuzzySearcher struct {
	logger *logrus.Logger
}

// NewFuzzySearcher creates a new fuzzy searcher
func NewFuzzySearcher(logger *logrus.Logger) *FuzzySearcher {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &FuzzySearcher{logger: logger}
}

// PlaylistMatch is a resolved playlist with its match confidence
type PlaylistMatch struct {
	Playlist   types.PlaylistSummary `json:"playlist"`
	Query      string                `json:"query"`
	Confidence float64               `json:"confidence"`
}

// TrackMatch is a ranked track with its match confidence
type TrackMatch struct {
	Track      types.TrackRef `json:"track"`
	Query      string         `json:"query"`
	Confidence float64        `json:"confidence"`
}

// ResolvePlaylist finds the playlist a target name refers to. A case-insensitive exact
// name match wins outright; otherwise the best fuzzy match above MinConfidence is used.
func (f *FuzzySearcher) ResolvePlaylist(name string, playlists []types.PlaylistSummary) (*PlaylistMatch, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("playlist name cannot be empty")
	}

	for _, p := range playlists {
		if strings.EqualFold(strings.TrimSpace(p.Name), strings.TrimSpace(name)) {
			f.logger.WithFields(logrus.Fields{
				"query":       name,
				"playlist_id": p.ID,
			}).Debug("Resolved playlist by exact name")
			return &PlaylistMatch{Playlist: p, Query: name, Confidence: 1.0}, nil
		}
	}

	var best *PlaylistMatch
	for _, p := range playlists {
		confidence := calculateMatchConfidence(name, p.Name)
		if best == nil || confidence > best.Confidence {
			best = &PlaylistMatch{Playlist: p, Query: name, Confidence: confidence}
		}
	}

	if best == nil || best.Confidence < MinConfidence {
		f.logger.WithFields(logrus.Fields{
			"query":     name,
			"playlists": len(playlists),
		}).Warn("No playlist matched")
		return nil, fmt.Errorf("no playlist matching %q among %d playlists", name, len(playlists))
	}

	f.logger.WithFields(logrus.Fields{
		"query":          name,
		"matched_name":   best.Playlist.Name,
		"playlist_id":    best.Playlist.ID,
		"confidence":     best.Confidence,
		"is_low_quality": best.Confidence < 0.8,
	}).Info("Resolved playlist by fuzzy match")

	return best, nil
}

// trackSource exposes "artists - name" strings to fuzzy.FindFrom
type trackSource []types.TrackRef

func (s trackSource) String(i int) string { return normalize.Text(s[i].String()) }

func (s trackSource) Len() int { return len(s) }

// RankTracks returns the tracks that fuzzy-match query, best first. Tracks that do not
// match at all are left out.
func (f *FuzzySearcher) RankTracks(query string, tracks []types.TrackRef) []TrackMatch {
	q := normalize.Text(query)
	if q == "" {
		return nil
	}

	matches := fuzzy.FindFrom(q, trackSource(tracks))
	ranked := make([]TrackMatch, 0, len(matches))
	for _, m := range matches {
		track := tracks[m.Index]
		confidence := max(
			calculateMatchConfidence(query, track.Name),
			calculateMatchConfidence(query, track.String()),
		)
		ranked = append(ranked, TrackMatch{Track: track, Query: query, Confidence: confidence})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Confidence > ranked[j].Confidence })

	f.logger.WithFields(logrus.Fields{
		"query":   query,
		"tracks":  len(tracks),
		"matched": len(ranked),
	}).Debug("Ranked tracks")

	return ranked
}

// calculateMatchConfidence calculates a confidence score between 0.0 and 1.0
// for how well the found item matches the search query
func calculateMatchConfidence(query, itemName string) float64 {
	normalizedQuery := normalize.Text(query)
	normalizedItem := normalize.Text(itemName)

	if normalizedQuery == "" || normalizedItem == "" {
		return 0.0
	}

	// Exact match gets perfect score
	if normalizedQuery == normalizedItem {
		return 1.0
	}

	// Query contained in item name scores between 0.8 and 1.0
	if strings.Contains(normalizedItem, normalizedQuery) {
		ratio := float64(len(normalizedQuery)) / float64(len(normalizedItem))
		return 0.8 + (ratio * 0.2)
	}

	// Item name contained in query scores between 0.7 and 0.9
	if strings.Contains(normalizedQuery, normalizedItem) {
		ratio := float64(len(normalizedItem)) / float64(len(normalizedQuery))
		return 0.7 + (ratio * 0.2)
	}

	matches := fuzzy.Find(normalizedQuery, []string{normalizedItem})
	if len(matches) > 0 {
		// Fuzzy scores are unbounded, so scale into 0.1-0.7
		fuzzyScore := float64(matches[0].Score)
		maxExpectedScore := float64(len(normalizedQuery) * 2)
		confidence := (fuzzyScore / maxExpectedScore) * 0.7
		return min(0.7, max(0.1, confidence))
	}

	return 0.1
}

// IsHighConfidence returns true if the match confidence is at least 0.8
func (m PlaylistMatch) IsHighConfidence() bool {
	return m.Confidence >= 0.8
}

// IsLowConfidence returns true if the match confidence is below 0.5
func (m TrackMatch) IsLowConfidence() bool {
	return m.Confidence < 0.5
}
