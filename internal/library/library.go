// Package library reconciles the user's saved-track library with a desired id set.
package library

import (
	"context"
	"fmt"
	"io"
	"slices"

	log "github.com/sirupsen/logrus"
	"github.com/toozej/curator/internal/types"
)

// Pagination bounds for library listing calls.
const (
	MinPageLimit = 1
	MaxPageLimit = 50
)

// Store is the catalog surface the library service needs. ContainsTracks, SaveTracks and
// RemoveTracks accept at most types.MaxIDsPerLibraryRequest ids per call.
type Store interface {
	SavedTrackIDs(ctx context.Context) ([]string, error)
	ContainsTracks(ctx context.Context, ids []string) ([]bool, error)
	SaveTracks(ctx context.Context, ids []string) error
	RemoveTracks(ctx context.Context, ids []string) error
}

// Diff returns the ids to save and to remove so saved matches desired. Both lists are
// sorted and free of duplicates.
func Diff(saved, desired []string) types.LibraryDiff {
	savedSet := toSet(saved)
	desiredSet := toSet(desired)

	diff := types.LibraryDiff{ToSave: []string{}, ToRemove: []string{}}
	for id := range desiredSet {
		if _, ok := savedSet[id]; !ok {
			diff.ToSave = append(diff.ToSave, id)
		}
	}
	for id := range savedSet {
		if _, ok := desiredSet[id]; !ok {
			diff.ToRemove = append(diff.ToRemove, id)
		}
	}
	slices.Sort(diff.ToSave)
	slices.Sort(diff.ToRemove)
	return diff
}

// ChunkIDs splits ids, in order, into batches of at most size.
func ChunkIDs(ids []string, size int) [][]string {
	if size <= 0 || len(ids) == 0 {
		return nil
	}
	var chunks [][]string
	for start := 0; start < len(ids); start += size {
		chunks = append(chunks, slices.Clone(ids[start:min(start+size, len(ids))]))
	}
	return chunks
}

// ClampPagination clamps limit to [1,50] and floors offset at 0.
func ClampPagination(limit, offset int) (int, int) {
	return max(MinPageLimit, min(limit, MaxPageLimit)), max(offset, 0)
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}

// Service checks and reconciles saved tracks through a Store.
type Service struct {
	store  Store
	logger *log.Logger
}

// NewService creates a library service. A nil logger discards output.
func NewService(store Store, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New()
		logger.SetOutput(io.Discard)
	}
	return &Service{store: store, logger: logger}
}

// CheckSaved reports, for each id, whether it is in the library.
func (s *Service) CheckSaved(ctx context.Context, ids []string) (map[string]bool, error) {
	saved := make(map[string]bool, len(ids))
	for i, batch := range ChunkIDs(ids, types.MaxIDsPerLibraryRequest) {
		flags, err := s.store.ContainsTracks(ctx, batch)
		if err != nil {
			s.logger.WithError(err).WithFields(log.Fields{
				"component": "library_service",
				"operation": "check_saved",
				"batch":     i,
				"ids":       len(batch),
			}).Error("Failed to check saved tracks")
			return nil, fmt.Errorf("failed to check saved tracks: %w", err)
		}
		if len(flags) != len(batch) {
			return nil, fmt.Errorf("failed to check saved tracks: expected %d results, got %d", len(batch), len(flags))
		}
		for j, id := range batch {
			saved[id] = flags[j]
		}
	}

	s.logger.WithFields(log.Fields{
		"component": "library_service",
		"operation": "check_saved",
		"ids":       len(ids),
	}).Debug("Checked saved tracks")

	return saved, nil
}

// Plan fetches the current library and diffs it against desired. Without prune the
// diff never removes anything.
func (s *Service) Plan(ctx context.Context, desired []string, prune bool) (types.LibraryDiff, error) {
	saved, err := s.store.SavedTrackIDs(ctx)
	if err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"component": "library_service",
			"operation": "plan",
		}).Error("Failed to list saved tracks")
		return types.LibraryDiff{}, fmt.Errorf("failed to list saved tracks: %w", err)
	}

	diff := Diff(saved, desired)
	if !prune {
		diff.ToRemove = []string{}
	}

	s.logger.WithFields(log.Fields{
		"component": "library_service",
		"operation": "plan",
		"saved":     len(saved),
		"desired":   len(desired),
		"to_save":   len(diff.ToSave),
		"to_remove": len(diff.ToRemove),
	}).Info("Planned library changes")

	return diff, nil
}

// Apply saves and removes the ids in diff, batched at the library request ceiling.
func (s *Service) Apply(ctx context.Context, diff types.LibraryDiff) error {
	for _, batch := range ChunkIDs(diff.ToSave, types.MaxIDsPerLibraryRequest) {
		if err := s.store.SaveTracks(ctx, batch); err != nil {
			return fmt.Errorf("failed to save %d tracks: %w", len(batch), err)
		}
	}
	for _, batch := range ChunkIDs(diff.ToRemove, types.MaxIDsPerLibraryRequest) {
		if err := s.store.RemoveTracks(ctx, batch); err != nil {
			return fmt.Errorf("failed to remove %d tracks: %w", len(batch), err)
		}
	}

	s.logger.WithFields(log.Fields{
		"component": "library_service",
		"operation": "apply",
		"saved":     len(diff.ToSave),
		"removed":   len(diff.ToRemove),
	}).Info("Applied library changes")

	return nil
}
