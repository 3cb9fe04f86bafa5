package spotify

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/toozej/curator/internal/planner"
	"github.com/toozej/curator/internal/playlist"
	"github.com/toozej/curator/internal/types"
	"github.com/zmb3/spotify/v2"
	"golang.org/x/time/rate"
)

// ExecutionReport records which steps of a plan reached the catalog. Steps are
// indexed in execution order. FailedStep is -1 when no step failed.
type ExecutionReport struct {
	RunID      string `json:"run_id"`
	PlaylistID string `json:"playlist_id,omitempty"`
	Created    bool   `json:"created"`
	Steps      int    `json:"steps"`
	Committed  []int  `json:"committed"`
	FailedStep int    `json:"failed_step"`
	Err        error  `json:"-"`
}

// Succeeded reports whether every step committed.
func (r ExecutionReport) Succeeded() bool {
	return r.Err == nil && len(r.Committed) == r.Steps
}

// Executor runs playlist and mutation plans against the catalog, one call per step
// except for positioned adds and full resorts, which need a read first.
type Executor struct {
	caller
	catalog  *Catalog
	compare  planner.Comparator
	newRunID func() string
}

// NewExecutor creates an Executor. A nil comparator resorts by artist then name.
func NewExecutor(api API, limiter *rate.Limiter, compare planner.Comparator, logger *log.Logger) *Executor {
	c := newCaller(api, limiter, logger)
	if compare == nil {
		compare = planner.ByArtistThenName
	}
	return &Executor{
		caller:   c,
		catalog:  &Catalog{caller: c},
		compare:  compare,
		newRunID: uuid.NewString,
	}
}

// ExecutePlaylistPlan runs a validated playlist plan. Create plans create the playlist
// first and ignore playlistID; append and update plans need the target's id.
func (e *Executor) ExecutePlaylistPlan(ctx context.Context, plan types.PlaylistPlan, playlistID string) (ExecutionReport, error) {
	report := e.newReport(playlistID, len(plan.Steps))

	if err := playlist.ValidatePlaylistPlan(plan); err != nil {
		return e.fail(report, -1, err)
	}

	if plan.Action == types.ActionCreate {
		id, err := e.createPlaylist(ctx, plan)
		if err != nil {
			return e.fail(report, -1, err)
		}
		report.PlaylistID = id
		report.Created = true
	} else if playlistID == "" {
		return e.fail(report, -1, fmt.Errorf("%s plan for %q needs a playlist id", plan.Action, plan.Target))
	}

	return e.run(ctx, report, plan.Steps)
}

// ExecuteMutationPlan runs a validated mutation plan in the order annotations, removes,
// adds, reorders.
func (e *Executor) ExecuteMutationPlan(ctx context.Context, playlistID string, plan types.MutationPlan) (ExecutionReport, error) {
	steps := plan.Steps()
	report := e.newReport(playlistID, len(steps))

	if err := planner.ValidateMutationPlan(plan); err != nil {
		return e.fail(report, -1, err)
	}
	if playlistID == "" {
		return e.fail(report, -1, fmt.Errorf("mutation plan needs a playlist id"))
	}

	return e.run(ctx, report, steps)
}

func (e *Executor) newReport(playlistID string, steps int) ExecutionReport {
	return ExecutionReport{
		RunID:      e.newRunID(),
		PlaylistID: playlistID,
		Steps:      steps,
		Committed:  []int{},
		FailedStep: -1,
	}
}

func (e *Executor) fail(report ExecutionReport, step int, err error) (ExecutionReport, error) {
	report.FailedStep = step
	report.Err = err
	e.logger.WithFields(log.Fields{
		"component":   "spotify_executor",
		"run_id":      report.RunID,
		"playlist_id": report.PlaylistID,
		"failed_step": step,
		"committed":   len(report.Committed),
	}).WithError(err).Error("Plan execution failed")
	return report, err
}

func (e *Executor) run(ctx context.Context, report ExecutionReport, steps types.Steps) (ExecutionReport, error) {
	for i, step := range steps {
		if err := e.applyStep(ctx, report.PlaylistID, step); err != nil {
			return e.fail(report, i, fmt.Errorf("step %d (%s): %w", i, step.Kind(), err))
		}
		report.Committed = append(report.Committed, i)
	}

	e.logger.WithFields(log.Fields{
		"component":   "spotify_executor",
		"run_id":      report.RunID,
		"playlist_id": report.PlaylistID,
		"steps":       report.Steps,
	}).Info("Plan executed")

	return report, nil
}

func (e *Executor) createPlaylist(ctx context.Context, plan types.PlaylistPlan) (string, error) {
	if err := e.wait(ctx); err != nil {
		return "", err
	}
	user, err := e.api.CurrentUser(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get current user: %w", err)
	}

	public := plan.Public != nil && *plan.Public
	if err := e.wait(ctx); err != nil {
		return "", err
	}
	created, err := e.api.CreatePlaylistForUser(ctx, user.ID, plan.Name, plan.Description, public, false)
	if err != nil {
		return "", fmt.Errorf("failed to create playlist %s: %w", plan.Name, err)
	}

	e.logger.WithFields(log.Fields{
		"component":     "spotify_executor",
		"operation":     "create_playlist",
		"playlist_id":   created.ID,
		"playlist_name": plan.Name,
		"user_id":       user.ID,
	}).Info("Successfully created new playlist")

	return string(created.ID), nil
}

func (e *Executor) applyStep(ctx context.Context, playlistID string, step types.PlanStep) error {
	id := spotify.ID(playlistID)

	switch s := step.(type) {
	case types.AnnotateStep:
		if err := e.wait(ctx); err != nil {
			return err
		}
		if s.Field == types.FieldName {
			return e.api.ChangePlaylistName(ctx, id, s.Value)
		}
		return e.api.ChangePlaylistDescription(ctx, id, s.Value)

	case types.RemoveStep:
		ids, err := trackIDs(s.Tracks)
		if err != nil {
			return err
		}
		if err := e.wait(ctx); err != nil {
			return err
		}
		_, err = e.api.RemoveTracksFromPlaylist(ctx, id, ids...)
		return err

	case types.AddStep:
		return e.add(ctx, id, s)

	case types.ReorderStep:
		if s.IsSentinel() {
			return e.resort(ctx, id)
		}
		if err := e.wait(ctx); err != nil {
			return err
		}
		_, err := e.api.ReorderPlaylistTracks(ctx, id, spotify.PlaylistReorderOptions{
			RangeStart:   spotify.Numeric(s.From),
			RangeLength:  spotify.Numeric(s.Count),
			InsertBefore: spotify.Numeric(insertBefore(s)),
		})
		return err
	}

	return fmt.Errorf("unsupported step type %T", step)
}

// insertBefore converts a take-out-then-insert target into the catalog's insert-before
// index, which counts positions in the list before the range is removed.
func insertBefore(step types.ReorderStep) int {
	if step.To > step.From {
		return step.To + step.Count
	}
	return step.To
}

// add appends the tracks and, for a positioned step, moves the appended block into place.
func (e *Executor) add(ctx context.Context, id spotify.ID, step types.AddStep) error {
	ids, err := trackIDs(step.Tracks)
	if err != nil {
		return err
	}
	if err := e.wait(ctx); err != nil {
		return err
	}
	if _, err := e.api.AddTracksToPlaylist(ctx, id, ids...); err != nil {
		return err
	}
	if step.Position == nil {
		return nil
	}

	if err := e.wait(ctx); err != nil {
		return err
	}
	page, err := e.api.GetPlaylistItems(ctx, id, spotify.Limit(1))
	if err != nil {
		return fmt.Errorf("failed to read playlist length: %w", err)
	}
	start := int(page.Total) - len(ids)
	if *step.Position >= start {
		return nil
	}

	if err := e.wait(ctx); err != nil {
		return err
	}
	_, err = e.api.ReorderPlaylistTracks(ctx, id, spotify.PlaylistReorderOptions{
		RangeStart:   spotify.Numeric(start),
		RangeLength:  spotify.Numeric(len(ids)),
		InsertBefore: spotify.Numeric(*step.Position),
	})
	return err
}

// resort reads the playlist and issues the single-item moves that sort it.
func (e *Executor) resort(ctx context.Context, id spotify.ID) error {
	current, err := e.catalog.PlaylistTracks(ctx, string(id))
	if err != nil {
		return err
	}

	moves := SortMoves(current, e.compare)
	for _, move := range moves {
		if err := e.wait(ctx); err != nil {
			return err
		}
		if _, err := e.api.ReorderPlaylistTracks(ctx, id, move); err != nil {
			return err
		}
	}

	e.logger.WithFields(log.Fields{
		"component":   "spotify_executor",
		"operation":   "resort",
		"playlist_id": id,
		"moves":       len(moves),
	}).Debug("Playlist resorted")

	return nil
}

// SortMoves returns single-item reorder calls that stably sort tracks by compare.
// Each move takes the next track in sorted order and inserts it at its final index.
func SortMoves(tracks []types.TrackRef, compare planner.Comparator) []spotify.PlaylistReorderOptions {
	target := slices.Clone(tracks)
	slices.SortStableFunc(target, compare)

	current := slices.Clone(tracks)
	var moves []spotify.PlaylistReorderOptions
	for i := range target {
		if current[i].URI == target[i].URI {
			continue
		}
		j := i + 1
		for j < len(current) && current[j].URI != target[i].URI {
			j++
		}
		if j == len(current) {
			continue
		}
		moves = append(moves, spotify.PlaylistReorderOptions{RangeStart: spotify.Numeric(j), RangeLength: 1, InsertBefore: spotify.Numeric(i)})
		moved := current[j]
		current = slices.Delete(current, j, j+1)
		current = slices.Insert(current, i, moved)
	}
	return moves
}
