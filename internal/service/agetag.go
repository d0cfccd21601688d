package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/listenupapp/agetags-server/internal/domain"
	domainerrors "github.com/listenupapp/agetags-server/internal/errors"
	"github.com/listenupapp/agetags-server/internal/id"
	"github.com/listenupapp/agetags-server/internal/metrics"
)

// TagStore persists title tags and run history.
// *sqlite.Store implements it.
type TagStore interface {
	ListTitles(ctx context.Context) ([]*domain.Title, error)
	SetTitleTags(ctx context.Context, titleID string, tags []string, updatedAt time.Time) error
	CreateTagRun(ctx context.Context, r *domain.TagRun) error
	FinishTagRun(ctx context.Context, r *domain.TagRun) error
	GetTagRun(ctx context.Context, runID string) (*domain.TagRun, error)
	ListTagRuns(ctx context.Context, limit int) ([]*domain.TagRun, error)
	AbortStaleRuns(ctx context.Context, reason string, now time.Time) (int, error)
}

// AgeTagConfig controls how runs tag titles.
type AgeTagConfig struct {
	TagPrefix   string
	Concurrency int
	// EnableWrite allows runs to modify tags. When false every run is a dry run.
	EnableWrite bool
}

// RunOptions are per-run settings.
type RunOptions struct {
	// DryRun overrides the configured mode; nil follows EnableWrite.
	DryRun *bool
	// TriggerID correlates the run with the request that started it.
	TriggerID string
	// Progress receives completion percentages from 0 to 100. It may be called concurrently.
	Progress func(percent float64)
}

// AgeTagService computes age tags for every catalog title and records each run.
// Only one run may be active at a time.
type AgeTagService struct {
	store   TagStore
	ratings *RatingService
	cfg     AgeTagConfig
	logger  *slog.Logger
	now     func() time.Time

	running atomic.Bool
}

// NewAgeTagService creates a new age-tag service.
func NewAgeTagService(store TagStore, ratings *RatingService, cfg AgeTagConfig, logger *slog.Logger) *AgeTagService {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &AgeTagService{
		store:   store,
		ratings: ratings,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// Running reports whether a run is in progress.
func (s *AgeTagService) Running() bool {
	return s.running.Load()
}

// WriteEnabled reports whether runs may modify tags.
func (s *AgeTagService) WriteEnabled() bool {
	return s.cfg.EnableWrite
}

// RecoverStaleRuns marks runs interrupted by a previous shutdown as aborted.
func (s *AgeTagService) RecoverStaleRuns(ctx context.Context) error {
	n, err := s.store.AbortStaleRuns(ctx, "interrupted by shutdown", s.now().UTC())
	if err != nil {
		return fmt.Errorf("abort stale runs: %w", err)
	}
	if n > 0 {
		s.logger.Warn("marked interrupted age-tag runs as aborted", "runs", n)
	}
	return nil
}

// ListRuns returns recent runs, newest first.
func (s *AgeTagService) ListRuns(ctx context.Context, limit int) ([]*domain.TagRun, error) {
	return s.store.ListTagRuns(ctx, limit)
}

// GetRun returns one run with its changes.
func (s *AgeTagService) GetRun(ctx context.Context, runID string) (*domain.TagRun, error) {
	if !id.HasPrefix(runID, id.PrefixRun) {
		return nil, domainerrors.NotFoundf("run %s not found", runID)
	}
	return s.store.GetTagRun(ctx, runID)
}

// Run executes the age-tag task once.
//
// Titles are resolved in parallel. A title whose certifications cannot be fetched is
// counted as failed and the run goes on. A missing TMDB API key aborts the run before
// any title is touched. In dry-run mode changes are only logged and recorded.
//
// The returned run is non-nil whenever a run record was created, including on error.
func (s *AgeTagService) Run(ctx context.Context, opts RunOptions) (*domain.TagRun, error) {
	dryRun, err := s.resolveMode(opts.DryRun)
	if err != nil {
		return nil, err
	}

	if !s.running.CompareAndSwap(false, true) {
		return nil, domainerrors.Conflict("an age-tag run is already in progress")
	}
	defer s.running.Store(false)

	metrics.TagRunActive.Set(1)
	defer metrics.TagRunActive.Set(0)

	runID, err := id.Generate(id.PrefixRun)
	if err != nil {
		return nil, err
	}

	run := &domain.TagRun{
		ID:        runID,
		TriggerID: opts.TriggerID,
		DryRun:    dryRun,
		Status:    domain.TagRunRunning,
		StartedAt: s.now().UTC(),
	}
	if err := s.store.CreateTagRun(ctx, run); err != nil {
		return nil, fmt.Errorf("record run start: %w", err)
	}

	log := s.logger.With(slog.Group("run", slog.String("id", run.ID), slog.Bool("dry_run", dryRun)))
	log.Info("age-tag run started",
		"priority", s.ratings.Priority(),
		"tag_prefix", s.cfg.TagPrefix,
	)

	runErr := s.ratings.CheckCredentials()
	if runErr == nil {
		runErr = s.tagAll(ctx, run, log, opts.Progress)
	}

	return s.finish(ctx, run, log, runErr)
}

// resolveMode decides whether a run is dry. Writes requested while disabled are rejected.
func (s *AgeTagService) resolveMode(requested *bool) (bool, error) {
	if requested == nil {
		return !s.cfg.EnableWrite, nil
	}
	if !*requested && !s.cfg.EnableWrite {
		return false, domainerrors.Validation("writes are disabled; set ENABLE_WRITE=true to apply tags")
	}
	return *requested, nil
}

// tagAll processes every title with a bounded worker pool.
func (s *AgeTagService) tagAll(ctx context.Context, run *domain.TagRun, log *slog.Logger, progress func(float64)) error {
	titles, err := s.store.ListTitles(ctx)
	if err != nil {
		return fmt.Errorf("list titles: %w", err)
	}

	run.Scanned = len(titles)
	report(progress, 0)

	var (
		mu   sync.Mutex
		done atomic.Int64
	)
	total := len(titles)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)

	for _, title := range titles {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			outcome, err := s.tagOne(gctx, run, title, log)
			if err != nil {
				return err
			}

			mu.Lock()
			outcome.apply(run)
			mu.Unlock()

			n := done.Add(1)
			report(progress, float64(n)*100/float64(total))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	report(progress, 100)
	return nil
}

// titleOutcome is one title's contribution to the run totals.
type titleOutcome struct {
	known  bool
	failed bool
	change *domain.TagChange
}

func (o titleOutcome) apply(run *domain.TagRun) {
	switch {
	case o.failed:
		run.Failed++
	case o.known:
		run.Resolved++
	default:
		run.Unknown++
	}
	if o.change != nil {
		// A failed write is kept in history but not counted as a change.
		if !o.failed {
			run.Changed++
		}
		run.Changes = append(run.Changes, *o.change)
	}
}

// tagOne resolves and, if needed, retags one title. Only errors that must abort
// the whole run are returned.
func (s *AgeTagService) tagOne(ctx context.Context, run *domain.TagRun, title *domain.Title, log *slog.Logger) (titleOutcome, error) {
	result, err := s.ratings.Resolve(ctx, title.Kind, title.TMDBID)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, domainerrors.ErrMissingCredentials) {
			return titleOutcome{}, err
		}
		log.Warn("failed to resolve title",
			"title_id", title.ID,
			"tmdb_id", title.TMDBID,
			"error", err,
		)
		return titleOutcome{failed: true}, nil
	}

	res := result.Resolution
	outcome := titleOutcome{known: res.Age.Known()}

	newTags, changed := title.PlanAgeTag(s.cfg.TagPrefix, res.Age)
	if !changed {
		return outcome, nil
	}

	change := &domain.TagChange{
		RunID:         run.ID,
		TitleID:       title.ID,
		TitleName:     title.Name,
		Action:        domain.TagActionSet,
		OldTags:       title.AgeTags(s.cfg.TagPrefix),
		NewTag:        domain.AgeTagFor(s.cfg.TagPrefix, res.Age),
		Age:           res.Age.Ptr(),
		Region:        res.Region,
		Certification: res.Certification,
	}
	if !res.Age.Known() {
		change.Action = domain.TagActionRemove
	}

	if run.DryRun {
		log.Info("planned age tag change",
			"title_id", title.ID,
			"name", title.Name,
			"action", change.Action,
			"old", change.OldTags,
			"new", change.NewTag,
			"region", change.Region,
			"certification", change.Certification,
		)
		metrics.TagChangesTotal.WithLabelValues(modeLabel(true), string(change.Action)).Inc()
		outcome.change = change
		return outcome, nil
	}

	if err := s.store.SetTitleTags(ctx, title.ID, newTags, s.now().UTC()); err != nil {
		if ctx.Err() != nil {
			return titleOutcome{}, err
		}
		log.Error("failed to write age tag",
			"title_id", title.ID,
			"error", err,
		)
		return titleOutcome{failed: true, change: change}, nil
	}

	change.Applied = true
	log.Info("applied age tag change",
		"title_id", title.ID,
		"name", title.Name,
		"action", change.Action,
		"new", change.NewTag,
	)
	metrics.TagChangesTotal.WithLabelValues(modeLabel(false), string(change.Action)).Inc()
	outcome.change = change
	return outcome, nil
}

// finish stores the final state of run. It runs even if ctx was canceled.
func (s *AgeTagService) finish(ctx context.Context, run *domain.TagRun, log *slog.Logger, runErr error) (*domain.TagRun, error) {
	finishedAt := s.now().UTC()
	run.FinishedAt = &finishedAt
	run.Status = domain.TagRunCompleted
	if runErr != nil {
		run.Status = domain.TagRunAborted
		run.Error = runErr.Error()
	}

	// Workers finish in any order; keep history stable.
	slices.SortFunc(run.Changes, func(a, b domain.TagChange) int {
		return cmp.Or(cmp.Compare(a.TitleName, b.TitleName), cmp.Compare(a.TitleID, b.TitleID))
	})

	if err := s.store.FinishTagRun(context.WithoutCancel(ctx), run); err != nil {
		log.Error("failed to record run result", "error", err)
		if runErr == nil {
			runErr = fmt.Errorf("record run result: %w", err)
		}
	}

	result := "ok"
	if runErr != nil {
		result = "aborted"
	}
	metrics.TagRunsTotal.WithLabelValues(modeLabel(run.DryRun), result).Inc()

	if runErr != nil {
		log.Error("age-tag run aborted",
			"error", runErr,
			"scanned", run.Scanned,
			"failed", run.Failed,
		)
		return run, runErr
	}

	log.Info("age-tag run finished",
		"scanned", run.Scanned,
		"resolved", run.Resolved,
		"unknown", run.Unknown,
		"changed", run.Changed,
		"failed", run.Failed,
		"duration", run.Duration(),
	)
	return run, nil
}

func report(progress func(float64), percent float64) {
	if progress != nil {
		progress(percent)
	}
}

func modeLabel(dryRun bool) string {
	if dryRun {
		return "dry_run"
	}
	return "write"
}
