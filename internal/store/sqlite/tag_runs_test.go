package sqlite

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/listenupapp/agetags-server/internal/domain"
	domainerrors "github.com/listenupapp/agetags-server/internal/errors"
)

func intPtr(v int) *int { return &v }

func TestTagRunLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	started := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	run := &domain.TagRun{
		ID:        "run-1",
		TriggerID: "0b6f7c1e-3d7e-4a59-9d55-5d3c1f5b8e01",
		DryRun:    true,
		Status:    domain.TagRunRunning,
		StartedAt: started,
	}
	if err := s.CreateTagRun(ctx, run); err != nil {
		t.Fatalf("CreateTagRun: %v", err)
	}

	got, err := s.GetTagRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetTagRun running: %v", err)
	}
	if got.Status != domain.TagRunRunning || got.FinishedAt != nil || len(got.Changes) != 0 {
		t.Errorf("unexpected running run: %+v", got)
	}

	finished := started.Add(3 * time.Second)
	run.Status = domain.TagRunCompleted
	run.FinishedAt = &finished
	run.Scanned, run.Resolved, run.Unknown, run.Changed, run.Failed = 4, 2, 1, 2, 1
	run.Changes = []domain.TagChange{
		{TitleID: "title-1", TitleName: "Fight Club", Action: domain.TagActionSet, OldTags: []string{"age-12"}, NewTag: "age-16", Age: intPtr(16), Region: "FR", Certification: "16"},
		{TitleID: "title-2", TitleName: "Mystery", Action: domain.TagActionRemove, OldTags: []string{"age-7"}},
	}
	if err := s.FinishTagRun(ctx, run); err != nil {
		t.Fatalf("FinishTagRun: %v", err)
	}

	got, err = s.GetTagRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetTagRun: %v", err)
	}
	if got.Status != domain.TagRunCompleted || !got.DryRun || got.TriggerID != run.TriggerID {
		t.Errorf("unexpected run header: %+v", got)
	}
	if got.Scanned != 4 || got.Resolved != 2 || got.Unknown != 1 || got.Changed != 2 || got.Failed != 1 {
		t.Errorf("unexpected totals: %+v", got)
	}
	if got.Duration() != 3*time.Second {
		t.Errorf("duration = %v", got.Duration())
	}
	if len(got.Changes) != 2 {
		t.Fatalf("changes = %d, want 2", len(got.Changes))
	}

	first := got.Changes[0]
	if first.RunID != "run-1" || first.NewTag != "age-16" || first.Age == nil || *first.Age != 16 || first.Region != "FR" {
		t.Errorf("unexpected first change: %+v", first)
	}
	if !slices.Equal(first.OldTags, []string{"age-12"}) {
		t.Errorf("old tags = %v", first.OldTags)
	}
	second := got.Changes[1]
	if second.Action != domain.TagActionRemove || second.Age != nil || second.NewTag != "" {
		t.Errorf("unexpected second change: %+v", second)
	}
}

func TestFinishTagRun_NotFound(t *testing.T) {
	s := newTestStore(t)

	err := s.FinishTagRun(context.Background(), &domain.TagRun{ID: "ghost", Status: domain.TagRunCompleted})
	if !errors.Is(err, domainerrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListTagRuns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-a", "run-b", "run-c"} {
		run := &domain.TagRun{ID: id, Status: domain.TagRunCompleted, StartedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := s.CreateTagRun(ctx, run); err != nil {
			t.Fatalf("CreateTagRun %s: %v", id, err)
		}
	}

	runs, err := s.ListTagRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListTagRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "run-c" || runs[1].ID != "run-b" {
		t.Errorf("unexpected runs: %v, %v", runs[0].ID, runs[1].ID)
	}

	all, err := s.ListTagRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListTagRuns default: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("len = %d, want 3", len(all))
	}
}

func TestAbortStaleRuns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	if err := s.CreateTagRun(ctx, &domain.TagRun{ID: "run-1", Status: domain.TagRunRunning, StartedAt: now}); err != nil {
		t.Fatalf("CreateTagRun: %v", err)
	}
	if err := s.CreateTagRun(ctx, &domain.TagRun{ID: "run-2", Status: domain.TagRunCompleted, StartedAt: now}); err != nil {
		t.Fatalf("CreateTagRun: %v", err)
	}

	n, err := s.AbortStaleRuns(ctx, "server restarted", now.Add(time.Hour))
	if err != nil {
		t.Fatalf("AbortStaleRuns: %v", err)
	}
	if n != 1 {
		t.Errorf("aborted %d runs, want 1", n)
	}

	run, err := s.GetTagRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetTagRun: %v", err)
	}
	if run.Status != domain.TagRunAborted || run.Error != "server restarted" || run.FinishedAt == nil {
		t.Errorf("unexpected run: %+v", run)
	}
}
