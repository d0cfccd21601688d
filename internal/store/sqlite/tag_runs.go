package sqlite

import (
	"context"
	"database/sql"
	"encoding/json/v2"
	"errors"
	"fmt"
	"time"

	"github.com/listenupapp/agetags-server/internal/domain"
	domainerrors "github.com/listenupapp/agetags-server/internal/errors"
)

// DefaultRunHistoryLimit caps ListTagRuns when no positive limit is given.
const DefaultRunHistoryLimit = 20

const tagRunColumns = `id, trigger_id, dry_run, status, error, scanned, resolved, unknown, changed, failed, started_at, finished_at`

func scanTagRun(scanner interface{ Scan(dest ...any) error }) (*domain.TagRun, error) {
	var (
		r          domain.TagRun
		triggerID  sql.NullString
		dryRun     int
		status     string
		errMsg     sql.NullString
		startedAt  string
		finishedAt sql.NullString
	)

	err := scanner.Scan(
		&r.ID,
		&triggerID,
		&dryRun,
		&status,
		&errMsg,
		&r.Scanned,
		&r.Resolved,
		&r.Unknown,
		&r.Changed,
		&r.Failed,
		&startedAt,
		&finishedAt,
	)
	if err != nil {
		return nil, err
	}

	r.TriggerID = triggerID.String
	r.DryRun = dryRun != 0
	r.Status = domain.TagRunStatus(status)
	r.Error = errMsg.String

	r.StartedAt, err = parseTime(startedAt)
	if err != nil {
		return nil, err
	}
	r.FinishedAt, err = parseNullableTime(finishedAt)
	if err != nil {
		return nil, err
	}

	return &r, nil
}

// CreateTagRun records the start of a run.
func (s *Store) CreateTagRun(ctx context.Context, r *domain.TagRun) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tag_runs (id, trigger_id, dry_run, status, error, started_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID,
		nullString(r.TriggerID),
		boolToInt(r.DryRun),
		string(r.Status),
		nullString(r.Error),
		formatTime(r.StartedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domainerrors.AlreadyExistsf("run %s already exists", r.ID)
		}
		return err
	}
	return nil
}

// FinishTagRun stores the final status, totals and changes of a run in one transaction.
func (s *Store) FinishTagRun(ctx context.Context, r *domain.TagRun) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE tag_runs
		SET status = ?, error = ?, scanned = ?, resolved = ?, unknown = ?, changed = ?, failed = ?, finished_at = ?
		WHERE id = ?`,
		string(r.Status),
		nullString(r.Error),
		r.Scanned,
		r.Resolved,
		r.Unknown,
		r.Changed,
		r.Failed,
		nullTimeString(r.FinishedAt),
		r.ID,
	)
	if err != nil {
		return fmt.Errorf("update tag_run: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return domainerrors.NotFoundf("run %s not found", r.ID)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM tag_changes WHERE run_id = ?`, r.ID); err != nil {
		return fmt.Errorf("delete tag_changes: %w", err)
	}

	for i, c := range r.Changes {
		var oldTags sql.NullString
		if len(c.OldTags) > 0 {
			data, err := json.Marshal(c.OldTags)
			if err != nil {
				return fmt.Errorf("marshal old tags: %w", err)
			}
			oldTags = sql.NullString{String: string(data), Valid: true}
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO tag_changes (run_id, seq, title_id, title_name, action, old_tags, new_tag, age, region, certification, applied)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID,
			i,
			c.TitleID,
			c.TitleName,
			string(c.Action),
			oldTags,
			nullString(c.NewTag),
			nullIntPtr(c.Age),
			nullString(c.Region),
			nullString(c.Certification),
			boolToInt(c.Applied),
		)
		if err != nil {
			return fmt.Errorf("insert tag_change: %w", err)
		}
	}

	return tx.Commit()
}

// GetTagRun retrieves a run with its changes.
// Returns domainerrors.ErrNotFound if the run does not exist.
func (s *Store) GetTagRun(ctx context.Context, runID string) (*domain.TagRun, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tagRunColumns+` FROM tag_runs WHERE id = ?`, runID)

	r, err := scanTagRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainerrors.NotFoundf("run %s not found", runID)
	}
	if err != nil {
		return nil, err
	}

	r.Changes, err = s.tagChanges(ctx, runID)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ListTagRuns returns the most recent runs first, without their changes.
func (s *Store) ListTagRuns(ctx context.Context, limit int) ([]*domain.TagRun, error) {
	if limit <= 0 {
		limit = DefaultRunHistoryLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tagRunColumns+` FROM tag_runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []*domain.TagRun{}
	for rows.Next() {
		r, err := scanTagRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// AbortStaleRuns marks runs left in the running state, e.g. by a crash, as aborted.
// Returns the number of runs updated.
func (s *Store) AbortStaleRuns(ctx context.Context, reason string, now time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE tag_runs SET status = ?, error = ?, finished_at = ?
		WHERE status = ?`,
		string(domain.TagRunAborted),
		reason,
		formatTime(now),
		string(domain.TagRunRunning),
	)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	return int(n), err
}

func (s *Store) tagChanges(ctx context.Context, runID string) ([]domain.TagChange, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT title_id, title_name, action, old_tags, new_tag, age, region, certification, applied
		FROM tag_changes WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var changes []domain.TagChange
	for rows.Next() {
		var (
			c             domain.TagChange
			action        string
			oldTags       sql.NullString
			newTag        sql.NullString
			age           sql.NullInt64
			region        sql.NullString
			certification sql.NullString
			applied       int
		)
		if err := rows.Scan(&c.TitleID, &c.TitleName, &action, &oldTags, &newTag, &age, &region, &certification, &applied); err != nil {
			return nil, err
		}

		c.RunID = runID
		c.Action = domain.TagAction(action)
		c.NewTag = newTag.String
		c.Region = region.String
		c.Certification = certification.String
		c.Applied = applied != 0
		if age.Valid {
			v := int(age.Int64)
			c.Age = &v
		}
		if oldTags.Valid {
			if err := json.Unmarshal([]byte(oldTags.String), &c.OldTags); err != nil {
				return nil, fmt.Errorf("unmarshal old tags: %w", err)
			}
		}

		changes = append(changes, c)
	}
	return changes, rows.Err()
}
