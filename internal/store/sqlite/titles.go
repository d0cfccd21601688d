package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/listenupapp/agetags-server/internal/agerules"
	"github.com/listenupapp/agetags-server/internal/domain"
	domainerrors "github.com/listenupapp/agetags-server/internal/errors"
)

// titleColumns is the ordered list of columns selected in title queries.
// Must match the scan order in scanTitle.
const titleColumns = `id, kind, tmdb_id, name, created_at, updated_at`

// scanTitle scans a sql.Row (or sql.Rows via its Scan method) into a domain.Title.
// Tags are loaded separately.
func scanTitle(scanner interface{ Scan(dest ...any) error }) (*domain.Title, error) {
	var (
		t         domain.Title
		kind      string
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(
		&t.ID,
		&kind,
		&t.TMDBID,
		&t.Name,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Kind = agerules.Kind(kind)
	t.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	t.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	t.Tags = []string{}

	return &t, nil
}

// CreateTitle inserts a title and its tags.
// Returns domainerrors.ErrAlreadyExists when the (kind, tmdb_id) pair is taken.
func (s *Store) CreateTitle(ctx context.Context, t *domain.Title) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO titles (id, kind, tmdb_id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID,
		string(t.Kind),
		t.TMDBID,
		t.Name,
		formatTime(t.CreatedAt),
		formatTime(t.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domainerrors.AlreadyExistsf("%s %d is already in the catalog", t.Kind, t.TMDBID)
		}
		return err
	}

	if err := insertTitleTags(ctx, tx, t.ID, t.Tags); err != nil {
		return err
	}

	return tx.Commit()
}

// GetTitle retrieves a title with its tags.
// Returns domainerrors.ErrNotFound if the title does not exist.
func (s *Store) GetTitle(ctx context.Context, titleID string) (*domain.Title, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+titleColumns+` FROM titles WHERE id = ?`, titleID)

	t, err := scanTitle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainerrors.NotFoundf("title %s not found", titleID)
	}
	if err != nil {
		return nil, err
	}

	tags, err := s.titleTags(ctx, titleID)
	if err != nil {
		return nil, err
	}
	t.Tags = tags

	return t, nil
}

// ListTitles returns every title with its tags, ordered by name.
func (s *Store) ListTitles(ctx context.Context) ([]*domain.Title, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+titleColumns+` FROM titles ORDER BY name COLLATE NOCASE ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	titles := []*domain.Title{}
	byID := make(map[string]*domain.Title)
	for rows.Next() {
		t, err := scanTitle(rows)
		if err != nil {
			return nil, err
		}
		titles = append(titles, t)
		byID[t.ID] = t
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// One query for all tags instead of one per title.
	tagRows, err := s.db.QueryContext(ctx,
		`SELECT title_id, tag FROM title_tags ORDER BY title_id, position`)
	if err != nil {
		return nil, err
	}
	defer tagRows.Close()

	for tagRows.Next() {
		var titleID, tag string
		if err := tagRows.Scan(&titleID, &tag); err != nil {
			return nil, err
		}
		if t, ok := byID[titleID]; ok {
			t.Tags = append(t.Tags, tag)
		}
	}
	if err := tagRows.Err(); err != nil {
		return nil, err
	}

	return titles, nil
}

// CountTitles returns the number of titles in the catalog.
func (s *Store) CountTitles(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM titles`).Scan(&n)
	return n, err
}

// DeleteTitle removes a title and its tags.
// Returns domainerrors.ErrNotFound if the title does not exist.
func (s *Store) DeleteTitle(ctx context.Context, titleID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM titles WHERE id = ?`, titleID)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domainerrors.NotFoundf("title %s not found", titleID)
	}
	return nil
}

// SetTitleTags replaces all tags for a title in a single transaction.
// Returns domainerrors.ErrNotFound if the title does not exist.
func (s *Store) SetTitleTags(ctx context.Context, titleID string, tags []string, updatedAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE titles SET updated_at = ? WHERE id = ?`, formatTime(updatedAt), titleID)
	if err != nil {
		return fmt.Errorf("touch title: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return domainerrors.NotFoundf("title %s not found", titleID)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM title_tags WHERE title_id = ?`, titleID); err != nil {
		return fmt.Errorf("delete title_tags: %w", err)
	}
	if err := insertTitleTags(ctx, tx, titleID, tags); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) titleTags(ctx context.Context, titleID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT tag FROM title_tags WHERE title_id = ? ORDER BY position`, titleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := []string{}
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

// insertTitleTags writes tags in order. Duplicate tags are stored once.
func insertTitleTags(ctx context.Context, tx *sql.Tx, titleID string, tags []string) error {
	for i, tag := range tags {
		_, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO title_tags (title_id, tag, position)
			VALUES (?, ?, ?)`,
			titleID,
			tag,
			i,
		)
		if err != nil {
			return fmt.Errorf("insert title_tag: %w", err)
		}
	}
	return nil
}
