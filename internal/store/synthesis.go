// ABOUTME: Synthesis experiment CRUD against the synthesis table
// ABOUTME: List operations are owner-scoped; deletes are by primary key only

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CreateSynthesis records a new synthesis experiment.
// The entity is validated before anything is written: a wrapped ErrInvalid is
// returned for a missing name or a negative amount.
func (s *SQLiteStore) CreateSynthesis(ctx context.Context, syn *Synthesis) error {
	if syn.Name == "" {
		return fmt.Errorf("%w: synthesis name is required", ErrInvalid)
	}
	if syn.Amount < 0 {
		return fmt.Errorf("%w: synthesis amount must not be negative", ErrInvalid)
	}

	query := `
		INSERT INTO synthesis (id, owner_id, date, name, memo, amount, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		syn.ID,
		syn.OwnerID,
		syn.Date.UTC().Format(dateFormat),
		syn.Name,
		nullString(syn.Memo),
		syn.Amount,
		syn.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting synthesis: %w", err)
	}

	s.logger.Debug("created synthesis", "id", syn.ID, "owner", syn.OwnerID, "name", syn.Name)
	return nil
}

// GetSynthesis retrieves a synthesis by ID.
// Returns ErrNotFound if it doesn't exist.
func (s *SQLiteStore) GetSynthesis(ctx context.Context, id string) (*Synthesis, error) {
	query := `
		SELECT id, owner_id, date, name, memo, amount, created_at
		FROM synthesis
		WHERE id = ?
	`

	row := s.db.QueryRowContext(ctx, query, id)
	syn, err := scanSynthesis(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying synthesis: %w", err)
	}
	return syn, nil
}

// ListSyntheses returns the owner's synthesis experiments, newest first.
func (s *SQLiteStore) ListSyntheses(ctx context.Context, ownerID string) ([]*Synthesis, error) {
	query := `
		SELECT id, owner_id, date, name, memo, amount, created_at
		FROM synthesis
		WHERE owner_id = ?
		ORDER BY date DESC, created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("querying syntheses: %w", err)
	}
	defer rows.Close()

	var syntheses []*Synthesis
	for rows.Next() {
		syn, err := scanSynthesis(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning synthesis row: %w", err)
		}
		syntheses = append(syntheses, syn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating synthesis rows: %w", err)
	}

	return syntheses, nil
}

// DeleteSynthesis removes a synthesis by ID. Reactions referencing it are
// left untouched. Returns ErrNotFound if no row was deleted.
func (s *SQLiteStore) DeleteSynthesis(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM synthesis WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting synthesis: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	s.logger.Debug("deleted synthesis", "id", id)
	return nil
}

// scanSynthesis scans one synthesis row via the given Scan func.
func scanSynthesis(scan func(dest ...any) error) (*Synthesis, error) {
	var syn Synthesis
	var dateStr, createdAtStr string
	var memo sql.NullString

	if err := scan(
		&syn.ID,
		&syn.OwnerID,
		&dateStr,
		&syn.Name,
		&memo,
		&syn.Amount,
		&createdAtStr,
	); err != nil {
		return nil, err
	}

	syn.Memo = memo.String

	var err error
	syn.Date, err = time.Parse(dateFormat, dateStr)
	if err != nil {
		return nil, fmt.Errorf("parsing date: %w", err)
	}
	syn.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	return &syn, nil
}
