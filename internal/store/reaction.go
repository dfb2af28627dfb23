// ABOUTME: Reaction trial CRUD against the reaction table
// ABOUTME: Listing joins the parent synthesis; deletes never cascade to results

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CreateReaction records a new reaction trial. The referenced synthesis must
// exist and belong to the same owner; a reaction never points at another
// user's catalyst. Field validation happens before anything is written.
func (s *SQLiteStore) CreateReaction(ctx context.Context, rxn *Reaction) error {
	if rxn.SynthesisID == "" {
		return fmt.Errorf("%w: synthesis id is required", ErrInvalid)
	}
	if rxn.Temperature < 0 {
		return fmt.Errorf("%w: temperature must not be negative", ErrInvalid)
	}
	if rxn.CatalystAmount < 0 {
		return fmt.Errorf("%w: catalyst amount must not be negative", ErrInvalid)
	}

	syn, err := s.GetSynthesis(ctx, rxn.SynthesisID)
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("synthesis %s: %w", rxn.SynthesisID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("checking synthesis: %w", err)
	}
	if syn.OwnerID != rxn.OwnerID {
		// Owned by someone else; indistinguishable from absent.
		return fmt.Errorf("synthesis %s: %w", rxn.SynthesisID, ErrNotFound)
	}

	query := `
		INSERT INTO reaction (id, owner_id, synthesis_id, date, temperature, catalyst_amount, memo, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		rxn.ID,
		rxn.OwnerID,
		rxn.SynthesisID,
		rxn.Date.UTC().Format(dateFormat),
		rxn.Temperature,
		rxn.CatalystAmount,
		nullString(rxn.Memo),
		rxn.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting reaction: %w", err)
	}

	s.logger.Debug("created reaction", "id", rxn.ID, "owner", rxn.OwnerID, "synthesis", rxn.SynthesisID)
	return nil
}

// GetReaction retrieves a reaction by ID.
// Returns ErrNotFound if it doesn't exist.
func (s *SQLiteStore) GetReaction(ctx context.Context, id string) (*Reaction, error) {
	query := `
		SELECT id, owner_id, synthesis_id, date, temperature, catalyst_amount, memo, created_at
		FROM reaction
		WHERE id = ?
	`

	var rxn Reaction
	var dateStr, createdAtStr string
	var memo sql.NullString

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&rxn.ID,
		&rxn.OwnerID,
		&rxn.SynthesisID,
		&dateStr,
		&rxn.Temperature,
		&rxn.CatalystAmount,
		&memo,
		&createdAtStr,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying reaction: %w", err)
	}

	rxn.Memo = memo.String

	rxn.Date, err = time.Parse(dateFormat, dateStr)
	if err != nil {
		return nil, fmt.Errorf("parsing date: %w", err)
	}
	rxn.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	return &rxn, nil
}

// ListReactions returns the owner's reaction trials joined with the parent
// synthesis name and date, newest first. Reactions whose synthesis has been
// deleted drop out of this view; the rows themselves survive and stay
// reachable through GetReaction.
func (s *SQLiteStore) ListReactions(ctx context.Context, ownerID string) ([]*ReactionDetail, error) {
	query := `
		SELECT r.id, r.owner_id, r.synthesis_id, r.date, r.temperature, r.catalyst_amount, r.memo, r.created_at,
		       s.name, s.date
		FROM reaction r
		JOIN synthesis s ON r.synthesis_id = s.id
		WHERE r.owner_id = ?
		ORDER BY r.date DESC, r.created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("querying reactions: %w", err)
	}
	defer rows.Close()

	var reactions []*ReactionDetail
	for rows.Next() {
		var d ReactionDetail
		var dateStr, createdAtStr, synDateStr string
		var memo sql.NullString

		if err := rows.Scan(
			&d.ID,
			&d.OwnerID,
			&d.SynthesisID,
			&dateStr,
			&d.Temperature,
			&d.CatalystAmount,
			&memo,
			&createdAtStr,
			&d.SynthesisName,
			&synDateStr,
		); err != nil {
			return nil, fmt.Errorf("scanning reaction row: %w", err)
		}

		d.Memo = memo.String

		d.Date, err = time.Parse(dateFormat, dateStr)
		if err != nil {
			return nil, fmt.Errorf("parsing date: %w", err)
		}
		d.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		d.SynthesisDate, err = time.Parse(dateFormat, synDateStr)
		if err != nil {
			return nil, fmt.Errorf("parsing synthesis date: %w", err)
		}

		reactions = append(reactions, &d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reaction rows: %w", err)
	}

	return reactions, nil
}

// DeleteReaction removes a reaction by ID. Any stored result for it is left
// untouched. Returns ErrNotFound if no row was deleted.
func (s *SQLiteStore) DeleteReaction(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM reaction WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting reaction: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	s.logger.Debug("deleted reaction", "id", id)
	return nil
}
