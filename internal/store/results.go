// ABOUTME: Result persistence with a one-row-per-reaction upsert
// ABOUTME: Stores the average DoDH and the rendered chart PNG together

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// UpsertResult stores the processed outcome for a reaction. The results table
// holds at most one row per reaction_id: a repeat upload replaces the stored
// average and graph in place, keeping the original row id. Average and graph
// always land together in a single statement.
func (s *SQLiteStore) UpsertResult(ctx context.Context, res *Result) error {
	if res.ReactionID == "" {
		return fmt.Errorf("%w: reaction id is required", ErrInvalid)
	}
	if len(res.Graph) == 0 {
		return fmt.Errorf("%w: graph is required", ErrInvalid)
	}

	query := `
		INSERT INTO results (id, reaction_id, owner_id, graph, average_dodh, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(reaction_id) DO UPDATE SET
			owner_id = excluded.owner_id,
			graph = excluded.graph,
			average_dodh = excluded.average_dodh,
			updated_at = excluded.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		res.ID,
		res.ReactionID,
		res.OwnerID,
		res.Graph,
		res.AverageDoDH,
		res.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting result: %w", err)
	}

	s.logger.Debug("upserted result", "reaction_id", res.ReactionID, "average", res.AverageDoDH, "graph_bytes", len(res.Graph))
	return nil
}

// GetResult retrieves the stored result for a reaction.
// Returns ErrNotFound if no result has been uploaded yet.
func (s *SQLiteStore) GetResult(ctx context.Context, reactionID string) (*Result, error) {
	query := `
		SELECT id, reaction_id, owner_id, graph, average_dodh, updated_at
		FROM results
		WHERE reaction_id = ?
	`

	var res Result
	var updatedAtStr string

	err := s.db.QueryRowContext(ctx, query, reactionID).Scan(
		&res.ID,
		&res.ReactionID,
		&res.OwnerID,
		&res.Graph,
		&res.AverageDoDH,
		&updatedAtStr,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying result: %w", err)
	}

	res.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &res, nil
}
