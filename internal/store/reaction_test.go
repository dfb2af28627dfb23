package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// addReaction inserts a reaction fixture against the given synthesis.
func addReaction(t *testing.T, s *SQLiteStore, ownerID, synthesisID string) string {
	t.Helper()
	rxn := &Reaction{
		ID:             uuid.NewString(),
		OwnerID:        ownerID,
		SynthesisID:    synthesisID,
		Date:           mustDate(t, "2026-03-20"),
		Temperature:    550,
		CatalystAmount: 0.3,
		Memo:           "WHSV 2.0",
		CreatedAt:      time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, s.CreateReaction(context.Background(), rxn))
	return rxn.ID
}

func TestStore_CreateReaction(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	synID := addSynthesis(t, store, "alice", "Pt-Sn/Al2O3")
	rxnID := addReaction(t, store, "alice", synID)

	got, err := store.GetReaction(ctx, rxnID)
	require.NoError(t, err)
	assert.Equal(t, synID, got.SynthesisID)
	assert.Equal(t, 550.0, got.Temperature)
	assert.Equal(t, 0.3, got.CatalystAmount)
	assert.Equal(t, "WHSV 2.0", got.Memo)
}

func TestStore_CreateReaction_SynthesisMissing(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	err := store.CreateReaction(ctx, &Reaction{
		ID:          "rxn-1",
		OwnerID:     "alice",
		SynthesisID: "no-such-synthesis",
		Date:        mustDate(t, "2026-03-20"),
		CreatedAt:   time.Now().UTC(),
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_CreateReaction_SynthesisOwnedByOther(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	synID := addSynthesis(t, store, "bob", "bob's catalyst")

	err := store.CreateReaction(ctx, &Reaction{
		ID:          "rxn-1",
		OwnerID:     "alice",
		SynthesisID: synID,
		Date:        mustDate(t, "2026-03-20"),
		CreatedAt:   time.Now().UTC(),
	})
	assert.ErrorIs(t, err, ErrNotFound, "another user's synthesis should look absent")
}

func TestStore_CreateReaction_Invalid(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	synID := addSynthesis(t, store, "alice", "valid synthesis")

	err := store.CreateReaction(ctx, &Reaction{
		ID:          "rxn-neg",
		OwnerID:     "alice",
		SynthesisID: synID,
		Date:        mustDate(t, "2026-03-20"),
		Temperature: -10,
		CreatedAt:   time.Now().UTC(),
	})
	assert.ErrorIs(t, err, ErrInvalid)

	err = store.CreateReaction(ctx, &Reaction{
		ID:             "rxn-neg2",
		OwnerID:        "alice",
		SynthesisID:    synID,
		Date:           mustDate(t, "2026-03-20"),
		CatalystAmount: -0.1,
		CreatedAt:      time.Now().UTC(),
	})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestStore_ListReactions_JoinsSynthesis(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	synID := addSynthesis(t, store, "alice", "Pt/Al2O3 batch 4")
	addReaction(t, store, "alice", synID)

	// Another user's reaction must not appear
	otherSyn := addSynthesis(t, store, "bob", "bob's catalyst")
	addReaction(t, store, "bob", otherSyn)

	list, err := store.ListReactions(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Pt/Al2O3 batch 4", list[0].SynthesisName)
	assert.Equal(t, "2026-03-14", list[0].SynthesisDate.Format("2006-01-02"))
	assert.Equal(t, 550.0, list[0].Temperature)
}

func TestStore_DeleteSynthesis_ReactionSurvives(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	synID := addSynthesis(t, store, "alice", "short-lived synthesis")
	rxnID := addReaction(t, store, "alice", synID)

	require.NoError(t, store.DeleteSynthesis(ctx, synID))

	// The reaction row is untouched by the parent delete
	rxn, err := store.GetReaction(ctx, rxnID)
	require.NoError(t, err)
	assert.Equal(t, synID, rxn.SynthesisID)

	// But it drops out of the joined list view
	list, err := store.ListReactions(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestStore_DeleteReaction(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	synID := addSynthesis(t, store, "alice", "catalyst")
	rxnID := addReaction(t, store, "alice", synID)

	require.NoError(t, store.DeleteReaction(ctx, rxnID))

	_, err := store.GetReaction(ctx, rxnID)
	assert.ErrorIs(t, err, ErrNotFound)

	err = store.DeleteReaction(ctx, rxnID)
	assert.ErrorIs(t, err, ErrNotFound)
}
