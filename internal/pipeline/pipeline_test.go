// ABOUTME: End-to-end tests for the upload processing pipeline
// ABOUTME: Workbook fixtures in, persisted averages and PNG artifacts out

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/yujung915/research-manager/internal/ingest"
	"github.com/yujung915/research-manager/internal/store"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

type fixture struct {
	pipeline   *Pipeline
	store      *store.SQLiteStore
	ownerID    string
	reactionID string
}

func setupPipeline(t *testing.T) *fixture {
	t.Helper()

	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	ownerID := uuid.NewString()
	require.NoError(t, s.CreateUser(ctx, &store.User{
		ID:           ownerID,
		Username:     "researcher",
		PasswordHash: "irrelevant-here",
		CreatedAt:    time.Now().UTC(),
	}))

	synthesisID := uuid.NewString()
	require.NoError(t, s.CreateSynthesis(ctx, &store.Synthesis{
		ID:        synthesisID,
		OwnerID:   ownerID,
		Date:      time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		Name:      "ZSM-5 batch 12",
		Amount:    1.5,
		CreatedAt: time.Now().UTC(),
	}))

	reactionID := uuid.NewString()
	require.NoError(t, s.CreateReaction(ctx, &store.Reaction{
		ID:             reactionID,
		OwnerID:        ownerID,
		SynthesisID:    synthesisID,
		Date:           time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		Temperature:    550,
		CatalystAmount: 0.3,
		CreatedAt:      time.Now().UTC(),
	}))

	return &fixture{pipeline: New(s), store: s, ownerID: ownerID, reactionID: reactionID}
}

// workbook builds an in-memory .xlsx with the given header row and numeric
// data rows.
func workbook(t *testing.T, headers []string, rows [][]float64) *bytes.Reader {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	for c, h := range headers {
		cell, err := excelize.CoordinatesToCellName(c+1, 1)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue(sheet, cell, h))
	}
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return bytes.NewReader(buf.Bytes())
}

func measurementHeaders() []string {
	return []string{ingest.TimeColumn, ingest.DoDHColumn}
}

// constantRows produces n samples at time 0..n-1 hours, all with the same
// DoDH value.
func constantRows(n int, dodh float64) [][]float64 {
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = []float64{float64(i), dodh}
	}
	return rows
}

func TestRun_PersistsResult(t *testing.T) {
	fx := setupPipeline(t)
	ctx := context.Background()

	// 20 rows at times 0..19; the t=0 row falls to the threshold filter.
	wb := workbook(t, measurementHeaders(), constantRows(20, 50.0))
	summary, err := fx.pipeline.Run(ctx, fx.ownerID, fx.reactionID, wb)
	require.NoError(t, err)

	assert.InDelta(t, 50.0, summary.Average, 1e-9)
	assert.True(t, bytes.HasPrefix(summary.Graph, pngMagic), "graph should be a PNG")

	stored, err := fx.store.GetResult(ctx, fx.reactionID)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, stored.AverageDoDH, 1e-9)
	assert.Equal(t, summary.Graph, stored.Graph)
	assert.Equal(t, fx.ownerID, stored.OwnerID)
}

func TestRun_ReuploadReplacesResult(t *testing.T) {
	fx := setupPipeline(t)
	ctx := context.Background()

	_, err := fx.pipeline.Run(ctx, fx.ownerID, fx.reactionID, workbook(t, measurementHeaders(), constantRows(20, 50.0)))
	require.NoError(t, err)

	second, err := fx.pipeline.Run(ctx, fx.ownerID, fx.reactionID, workbook(t, measurementHeaders(), constantRows(20, 80.0)))
	require.NoError(t, err)

	stored, err := fx.store.GetResult(ctx, fx.reactionID)
	require.NoError(t, err)
	assert.InDelta(t, 80.0, stored.AverageDoDH, 1e-9, "latest upload wins, no blending")
	assert.Equal(t, second.Graph, stored.Graph)
}

func TestRun_InsufficientSamples(t *testing.T) {
	fx := setupPipeline(t)
	ctx := context.Background()

	rows := [][]float64{{1, 50}, {2, 51}, {3, 49}, {4, 50}, {5, 50}}
	_, err := fx.pipeline.Run(ctx, fx.ownerID, fx.reactionID, workbook(t, measurementHeaders(), rows))

	require.Error(t, err)
	assert.Equal(t, CodeInsufficientData, CodeOf(err))
	assert.True(t, IsDataFault(err))

	_, err = fx.store.GetResult(ctx, fx.reactionID)
	assert.ErrorIs(t, err, store.ErrNotFound, "failed run must not persist anything")
}

func TestRun_EmptyAfterFilter(t *testing.T) {
	fx := setupPipeline(t)
	ctx := context.Background()

	rows := [][]float64{{0, 50}, {0.25, 49}, {0.5, 51}, {0.75, 50}}
	_, err := fx.pipeline.Run(ctx, fx.ownerID, fx.reactionID, workbook(t, measurementHeaders(), rows))

	require.Error(t, err)
	assert.Equal(t, CodeEmptyData, CodeOf(err))

	_, err = fx.store.GetResult(ctx, fx.reactionID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRun_MissingMetricColumn(t *testing.T) {
	fx := setupPipeline(t)
	ctx := context.Background()

	wb := workbook(t, []string{ingest.TimeColumn, "Selectivity(%)"}, constantRows(20, 50.0))
	_, err := fx.pipeline.Run(ctx, fx.ownerID, fx.reactionID, wb)

	require.Error(t, err)
	assert.Equal(t, CodeValidation, CodeOf(err))
	assert.Contains(t, err.Error(), ingest.DoDHColumn)

	_, err = fx.store.GetResult(ctx, fx.reactionID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRun_NotAWorkbook(t *testing.T) {
	fx := setupPipeline(t)
	ctx := context.Background()

	_, err := fx.pipeline.Run(ctx, fx.ownerID, fx.reactionID, bytes.NewReader([]byte("time,dodh\n1,50\n")))

	require.Error(t, err)
	assert.Equal(t, CodeValidation, CodeOf(err))
}

func TestRun_UnknownReaction(t *testing.T) {
	fx := setupPipeline(t)
	ctx := context.Background()

	wb := workbook(t, measurementHeaders(), constantRows(20, 50.0))
	_, err := fx.pipeline.Run(ctx, fx.ownerID, uuid.NewString(), wb)

	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.False(t, IsDataFault(err))
}

func TestRun_ReactionOwnedByOther(t *testing.T) {
	fx := setupPipeline(t)
	ctx := context.Background()

	otherID := uuid.NewString()
	require.NoError(t, fx.store.CreateUser(ctx, &store.User{
		ID:           otherID,
		Username:     "someone-else",
		PasswordHash: "irrelevant-here",
		CreatedAt:    time.Now().UTC(),
	}))

	wb := workbook(t, measurementHeaders(), constantRows(20, 50.0))
	_, err := fx.pipeline.Run(ctx, otherID, fx.reactionID, wb)

	assert.ErrorIs(t, err, store.ErrNotFound, "foreign reactions look absent")

	_, err = fx.store.GetResult(ctx, fx.reactionID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAnalyze(t *testing.T) {
	wb := workbook(t, measurementHeaders(), constantRows(20, 50.0))

	analysis, err := Analyze(wb)
	require.NoError(t, err)

	assert.InDelta(t, 50.0, analysis.Average, 1e-9)
	assert.Equal(t, 20, analysis.Parsed)
	assert.Len(t, analysis.Time, 19, "t=0 sample filtered out")
	assert.Len(t, analysis.Smoothed, 19)
	assert.InDelta(t, 1.0, analysis.Time[0], 1e-9)
	assert.True(t, bytes.HasPrefix(analysis.Graph, pngMagic))
}

func TestCodeOf(t *testing.T) {
	re := &RunError{Code: CodeValidation, Stage: StageIngest, Message: "required column missing"}

	assert.Equal(t, CodeValidation, CodeOf(re))
	assert.Equal(t, CodeValidation, CodeOf(fmt.Errorf("handling upload: %w", re)))
	assert.Equal(t, Code(""), CodeOf(errors.New("plain")))
	assert.Equal(t, Code(""), CodeOf(nil))
}

func TestIsDataFault(t *testing.T) {
	assert.True(t, IsDataFault(&RunError{Code: CodeEmptyData}))
	assert.True(t, IsDataFault(&RunError{Code: CodeInsufficientData}))
	assert.False(t, IsDataFault(&RunError{Code: CodeInternal, Err: errors.New("disk full")}))
	assert.False(t, IsDataFault(errors.New("plain")))
}

func TestRunErrorMessage(t *testing.T) {
	re := &RunError{Code: CodeEmptyData, Stage: StageProcess, Message: "no samples past threshold"}
	assert.Equal(t, "EMPTY_DATA: no samples past threshold (stage=process)", re.Error())

	bare := &RunError{Code: CodeInternal, Message: "disk full"}
	assert.Equal(t, "INTERNAL: disk full", bare.Error())
}
