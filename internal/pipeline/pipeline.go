// ABOUTME: Runs an uploaded workbook end to end and persists the outcome
// ABOUTME: Parse, filter, smooth, render, then one upsert per reaction

// Package pipeline ties the processing stages together.
//
// A run is ingest, process, render, persist, strictly in that order. The
// first failing stage aborts the whole run; nothing is partially written.
// Failures surface as a closed set of coded errors so callers can tell a
// bad upload from a broken system without string matching.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/yujung915/research-manager/internal/ingest"
	"github.com/yujung915/research-manager/internal/render"
	"github.com/yujung915/research-manager/internal/signal"
	"github.com/yujung915/research-manager/internal/store"
)

// Code categorizes run failures.
type Code string

const (
	// CodeValidation means the upload itself is unusable: not a workbook,
	// or a required column is missing.
	CodeValidation Code = "VALIDATION"

	// CodeEmptyData means no samples survived the stabilization filter.
	CodeEmptyData Code = "EMPTY_DATA"

	// CodeInsufficientData means too few samples survived to smooth.
	CodeInsufficientData Code = "INSUFFICIENT_DATA"

	// CodeInternal covers unanticipated faults. The cause is retained.
	CodeInternal Code = "INTERNAL"
)

// Stages, in run order.
const (
	StageIngest  = "ingest"
	StageProcess = "process"
	StageRender  = "render"
	StagePersist = "persist"
)

// RunError is a failed pipeline run with the stage that failed and a code
// the HTTP layer can map to a status without inspecting messages.
type RunError struct {
	Code    Code
	Stage   string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *RunError) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("%s: %s (stage=%s)", e.Code, e.Message, e.Stage)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is and errors.As.
func (e *RunError) Unwrap() error {
	return e.Err
}

// CodeOf returns the failure code carried by err, or "" when err is not a
// RunError. Uses errors.As to handle wrapped errors.
func CodeOf(err error) Code {
	var re *RunError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// IsDataFault reports whether the error is the uploader's data rather than
// the system: unusable workbook, empty or short series.
func IsDataFault(err error) bool {
	var re *RunError
	if errors.As(err, &re) {
		return re.Code != CodeInternal
	}
	return false
}

// classify wraps a stage failure, mapping known sentinels to their codes.
// Anything unrecognized is an internal fault; the cause is never dropped.
func classify(stage string, err error) *RunError {
	code := CodeInternal
	switch {
	case errors.Is(err, ingest.ErrBadWorkbook), errors.Is(err, ingest.ErrMissingColumn):
		code = CodeValidation
	case errors.Is(err, signal.ErrEmptyData):
		code = CodeEmptyData
	case errors.Is(err, signal.ErrInsufficientData):
		code = CodeInsufficientData
	}
	return &RunError{Code: code, Stage: stage, Message: err.Error(), Err: err}
}

// Analysis is the outcome of processing one uploaded workbook.
type Analysis struct {
	Average  float64   // mean DoDH of the retained unsmoothed samples
	Time     []float64 // retained time-on-stream values, hours
	Smoothed []float64 // display curve, aligned with Time
	Graph    []byte    // rendered PNG
	Parsed   int       // rows parsed from the sheet before filtering
}

// Analyze runs the stateless stages on one workbook: parse, filter, smooth,
// render. It touches no storage; Run persists the outcome. Useful on its
// own for checking a file before an instrument run is registered.
func Analyze(r io.Reader) (*Analysis, error) {
	series, err := ingest.Parse(r)
	if err != nil {
		return nil, classify(StageIngest, err)
	}

	processed, err := signal.Process(series.Time, series.DoDH)
	if err != nil {
		return nil, classify(StageProcess, err)
	}

	graph, err := render.Render(processed.Time, processed.Smoothed)
	if err != nil {
		return nil, classify(StageRender, err)
	}

	return &Analysis{
		Average:  processed.Average,
		Time:     processed.Time,
		Smoothed: processed.Smoothed,
		Graph:    graph,
		Parsed:   series.Len(),
	}, nil
}

// Pipeline persists analysis outcomes for reactions in a store.
type Pipeline struct {
	store  store.Store
	logger *slog.Logger
}

// New creates a Pipeline backed by the given store.
func New(st store.Store) *Pipeline {
	return &Pipeline{
		store:  st,
		logger: slog.Default().With("component", "pipeline"),
	}
}

// Summary is what a completed run reports back to the caller.
type Summary struct {
	Average float64
	Graph   []byte
}

// Run processes one uploaded workbook for a reaction and upserts the stored
// result, converging on exactly one result row per reaction. The reaction
// must exist and belong to ownerID; a miss on either is store.ErrNotFound,
// indistinguishable to the caller.
func (p *Pipeline) Run(ctx context.Context, ownerID, reactionID string, upload io.Reader) (*Summary, error) {
	reaction, err := p.store.GetReaction(ctx, reactionID)
	if err != nil {
		return nil, fmt.Errorf("looking up reaction: %w", err)
	}
	if reaction.OwnerID != ownerID {
		return nil, fmt.Errorf("reaction %s: %w", reactionID, store.ErrNotFound)
	}

	analysis, err := Analyze(upload)
	if err != nil {
		return nil, err
	}

	result := &store.Result{
		ID:          uuid.NewString(),
		ReactionID:  reactionID,
		OwnerID:     ownerID,
		AverageDoDH: analysis.Average,
		Graph:       analysis.Graph,
		UpdatedAt:   time.Now().UTC(),
	}
	if err := p.store.UpsertResult(ctx, result); err != nil {
		return nil, classify(StagePersist, err)
	}

	p.logger.Info("Stored reaction result",
		"reaction_id", reactionID,
		"average_dodh", analysis.Average,
		"samples_kept", len(analysis.Time),
		"samples_parsed", analysis.Parsed)

	return &Summary{Average: analysis.Average, Graph: analysis.Graph}, nil
}
