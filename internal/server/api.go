// ABOUTME: HTTP API handlers for synthesis, reaction, and result operations
// ABOUTME: JSON request/response types and their status-code error mapping

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/yujung915/research-manager/internal/auth"
	"github.com/yujung915/research-manager/internal/pipeline"
	"github.com/yujung915/research-manager/internal/store"
)

// dateLayout is the wire format for lab notebook dates.
const dateLayout = "2006-01-02"

// SignupRequest is the JSON request body for POST /api/signup.
type SignupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest is the JSON request body for POST /api/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserResponse is the JSON response for POST /api/signup.
type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// LoginResponse is the JSON response for POST /api/login.
type LoginResponse struct {
	Token    string `json:"token"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// CreateSynthesisRequest is the JSON request body for POST /api/synthesis.
type CreateSynthesisRequest struct {
	Date   string  `json:"date"` // YYYY-MM-DD
	Name   string  `json:"name"`
	Memo   string  `json:"memo,omitempty"`
	Amount float64 `json:"amount"` // grams
}

// SynthesisResponse is the JSON representation of a catalyst synthesis.
type SynthesisResponse struct {
	ID        string  `json:"id"`
	Date      string  `json:"date"`
	Name      string  `json:"name"`
	Memo      string  `json:"memo,omitempty"`
	Amount    float64 `json:"amount"`
	CreatedAt string  `json:"created_at"`
}

// ListSynthesesResponse is the JSON response for GET /api/synthesis.
type ListSynthesesResponse struct {
	Syntheses []SynthesisResponse `json:"syntheses"`
}

// CreateReactionRequest is the JSON request body for POST /api/reactions.
type CreateReactionRequest struct {
	SynthesisID    string  `json:"synthesis_id"`
	Date           string  `json:"date"` // YYYY-MM-DD
	Temperature    float64 `json:"temperature"`     // Celsius
	CatalystAmount float64 `json:"catalyst_amount"` // grams
	Memo           string  `json:"memo,omitempty"`
}

// ReactionResponse is the JSON representation of a reaction run. The
// synthesis columns are filled from the join on list responses.
type ReactionResponse struct {
	ID             string  `json:"id"`
	SynthesisID    string  `json:"synthesis_id"`
	Date           string  `json:"date"`
	Temperature    float64 `json:"temperature"`
	CatalystAmount float64 `json:"catalyst_amount"`
	Memo           string  `json:"memo,omitempty"`
	SynthesisName  string  `json:"synthesis_name,omitempty"`
	SynthesisDate  string  `json:"synthesis_date,omitempty"`
	CreatedAt      string  `json:"created_at"`
}

// ListReactionsResponse is the JSON response for GET /api/reactions.
type ListReactionsResponse struct {
	Reactions []ReactionResponse `json:"reactions"`
}

// ResultResponse is the JSON response for result endpoints. Display carries
// the two-decimal rendering used in the lab notebook.
type ResultResponse struct {
	ReactionID string  `json:"reaction_id"`
	Average    float64 `json:"average_dodh"`
	Display    string  `json:"average_display"`
	UpdatedAt  string  `json:"updated_at,omitempty"`
}

// sendJSONError writes a JSON error response.
func (s *Server) sendJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// sendJSON writes a JSON response with the given status.
func (s *Server) sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// parseDay parses a YYYY-MM-DD wire date.
func parseDay(value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be formatted YYYY-MM-DD")
	}
	return t, nil
}

// handleSignup handles POST /api/signup.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user, err := s.auth.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrBadUsername), errors.Is(err, auth.ErrWeakPassword):
			s.sendJSONError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, store.ErrUsernameExists):
			s.sendJSONError(w, http.StatusConflict, "username already taken")
		default:
			s.logger.Error("failed to register user", "error", err)
			s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	s.sendJSON(w, http.StatusCreated, UserResponse{ID: user.ID, Username: user.Username})
}

// handleLogin handles POST /api/login.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	token, user, err := s.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.sendJSONError(w, http.StatusUnauthorized, "invalid username or password")
			return
		}
		s.logger.Error("failed to log in user", "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	s.sendJSON(w, http.StatusOK, LoginResponse{Token: token, UserID: user.ID, Username: user.Username})
}

func toSynthesisResponse(syn *store.Synthesis) SynthesisResponse {
	return SynthesisResponse{
		ID:        syn.ID,
		Date:      syn.Date.Format(dateLayout),
		Name:      syn.Name,
		Memo:      syn.Memo,
		Amount:    syn.Amount,
		CreatedAt: syn.CreatedAt.Format(time.RFC3339),
	}
}

// handleCreateSynthesis handles POST /api/synthesis.
func (s *Server) handleCreateSynthesis(w http.ResponseWriter, r *http.Request) {
	identity := auth.MustFromContext(r.Context())

	var req CreateSynthesisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	date, err := parseDay(req.Date)
	if err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	syn := &store.Synthesis{
		ID:        uuid.NewString(),
		OwnerID:   identity.UserID,
		Date:      date,
		Name:      req.Name,
		Memo:      req.Memo,
		Amount:    req.Amount,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.store.CreateSynthesis(r.Context(), syn); err != nil {
		if errors.Is(err, store.ErrInvalid) {
			s.sendJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("failed to create synthesis", "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	s.sendJSON(w, http.StatusCreated, toSynthesisResponse(syn))
}

// handleListSyntheses handles GET /api/synthesis. Results are scoped to the
// authenticated user, newest first.
func (s *Server) handleListSyntheses(w http.ResponseWriter, r *http.Request) {
	identity := auth.MustFromContext(r.Context())

	syntheses, err := s.store.ListSyntheses(r.Context(), identity.UserID)
	if err != nil {
		s.logger.Error("failed to list syntheses", "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	response := ListSynthesesResponse{
		Syntheses: make([]SynthesisResponse, len(syntheses)),
	}
	for i, syn := range syntheses {
		response.Syntheses[i] = toSynthesisResponse(syn)
	}

	s.sendJSON(w, http.StatusOK, response)
}

// handleDeleteSynthesis handles DELETE /api/synthesis/{id}. Removal is by
// primary key and does not cascade; reactions referencing the synthesis
// survive as orphans.
func (s *Server) handleDeleteSynthesis(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	err := s.store.DeleteSynthesis(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.sendJSONError(w, http.StatusNotFound, "synthesis not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to delete synthesis", "error", err, "synthesis_id", id)
		s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleCreateReaction handles POST /api/reactions.
func (s *Server) handleCreateReaction(w http.ResponseWriter, r *http.Request) {
	identity := auth.MustFromContext(r.Context())

	var req CreateReactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	date, err := parseDay(req.Date)
	if err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	rxn := &store.Reaction{
		ID:             uuid.NewString(),
		OwnerID:        identity.UserID,
		SynthesisID:    req.SynthesisID,
		Date:           date,
		Temperature:    req.Temperature,
		CatalystAmount: req.CatalystAmount,
		Memo:           req.Memo,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.store.CreateReaction(r.Context(), rxn); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			s.sendJSONError(w, http.StatusNotFound, "synthesis not found")
		case errors.Is(err, store.ErrInvalid):
			s.sendJSONError(w, http.StatusBadRequest, err.Error())
		default:
			s.logger.Error("failed to create reaction", "error", err)
			s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	s.sendJSON(w, http.StatusCreated, ReactionResponse{
		ID:             rxn.ID,
		SynthesisID:    rxn.SynthesisID,
		Date:           rxn.Date.Format(dateLayout),
		Temperature:    rxn.Temperature,
		CatalystAmount: rxn.CatalystAmount,
		Memo:           rxn.Memo,
		CreatedAt:      rxn.CreatedAt.Format(time.RFC3339),
	})
}

// handleListReactions handles GET /api/reactions. Each row carries the name
// and date of the synthesis it used, from the joined listing.
func (s *Server) handleListReactions(w http.ResponseWriter, r *http.Request) {
	identity := auth.MustFromContext(r.Context())

	reactions, err := s.store.ListReactions(r.Context(), identity.UserID)
	if err != nil {
		s.logger.Error("failed to list reactions", "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	response := ListReactionsResponse{
		Reactions: make([]ReactionResponse, len(reactions)),
	}
	for i, rxn := range reactions {
		response.Reactions[i] = ReactionResponse{
			ID:             rxn.ID,
			SynthesisID:    rxn.SynthesisID,
			Date:           rxn.Date.Format(dateLayout),
			Temperature:    rxn.Temperature,
			CatalystAmount: rxn.CatalystAmount,
			Memo:           rxn.Memo,
			SynthesisName:  rxn.SynthesisName,
			SynthesisDate:  rxn.SynthesisDate.Format(dateLayout),
			CreatedAt:      rxn.CreatedAt.Format(time.RFC3339),
		}
	}

	s.sendJSON(w, http.StatusOK, response)
}

// handleDeleteReaction handles DELETE /api/reactions/{id}. Like synthesis
// deletion this is unconditional by primary key; a stored result for the
// reaction is not removed.
func (s *Server) handleDeleteReaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	err := s.store.DeleteReaction(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.sendJSONError(w, http.StatusNotFound, "reaction not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to delete reaction", "error", err, "reaction_id", id)
		s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleUploadResult handles POST /api/reactions/{id}/result. The workbook
// arrives as multipart field "file" and is processed synchronously; the
// stored result is replaced on success and untouched on any failure.
func (s *Server) handleUploadResult(w http.ResponseWriter, r *http.Request) {
	identity := auth.MustFromContext(r.Context())
	reactionID := r.PathValue("id")

	r.Body = http.MaxBytesReader(w, r.Body, s.config.Upload.MaxBytes)

	file, _, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.sendJSONError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("uploaded file exceeds the %d byte limit", maxErr.Limit))
			return
		}
		s.sendJSONError(w, http.StatusBadRequest, `multipart field "file" is required`)
		return
	}
	defer file.Close()

	summary, err := s.pipeline.Run(r.Context(), identity.UserID, reactionID, file)
	if err != nil {
		var runErr *pipeline.RunError
		switch {
		case errors.Is(err, store.ErrNotFound):
			s.sendJSONError(w, http.StatusNotFound, "reaction not found")
		case errors.As(err, &runErr) && runErr.Code != pipeline.CodeInternal:
			s.sendJSONError(w, http.StatusUnprocessableEntity, runErr.Message)
		default:
			s.logger.Error("failed to process result upload", "error", err, "reaction_id", reactionID)
			s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	s.sendJSON(w, http.StatusOK, ResultResponse{
		ReactionID: reactionID,
		Average:    summary.Average,
		Display:    fmt.Sprintf("%.2f", summary.Average),
	})
}

// handleGetResult handles GET /api/reactions/{id}/result.
func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	reactionID := r.PathValue("id")

	result, err := s.store.GetResult(r.Context(), reactionID)
	if errors.Is(err, store.ErrNotFound) {
		s.sendJSONError(w, http.StatusNotFound, "no result for this reaction yet; upload a result file first")
		return
	}
	if err != nil {
		s.logger.Error("failed to get result", "error", err, "reaction_id", reactionID)
		s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	s.sendJSON(w, http.StatusOK, ResultResponse{
		ReactionID: result.ReactionID,
		Average:    result.AverageDoDH,
		Display:    fmt.Sprintf("%.2f", result.AverageDoDH),
		UpdatedAt:  result.UpdatedAt.Format(time.RFC3339),
	})
}

// handleGetResultGraph handles GET /api/reactions/{id}/result/graph, serving
// the stored PNG.
func (s *Server) handleGetResultGraph(w http.ResponseWriter, r *http.Request) {
	reactionID := r.PathValue("id")

	result, err := s.store.GetResult(r.Context(), reactionID)
	if errors.Is(err, store.ErrNotFound) {
		s.sendJSONError(w, http.StatusNotFound, "no result for this reaction yet; upload a result file first")
		return
	}
	if err != nil {
		s.logger.Error("failed to get result graph", "error", err, "reaction_id", reactionID)
		s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Graph)
}
