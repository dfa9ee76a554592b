package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"coursepay/internal/store"
)

type createSessionRequest struct {
	UserID            int64  `json:"user_id"`
	CourseID          *int64 `json:"course_id"`
	Provider          string `json:"provider"`
	ProviderReference string `json:"provider_reference"`
	AmountCents       int64  `json:"amount_cents"`
	Currency          string `json:"currency"`
}

type sessionResponse struct {
	ID                string    `json:"id"`
	UserID            int64     `json:"user_id"`
	CourseID          *int64    `json:"course_id,omitempty"`
	Provider          string    `json:"provider"`
	ProviderReference string    `json:"provider_reference"`
	AmountCents       int64     `json:"amount_cents"`
	Currency          string    `json:"currency"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
}

func (s *Server) handleCheckoutSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		s.handleCreateSession(w, r)
		return
	}
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
}

func (s *Server) handleCheckoutSessionByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/v1/checkout-sessions/")
	id, err := uuid.Parse(path)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}

	session, err := s.store.GetSession(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}
		s.logger.Printf("get session error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.logEvent("session_create_failed", map[string]any{
			"reason": "invalid_request",
		})
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		s.logEvent("session_create_failed", map[string]any{
			"reason": "invalid_request",
		})
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	if err := s.validateCreateSession(req); err != nil {
		s.logEvent("session_create_failed", map[string]any{
			"reason":  "invalid_request",
			"user_id": req.UserID,
		})
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	input := store.CreateSessionInput{
		UserID:            req.UserID,
		CourseID:          req.CourseID,
		Provider:          strings.TrimSpace(req.Provider),
		ProviderReference: strings.TrimSpace(req.ProviderReference),
		AmountCents:       req.AmountCents,
		Currency:          strings.ToUpper(strings.TrimSpace(req.Currency)),
	}

	session, err := s.store.CreateSession(r.Context(), input)
	if err != nil {
		reason := "internal_error"
		switch {
		case errors.Is(err, store.ErrReferenceExists):
			reason = "reference_exists"
			writeError(w, http.StatusConflict, "reference_exists")
		default:
			s.logger.Printf("create session error: %v", err)
			writeError(w, http.StatusInternalServerError, "internal_error")
		}
		s.logEvent("session_create_failed", map[string]any{
			"reason":    reason,
			"user_id":   input.UserID,
			"provider":  input.Provider,
			"reference": input.ProviderReference,
		})
		return
	}

	s.logEvent("session_created", map[string]any{
		"session_id": session.ID.String(),
		"user_id":    session.UserID,
		"provider":   session.Provider,
		"reference":  session.ProviderReference,
		"status":     session.Status,
	})
	writeJSON(w, http.StatusCreated, toSessionResponse(session))
}

func (s *Server) validateCreateSession(req createSessionRequest) error {
	if req.UserID <= 0 {
		return errors.New("invalid user_id")
	}
	if req.CourseID != nil && *req.CourseID <= 0 {
		return errors.New("invalid course_id")
	}
	if !s.providers[strings.TrimSpace(req.Provider)] {
		return errors.New("invalid provider")
	}
	if strings.TrimSpace(req.ProviderReference) == "" {
		return errors.New("invalid provider_reference")
	}
	if req.AmountCents <= 0 {
		return errors.New("invalid amount_cents")
	}
	if len(strings.TrimSpace(req.Currency)) != 3 {
		return errors.New("invalid currency")
	}
	return nil
}

func toSessionResponse(cs store.CheckoutSession) sessionResponse {
	return sessionResponse{
		ID:                cs.ID.String(),
		UserID:            cs.UserID,
		CourseID:          cs.CourseID,
		Provider:          cs.Provider,
		ProviderReference: cs.ProviderReference,
		AmountCents:       cs.AmountCents,
		Currency:          cs.Currency,
		Status:            cs.Status,
		CreatedAt:         cs.CreatedAt,
	}
}
