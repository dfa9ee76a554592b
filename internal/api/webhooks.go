package api

import (
	"errors"
	"net/http"
	"time"

	"coursepay/internal/metrics"
	"coursepay/internal/provider"
	"coursepay/internal/store"
)

// handleWebhook is the single reconcile path shared by every provider; the
// adapter normalizes the payload, the store owns the state transition.
func (s *Server) handleWebhook(ad provider.Adapter) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
			return
		}

		start := time.Now()
		defer func() {
			metrics.ReconcileDuration.Observe(time.Since(start).Seconds())
		}()

		n, err := ad.Parse(r)
		if err != nil {
			metrics.WebhooksRejected.WithLabelValues(ad.Name()).Inc()
			s.logEvent("webhook_rejected", map[string]any{
				"provider": ad.Name(),
				"reason":   "invalid_payload",
			})
			writeError(w, http.StatusBadRequest, "invalid_payload")
			return
		}

		metrics.WebhooksReceived.WithLabelValues(ad.Name(), string(n.Outcome)).Inc()

		switch n.Outcome {
		case provider.OutcomePaid:
			s.reconcilePaid(w, r, ad.Name(), n)
		case provider.OutcomeFailed, provider.OutcomeExpired:
			s.reconcileCanceled(w, r, ad.Name(), n)
		case provider.OutcomeIgnored:
			s.logEvent("webhook_ignored", map[string]any{
				"provider": ad.Name(),
			})
			writeAck(w)
		default:
			writeError(w, http.StatusBadRequest, "invalid_payload")
		}
	})
}

func (s *Server) reconcilePaid(w http.ResponseWriter, r *http.Request, providerName string, n provider.Notification) {
	res, err := s.store.ReconcilePaid(r.Context(), store.ReconcilePaidInput{
		Provider:    providerName,
		Reference:   n.Reference,
		AmountCents: n.AmountCents,
		Currency:    n.Currency,
	})
	if err != nil {
		reason := "internal_error"
		switch {
		case errors.Is(err, store.ErrSessionNotFound):
			reason = "session_not_found"
			writeError(w, http.StatusNotFound, "session_not_found")
		case errors.Is(err, store.ErrMissingCourse):
			reason = "missing_course"
			writeError(w, http.StatusBadRequest, "missing_course")
		default:
			s.logger.Printf("reconcile paid error: %v", err)
			writeError(w, http.StatusInternalServerError, "internal_error")
		}
		s.logEvent("webhook_reconcile_failed", map[string]any{
			"provider":  providerName,
			"reference": n.Reference,
			"outcome":   string(n.Outcome),
			"reason":    reason,
		})
		return
	}

	if res.Duplicate {
		metrics.DuplicateDeliveries.WithLabelValues(providerName).Inc()
		s.logEvent("webhook_duplicate", map[string]any{
			"provider":  providerName,
			"reference": n.Reference,
			"outcome":   string(n.Outcome),
			"status":    res.Session.Status,
		})
		writeAck(w)
		return
	}

	s.logEvent("webhook_reconciled", map[string]any{
		"provider":     providerName,
		"reference":    n.Reference,
		"outcome":      string(n.Outcome),
		"session_id":   res.Session.ID.String(),
		"payment_id":   res.Payment.ID.String(),
		"user_id":      res.Session.UserID,
		"amount_cents": res.Payment.AmountCents,
		"currency":     res.Payment.Currency,
	})
	writeAck(w)
}

func (s *Server) reconcileCanceled(w http.ResponseWriter, r *http.Request, providerName string, n provider.Notification) {
	res, err := s.store.ReconcileCanceled(r.Context(), providerName, n.Reference, string(n.Outcome))
	if err != nil {
		reason := "internal_error"
		switch {
		case errors.Is(err, store.ErrSessionNotFound):
			reason = "session_not_found"
			writeError(w, http.StatusNotFound, "session_not_found")
		default:
			s.logger.Printf("reconcile canceled error: %v", err)
			writeError(w, http.StatusInternalServerError, "internal_error")
		}
		s.logEvent("webhook_reconcile_failed", map[string]any{
			"provider":  providerName,
			"reference": n.Reference,
			"outcome":   string(n.Outcome),
			"reason":    reason,
		})
		return
	}

	if res.Duplicate {
		metrics.DuplicateDeliveries.WithLabelValues(providerName).Inc()
		s.logEvent("webhook_duplicate", map[string]any{
			"provider":  providerName,
			"reference": n.Reference,
			"outcome":   string(n.Outcome),
			"status":    res.Session.Status,
		})
		writeAck(w)
		return
	}

	s.logEvent("webhook_reconciled", map[string]any{
		"provider":   providerName,
		"reference":  n.Reference,
		"outcome":    string(n.Outcome),
		"session_id": res.Session.ID.String(),
		"status":     res.Session.Status,
	})
	writeAck(w)
}
