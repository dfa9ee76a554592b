package provider

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

type Outcome string

const (
	OutcomePaid    Outcome = "paid"
	OutcomeFailed  Outcome = "failed"
	OutcomeExpired Outcome = "expired"

	// OutcomeIgnored marks provider events the reconciler does not act on.
	// They are acknowledged so the provider stops redelivering them.
	OutcomeIgnored Outcome = "ignored"
)

// Notification is a provider payload normalized to the reconciler's contract.
// Amounts are integer minor units regardless of how the provider encodes them.
type Notification struct {
	Reference   string
	Outcome     Outcome
	AmountCents int64
	Currency    string
}

// Adapter validates one provider's native webhook payload and maps it onto a
// Notification. Name doubles as the route suffix and the payment method tag.
type Adapter interface {
	Name() string
	Parse(r *http.Request) (Notification, error)
}

// ErrBadPayload wraps every validation failure an Adapter can produce; the
// HTTP layer maps it to a 400 response.
var ErrBadPayload = errors.New("bad payload")

type simplePayload struct {
	SessionID string `json:"sessionId"`
	Status    string `json:"status"`
	Amount    int64  `json:"amount"`
}

// parseSimplePayload handles the shared Pix/MBWay payload shape: a strict
// {sessionId, status, amount} JSON object with a closed status enum.
func parseSimplePayload(r *http.Request) (simplePayload, error) {
	var body simplePayload

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		return simplePayload{}, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return simplePayload{}, fmt.Errorf("%w: trailing data", ErrBadPayload)
	}

	if body.SessionID == "" {
		return simplePayload{}, fmt.Errorf("%w: missing sessionId", ErrBadPayload)
	}
	switch body.Status {
	case string(OutcomePaid), string(OutcomeFailed), string(OutcomeExpired):
	default:
		return simplePayload{}, fmt.Errorf("%w: unknown status %q", ErrBadPayload, body.Status)
	}
	if body.Amount < 0 {
		return simplePayload{}, fmt.Errorf("%w: negative amount", ErrBadPayload)
	}
	if body.Status == string(OutcomePaid) && body.Amount == 0 {
		return simplePayload{}, fmt.Errorf("%w: zero amount on paid", ErrBadPayload)
	}

	return body, nil
}
