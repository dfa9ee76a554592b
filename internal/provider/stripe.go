package provider

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/webhook"
)

const maxStripeBodyBytes = 65536

type Stripe struct {
	secret string
}

func NewStripe(secret string) *Stripe {
	return &Stripe{secret: secret}
}

func (*Stripe) Name() string {
	return "stripe"
}

// Parse verifies the Stripe-Signature header against the endpoint secret and
// maps checkout.session events onto the reconciler contract. Event types we do
// not handle are acknowledged as ignored so Stripe stops redelivering them.
func (s *Stripe) Parse(r *http.Request) (Notification, error) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxStripeBodyBytes))
	if err != nil {
		return Notification{}, fmt.Errorf("%w: read body: %v", ErrBadPayload, err)
	}

	event, err := webhook.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), s.secret)
	if err != nil {
		return Notification{}, fmt.Errorf("%w: signature: %v", ErrBadPayload, err)
	}

	switch event.Type {
	case "checkout.session.completed", "checkout.session.expired":
	default:
		return Notification{Outcome: OutcomeIgnored}, nil
	}

	if event.Data == nil {
		return Notification{}, fmt.Errorf("%w: missing event data", ErrBadPayload)
	}

	var cs stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
		return Notification{}, fmt.Errorf("%w: decode session: %v", ErrBadPayload, err)
	}
	if cs.ID == "" {
		return Notification{}, fmt.Errorf("%w: missing session id", ErrBadPayload)
	}

	outcome := OutcomePaid
	if event.Type == "checkout.session.expired" {
		outcome = OutcomeExpired
	}

	return Notification{
		Reference:   cs.ID,
		Outcome:     outcome,
		AmountCents: cs.AmountTotal,
		Currency:    strings.ToUpper(string(cs.Currency)),
	}, nil
}
