package provider_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"coursepay/internal/provider"
)

const stripeTestSecret = "whsec_test_secret"

func signStripePayload(t *testing.T, payload, secret string) string {
	t.Helper()

	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func stripeEvent(eventType, sessionID string, amount int64) string {
	return fmt.Sprintf(
		`{"id":"evt_1","api_version":"2022-11-15","type":%q,"data":{"object":{"id":%q,"amount_total":%d,"currency":"eur"}}}`,
		eventType, sessionID, amount,
	)
}

func TestStripeParseCompleted(t *testing.T) {
	ad := provider.NewStripe(stripeTestSecret)

	payload := stripeEvent("checkout.session.completed", "cs_test_1", 9900)
	r := httptest.NewRequest("POST", "/webhooks/stripe", strings.NewReader(payload))
	r.Header.Set("Stripe-Signature", signStripePayload(t, payload, stripeTestSecret))

	got, err := ad.Parse(r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := provider.Notification{Reference: "cs_test_1", Outcome: provider.OutcomePaid, AmountCents: 9900, Currency: "EUR"}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestStripeParseExpired(t *testing.T) {
	ad := provider.NewStripe(stripeTestSecret)

	payload := stripeEvent("checkout.session.expired", "cs_test_2", 0)
	r := httptest.NewRequest("POST", "/webhooks/stripe", strings.NewReader(payload))
	r.Header.Set("Stripe-Signature", signStripePayload(t, payload, stripeTestSecret))

	got, err := ad.Parse(r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.Outcome != provider.OutcomeExpired || got.Reference != "cs_test_2" {
		t.Fatalf("unexpected notification: %+v", got)
	}
}

func TestStripeParseIgnoresOtherEvents(t *testing.T) {
	ad := provider.NewStripe(stripeTestSecret)

	payload := `{"id":"evt_2","api_version":"2022-11-15","type":"invoice.paid","data":{"object":{"id":"in_1"}}}`
	r := httptest.NewRequest("POST", "/webhooks/stripe", strings.NewReader(payload))
	r.Header.Set("Stripe-Signature", signStripePayload(t, payload, stripeTestSecret))

	got, err := ad.Parse(r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.Outcome != provider.OutcomeIgnored {
		t.Fatalf("expected ignored outcome, got %+v", got)
	}
}

func TestStripeParseBadSignature(t *testing.T) {
	ad := provider.NewStripe(stripeTestSecret)

	payload := stripeEvent("checkout.session.completed", "cs_test_3", 100)
	r := httptest.NewRequest("POST", "/webhooks/stripe", strings.NewReader(payload))
	r.Header.Set("Stripe-Signature", signStripePayload(t, payload, "whsec_wrong"))

	if _, err := ad.Parse(r); !errors.Is(err, provider.ErrBadPayload) {
		t.Fatalf("expected ErrBadPayload, got %v", err)
	}
}

func TestStripeParseMissingSignature(t *testing.T) {
	ad := provider.NewStripe(stripeTestSecret)

	payload := stripeEvent("checkout.session.completed", "cs_test_4", 100)
	r := httptest.NewRequest("POST", "/webhooks/stripe", strings.NewReader(payload))

	if _, err := ad.Parse(r); !errors.Is(err, provider.ErrBadPayload) {
		t.Fatalf("expected ErrBadPayload, got %v", err)
	}
}
