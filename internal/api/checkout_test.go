package api_test

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"

	"coursepay/internal/store"
)

type sessionResponse struct {
	ID                string `json:"id"`
	UserID            int64  `json:"user_id"`
	CourseID          *int64 `json:"course_id"`
	Provider          string `json:"provider"`
	ProviderReference string `json:"provider_reference"`
	AmountCents       int64  `json:"amount_cents"`
	Currency          string `json:"currency"`
	Status            string `json:"status"`
}

func TestCreateCheckoutSession(t *testing.T) {
	env := setupTest(t)
	defer env.close()

	resp := env.doRequest(t, http.MethodPost, "/v1/checkout-sessions",
		`{"user_id":7,"course_id":42,"provider":"pix","provider_reference":"sess_1","amount_cents":9900,"currency":"BRL"}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected %d, got %d", http.StatusCreated, resp.StatusCode)
	}

	var got sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if got.Status != store.StatusPending {
		t.Fatalf("expected status %s, got %s", store.StatusPending, got.Status)
	}
	if got.CourseID == nil || *got.CourseID != 42 {
		t.Fatalf("unexpected course: %+v", got)
	}
	if _, err := uuid.Parse(got.ID); err != nil {
		t.Fatalf("expected uuid id, got %q", got.ID)
	}

	if status := getSessionStatus(t, env.pool, "pix", "sess_1"); status != store.StatusPending {
		t.Fatalf("expected stored status %s, got %s", store.StatusPending, status)
	}
}

func TestCreateCheckoutSessionDuplicateReference(t *testing.T) {
	env := setupTest(t)
	defer env.close()

	body := `{"user_id":7,"course_id":42,"provider":"pix","provider_reference":"sess_1","amount_cents":9900,"currency":"BRL"}`

	resp1 := env.doRequest(t, http.MethodPost, "/v1/checkout-sessions", body)
	resp1.Body.Close()
	if resp1.StatusCode != http.StatusCreated {
		t.Fatalf("expected %d, got %d", http.StatusCreated, resp1.StatusCode)
	}

	resp2 := env.doRequest(t, http.MethodPost, "/v1/checkout-sessions", body)
	defer resp2.Body.Close()

	if resp2.StatusCode != http.StatusConflict {
		t.Fatalf("expected %d, got %d", http.StatusConflict, resp2.StatusCode)
	}
}

func TestCreateCheckoutSessionReferenceReusableAfterCancel(t *testing.T) {
	env := setupTest(t)
	defer env.close()

	seedSession(t, env.pool, 7, nil, "pix", "sess_1", 9900, "BRL", store.StatusCanceled)

	resp := env.doRequest(t, http.MethodPost, "/v1/checkout-sessions",
		`{"user_id":7,"course_id":42,"provider":"pix","provider_reference":"sess_1","amount_cents":9900,"currency":"BRL"}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected %d, got %d", http.StatusCreated, resp.StatusCode)
	}
}

func TestCreateCheckoutSessionInvalid(t *testing.T) {
	env := setupTest(t)
	defer env.close()

	bodies := map[string]string{
		"unknown provider": `{"user_id":7,"course_id":42,"provider":"paypal","provider_reference":"r","amount_cents":100,"currency":"EUR"}`,
		"zero amount":      `{"user_id":7,"course_id":42,"provider":"pix","provider_reference":"r","amount_cents":0,"currency":"BRL"}`,
		"empty reference":  `{"user_id":7,"course_id":42,"provider":"pix","provider_reference":"","amount_cents":100,"currency":"BRL"}`,
		"bad currency":     `{"user_id":7,"course_id":42,"provider":"pix","provider_reference":"r","amount_cents":100,"currency":"REAL"}`,
		"bad user":         `{"user_id":0,"course_id":42,"provider":"pix","provider_reference":"r","amount_cents":100,"currency":"BRL"}`,
		"unknown field":    `{"user_id":7,"provider":"pix","provider_reference":"r","amount_cents":100,"currency":"BRL","promo":"x"}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			resp := env.doRequest(t, http.MethodPost, "/v1/checkout-sessions", body)
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected %d, got %d", http.StatusBadRequest, resp.StatusCode)
			}
		})
	}
}

func TestCreateCheckoutSessionUnauthorized(t *testing.T) {
	env := setupTest(t)
	defer env.close()

	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/v1/checkout-sessions",
		strings.NewReader(`{"user_id":7,"provider":"pix","provider_reference":"r","amount_cents":100,"currency":"BRL"}`))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := env.client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected %d, got %d", http.StatusUnauthorized, resp.StatusCode)
	}
}

func TestGetCheckoutSession(t *testing.T) {
	env := setupTest(t)
	defer env.close()

	course := int64(42)
	id := seedSession(t, env.pool, 7, &course, "pix", "sess_1", 9900, "BRL", store.StatusPending)

	resp := env.doRequest(t, http.MethodGet, "/v1/checkout-sessions/"+id.String(), "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, resp.StatusCode)
	}

	var got sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.ID != id.String() || got.ProviderReference != "sess_1" || got.AmountCents != 9900 {
		t.Fatalf("unexpected response: %+v", got)
	}
}

func TestGetCheckoutSessionNotFound(t *testing.T) {
	env := setupTest(t)
	defer env.close()

	resp := env.doRequest(t, http.MethodGet, "/v1/checkout-sessions/"+uuid.NewString(), "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected %d, got %d", http.StatusNotFound, resp.StatusCode)
	}
}

func TestHealthz(t *testing.T) {
	env := setupTest(t)
	defer env.close()

	resp, err := env.client.Get(env.server.URL + "/healthz")
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, resp.StatusCode)
	}
}
