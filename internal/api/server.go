package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"coursepay/internal/provider"
	"coursepay/internal/store"
)

type Server struct {
	store     *store.Store
	authToken string
	logger    Logger
	adapters  []provider.Adapter
	providers map[string]bool
}

type Logger interface {
	Printf(format string, v ...any)
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}

func NewServer(st *store.Store, authToken string, logger Logger, adapters ...provider.Adapter) *Server {
	if logger == nil {
		logger = nopLogger{}
	}
	providers := make(map[string]bool, len(adapters))
	for _, ad := range adapters {
		providers[ad.Name()] = true
	}
	return &Server{
		store:     st,
		authToken: authToken,
		logger:    logger,
		adapters:  adapters,
		providers: providers,
	}
}

// Routes wires the management API behind bearer auth and one public webhook
// route per registered provider adapter. Stripe authenticates by signature;
// Pix and MBWay callbacks are authenticated by knowledge of the reference.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/v1/checkout-sessions", s.authMiddleware(http.HandlerFunc(s.handleCheckoutSessions)))
	mux.Handle("/v1/checkout-sessions/", s.authMiddleware(http.HandlerFunc(s.handleCheckoutSessionByID)))
	for _, ad := range s.adapters {
		mux.Handle("/webhooks/"+ad.Name(), s.handleWebhook(ad))
	}
	mux.Handle("/healthz", http.HandlerFunc(s.handleHealth))
	return mux
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r.Header.Get("Authorization"))
		if !secureCompare(token, s.authToken) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.logger.Printf("health check error: %v", err)
		writeError(w, http.StatusServiceUnavailable, "unavailable")
		return
	}
	writeAck(w)
}

func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
