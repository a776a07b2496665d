package web

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"lingua-fulfillment/internal/domain/model"
	"lingua-fulfillment/internal/domain/ports/adapter"
	"lingua-fulfillment/internal/usecase"
)

// webhookEndpoint bundles what one provider's inbound route needs.
type webhookEndpoint struct {
	verifier   adapter.WebhookVerifier
	normalizer adapter.EventNormalizer
}

type Server struct {
	checkoutUC usecase.CheckoutUseCase
	accessUC   usecase.AccessUseCase
	fulfillUC  usecase.FulfillmentUseCase
	endpoints  map[model.PaymentProvider]webhookEndpoint
	apiKey     string
	log        *zerolog.Logger
}

func NewServer(
	checkoutUC usecase.CheckoutUseCase,
	accessUC usecase.AccessUseCase,
	fulfillUC usecase.FulfillmentUseCase,
	apiKey string,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		checkoutUC: checkoutUC,
		accessUC:   accessUC,
		fulfillUC:  fulfillUC,
		endpoints:  make(map[model.PaymentProvider]webhookEndpoint),
		apiKey:     apiKey,
		log:        logger,
	}
}

// RegisterProvider attaches a verifier/normalizer pair for one provider's
// webhook route. Adding a provider never touches the engine.
func (s *Server) RegisterProvider(p model.PaymentProvider, v adapter.WebhookVerifier, n adapter.EventNormalizer) {
	s.endpoints[p] = webhookEndpoint{verifier: v, normalizer: n}
}

// Router builds the chi router: provider webhooks are open (authenticity
// comes from signatures), internal endpoints sit behind the bearer key.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/webhooks", func(r chi.Router) {
		for provider := range s.endpoints {
			p := provider
			r.Post("/"+string(p), s.webhookHandler(p))
		}
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Post("/checkout", s.checkoutHandler())
		r.Get("/access", s.accessHandler())
		r.Get("/purchases", s.purchasesHandler())
	})

	return r
}

// authMiddleware provides simple Bearer token authentication for the internal API.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" {
			s.log.Error().Msg("internal API key is not configured")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || !strings.EqualFold(tokenParts[0], "bearer") {
			http.Error(w, "Unauthorized: Malformed token", http.StatusUnauthorized)
			return
		}

		if tokenParts[1] != s.apiKey {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}
