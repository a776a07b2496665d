package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"lingua-fulfillment/internal/domain"
	"lingua-fulfillment/internal/domain/model"
	"lingua-fulfillment/internal/infra/metrics"
)

// Providers retry aggressively; cap body size so a hostile payload cannot
// hold a connection open.
const maxWebhookBody = 1 << 20

// webhookHandler is the single funnel for provider deliveries:
// verify, normalize, run the engine, map to the provider-facing status.
// 2xx = processed or intentionally ignored, 4xx = do not retry,
// 5xx = transient, retry.
func (s *Server) webhookHandler(provider model.PaymentProvider) http.HandlerFunc {
	ep := s.endpoints[provider]
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		defer func() {
			metrics.ObserveWebhookDuration(string(provider), time.Since(start).Seconds())
		}()

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
		if err != nil {
			metrics.IncWebhookEvent(string(provider), "malformed")
			http.Error(w, "unreadable body", http.StatusBadRequest)
			return
		}

		headers := make(map[string]string, len(r.Header))
		for k := range r.Header {
			headers[k] = r.Header.Get(k)
		}

		if !ep.verifier.Verify(r.Context(), body, headers) {
			metrics.IncWebhookEvent(string(provider), "unauthenticated")
			s.log.Warn().Str("provider", string(provider)).Msg("webhook rejected: invalid signature")
			http.Error(w, "invalid signature", http.StatusForbidden)
			return
		}

		ev, err := ep.normalizer.Normalize(body)
		if err != nil {
			// Identity could not be extracted. Acknowledge so the provider
			// does not storm retries; the log entry is the operator's cue.
			metrics.IncWebhookEvent(string(provider), "unresolvable")
			s.log.Error().Err(err).Str("provider", string(provider)).RawJSON("payload", body).
				Msg("webhook event unprocessable")
			w.WriteHeader(http.StatusOK)
			return
		}
		if ev == nil {
			metrics.IncWebhookEvent(string(provider), "ignored")
			w.WriteHeader(http.StatusOK)
			return
		}

		outcome, err := s.fulfillUC.HandleEvent(r.Context(), ev)
		if err != nil {
			metrics.IncWebhookEvent(string(provider), "error")
			s.log.Error().Err(err).Str("provider", string(provider)).Str("order_id", ev.OrderID).
				Msg("fulfillment transaction failed; provider will retry")
			http.Error(w, "transient failure", http.StatusInternalServerError)
			return
		}

		metrics.IncWebhookEvent(string(provider), string(outcome))
		w.WriteHeader(http.StatusOK)
	}
}

type checkoutRequest struct {
	BuyerID   string `json:"buyer_id"`
	ProductID string `json:"product_id"`
	Provider  string `json:"provider"`
}

type checkoutResponse struct {
	OrderID string `json:"order_id"`
	PayURL  string `json:"pay_url"`
}

func (s *Server) checkoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req checkoutRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		orderID, payURL, err := s.checkoutUC.CreateCheckout(r.Context(), req.BuyerID, req.ProductID, model.PaymentProvider(req.Provider))
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrUnknownProvider), errors.Is(err, domain.ErrProductNotPurchable):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, domain.ErrNotFound):
				http.Error(w, "product not found", http.StatusNotFound)
			case errors.Is(err, domain.ErrGatewayUnavailable):
				http.Error(w, "payment provider unavailable", http.StatusBadGateway)
			default:
				http.Error(w, "Failed to create checkout", http.StatusInternalServerError)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(checkoutResponse{OrderID: orderID, PayURL: payURL})
	}
}

func (s *Server) accessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID := r.URL.Query().Get("buyer_id")
		productID := r.URL.Query().Get("product_id")
		if buyerID == "" || productID == "" {
			http.Error(w, "buyer_id and product_id are required", http.StatusBadRequest)
			return
		}

		ok, err := s.accessUC.HasAccess(r.Context(), buyerID, productID)
		if err != nil {
			http.Error(w, "Failed to check access", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(struct {
			HasAccess bool `json:"has_access"`
		}{HasAccess: ok})
	}
}

func (s *Server) purchasesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID := r.URL.Query().Get("buyer_id")
		if buyerID == "" {
			http.Error(w, "buyer_id is required", http.StatusBadRequest)
			return
		}

		purchases, err := s.accessUC.ListPurchases(r.Context(), buyerID)
		if err != nil {
			http.Error(w, "Failed to list purchases", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(struct {
			Data []*model.Purchase `json:"data"`
		}{Data: purchases})
	}
}
