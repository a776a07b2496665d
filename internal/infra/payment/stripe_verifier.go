package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"lingua-fulfillment/internal/domain/ports/adapter"
)

var _ adapter.WebhookVerifier = (*StripeVerifier)(nil)

// DefaultStripeTolerance bounds how stale a signed timestamp may be.
const DefaultStripeTolerance = 5 * time.Minute

// StripeVerifier checks the Stripe-Signature header: the v1 scheme signs
// "<timestamp>.<raw body>" with HMAC-SHA256 over the shared webhook
// secret. Comparison is constant-time.
type StripeVerifier struct {
	secret    []byte
	tolerance time.Duration
	now       func() time.Time
	log       *zerolog.Logger
}

func NewStripeVerifier(webhookSecret string, logger *zerolog.Logger) *StripeVerifier {
	return &StripeVerifier{
		secret:    []byte(webhookSecret),
		tolerance: DefaultStripeTolerance,
		now:       time.Now,
		log:       logger,
	}
}

func (v *StripeVerifier) Verify(ctx context.Context, body []byte, headers map[string]string) bool {
	header := headers["Stripe-Signature"]
	if header == "" {
		v.log.Warn().Msg("stripe webhook missing Stripe-Signature header")
		return false
	}

	ts, sigs := parseStripeSignature(header)
	if ts == "" || len(sigs) == 0 {
		v.log.Warn().Msg("stripe signature header malformed")
		return false
	}

	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return false
	}
	age := v.now().Sub(time.Unix(unix, 0))
	if age > v.tolerance || age < -v.tolerance {
		v.log.Warn().Dur("age", age).Msg("stripe signature timestamp outside tolerance")
		return false
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, sig := range sigs {
		if hmac.Equal([]byte(expected), []byte(sig)) {
			return true
		}
	}
	v.log.Warn().Msg("stripe signature mismatch")
	return false
}

// parseStripeSignature splits "t=1492774577,v1=5257a8...,v1=..." into the
// timestamp and every v1 candidate (multiple appear during secret rolls).
func parseStripeSignature(header string) (ts string, v1 []string) {
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts = kv[1]
		case "v1":
			v1 = append(v1, kv[1])
		}
	}
	return ts, v1
}

// SignStripePayload produces a Stripe-Signature header value for the given
// body, used by the mock-webhook tool and tests.
func SignStripePayload(secret string, at time.Time, body []byte) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(body)
	return "t=" + ts + ",v1=" + hex.EncodeToString(mac.Sum(nil))
}
