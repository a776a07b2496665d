package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		purchasesTotal,
		entitlementWrites,
		notifyTotal,
		cacheRequests,
	)
}

var (
	purchasesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "purchases_total",
			Help: "Purchases by provider and status (completed/refunded/failed).",
		},
		[]string{"provider", "status"},
	)

	entitlementWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entitlement_writes_total",
			Help: "Entitlement mutations by action (grant/revoke).",
		},
		[]string{"action"},
	)

	notifyTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "purchase_notify_total",
			Help: "Purchase notification attempts by status (sent/error).",
		},
		[]string{"status"},
	)

	cacheRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_requests_total",
			Help: "Cache lookups by object and outcome (hit/miss).",
		},
		[]string{"object", "outcome"},
	)
)

func IncPurchase(provider, status string) {
	purchasesTotal.WithLabelValues(norm(provider), norm(status)).Inc()
}

func IncEntitlementWrite(action string) {
	entitlementWrites.WithLabelValues(norm(action)).Inc()
}

func IncNotify(status string) {
	notifyTotal.WithLabelValues(norm(status)).Inc()
}

func IncCacheRequest(object, outcome string) {
	cacheRequests.WithLabelValues(norm(object), norm(outcome)).Inc()
}
