package dedupe

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	leasesClaimed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "anomalyze_dedupe_leases_claimed_total",
		Help: "Lease claims that succeeded (first sighting of an incident)",
	})
	duplicatesSuppressed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "anomalyze_dedupe_duplicates_suppressed_total",
		Help: "Events suppressed because the incident lease was already held",
	})
	cacheUnavailable = promauto.NewCounter(prometheus.CounterOpts{
		Name: "anomalyze_dedupe_cache_unavailable_total",
		Help: "Lease claims that fell back to the configured unavailability policy",
	})
)
