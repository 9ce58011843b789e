package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus instruments for card operations.
type Metrics struct {
	BatchesCreated      prometheus.Counter
	CardsCreated        prometheus.Counter
	CardsAssigned       prometheus.Counter
	CardsUnlinked       prometheus.Counter
	BrokenLinksObserved prometheus.Gauge
	InventoryBuildMs    prometheus.Histogram
}

// New creates and registers all card metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		BatchesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cardfleet_card_batches_created_total",
			Help: "Total number of card batches created",
		}),
		CardsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cardfleet_cards_created_total",
			Help: "Total number of cards registered",
		}),
		CardsAssigned: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cardfleet_cards_assigned_total",
			Help: "Total number of card-to-vehicle link operations",
		}),
		CardsUnlinked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cardfleet_cards_unlinked_total",
			Help: "Total number of card unlink operations",
		}),
		BrokenLinksObserved: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "cardfleet_broken_links",
			Help: "Broken links surfaced by the most recent reconciliation",
		}),
		InventoryBuildMs: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "cardfleet_inventory_build_duration_ms",
			Help:    "Latency of inventory reconciliation in milliseconds",
			Buckets: []float64{1, 2.5, 5, 10, 25, 50, 100, 250, 500},
		}),
	}
}
