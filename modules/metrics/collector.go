package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// BusStats is the view of the event bus the collector reads on scrape.
type BusStats interface {
	Stats() (delivered, dropped uint64)
	Engine() string
}

// busCollector exports event bus delivery counters as const metrics
// generated on each scrape.
type busCollector struct {
	bus           BusStats
	deliveredDesc *prometheus.Desc
	droppedDesc   *prometheus.Desc
}

func newBusCollector(bus BusStats, namespace string) *busCollector {
	return &busCollector{
		bus: bus,
		deliveredDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "eventbus", "delivered_total"),
			"Events handed to subscribers.",
			[]string{"engine"}, nil,
		),
		droppedDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "eventbus", "dropped_total"),
			"Events dropped because a subscriber queue was full.",
			[]string{"engine"}, nil,
		),
	}
}

func (c *busCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.deliveredDesc
	ch <- c.droppedDesc
}

func (c *busCollector) Collect(ch chan<- prometheus.Metric) {
	delivered, dropped := c.bus.Stats()
	engine := c.bus.Engine()
	ch <- prometheus.MustNewConstMetric(c.deliveredDesc, prometheus.CounterValue, float64(delivered), engine)
	ch <- prometheus.MustNewConstMetric(c.droppedDesc, prometheus.CounterValue, float64(dropped), engine)
}
