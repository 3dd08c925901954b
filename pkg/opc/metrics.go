package opc

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts package activity. A nil *Metrics records nothing.
type Metrics struct {
	PackagesOpened       prometheus.Counter
	PackagesSaved        prometheus.Counter
	PartsWritten         prometheus.Counter
	RelationshipsSkipped prometheus.Counter
	SaveDuration         prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg when it is not nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		PackagesOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "opc",
			Name:      "packages_opened_total",
			Help:      "Packages opened from an archive.",
		}),
		PackagesSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "opc",
			Name:      "packages_saved_total",
			Help:      "Packages serialized to an archive.",
		}),
		PartsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "opc",
			Name:      "parts_written_total",
			Help:      "Content parts written during saves.",
		}),
		RelationshipsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "opc",
			Name:      "relationships_skipped_total",
			Help:      "Malformed relationship entries skipped while parsing manifests.",
		}),
		SaveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "opc",
			Name:      "save_duration_seconds",
			Help:      "Time spent serializing a package.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.PackagesOpened, m.PackagesSaved, m.PartsWritten, m.RelationshipsSkipped, m.SaveDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) opened() {
	if m != nil {
		m.PackagesOpened.Inc()
	}
}

func (m *Metrics) saved(start time.Time, parts int) {
	if m == nil {
		return
	}
	m.PackagesSaved.Inc()
	m.PartsWritten.Add(float64(parts))
	m.SaveDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) relationshipSkipped() {
	if m != nil {
		m.RelationshipsSkipped.Inc()
	}
}
