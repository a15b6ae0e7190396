package resource

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes cache behaviour of a Manager. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	Hits          prometheus.Counter
	Misses        prometheus.Counter
	Loads         prometheus.Counter
	LoadFailures  prometheus.Counter
	Evictions     prometheus.Counter
	LockedBytes   prometheus.Gauge
	EnqueuedBytes prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on reg, if given.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sci",
			Subsystem: "resource",
			Name:      name,
			Help:      help,
		})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sci",
			Subsystem: "resource",
			Name:      name,
			Help:      help,
		})
	}

	m := &Metrics{
		Hits:          counter("hits_total", "Requests served from resident data"),
		Misses:        counter("misses_total", "Requests for resources not in the table"),
		Loads:         counter("loads_total", "Resources read and decompressed"),
		LoadFailures:  counter("load_failures_total", "Resources that failed to load"),
		Evictions:     counter("evictions_total", "Resources dropped to stay within the memory budget"),
		LockedBytes:   gauge("locked_bytes", "Bytes held by locked resources"),
		EnqueuedBytes: gauge("enqueued_bytes", "Bytes held by unlocked resident resources"),
	}
	if reg != nil {
		reg.MustRegister(m.Hits, m.Misses, m.Loads, m.LoadFailures, m.Evictions, m.LockedBytes, m.EnqueuedBytes)
	}
	return m
}

func (m *Metrics) hit() {
	if m != nil {
		m.Hits.Inc()
	}
}

func (m *Metrics) miss() {
	if m != nil {
		m.Misses.Inc()
	}
}

func (m *Metrics) load(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.LoadFailures.Inc()
		return
	}
	m.Loads.Inc()
}

func (m *Metrics) evict() {
	if m != nil {
		m.Evictions.Inc()
	}
}

func (m *Metrics) memory(locked, enqueued int) {
	if m != nil {
		m.LockedBytes.Set(float64(locked))
		m.EnqueuedBytes.Set(float64(enqueued))
	}
}
