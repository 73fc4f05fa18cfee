// Package metrics defines the metric record emitted onto an Actor's
// reserved "metrics" queue, and an optional Prometheus registration path
// alongside it.
//
// The record shape is a fixed tuple of (timestamp, vendor tag, hostname,
// dotted metric name, value, unused string, unused tuple), carried over
// unchanged from compysition's wire format so existing metric consumers
// need no translation layer. The Prometheus path is additive — grounded on
// joeycumines-go-utilpkg's direct github.com/prometheus/client_golang
// dependency, the pack's clearest example of a worker-style Go runtime
// exposing Prometheus gauges — and changes nothing about what sinks
// consuming the "metrics" queue observe.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// VendorTag is the fixed second tuple field, carried over from
// compysition's metric format.
const VendorTag = "compysition"

// Record is one (queue, stat) metric sample.
type Record struct {
	Timestamp time.Time
	Vendor    string
	Host      string
	Name      string // "queue.<actor>.<queue>.<stat>"
	Value     float64
	Unit      string   // always "" — reserved, unused
	Tags      []string // always empty — reserved, unused
}

// NewRecord builds a Record with the fixed vendor tag and the given
// hostname, metric name, and value.
func NewRecord(host, name string, value float64) Record {
	return Record{
		Timestamp: time.Now(),
		Vendor:    VendorTag,
		Host:      host,
		Name:      name,
		Value:     value,
		Tags:      []string{},
	}
}

// Registry optionally mirrors emitted Records into Prometheus gauges,
// keyed by the dotted metric name. A nil *Registry is valid and a no-op,
// so wiring Prometheus is opt-in.
type Registry struct {
	registerer prometheus.Registerer
	gauges     map[string]prometheus.Gauge
}

// NewRegistry wraps registerer (e.g. prometheus.NewRegistry() or
// prometheus.DefaultRegisterer) for per-metric gauge registration.
func NewRegistry(registerer prometheus.Registerer) *Registry {
	return &Registry{
		registerer: registerer,
		gauges:     make(map[string]prometheus.Gauge),
	}
}

// Observe updates (registering lazily on first use) the gauge for r.Name.
func (reg *Registry) Observe(r Record) {
	if reg == nil {
		return
	}
	g, ok := reg.gauges[r.Name]
	if !ok {
		g = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: sanitize(r.Name),
			Help: "relaykit queue metric: " + r.Name,
		})
		if err := reg.registerer.Register(g); err != nil {
			if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
				g = are.ExistingCollector.(prometheus.Gauge)
			}
		}
		reg.gauges[r.Name] = g
	}
	g.Set(r.Value)
}

// sanitize converts a dotted metric name into a Prometheus-legal metric
// name (underscores in place of dots).
func sanitize(name string) string {
	out := make([]byte, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c == '.' || c == '-' {
			out[i] = '_'
		} else {
			out[i] = c
		}
	}
	return "relaykit_" + string(out)
}
