// Package metrics counts garden actions with Prometheus collectors on a
// private registry. A nil *Recorder is a valid no-op.
package metrics

import (
	"net/http"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "verdant"

// Recorder holds the simulator's collectors.
type Recorder struct {
	registry *prometheus.Registry

	actions      *prometheus.CounterVec
	actionErrors *prometheus.CounterVec
	mutations    prometheus.Counter
	levelUps     prometheus.Counter
	blooms       prometheus.Counter
	plants       *prometheus.GaugeVec
}

// NewRecorder creates a Recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Garden actions completed and saved.",
		}, []string{"action"}),
		actionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "action_errors_total",
			Help:      "Garden actions rejected or not saved, by error kind.",
		}, []string{"action", "kind"}),
		mutations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Trait slots that mutated during cross-breeding.",
		}),
		levelUps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "level_ups_total",
			Help:      "Skill levels gained.",
		}),
		blooms: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blooms_total",
			Help:      "Plants that reached maturity.",
		}),
		plants: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "plants",
			Help:      "Plants growing in each garden at its last save.",
		}, []string{"garden"}),
	}
	r.registry.MustRegister(r.actions, r.actionErrors, r.mutations, r.levelUps, r.blooms, r.plants)
	return r
}

// ObserveAction counts a completed action, or an error when errKind is set.
func (r *Recorder) ObserveAction(action, errKind string) {
	if r == nil {
		return
	}
	if errKind == "" {
		r.actions.WithLabelValues(action).Inc()
		return
	}
	r.actionErrors.WithLabelValues(action, errKind).Inc()
}

func (r *Recorder) ObserveMutations(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.mutations.Add(float64(n))
}

func (r *Recorder) ObserveLevelUps(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.levelUps.Add(float64(n))
}

func (r *Recorder) ObserveBlooms(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.blooms.Add(float64(n))
}

func (r *Recorder) SetPlantCount(gardenID string, n int) {
	if r == nil {
		return
	}
	r.plants.WithLabelValues(gardenID).Set(float64(n))
}

// Registry exposes the private registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Sample is one gathered series.
type Sample struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Snapshot gathers every series as name{labels} → value, sorted by name.
func (r *Recorder) Snapshot() ([]Sample, error) {
	if r == nil {
		return nil, nil
	}
	families, err := r.registry.Gather()
	if err != nil {
		return nil, err
	}

	var out []Sample
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			name := mf.GetName()
			if labels := m.GetLabel(); len(labels) > 0 {
				parts := make([]string, 0, len(labels))
				for _, lp := range labels {
					parts = append(parts, lp.GetName()+"="+`"`+lp.GetValue()+`"`)
				}
				name += "{" + strings.Join(parts, ",") + "}"
			}
			var v float64
			switch {
			case m.GetCounter() != nil:
				v = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				v = m.GetGauge().GetValue()
			}
			out = append(out, Sample{Name: name, Value: v})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
