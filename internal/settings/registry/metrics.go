package registry

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dshills/revlauncher/internal/settings"
)

// Metrics holds Prometheus metrics for registry operations.
// A nil *Metrics records nothing.
type Metrics struct {
	gets             *prometheus.CounterVec // Lookups by scope kind and result
	changes          *prometheus.CounterVec // Mutations by scope kind and result
	materializations prometheus.Counter     // Inherited fields turned into overrides
}

// NewMetrics creates and registers registry metrics. A nil registerer
// disables metrics.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		return nil, nil
	}

	m := &Metrics{
		gets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "revlauncher",
			Subsystem: "settings",
			Name:      "gets_total",
			Help:      "Setting lookups by scope kind and result",
		}, []string{"scope", "result"}),

		changes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "revlauncher",
			Subsystem: "settings",
			Name:      "changes_total",
			Help:      "Setting changes by scope kind and result",
		}, []string{"scope", "result"}),

		materializations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "revlauncher",
			Subsystem: "settings",
			Name:      "materializations_total",
			Help:      "Inherited scoped fields converted into overrides",
		}),
	}

	for _, c := range []prometheus.Collector{m.gets, m.changes, m.materializations} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeGet(scope int, err error) {
	if m == nil {
		return
	}
	m.gets.WithLabelValues(scopeKind(scope), result(err)).Inc()
}

func (m *Metrics) observeChange(scope int, err error) {
	if m == nil {
		return
	}
	m.changes.WithLabelValues(scopeKind(scope), result(err)).Inc()
}

func (m *Metrics) observeMaterialize() {
	if m == nil {
		return
	}
	m.materializations.Inc()
}

func scopeKind(scope int) string {
	if scope == GlobalScope {
		return "global"
	}
	return "scoped"
}

func result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, settings.ErrScopeNotFound):
		return "scope_not_found"
	case errors.Is(err, settings.ErrNotFound):
		return "not_found"
	case errors.Is(err, settings.ErrParse):
		return "parse_error"
	case errors.Is(err, settings.ErrIO):
		return "io_error"
	case errors.Is(err, settings.ErrUnsupported):
		return "unsupported"
	default:
		return "error"
	}
}
