// Package metrics exports resolution and rendering metrics to Prometheus.
// Nil *Observer is valid and records nothing.
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "imgres"

// Observer collects metrics of all components.
type Observer struct {
	cacheBuilds   *prometheus.HistogramVec
	cacheRecords  *prometheus.GaugeVec
	invalidations *prometheus.CounterVec
	sourceErrors  *prometheus.CounterVec
	lookups       *prometheus.CounterVec
	probeChecks   *prometheus.CounterVec
	renderTicks   prometheus.Histogram
	renderFaults  prometheus.Counter
	mutations     *prometheus.CounterVec
}

// New creates observer registering collectors with reg, default registerer
// is used when reg is nil. Collectors registered earlier are reused.
func New(reg prometheus.Registerer) (*Observer, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	var err error
	o := &Observer{}

	if o.cacheBuilds, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "cache_build_duration_seconds",
		Help:      "Time spent building resolution cache from sources.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"scope"})); err != nil {
		return nil, err
	}
	if o.cacheRecords, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "cache_records",
		Help:      "Number of merged records in the last built cache.",
	}, []string{"scope"})); err != nil {
		return nil, err
	}
	if o.invalidations, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_invalidations_total",
		Help:      "Count of cache invalidations.",
	}, []string{"scope"})); err != nil {
		return nil, err
	}
	if o.sourceErrors, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "source_errors_total",
		Help:      "Count of asset sources which contributed nothing because of failure.",
	}, []string{"source"})); err != nil {
		return nil, err
	}
	if o.lookups, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "placeholder_lookups_total",
		Help:      "Placeholder lookups by the tier which answered them.",
	}, []string{"tier"})); err != nil {
		return nil, err
	}
	if o.probeChecks, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "probe_checks_total",
		Help:      "Existence checks issued by probing.",
	}, []string{"result"})); err != nil {
		return nil, err
	}
	if o.renderTicks, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "render_tick_duration_seconds",
		Help:      "Duration of render scheduler ticks.",
		Buckets:   []float64{.001, .002, .004, .008, .016, .032, .064, .128},
	})); err != nil {
		return nil, err
	}
	if o.renderFaults, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "render_faults_total",
		Help:      "Containers which failed to render.",
	})); err != nil {
		return nil, err
	}
	if o.mutations, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mutations_total",
		Help:      "Registry and storage mutations by operation and outcome.",
	}, []string{"operation", "outcome"})); err != nil {
		return nil, err
	}
	return o, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing, nil
		}
	}
	return c, fmt.Errorf("unable to register metrics collector: %w", err)
}

func (o *Observer) CacheBuilt(scope string, d time.Duration, records int) {
	if o == nil {
		return
	}
	o.cacheBuilds.WithLabelValues(scope).Observe(d.Seconds())
	o.cacheRecords.WithLabelValues(scope).Set(float64(records))
}

func (o *Observer) CacheInvalidated(scope string) {
	if o == nil {
		return
	}
	o.invalidations.WithLabelValues(scope).Inc()
}

func (o *Observer) SourceFailed(source string) {
	if o == nil {
		return
	}
	o.sourceErrors.WithLabelValues(source).Inc()
}

// Lookup records tier which resolved placeholder, "miss" for none.
func (o *Observer) Lookup(tier string) {
	if o == nil {
		return
	}
	o.lookups.WithLabelValues(tier).Inc()
}

func (o *Observer) ProbeChecked(found, cached bool) {
	if o == nil {
		return
	}
	result := "absent"
	if found {
		result = "present"
	}
	if cached {
		result += "_cached"
	}
	o.probeChecks.WithLabelValues(result).Inc()
}

func (o *Observer) RenderTick(d time.Duration) {
	if o == nil {
		return
	}
	o.renderTicks.Observe(d.Seconds())
}

func (o *Observer) RenderFault() {
	if o == nil {
		return
	}
	o.renderFaults.Inc()
}

func (o *Observer) Mutation(op string, err error) {
	if o == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "failed"
	}
	o.mutations.WithLabelValues(op, outcome).Inc()
}
