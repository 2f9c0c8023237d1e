// Package diprom exports container events as Prometheus metrics.
//
// Wire it up once when creating the root container:
//
//	obs, err := diprom.New(prometheus.DefaultRegisterer)
//	if err != nil {
//		return err
//	}
//	c := di.NewContainer(di.WithObserver(obs))
package diprom

import (
	"errors"
	"time"

	"github.com/junioryono/di"
	"github.com/prometheus/client_golang/prometheus"
)

// Observer implements di.Observer with Prometheus collectors.
type Observer struct {
	registered    *prometheus.CounterVec
	jitRegistered prometheus.Counter
	constructions *prometheus.CounterVec
	duration      prometheus.Histogram
	failures      *prometheus.CounterVec
}

var _ di.Observer = (*Observer)(nil)

type config struct {
	namespace string
	buckets   []float64
}

// Option configures an Observer.
type Option func(*config)

// WithNamespace sets the metric namespace. The default is "di".
func WithNamespace(namespace string) Option {
	return func(cfg *config) {
		cfg.namespace = namespace
	}
}

// WithBuckets sets the construction duration buckets.
func WithBuckets(buckets []float64) Option {
	return func(cfg *config) {
		cfg.buckets = buckets
	}
}

// New creates an Observer and registers its collectors on reg.
func New(reg prometheus.Registerer, opts ...Option) (*Observer, error) {
	if reg == nil {
		return nil, errors.New("diprom: registerer cannot be nil")
	}

	cfg := config{
		namespace: "di",
		buckets:   []float64{.00001, .0001, .001, .01, .1, 1},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	o := &Observer{
		registered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.namespace,
			Name:      "resolvers_registered_total",
			Help:      "Total resolvers registered, by strategy.",
		}, []string{"strategy"}),
		jitRegistered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.namespace,
			Name:      "jit_registrations_total",
			Help:      "Total keys registered on demand after a miss.",
		}),
		constructions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.namespace,
			Name:      "constructions_total",
			Help:      "Total instances constructed, by class.",
		}, []string{"class"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.namespace,
			Name:      "construction_duration_seconds",
			Help:      "Time spent constructing instances in seconds.",
			Buckets:   cfg.buckets,
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.namespace,
			Name:      "resolve_failures_total",
			Help:      "Total failed resolutions, by cause.",
		}, []string{"cause"}),
	}

	for _, c := range []prometheus.Collector{o.registered, o.jitRegistered, o.constructions, o.duration, o.failures} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return o, nil
}

// Registered implements di.Observer.
func (o *Observer) Registered(_ di.Key, strategy di.Strategy) {
	o.registered.WithLabelValues(strategy.String()).Inc()
}

// JITRegistered implements di.Observer.
func (o *Observer) JITRegistered(di.Key) {
	o.jitRegistered.Inc()
}

// Constructed implements di.Observer.
func (o *Observer) Constructed(class *di.Class, duration time.Duration) {
	o.constructions.WithLabelValues(class.String()).Inc()
	o.duration.Observe(duration.Seconds())
}

// ResolveFailed implements di.Observer.
func (o *Observer) ResolveFailed(_ di.Key, err error) {
	o.failures.WithLabelValues(Cause(err)).Inc()
}

// Cause maps err to a low-cardinality label value.
func Cause(err error) string {
	var circular di.CircularDependencyError
	switch {
	case errors.As(err, &circular):
		return "circular"
	case errors.Is(err, di.ErrInvalidKey):
		return "invalid_key"
	case errors.Is(err, di.ErrNotConstructable):
		return "not_constructable"
	case errors.Is(err, di.ErrNoDefault):
		return "no_default"
	case errors.Is(err, di.ErrUnresolvableDependency):
		return "unresolvable"
	default:
		return "other"
	}
}
