// Package metrics exposes account store activity as Prometheus metrics.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bft-labs/accountstore/internal/domain"
	"github.com/bft-labs/accountstore/internal/ports"
)

const namespace = "accountstore"

var statuses = []domain.Status{
	domain.StatusUnset,
	domain.StatusNewAccount,
	domain.StatusConfirmed,
	domain.StatusPendingDeletion,
}

// Registry holds the account store collectors on a private registry.
type Registry struct {
	reg *prometheus.Registry

	StatusTransitions *prometheus.CounterVec
	PersistErrors     *prometheus.CounterVec
	Status            *prometheus.GaugeVec
	SlotOps           *prometheus.HistogramVec
}

// NewRegistry creates and registers all collectors.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		StatusTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "status_transitions_total",
				Help:      "Total number of account status transitions",
			},
			[]string{"from", "to"},
		),
		PersistErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "persist_errors_total",
				Help:      "Total number of failed slot writes",
			},
			[]string{"key"},
		),
		Status: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "status",
				Help:      "Current account status, 1 for the active status",
			},
			[]string{"status"},
		),
		SlotOps: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "slot_operation_duration_seconds",
				Help:      "Slot store operation duration in seconds",
				Buckets:   []float64{0.0001, 0.001, 0.01, 0.1, 0.5, 1},
			},
			[]string{"operation", "key"},
		),
	}

	r.reg.MustRegister(
		r.StatusTransitions,
		r.PersistErrors,
		r.Status,
		r.SlotOps,
	)
	r.SetStatus(domain.StatusUnset)
	return r
}

// Gatherer returns the underlying registry for exposition.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// OnStatusChange counts a transition and moves the status gauge.
func (r *Registry) OnStatusChange(previous, current domain.Status, at *time.Time) {
	r.StatusTransitions.WithLabelValues(previous.String(), current.String()).Inc()
	r.SetStatus(current)
}

// SetStatus marks current as the active status.
func (r *Registry) SetStatus(current domain.Status) {
	for _, s := range statuses {
		v := 0.0
		if s == current {
			v = 1
		}
		r.Status.WithLabelValues(s.String()).Set(v)
	}
}

// TrackPersistError counts a failed write of key.
func (r *Registry) TrackPersistError(key string) {
	r.PersistErrors.WithLabelValues(key).Inc()
}

// WriteTextfile writes all metrics to path in the text exposition format,
// for pickup by the node exporter textfile collector.
func (r *Registry) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.reg)
}

// Instrument wraps a SlotStore so every operation is timed and failed
// writes are counted.
func (r *Registry) Instrument(inner ports.SlotStore) ports.SlotStore {
	return &instrumented{inner: inner, reg: r}
}

type instrumented struct {
	inner ports.SlotStore
	reg   *Registry
}

func (s *instrumented) observe(op, key string, start time.Time) {
	s.reg.SlotOps.WithLabelValues(op, key).Observe(time.Since(start).Seconds())
}

func (s *instrumented) Get(ctx context.Context, key string) ([]byte, error) {
	defer s.observe("get", key, time.Now())
	return s.inner.Get(ctx, key)
}

func (s *instrumented) Set(ctx context.Context, key string, value []byte) error {
	defer s.observe("set", key, time.Now())
	err := s.inner.Set(ctx, key, value)
	if err != nil {
		s.reg.TrackPersistError(key)
	}
	return err
}

func (s *instrumented) Delete(ctx context.Context, key string) error {
	defer s.observe("delete", key, time.Now())
	err := s.inner.Delete(ctx, key)
	if err != nil {
		s.reg.TrackPersistError(key)
	}
	return err
}

func (s *instrumented) Close() error {
	return s.inner.Close()
}
