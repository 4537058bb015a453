package otel

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/phoneauth"
	"github.com/MrEthical07/phoneauth/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() phoneauth.MetricsSnapshot
}

type observedCounter struct {
	id         phoneauth.MetricID
	instrument metric.Int64ObservableCounter
}

// observedHistogram reports cumulative bucket counts on one gauge, one
// data point per "le" bound.
type observedHistogram struct {
	id      phoneauth.MetricID
	buckets metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
	bounds  [8]metric.ObserveOption
}

// OTelExporter mirrors engine counters into OpenTelemetry observable
// instruments. Values are read from the engine on every collection.
type OTelExporter struct {
	source       metricsSource
	registration metric.Registration
	counters     []observedCounter
	histograms   []observedHistogram
}

// NewOTelExporter registers instruments on meter that read from engine.
func NewOTelExporter(meter metric.Meter, engine *phoneauth.Engine) (*OTelExporter, error) {
	if engine == nil {
		return nil, ErrNilSource
	}
	return NewOTelExporterFromSource(meter, engine)
}

// NewOTelExporterFromSource is NewOTelExporter for any snapshot source.
func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	exporter := &OTelExporter{
		source:     source,
		counters:   make([]observedCounter, 0, len(internaldefs.CounterDefs)),
		histograms: make([]observedHistogram, 0, len(internaldefs.HistogramDefs)),
	}

	observables := make([]metric.Observable, 0, len(internaldefs.CounterDefs)+len(internaldefs.HistogramDefs)*2)

	for _, def := range internaldefs.CounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("create observable counter %s: %w", def.Name, err)
		}
		exporter.counters = append(exporter.counters, observedCounter{id: def.ID, instrument: ins})
		observables = append(observables, ins)
	}

	for _, def := range internaldefs.HistogramDefs {
		h := observedHistogram{id: def.ID}

		bucketName := def.Name + "_bucket"
		buckets, err := meter.Int64ObservableGauge(bucketName, metric.WithDescription("Cumulative "+def.Help))
		if err != nil {
			return nil, fmt.Errorf("create histogram bucket gauge %s: %w", bucketName, err)
		}
		h.buckets = buckets
		for i, le := range internaldefs.HistogramBounds {
			h.bounds[i] = metric.WithAttributes(attribute.String("le", le))
		}

		countName := def.Name + "_count"
		count, err := meter.Int64ObservableGauge(countName, metric.WithDescription("Histogram total sample count."))
		if err != nil {
			return nil, fmt.Errorf("create histogram count gauge %s: %w", countName, err)
		}
		h.count = count

		observables = append(observables, buckets, count)
		exporter.histograms = append(exporter.histograms, h)
	}

	registration, err := meter.RegisterCallback(exporter.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}

	exporter.registration = registration
	return exporter, nil
}

func (e *OTelExporter) observe(_ context.Context, observer metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()
	for _, c := range e.counters {
		observer.ObserveInt64(c.instrument, int64(snapshot.Counters[c.id]))
	}
	for _, h := range e.histograms {
		raw, ok := snapshot.Histograms[h.id]
		if !ok {
			continue
		}
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
		for i := range cumulative {
			observer.ObserveInt64(h.buckets, int64(cumulative[i]), h.bounds[i])
		}
		observer.ObserveInt64(h.count, int64(cumulative[len(cumulative)-1]))
	}
	return nil
}

// Close unregisters the callback. Instruments stay registered on the meter.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
