package observation

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName identifies the tracer and meter of the OTel registry.
const InstrumentationName = "github.com/ajitpratap0/sender/pkg/sender/observation"

// statusKey tags the duration histogram with the send outcome.
const statusKey = attribute.Key("status")

// OTelRegistry emits one producer span per send and records send duration in
// a histogram named "<convention name>.duration".
type OTelRegistry struct {
	tracer trace.Tracer
	meter  metric.Meter

	mu         sync.RWMutex
	histograms map[string]metric.Float64Histogram
}

// NewOTelRegistry creates a registry on the given providers. Nil providers
// fall back to the global ones.
func NewOTelRegistry(tp trace.TracerProvider, mp metric.MeterProvider) *OTelRegistry {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	return &OTelRegistry{
		tracer:     tp.Tracer(InstrumentationName),
		meter:      mp.Meter(InstrumentationName),
		histograms: make(map[string]metric.Float64Histogram),
	}
}

// Start implements Registry.
func (r *OTelRegistry) Start(ctx context.Context, sc SendContext, conv Convention) (context.Context, Observation) {
	attrs := conv.LowCardinalityKeyValues(sc)
	ctx, span := r.tracer.Start(ctx, conv.ContextualName(sc),
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(attrs...),
	)

	return ctx, &otelObservation{
		ctx:       ctx,
		span:      span,
		histogram: r.histogram(conv.Name()),
		attrs:     attrs,
		start:     time.Now(),
	}
}

// IsNoop implements Registry.
func (r *OTelRegistry) IsNoop() bool { return false }

// histogram returns the duration histogram for an observation name, creating
// it on first use. A nil result means the meter refused the instrument.
func (r *OTelRegistry) histogram(name string) metric.Float64Histogram {
	r.mu.RLock()
	h, ok := r.histograms[name]
	r.mu.RUnlock()
	if ok {
		return h
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock
	if h, ok := r.histograms[name]; ok {
		return h
	}

	h, err := r.meter.Float64Histogram(name+".duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of Kafka send operations"),
	)
	if err != nil {
		h = nil
	}
	r.histograms[name] = h
	return h
}

type otelObservation struct {
	ctx       context.Context
	span      trace.Span
	histogram metric.Float64Histogram
	attrs     []attribute.KeyValue
	start     time.Time

	mu   sync.Mutex
	err  error
	once sync.Once
}

func (o *otelObservation) Error(err error) {
	if err == nil {
		return
	}
	o.mu.Lock()
	o.err = err
	o.mu.Unlock()
}

func (o *otelObservation) Stop() {
	o.once.Do(func() {
		o.mu.Lock()
		err := o.err
		o.mu.Unlock()

		status := "success"
		if err != nil {
			status = "error"
			o.span.RecordError(err)
			o.span.SetStatus(codes.Error, err.Error())
		} else {
			o.span.SetStatus(codes.Ok, "")
		}

		if o.histogram != nil {
			attrs := make([]attribute.KeyValue, 0, len(o.attrs)+1)
			attrs = append(attrs, o.attrs...)
			attrs = append(attrs, statusKey.String(status))
			o.histogram.Record(o.ctx, time.Since(o.start).Seconds(), metric.WithAttributes(attrs...))
		}

		o.span.End()
	})
}
