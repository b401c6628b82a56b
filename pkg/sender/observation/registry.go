// Package observation defines the hooks a Kafka sender uses to trace and
// measure each send. A Registry starts one Observation per send and a
// Convention decides how that observation is named and tagged.
//
// Three registries ship with the package:
//   - Noop, the default, which records nothing
//   - NewOTelRegistry, which emits OpenTelemetry spans and a duration histogram
//   - NewPrometheusRegistry, which maintains Prometheus counters and histograms
//
// Compose fans one send out to several registries.
package observation

import (
	"context"
)

// SendContext describes the send being observed.
type SendContext struct {
	// Topic is the destination topic of the record.
	Topic string
	// ClientID is the producer client id taken from the sender options.
	ClientID string
	// Partition is the destination partition, or -1 when the partitioner decides.
	Partition int32
}

// Observation tracks a single in-progress send.
type Observation interface {
	// Error marks the observation as failed. Only the last error is kept.
	Error(err error)
	// Stop completes the observation. Calls after the first are ignored.
	Stop()
}

// Registry starts observations.
type Registry interface {
	// Start begins observing a send. The returned context carries any
	// tracing state the registry attached.
	Start(ctx context.Context, sc SendContext, conv Convention) (context.Context, Observation)
	// IsNoop reports whether the registry discards everything it observes.
	IsNoop() bool
}

// Noop is a Registry that records nothing. It is the default registry of
// sender options.
var Noop Registry = noopRegistry{}

type noopRegistry struct{}

func (noopRegistry) Start(ctx context.Context, _ SendContext, _ Convention) (context.Context, Observation) {
	return ctx, noopObservation{}
}

func (noopRegistry) IsNoop() bool { return true }

type noopObservation struct{}

func (noopObservation) Error(error) {}
func (noopObservation) Stop()       {}

// Start begins an observation on reg using conv, falling back to Noop for a
// nil registry and to DefaultConvention for a nil convention.
func Start(ctx context.Context, reg Registry, conv Convention, sc SendContext) (context.Context, Observation) {
	if reg == nil {
		reg = Noop
	}
	if conv == nil {
		conv = DefaultConvention
	}
	return reg.Start(ctx, sc, conv)
}

// Compose returns a Registry that starts an observation on every non-noop
// registry given. With no such registries it returns Noop.
func Compose(registries ...Registry) Registry {
	active := make([]Registry, 0, len(registries))
	for _, r := range registries {
		if r != nil && !r.IsNoop() {
			active = append(active, r)
		}
	}
	switch len(active) {
	case 0:
		return Noop
	case 1:
		return active[0]
	}
	return &compositeRegistry{registries: active}
}

type compositeRegistry struct {
	registries []Registry
}

func (c *compositeRegistry) Start(ctx context.Context, sc SendContext, conv Convention) (context.Context, Observation) {
	obs := make(compositeObservation, 0, len(c.registries))
	for _, r := range c.registries {
		var o Observation
		ctx, o = r.Start(ctx, sc, conv)
		obs = append(obs, o)
	}
	return ctx, obs
}

func (c *compositeRegistry) IsNoop() bool { return false }

type compositeObservation []Observation

func (c compositeObservation) Error(err error) {
	for _, o := range c {
		o.Error(err)
	}
}

// Stop completes observations in reverse start order so nested spans end
// before their parents.
func (c compositeObservation) Stop() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i].Stop()
	}
}
