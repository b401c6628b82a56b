package sender

import (
	"fmt"
	"maps"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/ajitpratap0/sender/pkg/errors"
	"github.com/ajitpratap0/sender/pkg/sender/observation"
)

const (
	// DefaultMaxInFlight is the default cap on unacknowledged sends.
	DefaultMaxInFlight = 256
	// DefaultCloseTimeout leaves graceful close unbounded.
	DefaultCloseTimeout = time.Duration(math.MaxInt64)
)

// Options configures a Kafka sender. An Options value is immutable: every
// With method returns a new instance and leaves the receiver untouched, so
// one Options may be shared freely between goroutines.
//
// K and V are the record key and value types the serializers accept.
type Options[K, V any] struct {
	properties            map[string]any
	keySerializer         Serializer[K]
	valueSerializer       Serializer[V]
	closeTimeout          time.Duration
	scheduler             Scheduler
	maxInFlight           int
	stopOnError           bool
	observationRegistry   observation.Registry
	observationConvention observation.Convention
}

// NewOptions creates options with an empty producer overlay and default
// settings. A client id is synthesized.
func NewOptions[K, V any]() *Options[K, V] {
	return newRootOptions[K, V](make(map[string]any))
}

// NewOptionsFromMap creates options from a copy of props. The client id in
// props is kept when present; otherwise one is synthesized.
func NewOptionsFromMap[K, V any](props map[string]any) *Options[K, V] {
	overlay := make(map[string]any, len(props)+1)
	maps.Copy(overlay, props)
	return newRootOptions[K, V](overlay)
}

// NewOptionsFromProperties creates options from a loosely typed property
// source. Every key is converted to its string form; values are kept as is.
// Two keys with the same string form, such as 1 and "1", are an invalid
// argument.
func NewOptionsFromProperties[K, V any](props map[any]any) (*Options[K, V], error) {
	overlay := make(map[string]any, len(props)+1)
	for k, v := range props {
		name := fmt.Sprint(k)
		if _, dup := overlay[name]; dup {
			return nil, errors.New(errors.ErrorTypeInvalidArgument, "duplicate property key").
				WithDetail("argument", "props").
				WithDetail("key", name)
		}
		overlay[name] = v
	}
	return newRootOptions[K, V](overlay), nil
}

// newRootOptions takes ownership of overlay.
func newRootOptions[K, V any](overlay map[string]any) *Options[K, V] {
	ensureClientID(overlay)
	return &Options[K, V]{
		properties:          overlay,
		closeTimeout:        DefaultCloseTimeout,
		scheduler:           Immediate(),
		maxInFlight:         DefaultMaxInFlight,
		stopOnError:         true,
		observationRegistry: observation.Noop,
	}
}

// clone copies every field. The overlay map is shared; callers that change
// it must replace it with a fresh map first.
func (o *Options[K, V]) clone() *Options[K, V] {
	c := *o
	return &c
}

// ProducerProperties returns a copy of the producer overlay.
func (o *Options[K, V]) ProducerProperties() map[string]any {
	return maps.Clone(o.properties)
}

// ProducerProperty returns the overlay value for key, or nil when key is not
// set.
func (o *Options[K, V]) ProducerProperty(key string) (any, error) {
	if key == "" {
		return nil, errors.InvalidArgument("key")
	}
	return o.properties[key], nil
}

// WithProducerProperty returns options whose overlay maps key to value.
func (o *Options[K, V]) WithProducerProperty(key string, value any) (*Options[K, V], error) {
	if key == "" {
		return nil, errors.InvalidArgument("key")
	}
	if value == nil {
		return nil, errors.InvalidArgument("value").WithDetail("key", key)
	}

	overlay := make(map[string]any, len(o.properties)+1)
	maps.Copy(overlay, o.properties)
	overlay[key] = value

	c := o.clone()
	c.properties = overlay
	return c, nil
}

// KeySerializer returns the key serializer, or nil when keys are serialized
// by the class named in the key.serializer property.
func (o *Options[K, V]) KeySerializer() Serializer[K] {
	return o.keySerializer
}

// WithKeySerializer returns options using s for record keys. It overrides
// the key.serializer property.
func (o *Options[K, V]) WithKeySerializer(s Serializer[K]) (*Options[K, V], error) {
	if s == nil {
		return nil, errors.InvalidArgument("keySerializer")
	}
	c := o.clone()
	c.keySerializer = s
	return c, nil
}

// ValueSerializer returns the value serializer, or nil when values are
// serialized by the class named in the value.serializer property.
func (o *Options[K, V]) ValueSerializer() Serializer[V] {
	return o.valueSerializer
}

// WithValueSerializer returns options using s for record values. It
// overrides the value.serializer property.
func (o *Options[K, V]) WithValueSerializer(s Serializer[V]) (*Options[K, V], error) {
	if s == nil {
		return nil, errors.InvalidArgument("valueSerializer")
	}
	c := o.clone()
	c.valueSerializer = s
	return c, nil
}

// Scheduler returns the scheduler send results are delivered on.
func (o *Options[K, V]) Scheduler() Scheduler {
	return o.scheduler
}

// WithScheduler returns options delivering send results on s.
func (o *Options[K, V]) WithScheduler(s Scheduler) (*Options[K, V], error) {
	if s == nil {
		return nil, errors.InvalidArgument("scheduler")
	}
	c := o.clone()
	c.scheduler = s
	return c, nil
}

// MaxInFlight returns the cap on sends awaiting acknowledgement.
func (o *Options[K, V]) MaxInFlight() int {
	return o.maxInFlight
}

// WithMaxInFlight returns options with a new in-flight cap. The value is not
// range checked here; producer construction rejects values below one.
// Configure it together with buffer.memory to bound memory use.
func (o *Options[K, V]) WithMaxInFlight(maxInFlight int) *Options[K, V] {
	c := o.clone()
	c.maxInFlight = maxInFlight
	return c
}

// StopOnError reports whether a batched send stops at its first failure.
// When false every record of the batch is attempted even if some fail with
// non-fatal errors.
func (o *Options[K, V]) StopOnError() bool {
	return o.stopOnError
}

// WithStopOnError returns options with the given error policy. Pair it with
// the retries and acks properties to get the required delivery guarantee.
func (o *Options[K, V]) WithStopOnError(stopOnError bool) *Options[K, V] {
	c := o.clone()
	c.stopOnError = stopOnError
	return c
}

// CloseTimeout returns the bound on graceful close of the producer.
func (o *Options[K, V]) CloseTimeout() time.Duration {
	return o.closeTimeout
}

// WithCloseTimeout returns options with a new close timeout.
func (o *Options[K, V]) WithCloseTimeout(timeout time.Duration) *Options[K, V] {
	c := o.clone()
	c.closeTimeout = timeout
	return c
}

// ObservationRegistry returns the registry sends are observed with.
func (o *Options[K, V]) ObservationRegistry() observation.Registry {
	return o.observationRegistry
}

// ObservationConvention returns the naming convention, or nil when the
// default convention applies.
func (o *Options[K, V]) ObservationConvention() observation.Convention {
	return o.observationConvention
}

// WithObservation returns options observed through registry and named by
// convention. A nil convention selects observation.DefaultConvention.
func (o *Options[K, V]) WithObservation(registry observation.Registry, convention observation.Convention) (*Options[K, V], error) {
	if registry == nil {
		return nil, errors.InvalidArgument("observationRegistry")
	}
	c := o.clone()
	c.observationRegistry = registry
	c.observationConvention = convention
	return c, nil
}

// ClientID returns the client id of the overlay in string form.
func (o *Options[K, V]) ClientID() string {
	return stringProperty(o.properties, ClientIDConfig)
}

// TransactionalID returns the transactional id, or "" when none is set.
func (o *Options[K, V]) TransactionalID() string {
	return stringProperty(o.properties, TransactionalIDConfig)
}

// IsTransactional reports whether a non-empty transactional id is set.
func (o *Options[K, V]) IsTransactional() bool {
	return o.TransactionalID() != ""
}

// BootstrapServers returns the bootstrap.servers property in string form.
func (o *Options[K, V]) BootstrapServers() string {
	return stringProperty(o.properties, BootstrapServersConfig)
}

// Equal reports whether o and other configure the same sender. Observation
// settings are not compared.
func (o *Options[K, V]) Equal(other *Options[K, V]) bool {
	if o == other {
		return true
	}
	if o == nil || other == nil {
		return false
	}
	return o.maxInFlight == other.maxInFlight &&
		o.stopOnError == other.stopOnError &&
		o.closeTimeout == other.closeTimeout &&
		propertiesEqual(o.properties, other.properties) &&
		sameReference(o.keySerializer, other.keySerializer) &&
		sameReference(o.valueSerializer, other.valueSerializer) &&
		sameReference(o.scheduler, other.scheduler)
}

// Hash returns a hash consistent with Equal.
func (o *Options[K, V]) Hash() uint64 {
	if o == nil {
		return 0
	}
	return hashOptions(o.properties, o.keySerializer, o.valueSerializer,
		o.closeTimeout, o.scheduler, o.maxInFlight, o.stopOnError)
}

// String lists the client id, the overlay keys and the typed settings.
// Secret values are masked.
func (o *Options[K, V]) String() string {
	keys := make([]string, 0, len(o.properties))
	for k := range o.properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("Options{")
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteByte('=')
		if IsSecretProperty(k) {
			b.WriteString("[hidden]")
		} else {
			fmt.Fprint(&b, o.properties[k])
		}
	}
	fmt.Fprintf(&b, "; maxInFlight=%d, stopOnError=%t, closeTimeout=%s, scheduler=%v}",
		o.maxInFlight, o.stopOnError, formatTimeout(o.closeTimeout), o.scheduler)
	return b.String()
}

// IsSecretProperty reports whether the value of key must not be displayed.
func IsSecretProperty(key string) bool {
	k := strings.ToLower(key)
	return strings.Contains(k, "password") ||
		strings.Contains(k, "secret") ||
		strings.Contains(k, "jaas.config")
}

func formatTimeout(d time.Duration) string {
	if d == DefaultCloseTimeout {
		return "unbounded"
	}
	return d.String()
}

func stringProperty(props map[string]any, key string) string {
	v, ok := props[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
