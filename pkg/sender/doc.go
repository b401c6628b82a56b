// Package sender provides the immutable options that configure a Kafka
// sender: the raw producer properties (the overlay) plus typed settings for
// serialization, result scheduling, in-flight limits, error policy, close
// timeout and observation.
//
// # Construction
//
//	opts := sender.NewOptionsFromMap[string, Order](map[string]any{
//	    sender.BootstrapServersConfig: "localhost:9092",
//	    sender.AcksConfig:             "all",
//	})
//
// Every root constructor makes sure the overlay carries a client.id. A
// configured client.id is kept. Otherwise the id is "producer-" followed by
// the transactional.id when one is set, or by a process-wide sequence number.
// Derived options never synthesize a new id.
//
// # Derivation
//
// Options never change after construction. Each With method returns a new
// value that differs in exactly one setting:
//
//	opts, err := opts.WithValueSerializer(sender.JSONSerializer[Order]{})
//	opts = opts.WithMaxInFlight(1024).WithStopOnError(false)
//
// Methods that take a reference reject nil with an invalid argument error
// (see errors.IsInvalidArgument).
//
// # Identity
//
// Equal and Hash cover the overlay, serializers, scheduler, in-flight cap,
// error policy and close timeout. Serializers and schedulers are compared by
// reference. Observation settings are not part of identity.
package sender
