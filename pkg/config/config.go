package config

import (
	"strings"
	"time"

	"github.com/ajitpratap0/sender/pkg/errors"
	"github.com/ajitpratap0/sender/pkg/sender"
)

// unbounded is the close_timeout value that disables the bound.
const unbounded = "unbounded"

// File is a parsed sender configuration.
type File struct {
	// Path is the file the configuration was loaded from, if any.
	Path string
	// Format is one of yaml, json, toml or properties.
	Format string
	// Producer is the flat producer property overlay.
	Producer map[string]any
	// Sender holds the typed settings. Unset fields keep their defaults.
	Sender SenderSettings
}

// SenderSettings are the typed settings of the sender section.
type SenderSettings struct {
	MaxInFlight  *int
	StopOnError  *bool
	CloseTimeout *time.Duration
}

// Validate checks the typed settings.
func (f *File) Validate() error {
	if f == nil {
		return errors.InvalidArgument("config")
	}
	if f.Sender.MaxInFlight != nil && *f.Sender.MaxInFlight <= 0 {
		return errors.Newf(errors.ErrorTypeValidation,
			"sender.max_in_flight must be positive, got %d", *f.Sender.MaxInFlight)
	}
	if f.Sender.CloseTimeout != nil && *f.Sender.CloseTimeout < 0 {
		return errors.Newf(errors.ErrorTypeValidation,
			"sender.close_timeout must not be negative, got %s", *f.Sender.CloseTimeout)
	}
	for key, value := range f.Producer {
		if strings.TrimSpace(key) == "" {
			return errors.New(errors.ErrorTypeValidation, "producer property with empty name")
		}
		if value == nil {
			return errors.Newf(errors.ErrorTypeValidation, "producer property %s has no value", key)
		}
	}
	return nil
}

// BuildOptions validates f and returns root sender options built from it.
// The producer section becomes the overlay, so the usual client id rules
// apply. Serializers and the scheduler keep their defaults.
func BuildOptions[K, V any](f *File) (*sender.Options[K, V], error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	opts := sender.NewOptionsFromMap[K, V](f.Producer)
	if f.Sender.MaxInFlight != nil {
		opts = opts.WithMaxInFlight(*f.Sender.MaxInFlight)
	}
	if f.Sender.StopOnError != nil {
		opts = opts.WithStopOnError(*f.Sender.StopOnError)
	}
	if f.Sender.CloseTimeout != nil {
		opts = opts.WithCloseTimeout(*f.Sender.CloseTimeout)
	}
	return opts, nil
}

// FromOptions captures opts as a File. Secret properties are kept, so the
// result must be treated like the original configuration.
func FromOptions[K, V any](opts *sender.Options[K, V]) *File {
	maxInFlight := opts.MaxInFlight()
	stopOnError := opts.StopOnError()
	closeTimeout := opts.CloseTimeout()
	return &File{
		Format:   "yaml",
		Producer: opts.ProducerProperties(),
		Sender: SenderSettings{
			MaxInFlight:  &maxInFlight,
			StopOnError:  &stopOnError,
			CloseTimeout: &closeTimeout,
		},
	}
}

func parseCloseTimeout(s string) (time.Duration, *errors.Error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, unbounded) {
		return sender.DefaultCloseTimeout, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrorTypeConfig, "invalid sender.close_timeout").
			WithDetail("value", s)
	}
	return d, nil
}

func formatCloseTimeout(d time.Duration) string {
	if d == sender.DefaultCloseTimeout {
		return unbounded
	}
	return d.String()
}
