// Package errors provides examples of structured error handling in the sender module.
package errors_test

import (
	"fmt"
	"io"

	"github.com/ajitpratap0/sender/pkg/errors"
)

// Example demonstrates basic error creation with details.
func Example() {
	err := errors.New(errors.ErrorTypeConfig, "max_in_flight must be positive").
		WithDetail("value", 0)

	fmt.Println(err.Error())

	// Output:
	// config: max_in_flight must be positive
}

// ExampleInvalidArgument shows the error raised for a missing argument.
func ExampleInvalidArgument() {
	err := errors.InvalidArgument("keySerializer")

	fmt.Println(err)
	fmt.Println(errors.IsInvalidArgument(err))
	fmt.Println(errors.IsRetryable(err))

	// Output:
	// invalid_argument: keySerializer must not be nil or empty
	// true
	// false
}

// ExampleWrap shows how to wrap existing errors with context.
func ExampleWrap() {
	err := errors.Wrap(io.EOF, errors.ErrorTypeFile, "failed to read sender config").
		WithDetail("file", "sender.yaml")

	if errors.IsType(err, errors.ErrorTypeFile) {
		fmt.Println("This is a file error")
	}

	fmt.Println(err)

	// Output:
	// This is a file error
	// file: failed to read sender config: EOF
}

// ExampleIsRetryable shows how to check if an error is retryable.
func ExampleIsRetryable() {
	timeoutErr := errors.New(errors.ErrorTypeTimeout, "close timed out")
	argErr := errors.InvalidArgument("scheduler")

	fmt.Printf("Timeout retryable: %v\n", errors.IsRetryable(timeoutErr))
	fmt.Printf("Invalid argument retryable: %v\n", errors.IsRetryable(argErr))

	// Output:
	// Timeout retryable: true
	// Invalid argument retryable: false
}
