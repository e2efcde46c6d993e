// Package errors provides examples of structured error handling in Skylift.
package errors_test

import (
	"fmt"

	"github.com/ajitpratap0/skylift/pkg/errors"
)

// Example demonstrates basic error creation and wrapping.
func Example() {
	// Create a new error with type
	err := errors.New(errors.ErrorTypeAPI, "airbyte API POST /sources/create returned HTTP 500")

	// Add context details
	err = err.WithDetail("method", "POST").
		WithDetail("path", "/sources/create").
		WithDetail("status_code", 500)

	// Print the error
	fmt.Println(err.Error())

	// Output:
	// api: airbyte API POST /sources/create returned HTTP 500
}

// ExampleWrap shows how to wrap existing errors with context.
func ExampleWrap() {
	// Simulate an underlying decode failure
	originalErr := fmt.Errorf("invalid character '<' looking for beginning of value")

	// Wrap the error with context
	err := errors.Wrap(originalErr, errors.ErrorTypeDecode, "non-JSON response from POST /sources/check_connection").
		WithDetail("path", "/sources/check_connection")

	// Check the error type
	if errors.IsType(err, errors.ErrorTypeDecode) {
		fmt.Println("This is a decode error")
	}

	// Output:
	// This is a decode error
}

// ExampleIsType demonstrates checking error types through wrapping.
func ExampleIsType() {
	// Create errors of different types
	schemaErr := errors.New(errors.ErrorTypeSchema, "tables not discovered: [Payments]")
	configErr := errors.New(errors.ErrorTypeConfig, "source document missing required key \"definitionId\"")

	// Wrap an error
	wrappedErr := errors.Wrap(schemaErr, errors.ErrorTypeInternal, "provisioning failed")

	// Check error types
	fmt.Printf("Is schema error: %v\n", errors.IsType(schemaErr, errors.ErrorTypeSchema))
	fmt.Printf("Is config error: %v\n", errors.IsType(configErr, errors.ErrorTypeConfig))

	// IsType matches the outermost type of a wrapped error
	fmt.Printf("Wrapped error is internal type: %v\n", errors.IsType(wrappedErr, errors.ErrorTypeInternal))
	fmt.Printf("Wrapped error is schema type: %v\n", errors.IsType(wrappedErr, errors.ErrorTypeSchema))

	// Output:
	// Is schema error: true
	// Is config error: true
	// Wrapped error is internal type: true
	// Wrapped error is schema type: false
}

// Example_errorChain shows how error context accumulates across layers.
func Example_errorChain() {
	// Simulate a failing validation step
	err := checkDestination()
	if err != nil {
		err = errors.Wrap(err, errors.ErrorTypeValidation, "destination check reported failure")
		fmt.Println("Full error chain:", err)
	}

	// Output:
	// Full error chain: validation: destination check reported failure: api: airbyte API POST /destinations/check_connection returned HTTP 504
}

// checkDestination simulates a failed validation call
func checkDestination() error {
	return errors.New(errors.ErrorTypeAPI, "airbyte API POST /destinations/check_connection returned HTTP 504").
		WithDetail("status_code", 504)
}
