package service

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrNoResult is returned by Send when the request completed without
	// producing a value.
	ErrNoResult = errors.New("service: request completed without a result")

	// ErrStopped is returned by Send when the service is stopped, or its
	// channel reset, before the request resolved.
	ErrStopped = errors.New("service: stopped")
)

// ConfigError describes an invalid Config.
type ConfigError struct {
	Field  string
	Reason string
}

// Error implements error.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("service config: %s: %s", e.Field, e.Reason)
}

// PayloadTypeError ends a task whose handler produced a value of the wrong
// type, or that was requested with a payload of the wrong type.
type PayloadTypeError struct {
	Action string // Action type involved
	Want   string // Expected Go type
	Got    any    // Offending value
}

// Error implements error.
func (e *PayloadTypeError) Error() string {
	return fmt.Sprintf("%s: want payload of type %s, got %T", e.Action, e.Want, e.Got)
}
