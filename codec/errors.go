package codec

import (
	"errors"
	"fmt"
)

// Sentinel error kinds, one per distinct failure mode the codec can
// report. Each is wrapped with dynamic detail by the constructor
// functions below, so callers can match with errors.Is against the
// sentinel while still getting a message with specifics.
var (
	ErrValidationFailure       = errors.New("codec: validation failure")
	ErrUnserializableSchema    = errors.New("codec: schema cannot be serialized")
	ErrValueOutOfRange         = errors.New("codec: value out of range")
	ErrTransformUnserializable = errors.New("codec: transform must run during encoding")
	ErrProtocolMismatch        = errors.New("codec: envelope protocol version mismatch")
	ErrSchemaMismatch          = errors.New("codec: envelope schema fingerprint mismatch")
	ErrMalformedInput          = errors.New("codec: malformed input")
)

func validationError(cause error) error {
	return fmt.Errorf("%w: %w", ErrValidationFailure, cause)
}

func unserializableSchemaError(reason string) error {
	return fmt.Errorf("%w: %s", ErrUnserializableSchema, reason)
}

func valueOutOfRangeError(reason string) error {
	return fmt.Errorf("%w: %s", ErrValueOutOfRange, reason)
}

func transformUnserializableError() error {
	return fmt.Errorf("%w: a catch replacement cannot pass through an outer transform", ErrTransformUnserializable)
}

func protocolMismatchError(got byte) error {
	return fmt.Errorf("%w: got version %d, want 1", ErrProtocolMismatch, got)
}

func schemaMismatchError(got, want uint64) error {
	return fmt.Errorf("%w: got %#016x, want %#016x", ErrSchemaMismatch, got, want)
}

func malformedInputError(reason string) error {
	return fmt.Errorf("%w: %s", ErrMalformedInput, reason)
}
