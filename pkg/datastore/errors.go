package datastore

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	// ErrNoSuchEntity is returned by single-key reads when no entity exists
	// under the key. Batch reads omit missing entities instead.
	ErrNoSuchEntity = errors.New("datastore: no such entity")

	// ErrIncompleteKey is returned when an operation requires a fully
	// identified key, e.g. deleting by an incomplete key.
	ErrIncompleteKey = errors.New("datastore: key is incomplete")

	// ErrTransactionFinished is returned when a transaction is used after
	// Commit or Rollback.
	ErrTransactionFinished = errors.New("datastore: transaction already finished")
)

// UnexpectedTypeError reports a value whose variant does not match what the
// consumer required. It is fatal and never retried.
type UnexpectedTypeError struct {
	Expected string
	Got      string
}

func (e *UnexpectedTypeError) Error() string {
	return fmt.Sprintf("datastore: unexpected property type: expected %s, got %s", e.Expected, e.Got)
}

// MissingPropertyError reports a required property absent from an entity at
// decode time.
type MissingPropertyError struct {
	Property string
}

func (e *MissingPropertyError) Error() string {
	return fmt.Sprintf("datastore: missing property %q", e.Property)
}

// UnknownVariantError reports a stored enumeration value that matches no
// registered variant name.
type UnknownVariantError struct {
	Enum    string
	Variant string
}

func (e *UnknownVariantError) Error() string {
	return fmt.Sprintf("datastore: unknown variant %q for enum %s", e.Variant, e.Enum)
}

// StatusCode extracts the gRPC status code from a transport error surfaced
// by a Service, or codes.Unknown for errors that carry no status.
func StatusCode(err error) codes.Code {
	if s, ok := status.FromError(err); ok {
		return s.Code()
	}
	return codes.Unknown
}
