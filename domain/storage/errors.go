package storage

import (
	"errors"
	"fmt"
)

// Kind classifies a failure surfaced at the tool boundary.
type Kind string

// Error kinds reported to tool callers.
const (
	KindUninitializedBackend Kind = "UninitializedBackend"
	KindIndexOutOfRange      Kind = "IndexOutOfRange"
	KindPayloadRead          Kind = "PayloadReadError"
	KindBackend              Kind = "BackendError"
	KindInvalidArgument      Kind = "InvalidArgument"
)

// Sentinel errors, one per Kind. An *Error matches the sentinel of its kind with errors.Is.
var (
	// ErrUninitializedBackend indicates a tool was called before init-backend.
	ErrUninitializedBackend = errors.New("storage backend not initialized")

	// ErrIndexOutOfRange indicates a registry index is not a valid current position.
	ErrIndexOutOfRange = errors.New("cloudobject index out of range")

	// ErrPayloadRead indicates a local payload file could not be read or decoded.
	ErrPayloadRead = errors.New("payload read failed")

	// ErrBackend indicates the storage backend rejected an operation.
	ErrBackend = errors.New("backend operation failed")

	// ErrInvalidArgument indicates malformed tool arguments.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Backend-level errors. Providers wrap these so callers can tell common
// conditions apart; at the tool boundary they are reported as BackendError.
var (
	ErrBucketNotFound   = errors.New("bucket not found")
	ErrBucketExists     = errors.New("bucket already exists")
	ErrObjectNotFound   = errors.New("object not found")
	ErrNoBucket         = errors.New("no bucket given and no storage_bucket configured")
	ErrBackendMismatch  = errors.New("cloudobject backend mismatch")
	ErrInvalidRange     = errors.New("invalid range")
	ErrUnknownBackend   = errors.New("unknown storage backend")
	ErrObjectTooLarge   = errors.New("object exceeds max object size")
	ErrClosed           = errors.New("storage client closed")
	ErrMissingParameter = errors.New("missing required parameter")
)

// Error is a classified failure carrying the operation that produced it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg += ": " + e.Op
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel error for e's kind.
func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

func (k Kind) sentinel() error {
	switch k {
	case KindUninitializedBackend:
		return ErrUninitializedBackend
	case KindIndexOutOfRange:
		return ErrIndexOutOfRange
	case KindPayloadRead:
		return ErrPayloadRead
	case KindBackend:
		return ErrBackend
	case KindInvalidArgument:
		return ErrInvalidArgument
	default:
		return nil
	}
}

// KindOf returns the kind of err. Unclassified errors are reported as BackendError.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindBackend
}

// Uninitialized returns an UninitializedBackend error for op.
func Uninitialized(op string) *Error {
	return &Error{Kind: KindUninitializedBackend, Op: op, Err: ErrUninitializedBackend}
}

// IndexOutOfRange returns an IndexOutOfRange error describing the offending bounds.
func IndexOutOfRange(op string, index, length int) *Error {
	return &Error{
		Kind: KindIndexOutOfRange,
		Op:   op,
		Err:  fmt.Errorf("index %d not in [0, %d)", index, length),
	}
}

// RangeOutOfRange returns an IndexOutOfRange error for a half-open slice.
func RangeOutOfRange(op string, start, end, length int) *Error {
	return &Error{
		Kind: KindIndexOutOfRange,
		Op:   op,
		Err:  fmt.Errorf("range [%d, %d) not within [0, %d]", start, end, length),
	}
}

// PayloadRead returns a PayloadReadError for the file at path.
func PayloadRead(path string, err error) *Error {
	return &Error{Kind: KindPayloadRead, Op: path, Err: err}
}

// Backend wraps err as a BackendError unless it is already classified.
func Backend(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return &Error{Kind: KindBackend, Op: op, Err: err}
}

// InvalidArgument returns an InvalidArgument error.
func InvalidArgument(op string, err error) *Error {
	return &Error{Kind: KindInvalidArgument, Op: op, Err: err}
}
