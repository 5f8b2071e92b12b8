package hdb

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidEntrySize matches any *InvalidEntrySizeError via errors.Is
	ErrInvalidEntrySize = errors.New("invalid entry size")
	// ErrIO matches any *IOError via errors.Is
	ErrIO = errors.New("hdb i/o error")
)

// Kind identifies which of the loader's failure classes an error belongs to.
type Kind int

const (
	// KindNone is the kind of a nil error
	KindNone Kind = iota
	// KindInvalidEntrySize is a shard whose length is not a multiple of EntrySize
	KindInvalidEntrySize
	// KindIO is a failed directory or file operation
	KindIO
	// KindUnknown is any error not produced by this package
	KindUnknown
)

// String returns the name of the kind
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindInvalidEntrySize:
		return "invalid entry size"
	case KindIO:
		return "io"
	default:
		return "unknown"
	}
}

// InvalidEntrySizeError is returned when a shard's length is not a multiple
// of EntrySize.
type InvalidEntrySizeError struct {
	Path string
	Size int64
}

// Error formats the path and observed size
func (e *InvalidEntrySizeError) Error() string {
	return fmt.Sprintf("invalid entry size in file %s: expected multiple of %d, got %d",
		e.Path, EntrySize, e.Size)
}

// Is makes errors.Is(err, ErrInvalidEntrySize) hold
func (e *InvalidEntrySizeError) Is(target error) bool {
	return target == ErrInvalidEntrySize
}

// Operations recorded on IOError
const (
	// OpReadDir covers listing the root, including per-entry lookups
	OpReadDir = "read directory"
	// OpOpenShard is opening a shard file
	OpOpenShard = "open shard"
	// OpReadShard is reading a shard file's contents
	OpReadShard = "read shard"
)

// IOError wraps an operating system failure with the operation and path
// that produced it.
type IOError struct {
	Op   string
	Path string
	Err  error
}

// Error formats the operation, path and cause
func (e *IOError) Error() string {
	return fmt.Sprintf("failed to %s '%s': %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying operating system error
func (e *IOError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrIO) hold
func (e *IOError) Is(target error) bool {
	return target == ErrIO
}

// ErrorKind classifies err. A nil error is KindNone.
func ErrorKind(err error) Kind {
	if err == nil {
		return KindNone
	}

	var sizeErr *InvalidEntrySizeError
	if errors.As(err, &sizeErr) {
		return KindInvalidEntrySize
	}

	var ioErr *IOError
	if errors.As(err, &ioErr) {
		return KindIO
	}

	return KindUnknown
}
