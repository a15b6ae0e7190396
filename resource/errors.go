package resource

import (
	"errors"
	"fmt"

	"github.com/32bitkid/sciresource/decompression"
)

var (
	// ErrNotFound is returned by Find for unknown identities and for
	// resources whose data could not be loaded.
	ErrNotFound = errors.New("resource not found")

	ErrIO             = errors.New("i/o error")
	ErrEmptyResource  = errors.New("resource is empty (size 0)")
	ErrResourceTooBig = errors.New("resource too big")

	ErrMapNotFound         = errors.New("resource map not found")
	ErrMapCorrupt          = errors.New("resource map entry is invalid")
	ErrNoResourceFiles     = errors.New("no resource files found")
	ErrUndeterminedVersion = errors.New("unable to determine resource format")

	// Codec failures surface under their decompression names.
	ErrUnknownCompression    = decompression.ErrUnknownMethod
	ErrUnsupportedMethod     = decompression.ErrUnsupportedMethod
	ErrDecompressionOverflow = decompression.ErrBufferOverflow
	ErrDecompressionSanity   = decompression.ErrSanity
)

// MapCorruptError describes one skipped map entry.
type MapCorruptError struct {
	Map    string
	Offset int
	Reason string
}

func (e *MapCorruptError) Error() string {
	return fmt.Sprintf("%s: entry at %#x: %s", e.Map, e.Offset, e.Reason)
}

func (e *MapCorruptError) Unwrap() error { return ErrMapCorrupt }

// LoadError reports why a resource's data could not be produced.
type LoadError struct {
	ID     ID
	Source string
	cause  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading %v from %s: %v", e.ID, e.Source, e.cause)
}

func (e *LoadError) Unwrap() error { return e.cause }

func wrapIO(err error) error { return fmt.Errorf("%w: %v", ErrIO, err) }
