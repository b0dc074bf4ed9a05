package fit

import (
	"errors"
	"fmt"
)

// Fatal errors. A fatal error aborts decoding of the current sub-file;
// subsequent concatenated sub-files, if any, are not attempted, since the
// walker has no way to know where the next header begins.
var (
	ErrNotAFitFile                    = errors.New("fit: not a FIT file")
	ErrCrcMismatch                    = errors.New("fit: CRC mismatch")
	ErrUnknownBaseType                = errors.New("fit: unknown base type")
	ErrUnknownLocalMesgNum            = errors.New("fit: unknown local message number")
	ErrCompressedTimestampUnsupported = errors.New("fit: compressed-timestamp headers are not supported")
	ErrEndOfStream                    = errors.New("fit: read past end of stream")
	ErrInvalidOptions                 = errors.New("fit: invalid options")
)

// errOutOfBits is internal to component expansion (spec.md §4.3's
// OutOfBits): callers stop expanding a field once its bits are exhausted
// rather than surfacing this to Decode's error list (spec.md §4.8, step 4,
// "Stop this field's expansion once bits are exhausted").
var errOutOfBits = errors.New("fit: read past end of bit stream")

// wrap annotates err with context while preserving errors.Is against the
// sentinel errors above.
func wrap(context string, err error) error {
	return fmt.Errorf("%s: %w", context, err)
}
