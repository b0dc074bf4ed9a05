package fit

import (
	"os"

	"github.com/cespare/xxhash/v2"
)

// Open reads path into memory and wraps it as a Decoder.
func Open(path string) (*Decoder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, wrap("opening file", err)
	}
	return New(data), nil
}

// Fingerprint returns a content hash for data, suitable for de-duplicating
// FIT files (e.g. the same activity uploaded twice) without a full decode.
// It is not part of the FIT format itself; it exists purely as a fast,
// stable identifier for CLI and server callers.
func Fingerprint(data []byte) uint64 {
	return xxhash.Sum64(data)
}
