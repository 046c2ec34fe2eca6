// Package pool implements the persistence pool: an identity-preserving
// binary serialization of the resolved model and its build graph payload.
// Shared entities are written once and referenced by a stable integer id;
// on load all references to one id resolve to the same instance. A head
// record carrying the build configuration precedes the body so a loader
// can validate applicability before paying for a full load.
package pool

import (
	"errors"
	"fmt"
)

// Persistent is implemented by every entity the pool can store. Store
// writes the entity body to the writer; Load reads it back in the same
// order. Both rely on the pool's sticky error, checked once at the end of
// a store or load pass.
type Persistent interface {
	Store(w *Writer)
	Load(r *Reader)
}

// HeadData is the record written before the serialized project tree.
type HeadData struct {
	// ProjectConfig is the build configuration the graph was produced with.
	ProjectConfig map[string]any
}

const (
	formatVersion = 1

	// nullID marks a nil object or string reference.
	nullID int32 = -1

	// maxCount bounds collection sizes read from untrusted streams.
	maxCount = 1 << 30
)

var magic = [8]byte{'S', 'T', 'R', 'A', 'T', 'A', 'B', 'G'}

// ErrInvalidFormat is returned when the stream does not start with the
// build graph magic.
var ErrInvalidFormat = errors.New("not a strata build graph file")

// VersionError is returned when the stream was written by an incompatible
// format version.
type VersionError struct {
	Got, Want uint32
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("incompatible build graph format version %d (expected %d)", e.Got, e.Want)
}
