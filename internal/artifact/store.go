// Package artifact persists generated report bundles. The baseline store is a
// flat directory of zip files, but the pipeline only depends on the Store
// interface so the backend can be swapped.
package artifact

import (
	"errors"

	"gatilho/internal/report"
)

// ErrNotFound marks retrieval of a missing or disallowed artifact name.
var ErrNotFound = errors.New("artifact not found")

// Store is the content store for finished report artifacts.
type Store interface {
	// Put bundles the files into one compressed artifact under the given
	// name. The artifact is never visible in a half-written state.
	Put(name string, files []report.File) error
	// List returns artifact names ordered newest first.
	List() ([]string, error)
	// Get returns the raw artifact bytes, or ErrNotFound.
	Get(name string) ([]byte, error)
}
