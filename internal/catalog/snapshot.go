package catalog

import (
	"sync/atomic"

	"github.com/m1stadev/ios-beta-api/internal/model"
)

// Snapshot holds the catalog currently served by a process. The pointer
// is swapped atomically after a successful publish, so concurrent
// readers always see one consistent, fully published document.
type Snapshot struct {
	current atomic.Pointer[model.Catalog]
}

func NewSnapshot() *Snapshot {
	return &Snapshot{}
}

// Current returns the last published catalog, or nil if none has been
// published or loaded yet.
func (s *Snapshot) Current() *model.Catalog {
	return s.current.Load()
}

// Swap replaces the served catalog. The catalog must not be mutated
// after being passed here.
func (s *Snapshot) Swap(cat *model.Catalog) {
	s.current.Store(cat)
}
