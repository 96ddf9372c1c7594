// Package lock keeps import runs from overlapping, within one process or
// across every instance sharing a Redis.
package lock

import (
	"context"
	"sync"

	"github.com/amishk599/jobfeed/internal/model"
)

// Guard grants exclusive access to the import. TryLock never waits: when the
// guard is held elsewhere it returns model.ErrImportInProgress.
type Guard interface {
	TryLock(ctx context.Context) (unlock func(), err error)
}

// LocalGuard serializes imports inside a single process.
type LocalGuard struct {
	mu sync.Mutex
}

func NewLocalGuard() *LocalGuard { return &LocalGuard{} }

func (g *LocalGuard) TryLock(context.Context) (func(), error) {
	if !g.mu.TryLock() {
		return nil, model.ErrImportInProgress
	}
	return g.mu.Unlock, nil
}
