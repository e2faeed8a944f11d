package background

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// Background runs fire-and-forget tasks and lets the server wait for them
// on shutdown.
type Background struct {
	log      logrus.FieldLogger
	wg       sync.WaitGroup
	mu       sync.Mutex
	shutdown bool
}

func New(log logrus.FieldLogger) *Background {
	return &Background{log: log}
}

// Go starts fn in its own goroutine. It returns false once Shutdown has been
// called.
func (b *Background) Go(name string, fn func()) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.shutdown {
		return false
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				b.log.WithField("task", name).Error(fmt.Errorf("background task panic: %v", rec))
			}
		}()

		fn()
	}()

	return true
}

func (b *Background) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	b.shutdown = true
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
