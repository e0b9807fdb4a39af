package preload

import (
	"context"
	"sync"
	"time"
)

// DefaultStartDelay gives the rest of the process time to come up before
// AutoStart begins a run.
const DefaultStartDelay = time.Second

var (
	globalOnce sync.Once
	global     *Coordinator
)

// Global returns the process-wide coordinator, building it with factory on
// the first call. Later factories are ignored.
func Global(factory func() *Coordinator) *Coordinator {
	globalOnce.Do(func() { global = factory() })
	return global
}

// AutoStart runs c.Start after delay, or after the coordinator's start delay
// when delay <= 0. The final state is delivered on the returned channel,
// which is closed afterwards. stop cancels a run that has not begun yet and
// closes the channel; it reports whether it did so.
func AutoStart(ctx context.Context, c *Coordinator, delay time.Duration) (<-chan State, func() bool) {
	if delay <= 0 {
		delay = c.startDelay
	}
	out := make(chan State, 1)
	t := time.AfterFunc(delay, func() {
		defer close(out)
		if ctx.Err() != nil {
			c.log.Printf("Preload: auto-start skipped: %v", ctx.Err())
			return
		}
		out <- c.Start(ctx)
	})
	stop := func() bool {
		if t.Stop() {
			close(out)
			return true
		}
		return false
	}
	return out, stop
}
