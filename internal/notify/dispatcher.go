package notify

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Dispatcher sends messages in the background. A failed or panicking send is
// logged and dropped; the caller never waits for delivery.
type Dispatcher struct {
	sender  Sender
	log     *zap.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewDispatcher wraps sender. Each send gets its own timeout.
func NewDispatcher(sender Sender, timeout time.Duration, log *zap.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{sender: sender, log: log, timeout: timeout}
}

// Dispatch queues msg and returns immediately.
func (d *Dispatcher) Dispatch(msg Message) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.log.Error("notification sender panicked",
					zap.String("to", msg.To),
					zap.Any("recover", r),
					zap.String("stack", string(debug.Stack())),
				)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := d.sender.Send(ctx, msg); err != nil {
			d.log.Warn("notification failed",
				zap.String("to", msg.To),
				zap.String("subject", msg.Subject),
				zap.Error(err),
			)
			return
		}
		d.log.Debug("notification sent", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	}()
}

// Wait blocks until every dispatched send has finished or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("notifications still in flight: %w", ctx.Err())
	}
}
