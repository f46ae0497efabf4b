package events

import (
	"context"
	"errors"
	"time"

	"frenchdriver/internal/utils"

	"go.uber.org/zap"
)

var ErrQueueFull = errors.New("events: local queue full")

// Local delivers events in-process through a buffered queue drained by Run.
type Local struct {
	queue chan Event
}

func NewLocal(size int) *Local {
	if size <= 0 {
		size = 256
	}
	return &Local{queue: make(chan Event, size)}
}

// Publish enqueues e without blocking the request path.
func (l *Local) Publish(ctx context.Context, e Event) error {
	select {
	case l.queue <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

// Run hands queued events to h until ctx is cancelled.
func (l *Local) Run(ctx context.Context, h Handler) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-l.queue:
			hCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
			if err := h(hCtx, e); err != nil {
				utils.L().Warn("event handler failed",
					zap.String("type", e.Type),
					zap.Int64("booking_id", e.BookingID),
					zap.Error(err))
			}
			cancel()
		}
	}
}
