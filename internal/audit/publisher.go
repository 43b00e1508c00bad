package audit

import (
	"context"
	"errors"
)

// ErrInboxFull is returned when the audit inbox cannot accept another event
// without blocking. Callers log and move on; the submission status log
// remains the authoritative record.
var ErrInboxFull = errors.New("audit inbox full")

// ChannelPublisher hands events to a buffered inbox drained by a Worker,
// keeping audit persistence off the request path.
type ChannelPublisher struct {
	inbox chan<- Event
}

func NewChannelPublisher(inbox chan<- Event) *ChannelPublisher {
	return &ChannelPublisher{inbox: inbox}
}

func (p *ChannelPublisher) Emit(ctx context.Context, event Event) error {
	select {
	case p.inbox <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrInboxFull
	}
}
