package cache

import (
	"context"
	"time"
)

// SendLog records sends a scheduling run has issued. It is an audit trail
// only; conflict checks always ask the messaging service.
type SendLog interface {
	StoreScheduled(ctx context.Context, contactID, remoteMessageID int64, sendAt time.Time) error
}

// Nop discards every record.
type Nop struct{}

func (Nop) StoreScheduled(context.Context, int64, int64, time.Time) error { return nil }
