package domain

import (
	"context"
	"time"
)

const (
	ACTIVITIES_CHANNEL = "jobdrop-activities"

	ActivityCreated = "created"
	ActivityOrphan  = "orphan"
)

// BrokerInt carries the orphan ledger and activity notifications.
type BrokerInt interface {
	MarkOrphan(ctx context.Context, blob StoredBlob) error

	Orphans(ctx context.Context) ([]StoredBlob, error)

	ClearOrphan(ctx context.Context, url string) error

	Lock(ctx context.Context, name string, lockDuration time.Duration) bool

	UnLock(ctx context.Context, name string) error

	Publish(ctx context.Context, channel string, payload map[string]interface{}) error

	Close()
}
