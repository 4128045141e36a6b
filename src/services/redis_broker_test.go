package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/joeg-ita/jobdrop/src/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupBroker(t *testing.T) (*RedisBroker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	broker, err := NewRedisBrokerByUrl("redis://" + mr.Addr() + "/0")
	require.NoError(t, err)
	t.Cleanup(broker.Close)
	return broker, mr
}

func TestNewRedisBrokerByUrlRejectsGarbage(t *testing.T) {
	_, err := NewRedisBrokerByUrl("http://not-redis")
	assert.Error(t, err)
}

func TestOrphanLedger(t *testing.T) {
	broker, _ := setupBroker(t)
	ctx := context.Background()

	blob := domain.StoredBlob{
		URL:          "https://res.example.com/job-uploads/a.pdf",
		Key:          "job-uploads/a",
		ResourceType: "image",
		CreatedAt:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	t.Run("should record and list orphans", func(t *testing.T) {
		require.NoError(t, broker.MarkOrphan(ctx, blob))
		// marking twice keeps one entry
		require.NoError(t, broker.MarkOrphan(ctx, blob))

		orphans, err := broker.Orphans(ctx)
		require.NoError(t, err)
		require.Len(t, orphans, 1)
		assert.Equal(t, blob.URL, orphans[0].URL)
		assert.Equal(t, blob.Key, orphans[0].Key)
		assert.True(t, blob.CreatedAt.Equal(orphans[0].CreatedAt))
	})

	t.Run("should clear orphans", func(t *testing.T) {
		require.NoError(t, broker.ClearOrphan(ctx, blob.URL))
		orphans, err := broker.Orphans(ctx)
		require.NoError(t, err)
		assert.Empty(t, orphans)
	})
}

func TestOrphansSkipsUnreadableEntries(t *testing.T) {
	broker, mr := setupBroker(t)
	mr.HSet(ORPHANS_KEY, "https://bad", "{not json")

	orphans, err := broker.Orphans(context.Background())
	require.NoError(t, err)
	assert.Empty(t, orphans)
}

func TestLock(t *testing.T) {
	broker, mr := setupBroker(t)
	ctx := context.Background()

	assert.True(t, broker.Lock(ctx, "reconcile", time.Minute))
	assert.False(t, broker.Lock(ctx, "reconcile", time.Minute))

	require.NoError(t, broker.UnLock(ctx, "reconcile"))
	assert.True(t, broker.Lock(ctx, "reconcile", time.Minute))

	mr.FastForward(2 * time.Minute)
	assert.True(t, broker.Lock(ctx, "reconcile", time.Minute))
}

func TestUnLockKeepsAnotherHoldersLock(t *testing.T) {
	first, mr := setupBroker(t)
	second := NewRedisBrokerByOptions(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(second.Close)
	ctx := context.Background()

	require.True(t, first.Lock(ctx, "reconcile", time.Minute))
	mr.FastForward(2 * time.Minute)
	require.True(t, second.Lock(ctx, "reconcile", time.Minute))

	// first outlived its lock; releasing it must not free second's lock
	require.NoError(t, first.UnLock(ctx, "reconcile"))
	assert.False(t, first.Lock(ctx, "reconcile", time.Minute))

	require.NoError(t, second.UnLock(ctx, "reconcile"))
	assert.True(t, first.Lock(ctx, "reconcile", time.Minute))
}

func TestPublish(t *testing.T) {
	broker, _ := setupBroker(t)
	ctx := context.Background()

	sub := broker.Subscribe(ctx, domain.ACTIVITIES_CHANNEL)
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, broker.Publish(ctx, domain.ACTIVITIES_CHANNEL, map[string]interface{}{
		"action": domain.ActivityCreated,
		"jobId":  "abc",
	}))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &payload))
	assert.Equal(t, domain.ActivityCreated, payload["action"])
	assert.Equal(t, "abc", payload["jobId"])
}
