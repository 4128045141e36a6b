package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/joeg-ita/jobdrop/src/domain"
	"github.com/joeg-ita/jobdrop/src/utils"

	"github.com/redis/go-redis/v9"
)

const (
	ORPHANS_KEY = "jobdrop:orphans"
	LOCK_PREFIX = "jobdrop:lock:"
)

// unlockScript deletes a lock only while it still holds the caller's token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisBroker struct {
	client *redis.Client
	// lockToken identifies this broker's locks so an expired holder cannot
	// release a lock taken over by someone else.
	lockToken string
}

func NewRedisBrokerByOptions(options *redis.Options) *RedisBroker {
	client := redis.NewClient(options)
	return &RedisBroker{
		client:    client,
		lockToken: uuid.New().String(),
	}
}

func NewRedisBrokerByUrl(url string) (*RedisBroker, error) {
	// url = "redis://<user>:<pass>@localhost:6379/<db>"
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid broker url: %w", err)
	}
	return NewRedisBrokerByOptions(opt), nil
}

// MarkOrphan records a stored blob that has no job record, keyed by URL.
func (r *RedisBroker) MarkOrphan(ctx context.Context, blob domain.StoredBlob) error {
	blobJSON, err := json.Marshal(blob)
	if err != nil {
		return err
	}
	if err := r.client.HSet(ctx, ORPHANS_KEY, blob.URL, blobJSON).Err(); err != nil {
		return fmt.Errorf("error while recording orphan blob: %w", err)
	}
	return nil
}

func (r *RedisBroker) Orphans(ctx context.Context) ([]domain.StoredBlob, error) {
	entries, err := r.client.HGetAll(ctx, ORPHANS_KEY).Result()
	if err != nil {
		return nil, fmt.Errorf("error while reading orphan blobs: %w", err)
	}

	blobs := make([]domain.StoredBlob, 0, len(entries))
	for url, raw := range entries {
		var blob domain.StoredBlob
		if err := json.Unmarshal([]byte(raw), &blob); err != nil {
			utils.GetLogger().Warnw("skipping unreadable orphan entry", "url", url, "err", err)
			continue
		}
		blobs = append(blobs, blob)
	}
	return blobs, nil
}

func (r *RedisBroker) ClearOrphan(ctx context.Context, url string) error {
	if err := r.client.HDel(ctx, ORPHANS_KEY, url).Err(); err != nil {
		return fmt.Errorf("error while clearing orphan blob: %w", err)
	}
	return nil
}

// Lock is a best effort mutual exclusion across processes. It returns false
// when another holder owns name or redis is unreachable.
func (r *RedisBroker) Lock(ctx context.Context, name string, lockDuration time.Duration) bool {
	success, err := r.client.SetNX(ctx, LOCK_PREFIX+name, r.lockToken, lockDuration).Result()
	if err != nil {
		utils.GetLogger().Warnw("lock acquisition failed", "lock", name, "err", err)
		return false
	}
	return success
}

// UnLock releases name if this broker still holds it. A lock that expired
// and was taken by another holder is left alone.
func (r *RedisBroker) UnLock(ctx context.Context, name string) error {
	released, err := unlockScript.Run(ctx, r.client, []string{LOCK_PREFIX + name}, r.lockToken).Int()
	if err != nil {
		return fmt.Errorf("error while releasing lock %s: %w", name, err)
	}
	if released == 0 {
		utils.GetLogger().Warnw("lock no longer held", "lock", name)
	}
	return nil
}

func (r *RedisBroker) Subscribe(ctx context.Context, channels ...string) *redis.PubSub {
	return r.client.Subscribe(ctx, channels...)
}

func (r *RedisBroker) Publish(ctx context.Context, channel string, payload map[string]interface{}) error {
	message, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, channel, message).Err()
}

func (r *RedisBroker) Close() {
	if err := r.client.Close(); err != nil {
		utils.GetLogger().Warnw("error closing redis client", "err", err)
	}
}
