package domain

import (
	"context"
	"io"
	"time"
)

const (
	// ResourceTypeAuto lets the blob store decide between image, video and raw handling.
	ResourceTypeAuto = "auto"
	DefaultFolder    = "job-uploads"
)

type StoreOptions struct {
	Folder       string
	ResourceType string
	ContentType  string
}

// StoredBlob identifies one object held by the blob store.
type StoredBlob struct {
	URL          string    `json:"url"`
	Key          string    `json:"key"`
	ResourceType string    `json:"resource_type,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	Size         int64     `json:"size,omitempty"`
}

type BlobStoreInt interface {
	// Store uploads body in a single shot. A nil error means the object exists
	// and URL is dereferenceable.
	Store(ctx context.Context, body io.Reader, opts StoreOptions) (StoredBlob, error)

	List(ctx context.Context, folder string) ([]StoredBlob, error)

	Delete(ctx context.Context, blob StoredBlob) error
}
