package domain

import (
	"context"
)

type JobRepositoryInt interface {
	Create(ctx context.Context, job JobRecord) (string, error)

	Get(ctx context.Context, jobId string) (JobRecord, error)

	// SearchByTitle matches query as a literal, case-insensitive substring of jobTitle.
	SearchByTitle(ctx context.Context, query string) ([]JobRecord, error)

	ExistsByFileURL(ctx context.Context, fileURL string) (bool, error)

	Close(ctx context.Context)
}

// DbClient hands repositories the shared driver client, e.g. *mongo.Client.
type DbClient[T any] interface {
	GetClient() T

	Close(ctx context.Context)
}
