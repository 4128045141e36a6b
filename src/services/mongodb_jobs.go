package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/joeg-ita/jobdrop/src/config"
	"github.com/joeg-ita/jobdrop/src/domain"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type MongodbJobs struct {
	client     domain.DbClient[*mongo.Client]
	cfg        config.Database
	collection *mongo.Collection
}

func NewMongodbJobs(dbClient domain.DbClient[*mongo.Client], cfg config.Database) (*MongodbJobs, error) {

	collection := dbClient.GetClient().Database(cfg.DB).Collection(cfg.JobsCollection)

	return &MongodbJobs{
		client:     dbClient,
		cfg:        cfg,
		collection: collection,
	}, nil
}

// Create inserts a new document. Records are immutable so there is no upsert.
func (m *MongodbJobs) Create(ctx context.Context, job domain.JobRecord) (string, error) {
	if _, err := m.collection.InsertOne(ctx, job); err != nil {
		return "", fmt.Errorf("failed to insert job %s: %w", job.ID, err)
	}
	return job.ID, nil
}

func (m *MongodbJobs) Get(ctx context.Context, jobId string) (domain.JobRecord, error) {
	if jobId == "" {
		return domain.JobRecord{}, fmt.Errorf("job ID cannot be empty: %w", domain.ErrJobNotFound)
	}

	filter := bson.D{{Key: "_id", Value: jobId}}

	var job domain.JobRecord
	err := m.collection.FindOne(ctx, filter).Decode(&job)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.JobRecord{}, fmt.Errorf("job %s: %w", jobId, domain.ErrJobNotFound)
		}
		return domain.JobRecord{}, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

func (m *MongodbJobs) SearchByTitle(ctx context.Context, query string) ([]domain.JobRecord, error) {
	cursor, err := m.collection.Find(ctx, TitleFilter(query))
	if err != nil {
		return nil, fmt.Errorf("failed to find jobs: %w", err)
	}
	defer cursor.Close(ctx)

	jobs := []domain.JobRecord{}
	if err = cursor.All(ctx, &jobs); err != nil {
		return nil, fmt.Errorf("failed to decode jobs: %w", err)
	}

	return jobs, nil
}

func (m *MongodbJobs) ExistsByFileURL(ctx context.Context, fileURL string) (bool, error) {
	n, err := m.collection.CountDocuments(ctx, bson.D{{Key: "fileUrl", Value: fileURL}})
	if err != nil {
		return false, fmt.Errorf("failed to count jobs by file url: %w", err)
	}
	return n > 0, nil
}

func (m *MongodbJobs) Close(ctx context.Context) {
	if m.client != nil {
		m.client.Close(ctx)
	}
}

// TitleFilter matches query as a literal, case-insensitive substring of
// jobTitle. Regex metacharacters in query are escaped. BSON regexes cannot
// hold NUL, so it is written as the PCRE escape.
func TitleFilter(query string) bson.D {
	if query == "" {
		return bson.D{}
	}
	pattern := strings.ReplaceAll(regexp.QuoteMeta(query), "\x00", `\x00`)
	return bson.D{{Key: "jobTitle", Value: bson.Regex{Pattern: pattern, Options: "i"}}}
}
