package services

import (
	"context"
	"fmt"
	"time"

	"github.com/joeg-ita/jobdrop/src/config"
	"github.com/joeg-ita/jobdrop/src/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

type MongodbClient struct {
	Client   *mongo.Client
	Database *mongo.Database
}

func NewMongodbClient(cfg config.Database) (*MongodbClient, error) {
	Client, err := mongo.Connect(options.Client().ApplyURI(cfg.Url))
	if err != nil {
		return nil, fmt.Errorf("error starting mongodb client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := Client.Ping(ctx, readpref.Primary()); err != nil {
		_ = Client.Disconnect(context.Background())
		return nil, fmt.Errorf("error reaching mongodb: %w", err)
	}

	Database := Client.Database(cfg.DB)

	for _, idx := range jobIndexes {
		if err := createIndexIfNotExists(Database.Collection(cfg.JobsCollection), idx.keys, idx.name); err != nil {
			utils.GetLogger().Warnw("index setup failed", "index", idx.name, "err", err)
		}
	}

	return &MongodbClient{
		Client:   Client,
		Database: Database,
	}, nil
}

func (m *MongodbClient) GetClient() *mongo.Client {
	return m.Client
}

func (m *MongodbClient) Close(ctx context.Context) {
	if m.Client != nil {
		if err := m.Client.Disconnect(ctx); err != nil {
			utils.GetLogger().Warnw("error disconnecting mongodb client", "err", err)
		}
	}
}

var jobIndexes = []struct {
	name string
	keys bson.D
}{
	{name: "jobTitle_idx", keys: bson.D{{Key: "jobTitle", Value: 1}}},
	{name: "fileUrl_idx", keys: bson.D{{Key: "fileUrl", Value: 1}}},
}

func createIndexIfNotExists(collection *mongo.Collection, keys bson.D, indexName string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := collection.Indexes().List(ctx)
	if err != nil {
		return fmt.Errorf("error listing indexes: %w", err)
	}
	defer cursor.Close(ctx)

	var results []bson.M
	if err = cursor.All(ctx, &results); err != nil {
		return fmt.Errorf("error processing indexes: %w", err)
	}

	for _, index := range results {
		if name, ok := index["name"].(string); ok && name == indexName {
			return nil
		}
	}

	indexModel := mongo.IndexModel{
		Keys:    keys,
		Options: options.Index().SetName(indexName),
	}

	createdIndex, err := collection.Indexes().CreateOne(ctx, indexModel)
	if err != nil {
		return fmt.Errorf("error creating index: %w", err)
	}
	utils.GetLogger().Infow("created index", "collection", collection.Name(), "index", createdIndex)

	return nil
}
