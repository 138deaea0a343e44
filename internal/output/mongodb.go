// internal/output/mongodb.go - MongoDB sink, one document per dataset
package output

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"github.com/valpere/ORDScrapexter/internal/utils"
)

var mongoLogger = utils.NewComponentLogger("mongodb-output")

// MongoDBWriter implements Writer interface for MongoDB output
type MongoDBWriter struct {
	client     *mongo.Client
	collection *mongo.Collection
	config     MongoDBConfig
}

// NewMongoDBWriter connects to MongoDB and verifies the connection
func NewMongoDBWriter(ctx context.Context, cfg MongoDBConfig) (*MongoDBWriter, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("MongoDB connection string is required")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("MongoDB database name is required")
	}
	if cfg.Collection == "" {
		return nil, fmt.Errorf("MongoDB collection name is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	clientOptions := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.Timeout).
		SetServerSelectionTimeout(cfg.Timeout).
		SetRetryWrites(true).
		SetWriteConcern(writeconcern.Majority())

	connectCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	mongoLogger.Infof("Connected to MongoDB database %s, collection %s", cfg.Database, cfg.Collection)
	return &MongoDBWriter{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		config:     cfg,
	}, nil
}

// mongoDocument builds the stored document of one dataset. The reactions
// keep their JSON shape.
func mongoDocument(id string, rec DatasetRecord, now time.Time) (bson.M, error) {
	data, err := json.Marshal(map[string]interface{}{"reactions": rec.Reactions})
	if err != nil {
		return nil, fmt.Errorf("failed to encode reactions of %s: %w", id, err)
	}
	var wrapped struct {
		Reactions bson.A `bson:"reactions"`
	}
	if err := bson.UnmarshalExtJSON(data, false, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to convert reactions of %s: %w", id, err)
	}
	reactions := wrapped.Reactions
	if reactions == nil {
		reactions = bson.A{}
	}
	doc := bson.M{
		"_id":                id,
		"dataset_id":         id,
		"total_reactions":    rec.TotalReactions,
		"successful_scrapes": rec.SuccessfulScrapes,
		"reactions":          reactions,
		"scraped_at":         now,
	}
	if rec.Error != "" {
		doc["error"] = rec.Error
	}
	return doc, nil
}

// Write upserts one document per dataset, keyed by dataset id
func (mw *MongoDBWriter) Write(ctx context.Context, doc Document) error {
	if mw.client == nil {
		return fmt.Errorf("mongodb writer is closed")
	}
	if len(doc) == 0 {
		return nil
	}

	now := time.Now().UTC()
	operations := make([]mongo.WriteModel, 0, len(doc))
	for _, id := range doc.DatasetIDs() {
		d, err := mongoDocument(id, doc[id], now)
		if err != nil {
			return err
		}
		operations = append(operations,
			mongo.NewReplaceOneModel().SetFilter(bson.M{"_id": id}).SetReplacement(d).SetUpsert(true))
	}

	result, err := mw.collection.BulkWrite(ctx, operations, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return fmt.Errorf("failed to upsert datasets: %w", err)
	}

	mongoLogger.Debugf("Upserted %d datasets (inserted: %d, modified: %d)",
		len(operations), result.UpsertedCount, result.ModifiedCount)
	return nil
}

// Close disconnects from MongoDB
func (mw *MongoDBWriter) Close() error {
	if mw.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), mw.config.Timeout)
	defer cancel()
	err := mw.client.Disconnect(ctx)
	mw.client = nil
	if err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}
	return nil
}
