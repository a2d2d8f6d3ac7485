package persist

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Collection names.
const (
	colSimulations    = "simulations"
	colSimLogs        = "sim_logs"
	colVisualizations = "visualizations"
	colState          = "sim_state"
)

// EnsureIndexes creates idempotent indexes on all collections.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	type idx struct {
		collection string
		model      mongo.IndexModel
	}

	indexes := []idx{
		{
			collection: colSimulations,
			model: mongo.IndexModel{
				Keys:    bson.D{{Key: "id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		{
			collection: colSimulations,
			model: mongo.IndexModel{
				Keys: bson.D{{Key: "tag", Value: 1}},
			},
		},
		{
			collection: colSimLogs,
			model: mongo.IndexModel{
				Keys: bson.D{
					{Key: "sim_id", Value: 1},
					{Key: "name", Value: 1},
				},
				Options: options.Index().SetUnique(true),
			},
		},
		{
			collection: colVisualizations,
			model: mongo.IndexModel{
				Keys:    bson.D{{Key: "id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		{
			collection: colVisualizations,
			model: mongo.IndexModel{
				Keys: bson.D{
					{Key: "target", Value: 1},
					{Key: "created_at", Value: -1},
				},
			},
		},
		{
			collection: colVisualizations,
			model: mongo.IndexModel{
				Keys: bson.D{{Key: "created_at", Value: 1}},
			},
		},
		{
			collection: colState,
			model: mongo.IndexModel{
				Keys:    bson.D{{Key: "key", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
	}

	for _, i := range indexes {
		_, err := db.Collection(i.collection).Indexes().CreateOne(ctx, i.model)
		if err != nil {
			return fmt.Errorf("create index on %s: %w", i.collection, err)
		}
	}

	slog.Info("MongoDB indexes ensured", "count", len(indexes))
	return nil
}
