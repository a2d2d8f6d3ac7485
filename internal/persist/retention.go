package persist

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// RunRetention periodically deletes visualizations older than the retention
// period. Blocks until ctx is cancelled. Pass retentionDays <= 0 to disable.
func RunRetention(ctx context.Context, store *Store, retentionDays int) {
	if retentionDays <= 0 {
		slog.Info("visualization retention disabled (keep forever)")
		return
	}

	interval := 1 * time.Hour
	slog.Info("visualization retention started", "days", retentionDays, "interval", interval)

	prune(ctx, store, retentionDays)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prune(ctx, store, retentionDays)
		}
	}
}

func prune(ctx context.Context, store *Store, retentionDays int) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	result, err := store.db.Collection(colVisualizations).DeleteMany(ctx, bson.M{
		"created_at": bson.M{"$lt": cutoff},
	})
	if err != nil {
		slog.Error("visualization retention prune failed", "err", err)
		return
	}

	if result.DeletedCount > 0 {
		slog.Info("visualization retention pruned", "deleted", result.DeletedCount, "before", cutoff.Format(time.DateOnly))
	}
}
