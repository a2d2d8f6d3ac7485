package persist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/ndrandal/simviz/internal/random"
)

const rngStateKey = "rng_state"

// Snapshotter periodically persists the sampler's generator state so a
// restarted service continues the same random sequence.
type Snapshotter struct {
	store *Store
	rng   *random.RNG
}

// NewSnapshotter creates a new snapshotter.
func NewSnapshotter(store *Store, rng *random.RNG) *Snapshotter {
	return &Snapshotter{store: store, rng: rng}
}

// Run starts the periodic snapshot loop. Blocks until ctx is cancelled.
func (s *Snapshotter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("performing final snapshot")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := s.Save(shutdownCtx); err != nil {
				slog.Error("final snapshot failed", "err", err)
			}
			cancel()
			return
		case <-ticker.C:
			if err := s.Save(ctx); err != nil {
				slog.Error("snapshot failed", "err", err)
			}
		}
	}
}

// Save upserts the generator state.
func (s *Snapshotter) Save(ctx context.Context) error {
	_, err := s.store.db.Collection(colState).UpdateOne(ctx,
		bson.M{"key": rngStateKey},
		bson.M{"$set": bson.M{
			"key":         rngStateKey,
			"value_bytes": s.rng.StateBytes(),
			"updated_at":  time.Now(),
		}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("save rng state: %w", err)
	}
	return nil
}

// Load restores the generator state. It returns false when none was saved.
func (s *Snapshotter) Load(ctx context.Context) (bool, error) {
	var doc struct {
		ValueBytes []byte `bson:"value_bytes"`
	}
	err := s.store.db.Collection(colState).FindOne(ctx, bson.M{"key": rngStateKey}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		slog.Info("no persisted generator state, starting fresh")
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load rng state: %w", err)
	}
	if len(doc.ValueBytes) < 16 {
		return false, nil
	}
	s.rng.RestoreStateBytes(doc.ValueBytes)
	slog.Info("restored generator state")
	return true, nil
}
