// Package archive moves old visualizations out of MongoDB into gzipped
// NDJSON files on local disk.
package archive

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	collection = "visualizations"
	cursorKey  = "archive_cursor"
	subdir     = "visualizations"
)

// Archiver periodically moves old visualizations from MongoDB to local
// gzipped NDJSON files, deleting the oldest archives when total size
// exceeds maxBytes.
type Archiver struct {
	db       *mongo.Database
	dir      string
	maxBytes int64
	interval time.Duration
	maxAge   time.Duration
	log      *slog.Logger
}

// New creates a new Archiver.
func New(db *mongo.Database, dir string, maxGB, intervalHours, afterHours int) *Archiver {
	return &Archiver{
		db:       db,
		dir:      dir,
		maxBytes: int64(maxGB) << 30,
		interval: time.Duration(intervalHours) * time.Hour,
		maxAge:   time.Duration(afterHours) * time.Hour,
		log:      slog.Default().With("component", "archiver"),
	}
}

// Run starts the periodic archive loop. Blocks until ctx is cancelled.
func (a *Archiver) Run(ctx context.Context) {
	a.log.Info("visualization archiver started",
		"dir", a.dir, "max_gb", a.maxBytes>>30, "interval", a.interval, "age", a.maxAge)

	a.cycle(ctx)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.cycle(ctx)
		}
	}
}

func (a *Archiver) cycle(ctx context.Context) {
	cursor, err := a.loadCursor(ctx)
	if err != nil {
		a.log.Error("load cursor", "err", err)
		return
	}

	cutoff := time.Now().Add(-a.maxAge)
	if !cursor.Before(cutoff) {
		return
	}

	docs, err := a.query(ctx, cursor, cutoff)
	if err != nil {
		a.log.Error("query", "err", err)
		return
	}
	if len(docs) == 0 {
		a.saveCursor(ctx, cutoff)
		return
	}

	for day, batch := range groupByDay(docs) {
		if err := writeBatch(a.dir, day, batch); err != nil {
			a.log.Error("write batch", "day", day, "err", err)
			return
		}
		if err := a.deleteBatch(ctx, batch); err != nil {
			a.log.Error("delete batch", "day", day, "err", err)
			return
		}
		a.log.Info("archived visualizations", "day", day, "count", len(batch))
	}

	a.saveCursor(ctx, cutoff)
	a.rotate()
}

// visualizationDoc mirrors the MongoDB visualization document.
type visualizationDoc struct {
	ID        string    `bson:"id"         json:"id"`
	Kind      string    `bson:"kind"       json:"kind"`
	Title     string    `bson:"title"      json:"title"`
	Target    string    `bson:"target"     json:"target,omitempty"`
	Degraded  int       `bson:"degraded"   json:"degraded"`
	Payload   string    `bson:"payload"    json:"payload"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

func (a *Archiver) loadCursor(ctx context.Context) (time.Time, error) {
	var doc struct {
		ValueTime time.Time `bson:"value_time"`
	}
	err := a.db.Collection("sim_state").FindOne(ctx, bson.M{"key": cursorKey}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	return doc.ValueTime, nil
}

func (a *Archiver) saveCursor(ctx context.Context, t time.Time) {
	_, err := a.db.Collection("sim_state").UpdateOne(ctx,
		bson.M{"key": cursorKey},
		bson.M{"$set": bson.M{
			"key":        cursorKey,
			"value_time": t,
			"updated_at": time.Now(),
		}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		a.log.Error("save cursor", "err", err)
	}
}

func (a *Archiver) query(ctx context.Context, from, to time.Time) ([]visualizationDoc, error) {
	filter := bson.M{
		"created_at": bson.M{"$gte": from, "$lt": to},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cur, err := a.db.Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find visualizations: %w", err)
	}
	defer cur.Close(ctx)

	var docs []visualizationDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode visualizations: %w", err)
	}
	return docs, nil
}

func groupByDay(docs []visualizationDoc) map[string][]visualizationDoc {
	batches := make(map[string][]visualizationDoc)
	for _, d := range docs {
		day := d.CreatedAt.UTC().Format("2006/01/02")
		batches[day] = append(batches[day], d)
	}
	return batches
}

// writeBatch appends docs as gzipped NDJSON to
// dir/visualizations/YYYY/MM/DD.jsonl.gz. Appending adds a gzip member,
// which gzip readers concatenate.
func writeBatch(dir, day string, docs []visualizationDoc) error {
	path := filepath.Join(dir, subdir, day+".jsonl.gz")

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	enc := json.NewEncoder(gz)
	for _, d := range docs {
		if err := enc.Encode(d); err != nil {
			gz.Close()
			return fmt.Errorf("encode: %w", err)
		}
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("gzip close: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		return fmt.Errorf("write: %w", err)
	}
	return f.Close()
}

func (a *Archiver) deleteBatch(ctx context.Context, docs []visualizationDoc) error {
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}

	_, err := a.db.Collection(collection).DeleteMany(ctx, bson.M{
		"id": bson.M{"$in": ids},
	})
	if err != nil {
		return fmt.Errorf("delete archived visualizations: %w", err)
	}
	return nil
}

func (a *Archiver) rotate() {
	for _, path := range rotate(filepath.Join(a.dir, subdir), a.maxBytes) {
		a.log.Info("rotated out archive", "path", path)
	}
}

// rotate deletes the oldest archive files under root until their total size
// is at most maxBytes. It returns the removed paths.
func rotate(root string, maxBytes int64) []string {
	type entry struct {
		path string
		size int64
	}

	var files []entry
	var total int64

	filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		files = append(files, entry{path: path, size: info.Size()})
		total += info.Size()
		return nil
	})

	if total <= maxBytes {
		return nil
	}

	// YYYY/MM/DD paths sort chronologically.
	sort.Slice(files, func(i, j int) bool {
		return files[i].path < files[j].path
	})

	var removed []string
	for _, f := range files {
		if total <= maxBytes {
			break
		}
		if err := os.Remove(f.path); err != nil {
			continue
		}
		total -= f.size
		removed = append(removed, f.path)
	}
	return removed
}
