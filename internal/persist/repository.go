package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/ndrandal/simviz/internal/simulation"
	"github.com/ndrandal/simviz/internal/table"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("not found")

// SimulationSummary describes a stored simulation without its logs.
type SimulationSummary struct {
	ID        string    `json:"id"        bson:"id"`
	CaseID    any       `json:"caseid"    bson:"caseid"`
	Tag       string    `json:"tag"       bson:"tag"`
	Agents    int       `json:"agents"    bson:"agents_count"`
	Logs      []string  `json:"logs"      bson:"log_names"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
}

// VisualizationRecord is a rendered visualization. Payload holds the
// {data, layout, config} JSON.
type VisualizationRecord struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	Title     string          `json:"title"`
	Target    string          `json:"target,omitempty"`
	Degraded  int             `json:"degraded"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"createdAt"`
}

// visualizationDoc mirrors the MongoDB visualization document. The payload
// is kept as a JSON string so Plotly keys survive unchanged.
type visualizationDoc struct {
	ID        string    `bson:"id"`
	Kind      string    `bson:"kind"`
	Title     string    `bson:"title"`
	Target    string    `bson:"target"`
	Degraded  int       `bson:"degraded"`
	Payload   string    `bson:"payload"`
	CreatedAt time.Time `bson:"created_at"`
}

func toVisualizationDoc(r VisualizationRecord) visualizationDoc {
	return visualizationDoc{
		ID:        r.ID,
		Kind:      r.Kind,
		Title:     r.Title,
		Target:    r.Target,
		Degraded:  r.Degraded,
		Payload:   string(r.Payload),
		CreatedAt: r.CreatedAt,
	}
}

func (d visualizationDoc) record() VisualizationRecord {
	return VisualizationRecord{
		ID:        d.ID,
		Kind:      d.Kind,
		Title:     d.Title,
		Target:    d.Target,
		Degraded:  d.Degraded,
		Payload:   json.RawMessage(d.Payload),
		CreatedAt: d.CreatedAt,
	}
}

// VisualizationFilter controls which visualizations to list.
type VisualizationFilter struct {
	Target string
	Kind   string
	Limit  int
	Offset int
}

// Stats holds aggregate counts.
type Stats struct {
	Simulations    int64            `json:"simulations"`
	Visualizations int64            `json:"visualizations"`
	ByKind         map[string]int64 `json:"byKind"`
}

// Repository abstracts simulation and visualization storage.
type Repository interface {
	ListSimulations(ctx context.Context, limit int) ([]SimulationSummary, error)
	LoadSimulation(ctx context.Context, id string) (*simulation.Simulation, error)
	SaveSimulation(ctx context.Context, sim *simulation.Simulation) error
	SaveVisualization(ctx context.Context, r VisualizationRecord) error
	GetVisualization(ctx context.Context, id string) (VisualizationRecord, error)
	ListVisualizations(ctx context.Context, f VisualizationFilter) ([]VisualizationRecord, error)
	Stats(ctx context.Context) (Stats, error)
}

// MongoRepository implements Repository using a mongo.Database.
type MongoRepository struct {
	db *mongo.Database
}

// NewMongoRepository creates a new MongoRepository.
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{db: db}
}

func clampLimit(n int) int {
	if n <= 0 || n > 1000 {
		return 100
	}
	return n
}

// ListSimulations returns the most recent simulations.
func (r *MongoRepository) ListSimulations(ctx context.Context, limit int) ([]SimulationSummary, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(clampLimit(limit))).
		SetProjection(bson.M{"config": 0, "agents": 0})

	cursor, err := r.db.Collection(colSimulations).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("query simulations: %w", err)
	}
	defer cursor.Close(ctx)

	out := []SimulationSummary{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode simulations: %w", err)
	}
	for i := range out {
		out[i].CaseID = normalize(out[i].CaseID)
	}
	return out, nil
}

type simulationDoc struct {
	ID        string             `bson:"id"`
	CaseID    any                `bson:"caseid"`
	Tag       string             `bson:"tag"`
	Config    map[string]any     `bson:"config"`
	Agents    []simulation.Agent `bson:"agents"`
	AgentsN   int                `bson:"agents_count"`
	LogNames  []string           `bson:"log_names"`
	CreatedAt time.Time          `bson:"created_at"`
}

type logDoc struct {
	SimID  string   `bson:"sim_id"`
	Name   string   `bson:"name"`
	Header []string `bson:"header"`
	Rows   bson.A   `bson:"rows"`
}

func toSimulationDoc(sim *simulation.Simulation, now time.Time) simulationDoc {
	names := make([]string, 0, len(sim.Logs))
	for name := range sim.Logs {
		names = append(names, name)
	}
	sort.Strings(names)
	caseID, _ := sim.CaseID()
	tag, _ := sim.Tag()
	return simulationDoc{
		ID:        sim.ID,
		CaseID:    caseID,
		Tag:       tag,
		Config:    map[string]any(sim.Config),
		Agents:    sim.Agents,
		AgentsN:   len(sim.Agents),
		LogNames:  names,
		CreatedAt: now,
	}
}

func toLogDoc(simID, name string, l *table.Log) logDoc {
	d := l.Data()
	rows := make(bson.A, 0, d.Len())
	if len(d) > 1 {
		for _, row := range d[1:] {
			rows = append(rows, bson.A(row))
		}
	}
	return logDoc{SimID: simID, Name: name, Header: l.Header(), Rows: rows}
}

func (d logDoc) log() *table.Log {
	data := make(table.Data, 0, len(d.Rows)+1)
	header := make(table.Row, len(d.Header))
	for i, h := range d.Header {
		header[i] = h
	}
	data = append(data, header)
	for _, r := range d.Rows {
		row, _ := normalize(r).([]any)
		data = append(data, table.Row(row))
	}
	return table.FromData(data)
}

// SaveSimulation upserts sim and replaces its logs.
func (r *MongoRepository) SaveSimulation(ctx context.Context, sim *simulation.Simulation) error {
	if sim.ID == "" {
		return fmt.Errorf("save simulation: empty id")
	}
	doc := toSimulationDoc(sim, time.Now())
	_, err := r.db.Collection(colSimulations).ReplaceOne(ctx,
		bson.M{"id": sim.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save simulation %s: %w", sim.ID, err)
	}

	if _, err := r.db.Collection(colSimLogs).DeleteMany(ctx, bson.M{"sim_id": sim.ID}); err != nil {
		return fmt.Errorf("delete logs %s: %w", sim.ID, err)
	}
	var docs []any
	for _, name := range doc.LogNames {
		if l := sim.Logs[name]; l != nil {
			docs = append(docs, toLogDoc(sim.ID, name, l))
		}
	}
	if len(docs) > 0 {
		if _, err := r.db.Collection(colSimLogs).InsertMany(ctx, docs); err != nil {
			return fmt.Errorf("insert logs %s: %w", sim.ID, err)
		}
	}
	return nil
}

// LoadSimulation returns the simulation with its logs.
func (r *MongoRepository) LoadSimulation(ctx context.Context, id string) (*simulation.Simulation, error) {
	var doc struct {
		ID     string             `bson:"id"`
		Config bson.M             `bson:"config"`
		Agents []simulation.Agent `bson:"agents"`
	}
	err := r.db.Collection(colSimulations).FindOne(ctx, bson.M{"id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("simulation %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load simulation %s: %w", id, err)
	}

	cursor, err := r.db.Collection(colSimLogs).Find(ctx, bson.M{"sim_id": id})
	if err != nil {
		return nil, fmt.Errorf("query logs %s: %w", id, err)
	}
	defer cursor.Close(ctx)

	var logs []logDoc
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, fmt.Errorf("decode logs %s: %w", id, err)
	}

	sim := &simulation.Simulation{
		ID:     doc.ID,
		Config: simulation.Config(normalizeMap(doc.Config)),
		Logs:   make(map[string]*table.Log, len(logs)),
		Agents: doc.Agents,
	}
	for _, l := range logs {
		sim.Logs[l.Name] = l.log()
	}
	return sim, nil
}

// SaveVisualization inserts a visualization record.
func (r *MongoRepository) SaveVisualization(ctx context.Context, rec VisualizationRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	_, err := r.db.Collection(colVisualizations).InsertOne(ctx, toVisualizationDoc(rec))
	if err != nil && mongo.IsDuplicateKeyError(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("save visualization %s: %w", rec.ID, err)
	}
	return nil
}

// GetVisualization returns one visualization by id.
func (r *MongoRepository) GetVisualization(ctx context.Context, id string) (VisualizationRecord, error) {
	var doc visualizationDoc
	err := r.db.Collection(colVisualizations).FindOne(ctx, bson.M{"id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return VisualizationRecord{}, fmt.Errorf("visualization %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return VisualizationRecord{}, fmt.Errorf("get visualization %s: %w", id, err)
	}
	return doc.record(), nil
}

// ListVisualizations returns visualizations newest first.
func (r *MongoRepository) ListVisualizations(ctx context.Context, f VisualizationFilter) ([]VisualizationRecord, error) {
	filter := bson.M{}
	if f.Target != "" {
		filter["target"] = f.Target
	}
	if f.Kind != "" {
		filter["kind"] = f.Kind
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(clampLimit(f.Limit))).
		SetSkip(int64(f.Offset))

	cursor, err := r.db.Collection(colVisualizations).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("query visualizations: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []visualizationDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode visualizations: %w", err)
	}
	out := make([]VisualizationRecord, len(docs))
	for i, d := range docs {
		out[i] = d.record()
	}
	return out, nil
}

// Stats returns document counts and visualizations per chart kind.
func (r *MongoRepository) Stats(ctx context.Context) (Stats, error) {
	sims, err := r.db.Collection(colSimulations).CountDocuments(ctx, bson.M{})
	if err != nil {
		return Stats{}, fmt.Errorf("count simulations: %w", err)
	}

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$kind"},
			{Key: "count", Value: bson.M{"$sum": 1}},
		}}},
	}
	cursor, err := r.db.Collection(colVisualizations).Aggregate(ctx, pipeline)
	if err != nil {
		return Stats{}, fmt.Errorf("query visualization stats: %w", err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		Kind  string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return Stats{}, fmt.Errorf("decode visualization stats: %w", err)
	}

	st := Stats{Simulations: sims, ByKind: make(map[string]int64, len(results))}
	for _, res := range results {
		st.ByKind[res.Kind] = res.Count
		st.Visualizations += res.Count
	}
	return st, nil
}
