package persist

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/ndrandal/simviz/internal/simulation"
	"github.com/ndrandal/simviz/internal/table"
)

func TestDatabaseName(t *testing.T) {
	assert.Equal(t, "labdb", databaseName("mongodb://localhost:27017/labdb"))
	assert.Equal(t, DefaultDatabase, databaseName("mongodb://localhost:27017"))
	assert.Equal(t, DefaultDatabase, databaseName("mongodb://localhost:27017/"))
}

func TestNormalize(t *testing.T) {
	in := bson.D{
		{Key: "caseid", Value: int32(3)},
		{Key: "buyerValues", Value: bson.A{int32(10), int64(8), 6.5}},
		{Key: "nested", Value: bson.D{{Key: "n", Value: int64(2)}, {Key: "s", Value: "x"}}},
	}
	got := normalize(in)
	assert.Equal(t, map[string]any{
		"caseid":      3.0,
		"buyerValues": []any{10.0, 8.0, 6.5},
		"nested":      map[string]any{"n": 2.0, "s": "x"},
	}, got)
	assert.Equal(t, map[string]any{}, normalizeMap(nil))
}

func TestSimulationDocRoundTrip(t *testing.T) {
	trade := table.NewLog("period", "price")
	trade.Append(1, 100)
	trade.Append(2, nil)
	sim := &simulation.Simulation{
		ID:     "s1",
		Config: simulation.Config{"caseid": 4, "tag": "zi"},
		Logs:   map[string]*table.Log{"trade": trade, "ohlc": table.NewLog("period")},
		Agents: []simulation.Agent{{Role: "ZIAgent"}},
	}
	now := time.Unix(100, 0)
	doc := toSimulationDoc(sim, now)
	assert.Equal(t, "s1", doc.ID)
	assert.Equal(t, 4, doc.CaseID)
	assert.Equal(t, "zi", doc.Tag)
	assert.Equal(t, []string{"ohlc", "trade"}, doc.LogNames)
	assert.Equal(t, 1, doc.AgentsN)

	ld := toLogDoc("s1", "trade", trade)
	assert.Equal(t, []string{"period", "price"}, ld.Header)
	require.Len(t, ld.Rows, 2)

	// rows come back from BSON as nested bson.A with int32/int64
	ld.Rows = bson.A{bson.A{int32(1), int64(100)}, bson.A{int32(2), nil}}
	back := ld.log()
	assert.Equal(t, trade.Data(), back.Data())
}

func TestVisualizationDoc(t *testing.T) {
	rec := VisualizationRecord{
		ID:       "v1",
		Kind:     "plotFactory",
		Title:    "Prices",
		Target:   "main",
		Degraded: 1,
		Payload:  json.RawMessage(`{"data":[],"layout":{},"config":{}}`),
	}
	doc := toVisualizationDoc(rec)
	assert.Equal(t, `{"data":[],"layout":{},"config":{}}`, doc.Payload)
	assert.Equal(t, rec, doc.record())
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 100, clampLimit(0))
	assert.Equal(t, 100, clampLimit(5000))
	assert.Equal(t, 20, clampLimit(20))
}
