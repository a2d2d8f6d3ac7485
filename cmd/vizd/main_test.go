package main

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndrandal/simviz/internal/persist"
	"github.com/ndrandal/simviz/internal/random"
	"github.com/ndrandal/simviz/internal/simulation"
)

// memRepo keeps simulations and visualizations in memory.
type memRepo struct {
	mu   sync.Mutex
	sims []*simulation.Simulation
	recs []persist.VisualizationRecord
}

func (m *memRepo) ListSimulations(ctx context.Context, limit int) ([]persist.SimulationSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []persist.SimulationSummary
	for _, s := range m.sims {
		tag, _ := s.Tag()
		out = append(out, persist.SimulationSummary{ID: s.ID, Tag: tag})
	}
	return out, nil
}

func (m *memRepo) LoadSimulation(ctx context.Context, id string) (*simulation.Simulation, error) {
	return nil, persist.ErrNotFound
}

func (m *memRepo) SaveSimulation(ctx context.Context, sim *simulation.Simulation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sims = append(m.sims, sim)
	return nil
}

func (m *memRepo) SaveVisualization(ctx context.Context, r persist.VisualizationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, r)
	return nil
}

func (m *memRepo) GetVisualization(ctx context.Context, id string) (persist.VisualizationRecord, error) {
	return persist.VisualizationRecord{}, persist.ErrNotFound
}

func (m *memRepo) ListVisualizations(ctx context.Context, f persist.VisualizationFilter) ([]persist.VisualizationRecord, error) {
	return nil, nil
}

func (m *memRepo) Stats(ctx context.Context) (persist.Stats, error) {
	return persist.Stats{}, nil
}

func (m *memRepo) savedRecords() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.recs)
}

func TestSeedDemoOnEmptyStore(t *testing.T) {
	repo := &memRepo{}
	require.NoError(t, seedDemo(context.Background(), repo, random.New(3), 3))
	require.Len(t, repo.sims, 3)
	tag, _ := repo.sims[0].Tag()
	assert.Equal(t, "zi", tag)

	// already seeded
	require.NoError(t, seedDemo(context.Background(), repo, random.New(3), 3))
	assert.Len(t, repo.sims, 3)
}

func TestRenderWriterDrainsQueue(t *testing.T) {
	repo := &memRepo{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := make(chan persist.VisualizationRecord, 4)
	go renderWriter(ctx, repo, ch, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ch <- persist.VisualizationRecord{ID: "a"}
	ch <- persist.VisualizationRecord{ID: "b"}

	assert.Eventually(t, func() bool { return repo.savedRecords() == 2 }, time.Second, 5*time.Millisecond)
}
