// Command vizd serves chart rendering over HTTP and pushes rendered figures
// to WebSocket display clients.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ndrandal/simviz/internal/api"
	"github.com/ndrandal/simviz/internal/archive"
	"github.com/ndrandal/simviz/internal/chart"
	"github.com/ndrandal/simviz/internal/config"
	"github.com/ndrandal/simviz/internal/persist"
	"github.com/ndrandal/simviz/internal/random"
	"github.com/ndrandal/simviz/internal/sample"
	"github.com/ndrandal/simviz/internal/session"
	"github.com/ndrandal/simviz/internal/simgen"
	"github.com/ndrandal/simviz/internal/viz"
)

func main() {
	cfg := config.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)
	logger.Info("simviz starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("shutting down", "signal", sig.String())
		cancel()
	}()

	settings, err := config.LoadSettings(cfg.SettingsFile)
	if err != nil {
		fatal(logger, "settings", err)
	}

	// PRNG shared by the sampler and demo markets
	rng := random.New(cfg.Seed)
	logger.Info("sampler seeded", "seed", cfg.Seed)

	store, err := persist.NewStore(ctx, cfg.MongoURI)
	if err != nil {
		fatal(logger, "database connection failed", err)
	}
	defer store.Close(context.Background())

	if err := store.Migrate(ctx); err != nil {
		fatal(logger, "migration failed", err)
	}
	repo := persist.NewMongoRepository(store.DB())

	snapshotter := persist.NewSnapshotter(store, rng)
	restored, err := snapshotter.Load(ctx)
	if err != nil {
		logger.Warn("failed to load sampler state", "err", err)
	}
	if restored {
		logger.Info("restored sampler state")
	}

	if cfg.DemoSimulations > 0 {
		if err := seedDemo(ctx, repo, rng, cfg.DemoSimulations); err != nil {
			logger.Error("demo seeding failed", "err", err)
		}
	}

	hub := session.NewManager(cfg.SendBufferSize, logger)

	docs, err := viz.LoadCatalog(cfg.ChartsFile)
	if err != nil {
		fatal(logger, "chart catalog", err)
	}
	env := chart.Env{Settings: settings, Sampler: sample.NewWithRNG(rng), Logger: logger}
	factories := viz.Build(docs, env, viz.WithRenderer(hub))
	logger.Info("loaded chart catalog", "charts", len(factories))

	// Render persistence workers
	records := make(chan persist.VisualizationRecord, 1024)
	for i := 0; i < cfg.RenderWriters; i++ {
		go renderWriter(ctx, repo, records, logger)
	}

	go snapshotter.Run(ctx, cfg.SnapshotInterval)
	go persist.RunRetention(ctx, store, cfg.RetentionDays)

	if cfg.ArchiveDir != "" {
		archiver := archive.New(store.DB(), cfg.ArchiveDir, cfg.ArchiveMaxGB, cfg.ArchiveIntervalHours, cfg.ArchiveAfterHours)
		go archiver.Run(ctx)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/display", session.Handler(hub))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","clients":%d,"charts":%d}`, hub.ClientCount(), len(factories))
	})
	mux.Handle("/metrics", promhttp.Handler())

	apiServer := api.NewServer(repo, factories, env, hub, logger)
	apiServer.SetRecordQueue(records)
	apiServer.Register(mux)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("listening", "display", "ws://"+addr+"/display", "api", "http://"+addr+"/api")
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		fatal(logger, "server error", err)
	}

	logger.Info("simviz stopped")
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "err", err)
	os.Exit(1)
}

// seedDemo stores n generated simulations when the store has none.
func seedDemo(ctx context.Context, repo persist.Repository, rng *random.RNG, n int) error {
	existing, err := repo.ListSimulations(ctx, 1)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	sims, err := simgen.Demo(rng, n)
	if err != nil {
		return err
	}
	for _, sim := range sims {
		if err := repo.SaveSimulation(ctx, sim); err != nil {
			return fmt.Errorf("save %s: %w", sim.ID, err)
		}
	}
	slog.Info("seeded demo simulations", "count", len(sims))
	return nil
}

// renderWriter drains the record queue and writes to the DB.
func renderWriter(ctx context.Context, repo persist.Repository, ch <-chan persist.VisualizationRecord, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case rec := <-ch:
			if err := repo.SaveVisualization(context.Background(), rec); err != nil {
				logger.Warn("save visualization failed", "id", rec.ID, "err", err)
			}
		}
	}
}
