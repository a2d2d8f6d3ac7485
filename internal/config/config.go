package config

import (
	"flag"
	"os"
	"strconv"
	"time"
)

// Config holds all server configuration.
type Config struct {
	// Server
	Port int
	Host string

	// Database
	MongoURI string

	// Charts
	ChartsFile   string
	SettingsFile string
	Seed         int64

	// Display hub
	SendBufferSize int

	// Visualization retention
	RetentionDays int

	// Local archive of old visualizations (opt-in: only active when ArchiveDir is set)
	ArchiveDir           string
	ArchiveMaxGB         int
	ArchiveIntervalHours int
	ArchiveAfterHours    int

	// Sampler state snapshots
	SnapshotInterval time.Duration

	// Demo data seeded on an empty store
	DemoSimulations int

	// Render persistence workers
	RenderWriters int
}

// Load parses flags, falling back to environment variables and defaults.
func Load() *Config {
	return LoadFrom(flag.CommandLine, os.Args[1:])
}

// LoadFrom parses args into a new Config using fs.
func LoadFrom(fs *flag.FlagSet, args []string) *Config {
	c := &Config{}

	fs.IntVar(&c.Port, "port", envInt("VIZ_PORT", 8200), "HTTP/WebSocket server port")
	fs.StringVar(&c.Host, "host", envStr("VIZ_HOST", "0.0.0.0"), "Listen host")

	fs.StringVar(&c.MongoURI, "mongo-uri", envStr("MONGO_URI", "mongodb://localhost:27017/simviz"), "MongoDB connection URI")

	fs.StringVar(&c.ChartsFile, "charts", envStr("VIZ_CHARTS", ""), "Chart catalog file, JSON or YAML (empty = built-in catalog)")
	fs.StringVar(&c.SettingsFile, "settings", envStr("VIZ_SETTINGS", ""), "Chart settings YAML file")
	fs.Int64Var(&c.Seed, "seed", envInt64("VIZ_SEED", 0), "Sampler seed (0 = random)")

	fs.IntVar(&c.SendBufferSize, "send-buffer", envInt("SEND_BUFFER", 256), "Per-client send buffer size")
	fs.IntVar(&c.RetentionDays, "retention", envInt("VIZ_RETENTION_DAYS", 30), "Visualization retention in days (0 = keep forever)")

	fs.StringVar(&c.ArchiveDir, "archive-dir", envStr("ARCHIVE_DIR", ""), "Directory for archived visualizations (empty = disabled)")
	fs.IntVar(&c.ArchiveMaxGB, "archive-max-gb", envInt("ARCHIVE_MAX_GB", 10), "Maximum archive size in GB before rotating")
	fs.IntVar(&c.ArchiveIntervalHours, "archive-interval", envInt("ARCHIVE_INTERVAL_HOURS", 6), "Hours between archive runs")
	fs.IntVar(&c.ArchiveAfterHours, "archive-after", envInt("ARCHIVE_AFTER_HOURS", 24), "Archive visualizations older than this many hours")

	fs.DurationVar(&c.SnapshotInterval, "snapshot-interval", 30*time.Second, "Interval between sampler state snapshots")
	fs.IntVar(&c.DemoSimulations, "demo", envInt("VIZ_DEMO_SIMULATIONS", 0), "Generate this many demo simulations when the store is empty")
	fs.IntVar(&c.RenderWriters, "render-writers", 2, "Number of render persistence workers")

	fs.Parse(args)
	return c
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}
