// Package main bakes or streams procedural terrain into in-memory sinks and
// reports what was generated.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/config"
	"github.com/Faultbox/midgard-terrain/internal/logger"
	"github.com/Faultbox/midgard-terrain/internal/memsink"
	"github.com/Faultbox/midgard-terrain/pkg/stream"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== Midgard Terrain Bake ===")
	logger.Debug("config loaded", zap.Any("config", cfg))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Error("terrain bake failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}

	logger.Info("terrain bake finished")
}

func run(ctx context.Context, cfg *config.Config) error {
	opts, err := cfg.Options()
	if err != nil {
		return err
	}

	factory := memsink.NewFactory()
	viewer := memsink.NewViewer(mgl64.Vec3{})
	m, err := stream.New(opts, factory, viewer, logger.Named("stream"))
	if err != nil {
		return fmt.Errorf("creating terrain manager: %w", err)
	}
	defer m.Close()

	start := time.Now()
	switch opts.Mode {
	case stream.ModeStreaming:
		step := mgl64.Vec3{opts.Tile.WorldTileSize(), 0, 0}
		for i := 0; i < cfg.Output.Ticks; i++ {
			if err := m.Tick(ctx); err != nil {
				return fmt.Errorf("tick %d: %w", i, err)
			}
			viewer.Move(step)
		}
	default:
		if err := m.Bake(ctx); err != nil {
			return fmt.Errorf("baking terrain: %w", err)
		}
	}
	elapsed := time.Since(start)

	tiles := make([]stream.Tile, 0)
	for _, c := range m.Resident() {
		t, ok := m.Tile(c)
		if !ok {
			continue
		}
		tiles = append(tiles, t)

		instances := 0
		for _, b := range t.Buckets {
			instances += len(b.Instances)
		}
		logger.Info("tile",
			zap.Stringer("coord", c),
			zap.Int64("seed", t.Seed),
			zap.String("fingerprint", fmt.Sprintf("%016x", t.Fingerprint)),
			zap.Float64("maxZ", t.MaxZ),
			zap.Bool("visible", t.Visible),
			zap.Int("instances", instances))
	}

	st := m.Stats()
	logger.Info("terrain stats",
		zap.String("session", m.Session()),
		zap.Int64("seed", m.Seed()),
		zap.Duration("elapsed", elapsed),
		zap.Int("built", st.Built),
		zap.Int("resident", st.Resident),
		zap.Int("visible", st.Visible),
		zap.Int("evicted", st.Evicted),
		zap.Int("failed", st.Failed),
		zap.Int("pending", st.Pending),
		zap.Int("sinks", factory.Created()),
		zap.Float64("maxHeight", st.MaxHeight))

	if cfg.Output.Preview != "" {
		if err := savePreview(cfg.Output.Preview, renderPreview(tiles)); err != nil {
			return err
		}
		logger.Info("preview written", zap.String("path", cfg.Output.Preview))
	}
	return nil
}
