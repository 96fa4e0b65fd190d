// Package main is the entry point for the octree benchmark: it builds a
// random scene, runs frames without a renderer and reports octree stats.
package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/encoding/json"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-octree/internal/camera"
	"github.com/Faultbox/midgard-octree/internal/config"
	"github.com/Faultbox/midgard-octree/internal/logger"
	"github.com/Faultbox/midgard-octree/internal/octree"
	"github.com/Faultbox/midgard-octree/internal/scene"
	"github.com/Faultbox/midgard-octree/internal/workqueue"
	"github.com/Faultbox/midgard-octree/pkg/geom"
)

// report is written to the stats file after the run.
type report struct {
	Frames      int           `json:"frames"`
	Elapsed     time.Duration `json:"elapsed_ns"`
	AvgFrame    time.Duration `json:"avg_frame_ns"`
	AvgUpdate   time.Duration `json:"avg_update_ns"`
	AvgVisible  float64       `json:"avg_visible"`
	RayCasts    int           `json:"ray_casts"`
	RayHits     int           `json:"ray_hits"`
	Workers     int           `json:"workers"`
	Octree      octree.Stats  `json:"octree"`
	Interrupted bool          `json:"interrupted"`
}

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if path := config.WriteConfigPath(); path != "" {
		if err := cfg.SaveTo(path); err != nil {
			fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Config written to %s\n", path)
		return
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== Midgard Octree Bench ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		stop()
		logger.Fatal("bench failed", zap.Error(err))
	}

	logger.Info("bench finished normally")
}

func run(ctx context.Context, cfg *config.Config) error {
	if cfg.Metrics.Enabled {
		srv := &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           metricsHandler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go serveMetrics(srv)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("shutting down the metrics server failed", zap.Error(err))
			}
		}()
	}

	pool := workqueue.NewPool(workqueue.PoolConfig{
		Workers:     cfg.Workers.Count,
		QueueSize:   cfg.Workers.QueueSize,
		IdleTimeout: cfg.Workers.IdleTimeout,
	})
	defer pool.Close()

	sceneCfg := scene.DefaultConfig()
	sceneCfg.Name = cfg.Octree.Name
	sceneCfg.Bounds = geom.CubeBox(cfg.Octree.Size / 2)
	sceneCfg.MaxDepth = cfg.Octree.Levels
	sceneCfg.PruneEmpty = cfg.Octree.PruneEmpty
	sceneCfg.VerifyInsertion = cfg.Octree.VerifyInsertions
	sceneCfg.Dispatcher = pool

	s, err := scene.New(sceneCfg)
	if err != nil {
		return fmt.Errorf("creating scene: %w", err)
	}
	defer s.Destroy()

	s.Populate(scene.PopulateConfig{
		StaticObjects: cfg.Scene.StaticObjects,
		MovingObjects: cfg.Scene.MovingObjects,
		Lights:        cfg.Scene.Lights,
		ObjectSize:    cfg.Scene.ObjectSize,
		MaxSpeed:      cfg.Scene.MaxSpeed,
		Seed:          uint64(cfg.Scene.Seed),
	})

	rep := simulate(ctx, s, cfg.Bench, sceneCfg.Width, sceneCfg.Height)
	rep.Workers = pool.NumThreads()
	logger.Info("bench summary",
		zap.Int("frames", rep.Frames),
		zap.Duration("elapsed", rep.Elapsed),
		zap.Duration("avg_frame", rep.AvgFrame),
		zap.Duration("avg_update", rep.AvgUpdate),
		zap.Float64("avg_visible", rep.AvgVisible),
		zap.Int("ray_hits", rep.RayHits),
		zap.Int("octants", rep.Octree.Octants),
		zap.Int("drawables", rep.Octree.Drawables))

	if cfg.Bench.WireframeFile != "" {
		if err := writeWireframe(cfg.Bench.WireframeFile, s); err != nil {
			return err
		}
		logger.Info("wireframe written", zap.String("path", cfg.Bench.WireframeFile))
	}

	if cfg.Bench.StatsFile != "" {
		if err := writeReport(cfg.Bench.StatsFile, rep); err != nil {
			return err
		}
		logger.Info("stats written", zap.String("path", cfg.Bench.StatsFile))
	}
	return nil
}

// simulate ticks the scene, sweeping the camera around it and issuing a
// visibility query and pick rays every frame.
func simulate(ctx context.Context, s *scene.Scene, cfg config.BenchConfig, width, height float32) report {
	rng := rand.New(rand.NewPCG(uint64(cfg.Frames), uint64(cfg.RayCasts)))

	var rep report
	var updateTime time.Duration
	visible := 0
	start := time.Now()

loop:
	for frame := 0; frame < cfg.Frames; frame++ {
		select {
		case <-ctx.Done():
			rep.Interrupted = true
			break loop
		default:
		}

		tickStart := time.Now()
		s.Tick(cfg.TimeStep)
		updateTime += time.Since(tickStart)

		steerCamera(s.Camera, frame, cfg.TimeStep)
		visible += len(s.Visible(octree.FlagGeometry | octree.FlagLight))

		for i := 0; i < cfg.RayCasts; i++ {
			if _, _, ok := s.Pick(rng.Float32()*width, rng.Float32()*height); ok {
				rep.RayHits++
			}
		}
		rep.RayCasts += cfg.RayCasts
		rep.Frames++

		if logger.Enabled(zap.DebugLevel) && frame%60 == 0 {
			logger.Debug("frame",
				zap.Int("frame", frame),
				zap.Int("visible", visible),
				zap.Int("octants", s.Octree().NumOctants()))
		}
	}

	rep.Elapsed = time.Since(start)
	if rep.Frames > 0 {
		rep.AvgFrame = rep.Elapsed / time.Duration(rep.Frames)
		rep.AvgUpdate = updateTime / time.Duration(rep.Frames)
		rep.AvgVisible = float64(visible) / float64(rep.Frames)
	}
	rep.Octree = s.Octree().Stats()
	return rep
}

const (
	pitchPeriod = 60  // frames per vertical drag direction
	zoomEvery   = 120 // frames between scroll steps
)

// steerCamera replays a scripted mouse path: a steady orbit, a vertical
// drag that rocks the pitch and a scroll step every zoomEvery frames
// (in, in, out, out).
func steerCamera(cam *camera.OrbitCamera, frame int, timeStep float32) {
	cam.Orbit(timeStep * 0.2)

	dy := float32(2)
	if (frame/pitchPeriod)%2 == 1 {
		dy = -dy
	}
	cam.HandleDrag(0, dy)

	if frame%zoomEvery == 0 {
		wheel := float32(1)
		if (frame/zoomEvery)%4 >= 2 {
			wheel = -1
		}
		cam.HandleZoom(wheel)
	}
}

// wireframe holds line vertices, [x, y, z] per vertex, for an external viewer.
type wireframe struct {
	Octants   []float32 `json:"octants"`
	Drawables []float32 `json:"drawables"`
}

// writeWireframe dumps the octants and the drawables visible from the
// final camera position.
func writeWireframe(path string, s *scene.Scene) error {
	wf := wireframe{
		Octants:   s.DebugWireframe(),
		Drawables: s.VisibleWireframe(octree.FlagGeometry | octree.FlagLight),
	}
	data, err := json.Marshal(wf)
	if err != nil {
		return fmt.Errorf("encoding wireframe: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing wireframe: %w", err)
	}
	return nil
}

func metricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func serveMetrics(srv *http.Server) {
	logger.Info("starting metrics server", zap.String("addr", srv.Addr))
	switch err := srv.ListenAndServe(); {
	case err == nil, errors.Is(err, http.ErrServerClosed):
		logger.Info("stopping metrics server", zap.String("addr", srv.Addr))
	default:
		logger.Warn("metrics server stopped", zap.String("addr", srv.Addr), zap.Error(err))
	}
}

func writeReport(path string, rep report) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding stats: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing stats: %w", err)
	}
	return nil
}
