// Package config handles octree and benchmark configuration loading.
package config

import "time"

// Config holds all settings.
type Config struct {
	Octree  OctreeConfig  `yaml:"octree"`
	Workers WorkersConfig `yaml:"workers"`
	Scene   SceneConfig   `yaml:"scene"`
	Bench   BenchConfig   `yaml:"bench"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// OctreeConfig holds spatial index settings.
type OctreeConfig struct {
	Name             string  `yaml:"name"`
	Size             float32 `yaml:"size"`   // Edge length of the root cube, centered at the origin
	Levels           int     `yaml:"levels"` // Maximum subdivision depth
	PruneEmpty       bool    `yaml:"prune_empty_octants"`
	VerifyInsertions bool    `yaml:"verify_insertion"` // Log drawables that end up outside their octant
}

// WorkersConfig holds the update worker pool settings.
type WorkersConfig struct {
	Count       int           `yaml:"count"` // 0 means NumCPU-1
	QueueSize   int           `yaml:"queue_size"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// SceneConfig describes the generated benchmark scene.
type SceneConfig struct {
	StaticObjects int     `yaml:"static_objects"`
	MovingObjects int     `yaml:"moving_objects"`
	Lights        int     `yaml:"lights"`
	ObjectSize    float32 `yaml:"object_size"`
	MaxSpeed      float32 `yaml:"max_speed"`
	Seed          int64   `yaml:"seed"`
}

// BenchConfig holds frame loop settings.
type BenchConfig struct {
	Frames        int     `yaml:"frames"`
	TimeStep      float32 `yaml:"time_step"`
	RayCasts      int     `yaml:"ray_casts"` // Pick rays per frame
	StatsFile     string  `yaml:"stats_file"`
	WireframeFile string  `yaml:"wireframe_file"` // Octant and visible drawable lines after the last frame
}

// MetricsConfig holds Prometheus exporter settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Octree: OctreeConfig{
			Name:             "scene",
			Size:             2000,
			Levels:           8,
			PruneEmpty:       true,
			VerifyInsertions: false,
		},
		Workers: WorkersConfig{
			Count:       0,
			QueueSize:   256,
			IdleTimeout: 1 * time.Second,
		},
		Scene: SceneConfig{
			StaticObjects: 2000,
			MovingObjects: 1000,
			Lights:        32,
			ObjectSize:    4,
			MaxSpeed:      20,
			Seed:          1,
		},
		Bench: BenchConfig{
			Frames:   600,
			TimeStep: 1.0 / 60.0,
			RayCasts: 16,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9100",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
