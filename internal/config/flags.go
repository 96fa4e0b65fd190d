package config

import "flag"

var (
	flagConfig  = flag.String("config", "", "Path to config file")
	flagDebug   = flag.Bool("debug", false, "Enable debug logging and insertion checks")
	flagSize    = flag.Float64("size", 0, "Octree root edge length")
	flagLevels  = flag.Int("levels", 0, "Octree subdivision levels")
	flagWorkers = flag.Int("workers", -1, "Update worker count (0 = NumCPU-1)")
	flagFrames  = flag.Int("frames", 0, "Number of frames to simulate")
	flagMetrics = flag.String("metrics", "", "Serve Prometheus metrics on this address")

	flagWriteConfig = flag.String("write-config", "", "Write the effective config to this path and exit")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// WriteConfigPath returns the path given via --write-config, if any.
func WriteConfigPath() string {
	return *flagWriteConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
		cfg.Octree.VerifyInsertions = true
	}
	if *flagSize > 0 {
		cfg.Octree.Size = float32(*flagSize)
	}
	if *flagLevels > 0 {
		cfg.Octree.Levels = *flagLevels
	}
	if *flagWorkers >= 0 {
		cfg.Workers.Count = *flagWorkers
	}
	if *flagFrames > 0 {
		cfg.Bench.Frames = *flagFrames
	}
	if *flagMetrics != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = *flagMetrics
	}
}
