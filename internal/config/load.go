package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/BurntSushi/toml"
)

// CLIOverrides holds config values sourced from command-line flags, the
// last and highest-priority layer of the override chain.
type CLIOverrides struct {
	ConfigPath string
	SyncRoot   string
	DryRun     *bool
}

// Load reads and parses a TOML config file, validates it, and returns the
// resulting Config. Unlike the teacher's two-pass drive-section decode,
// notesync has no per-drive sections, so a single toml.Decode into a
// DefaultConfig()-seeded struct is sufficient: unset fields keep their
// defaults, set fields override them.
func Load(path string, logger *slog.Logger) (*Config, error) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Debug("loading config file", "path", path)

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	logger.Debug("config file parsed successfully", "path", path, "sync_root", cfg.SyncRoot)

	return cfg, nil
}

// LoadOrDefault reads a TOML config file if it exists, otherwise returns a
// Config populated with all default values. This supports a zero-config
// first run: users can start without creating a config file at all.
func LoadOrDefault(path string, logger *slog.Logger) (*Config, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		logger.Debug("config file not found, using defaults", "path", path)

		return DefaultConfig(), nil
	}

	return Load(path, logger)
}

// ResolveConfigPath determines the config file path using the three-layer
// priority: CLI flag > environment variable > platform default.
func ResolveConfigPath(env EnvOverrides, cli CLIOverrides, logger *slog.Logger) string {
	if logger == nil {
		logger = slog.Default()
	}

	cfgPath := DefaultConfigPath()
	source := "default"

	if env.ConfigPath != "" {
		cfgPath = env.ConfigPath
		source = "env"
	}

	if cli.ConfigPath != "" {
		cfgPath = cli.ConfigPath
		source = "cli"
	}

	logger.Debug("config path resolved", "path", cfgPath, "source", source)

	return cfgPath
}

// Resolve loads configuration and applies the full override chain: defaults
// -> config file -> environment variables -> CLI flags. It returns the
// fully resolved Config, ready to drive the sync engine.
func Resolve(env EnvOverrides, cli CLIOverrides, logger *slog.Logger) (*Config, error) {
	if logger == nil {
		logger = slog.Default()
	}

	cfgPath := ResolveConfigPath(env, cli, logger)

	cfg, err := LoadOrDefault(cfgPath, logger)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if env.SyncRoot != "" {
		cfg.SyncRoot = env.SyncRoot
	}

	if cli.SyncRoot != "" {
		cfg.SyncRoot = cli.SyncRoot
	}

	if cli.DryRun != nil {
		cfg.Sync.DryRun = *cli.DryRun
		logger.Debug("CLI override applied", "dry_run", cfg.Sync.DryRun)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}
