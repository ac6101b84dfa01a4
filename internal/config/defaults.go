package config

// Default values for configuration options. These represent the "layer 0"
// of the override chain (defaults -> config file -> env -> CLI) and are
// chosen to match spec.md §5's stated pool-size and interval defaults.
const (
	defaultIgnoreMarker        = ".notesyncignore"
	defaultMaxFileSize         = "0"
	defaultParallelDownloads   = 10
	defaultParallelUploads     = 5
	defaultParallelCheckers    = 8
	defaultBatchSaveSize       = 50
	defaultSyncDirPermissions  = "0755"
	defaultSyncFilePermissions = "0644"
	defaultDebounceSeconds     = 5
	defaultPollSeconds         = 60
	defaultLogLevel            = "info"
	defaultLogFormat           = "auto"
)

// DefaultConfig returns a Config populated with all default values. This is
// used both as the starting point for TOML decoding (so unset fields retain
// defaults) and as the fallback when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Filter:     defaultFilterConfig(),
		Transfers:  defaultTransfersConfig(),
		Safety:     defaultSafetyConfig(),
		Sync:       defaultSyncConfig(),
		Logging:    defaultLoggingConfig(),
		AutoCommit: defaultAutoCommitConfig(),
	}
}

func defaultFilterConfig() FilterConfig {
	return FilterConfig{
		SkipSymlinks: true,
		MaxFileSize:  defaultMaxFileSize,
		IgnoreMarker: defaultIgnoreMarker,
	}
}

func defaultTransfersConfig() TransfersConfig {
	return TransfersConfig{
		ParallelDownloads: defaultParallelDownloads,
		ParallelUploads:   defaultParallelUploads,
		ParallelCheckers:  defaultParallelCheckers,
		BatchSaveSize:     defaultBatchSaveSize,
	}
}

func defaultSafetyConfig() SafetyConfig {
	return SafetyConfig{
		SyncDirPermissions:  defaultSyncDirPermissions,
		SyncFilePermissions: defaultSyncFilePermissions,
	}
}

func defaultSyncConfig() SyncConfig {
	return SyncConfig{
		DebounceSeconds: defaultDebounceSeconds,
		PollSeconds:     defaultPollSeconds,
	}
}

func defaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		LogLevel:  defaultLogLevel,
		LogFormat: defaultLogFormat,
	}
}

func defaultAutoCommitConfig() AutoCommitConfig {
	return AutoCommitConfig{}
}
