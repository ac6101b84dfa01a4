// Package config implements TOML configuration loading, validation, and
// platform-specific path resolution for notesync.
package config

// Config is the top-level configuration structure. notesync manages a
// single local sync root (unlike the teacher's per-drive profile model),
// so there is no section map here — just the sync root path and the
// global sections that tune its behavior.
type Config struct {
	SyncRoot   string           `toml:"sync_root"`
	Filter     FilterConfig     `toml:"filter"`
	Transfers  TransfersConfig  `toml:"transfers"`
	Safety     SafetyConfig     `toml:"safety"`
	Sync       SyncConfig       `toml:"sync"`
	Logging    LoggingConfig    `toml:"logging"`
	AutoCommit AutoCommitConfig `toml:"autocommit"`
}

// FilterConfig holds the [filter] section. Dotfiles and `.conflict.`
// backups are excluded unconditionally by the scanner (spec §3 invariants
// 4-5). These fields are loaded and validated, but the scanner and watcher
// do not read them: the local scanner always uses `.notesyncignore` and
// applies no symlink, directory-name or file-size filter from this section.
type FilterConfig struct {
	SkipSymlinks bool     `toml:"skip_symlinks"`
	SkipDirs     []string `toml:"skip_dirs"`
	MaxFileSize  string   `toml:"max_file_size"`
	IgnoreMarker string   `toml:"ignore_marker"`
}

// TransfersConfig holds the [transfers] section (spec §5 "Pool sizes").
// ParallelDownloads and ParallelUploads size the orchestrator's worker
// pools. ParallelCheckers and BatchSaveSize are loaded and validated only;
// the cloud scanner's pool size and the metadata save batch size are fixed
// in the sync package.
type TransfersConfig struct {
	ParallelDownloads int `toml:"parallel_downloads"`
	ParallelUploads   int `toml:"parallel_uploads"`
	ParallelCheckers  int `toml:"parallel_checkers"`
	BatchSaveSize     int `toml:"batch_save_size"`
}

// SafetyConfig holds file-permission settings for synced content. They are
// loaded and validated only: downloads, conflict backups and directories
// are written with fixed modes (0644 for files, 0755 for directories).
// Mirrors the teacher's SafetyConfig shape; the OneDrive-specific
// recycle-bin/big-delete guards have no analogue here since notesync has
// no bulk-delete operation to guard.
type SafetyConfig struct {
	SyncDirPermissions  string `toml:"sync_dir_permissions"`
	SyncFilePermissions string `toml:"sync_file_permissions"`
}

// SyncConfig controls the orchestrator and watcher's timing behavior.
type SyncConfig struct {
	DebounceSeconds int  `toml:"debounce_seconds"`
	PollSeconds     int  `toml:"poll_seconds"`
	DryRun          bool `toml:"dry_run"`
}

// LoggingConfig controls log output behavior.
type LoggingConfig struct {
	LogLevel  string `toml:"log_level"`
	LogFile   string `toml:"log_file"`
	LogFormat string `toml:"log_format"`
}

// AutoCommitConfig controls whether a GitSink is constructed and handed to
// the orchestrator as its post-sync sink (spec §6 "absence of this
// collaborator is a valid configuration").
type AutoCommitConfig struct {
	Enabled bool `toml:"enabled"`
}
