package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
)

// Validation range constants.
const (
	minParallelWorkers = 1
	maxParallelWorkers = 64
	minBatchSaveSize   = 1
	minDebounceSeconds = 1
	minPollSeconds     = 5
	octalBase          = 8
	minOctalDigits     = 3
	maxOctalDigits     = 4
	maxOctalValue      = 0o777
)

// Validate checks all configuration values and returns all errors found. It
// accumulates every error rather than stopping at the first, so users see a
// complete report and can fix all issues in one pass.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.SyncRoot != "" && !filepath.IsAbs(cfg.SyncRoot) {
		errs = append(errs, fmt.Errorf("sync_root: must be absolute, got %q", cfg.SyncRoot))
	}

	errs = append(errs, validateFilter(&cfg.Filter)...)
	errs = append(errs, validateTransfers(&cfg.Transfers)...)
	errs = append(errs, validateSafety(&cfg.Safety)...)
	errs = append(errs, validateSync(&cfg.Sync)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)

	return errors.Join(errs...)
}

func validateFilter(f *FilterConfig) []error {
	var errs []error

	if f.MaxFileSize != "" && f.MaxFileSize != "0" {
		if _, err := ParseSize(f.MaxFileSize); err != nil {
			errs = append(errs, fmt.Errorf("max_file_size: %w", err))
		}
	}

	if f.IgnoreMarker == "" {
		errs = append(errs, errors.New("ignore_marker: must not be empty"))
	}

	return errs
}

func validateTransfers(t *TransfersConfig) []error {
	var errs []error

	errs = append(errs, validateWorkerCount("parallel_downloads", t.ParallelDownloads)...)
	errs = append(errs, validateWorkerCount("parallel_uploads", t.ParallelUploads)...)
	errs = append(errs, validateWorkerCount("parallel_checkers", t.ParallelCheckers)...)

	if t.BatchSaveSize < minBatchSaveSize {
		errs = append(errs, fmt.Errorf("batch_save_size: must be >= %d, got %d", minBatchSaveSize, t.BatchSaveSize))
	}

	return errs
}

func validateWorkerCount(field string, n int) []error {
	if n < minParallelWorkers || n > maxParallelWorkers {
		return []error{fmt.Errorf("%s: must be between %d and %d, got %d", field, minParallelWorkers, maxParallelWorkers, n)}
	}

	return nil
}

func validateSafety(s *SafetyConfig) []error {
	var errs []error

	errs = append(errs, validateOctalPermission("sync_dir_permissions", s.SyncDirPermissions)...)
	errs = append(errs, validateOctalPermission("sync_file_permissions", s.SyncFilePermissions)...)

	return errs
}

func validateOctalPermission(field, value string) []error {
	if value == "" {
		return []error{fmt.Errorf("%s: must not be empty", field)}
	}

	if len(value) < minOctalDigits || len(value) > maxOctalDigits {
		return []error{fmt.Errorf("%s: must be 3 or 4 octal digits, got %q", field, value)}
	}

	n, err := strconv.ParseInt(value, octalBase, 32)
	if err != nil {
		return []error{fmt.Errorf("%s: invalid octal value %q", field, value)}
	}

	if n < 0 || n > maxOctalValue {
		return []error{fmt.Errorf("%s: octal value out of range %q", field, value)}
	}

	return nil
}

func validateSync(s *SyncConfig) []error {
	var errs []error

	if s.DebounceSeconds < minDebounceSeconds {
		errs = append(errs, fmt.Errorf("debounce_seconds: must be >= %d, got %d", minDebounceSeconds, s.DebounceSeconds))
	}

	if s.PollSeconds < minPollSeconds {
		errs = append(errs, fmt.Errorf("poll_seconds: must be >= %d, got %d", minPollSeconds, s.PollSeconds))
	}

	return errs
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"auto": true,
	"text": true,
	"json": true,
}

func validateLogging(l *LoggingConfig) []error {
	var errs []error

	if !validLogLevels[l.LogLevel] {
		errs = append(errs, fmt.Errorf("log_level: must be one of debug, info, warn, error; got %q", l.LogLevel))
	}

	if !validLogFormats[l.LogFormat] {
		errs = append(errs, fmt.Errorf("log_format: must be one of auto, text, json; got %q", l.LogFormat))
	}

	return errs
}
