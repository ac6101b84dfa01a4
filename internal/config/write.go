package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// configFilePermissions is the standard permission mode for config files.
// Owner read/write, group and others read-only.
const configFilePermissions = 0o644

// configDirPermissions is the standard permission mode for config directories.
const configDirPermissions = 0o755

// configTemplate is the default config file content written on first run.
// All settings are present as commented-out defaults so users can discover
// every option without reading docs.
const configTemplate = `# notesync configuration
# Docs: https://github.com/kallio/notesync

# Absolute path to the local directory synced with the cloud notes service.
# sync_root = "/home/you/Notes"

[filter]
# skip_symlinks = true
# skip_dirs = []
# max_file_size = "0"
# ignore_marker = ".notesyncignore"

[transfers]
# parallel_downloads = 10
# parallel_uploads = 5
# parallel_checkers = 8
# batch_save_size = 50

[safety]
# sync_dir_permissions = "0755"
# sync_file_permissions = "0644"

[sync]
# debounce_seconds = 5
# poll_seconds = 60
# dry_run = false

[logging]
# log_level = "info"
# log_file = ""
# log_format = "auto"

[autocommit]
# enabled = false
`

// WriteDefault creates a new config file from the default template at path.
// The write is atomic (temp file + rename) and parent directories are
// created as needed. Used on first run when no config file exists yet.
func WriteDefault(path string) error {
	return atomicWriteFile(path, []byte(configTemplate))
}

// atomicWriteFile writes data to a temporary file in the same directory as
// path, then renames it to the target path. This prevents partial writes
// from corrupting the config file on crash. Parent directories are created
// as needed.
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, configDirPermissions); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	f, err := os.CreateTemp(dir, ".config-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	tempPath := f.Name()

	succeeded := false
	defer func() {
		if !succeeded {
			os.Remove(tempPath)
		}
	}()

	if _, err := f.Write(data); err != nil {
		f.Close()

		return fmt.Errorf("writing temp file: %w", err)
	}

	if err := f.Sync(); err != nil {
		f.Close()

		return fmt.Errorf("syncing temp file: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Chmod(tempPath, configFilePermissions); err != nil {
		return fmt.Errorf("setting file permissions: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	succeeded = true

	return nil
}
