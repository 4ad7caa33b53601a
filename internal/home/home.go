// Package home manages the docket home directory layout: the default
// config file location and the inbox watched in watch mode.
package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the docket home directory.
	DefaultDirName = ".docket"

	// InboxDirName is the subdirectory watch mode monitors by default.
	InboxDirName = "inbox"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"
)

// Dir is the docket home layout rooted at a single directory.
type Dir struct {
	path string
}

// New returns a Dir rooted at path, falling back to ~/.docket when path
// is empty.
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// InboxPath returns the path to the watch-mode inbox.
func (d *Dir) InboxPath() string {
	return filepath.Join(d.path, InboxDirName)
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// EnsureExists creates the home directory tree, including the inbox.
// Directories already present are left untouched.
func (d *Dir) EnsureExists() error {
	if err := os.MkdirAll(d.InboxPath(), 0o755); err != nil {
		return fmt.Errorf("failed to create inbox directory: %w", err)
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}
