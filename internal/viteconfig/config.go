// Package viteconfig finds, reads and writes Vite configuration files.
//
// It is the only place fedpatch touches configuration files on disk. Reading
// returns the raw text untouched so the federation package can patch it
// surgically; writing replaces the file atomically, optionally keeping a
// ".bak" copy of the previous contents.
package viteconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/moby/sys/atomicwriter"

	"github.com/mmr-tortoise/fedpatch/internal/model"
)

// BackupSuffix is appended to a config path to name its backup copy.
const BackupSuffix = ".bak"

// CandidateNames lists the config file names Vite itself resolves, in the
// order FindConfig prefers them.
var CandidateNames = []string{
	"vite.config.ts",
	"vite.config.mts",
	"vite.config.js",
	"vite.config.mjs",
	"vite.config.cts",
	"vite.config.cjs",
}

// File is a configuration file read from disk.
type File struct {
	// Path is the path the file was read from.
	Path string

	// Text is the full file contents.
	Text string

	// Mode is the file's permission bits, reused when writing it back.
	Mode os.FileMode
}

// IsConfigName reports whether name (a base name) is a Vite config file name.
func IsConfigName(name string) bool {
	for _, c := range CandidateNames {
		if name == c {
			return true
		}
	}
	return false
}

// FindConfig searches projectDir for a Vite config file and returns the path
// of the first candidate that exists.
//
// Returns a CLIError with ExitConfigNotFound if none of the candidates exist.
func FindConfig(projectDir string) (string, error) {
	for _, name := range CandidateNames {
		path := filepath.Join(projectDir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}

	return "", model.NewCLIError(
		model.ExitConfigNotFound,
		fmt.Sprintf("no Vite config found in %s (searched %s)", projectDir, strings.Join(CandidateNames, ", ")),
	)
}

// Resolve turns a user-supplied path into a config file path. A directory is
// searched with FindConfig; anything else is returned as is.
func Resolve(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", model.WrapCLIError(model.ExitConfigNotFound, fmt.Sprintf("config file not found: %s", path), err)
		}
		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return FindConfig(path)
	}
	return path, nil
}

// Load reads the config file at path.
//
// Returns a CLIError with ExitConfigNotFound if the file does not exist.
func Load(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, model.WrapCLIError(model.ExitConfigNotFound, fmt.Sprintf("config file not found: %s", path), err)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return &File{Path: path, Text: string(data), Mode: info.Mode().Perm()}, nil
}

// WriteOptions controls Write.
type WriteOptions struct {
	// Backup keeps the previous contents in path+BackupSuffix.
	Backup bool

	// Mode is used for the written file. Zero means 0o644.
	Mode os.FileMode
}

// Write replaces the file at path with text. The new contents are written to
// a temporary file in the same directory and renamed over path, so readers
// never observe a partially written config.
//
// Failures are returned as a CLIError with ExitWriteFailed.
func Write(path, text string, opts WriteOptions) error {
	mode := opts.Mode
	if mode == 0 {
		mode = 0o644
	}

	if opts.Backup {
		if err := backup(path); err != nil {
			return model.WrapCLIError(model.ExitWriteFailed, fmt.Sprintf("failed to back up %s", path), err)
		}
	}

	if err := atomicwriter.WriteFile(path, []byte(text), mode); err != nil {
		return model.WrapCLIError(model.ExitWriteFailed, fmt.Sprintf("failed to write %s", path), err)
	}
	return nil
}

// backup copies the current contents of path to path+BackupSuffix. A missing
// file has nothing to back up.
func backup(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return atomicwriter.WriteFile(path+BackupSuffix, data, info.Mode().Perm())
}

// Save writes f.Text back to f.Path with the file's original mode.
func (f *File) Save(backup bool) error {
	return Write(f.Path, f.Text, WriteOptions{Backup: backup, Mode: f.Mode})
}
