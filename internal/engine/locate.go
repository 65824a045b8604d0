// Package engine finds the whisper.cpp command line executable on disk.
package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"go.uber.org/zap"
)

var ErrEngineNotFound = errors.New("transcription engine not found")

// NotFoundError reports where the locator looked.
type NotFoundError struct {
	Name       string
	Canonical  string
	SearchRoot string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s binary not found at %s or under %s", e.Name, e.Canonical, e.SearchRoot)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrEngineNotFound
}

// Locator resolves the engine executable. Every call re-resolves so a binary
// removed after startup is reported instead of being exec'd from a stale path.
type Locator struct {
	// Canonical is checked first.
	Canonical string
	// SearchRoot is walked in lexical order when Canonical is missing.
	SearchRoot string
	// Name is the executable file name to search for.
	Name   string
	Logger *zap.Logger
}

// DefaultName is the whisper.cpp CLI binary name on this platform.
func DefaultName() string {
	if runtime.GOOS == "windows" {
		return "whisper-cli.exe"
	}
	return "whisper-cli"
}

func (l *Locator) Locate() (string, error) {
	logger := l.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	name := l.Name
	if name == "" {
		name = DefaultName()
	}

	if l.Canonical != "" {
		if err := ensureExecutable(l.Canonical); err == nil {
			logger.Debug("using engine at canonical path", zap.String("path", l.Canonical))
			return l.Canonical, nil
		}
	}

	if strings.TrimSpace(l.SearchRoot) != "" {
		found, err := search(l.SearchRoot, name)
		if err != nil {
			return "", fmt.Errorf("search for %s under %s: %w", name, l.SearchRoot, err)
		}
		if found != "" {
			logger.Info("found engine by search", zap.String("path", found))
			return found, nil
		}
	}

	return "", &NotFoundError{Name: name, Canonical: l.Canonical, SearchRoot: l.SearchRoot}
}

func search(root, name string) (string, error) {
	var found string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				if errors.Is(err, fs.ErrNotExist) {
					return fs.SkipAll
				}
				return err
			}
			// Unreadable subtrees are not fatal to the search.
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.Name() != name || !d.Type().IsRegular() {
			return nil
		}
		if ensureExecutable(path) != nil {
			return nil
		}
		found = path
		return fs.SkipAll
	})
	return found, err
}

func ensureExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	if runtime.GOOS != "windows" && info.Mode()&0o111 == 0 {
		return fmt.Errorf("%s is not executable", path)
	}
	return nil
}
