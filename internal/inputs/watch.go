package inputs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/temirov/phelcfg/internal/config"
)

// DefaultDebounceInterval groups bursts of filesystem events into one resolution.
const DefaultDebounceInterval = 200 * time.Millisecond

const (
	errorCreateWatcherFormat = "create filesystem watcher: %w"
	errorWatchDirectory      = "watch directory %s: %w"
	watcherErrorMessage      = "filesystem watcher error"
	watchAddFailedMessage    = "unable to watch directory"
)

// ChangeHandler receives freshly resolved inputs.
type ChangeHandler func(Inputs) error

// WatchOptions controls Watch.
type WatchOptions struct {
	Options
	// DebounceInterval defaults to DefaultDebounceInterval when zero.
	DebounceInterval time.Duration
}

// Watch resolves inputs once, hands them to onChange, and then re-resolves whenever files below
// the project root's configured directories change. onChange is only called when the resolved
// inputs differ from the previous call. Watch returns nil once ctx is done; errors from Resolve
// or onChange stop the watch.
func Watch(ctx context.Context, options WatchOptions, onChange ChangeHandler) error {
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	debounceInterval := options.DebounceInterval
	if debounceInterval <= 0 {
		debounceInterval = DefaultDebounceInterval
	}
	absoluteRoot, absoluteErr := filepath.Abs(options.Root)
	if absoluteErr != nil {
		return fmt.Errorf(errorAbsoluteRootFormat, options.Root, absoluteErr)
	}

	watcher, watcherErr := fsnotify.NewWatcher()
	if watcherErr != nil {
		return fmt.Errorf(errorCreateWatcherFormat, watcherErr)
	}
	defer func() {
		_ = watcher.Close()
	}()

	// the root stays watched even when no configured directory exists yet
	if addErr := watcher.Add(absoluteRoot); addErr != nil {
		return fmt.Errorf(errorWatchDirectory, absoluteRoot, addErr)
	}
	configuredDirectories := absoluteConfiguredDirectories(absoluteRoot, options.Configuration)
	watchConfiguredDirectories(watcher, configuredDirectories, logger)

	var previous *Inputs
	publish := func() error {
		resolved, resolveErr := Resolve(ctx, options.Options)
		if resolveErr != nil {
			return resolveErr
		}
		if previous != nil && reflect.DeepEqual(*previous, resolved) {
			return nil
		}
		previous = &resolved
		return onChange(resolved)
	}

	if publishErr := publish(); publishErr != nil {
		return ignoreCancellation(publishErr)
	}

	debounceTimer := time.NewTimer(debounceInterval)
	if !debounceTimer.Stop() {
		<-debounceTimer.C
	}
	defer debounceTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if requiresRewatch(event, configuredDirectories) {
				watchConfiguredDirectories(watcher, configuredDirectories, logger)
			}
			debounceTimer.Reset(debounceInterval)
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn(watcherErrorMessage, zap.Error(watchErr))
		case <-debounceTimer.C:
			if publishErr := publish(); publishErr != nil {
				return ignoreCancellation(publishErr)
			}
		}
	}
}

func absoluteConfiguredDirectories(absoluteRoot string, configuration config.BuildConfiguration) []string {
	var directories []string
	for _, directory := range append(configuration.SourceDirectories(), configuration.TestDirectories()...) {
		directories = append(directories, filepath.Join(absoluteRoot, filepath.FromSlash(directory)))
	}
	return directories
}

// watchConfiguredDirectories watches every existing configured directory tree. A missing configured
// directory is covered by watching its nearest existing ancestor so its creation produces an event.
func watchConfiguredDirectories(watcher *fsnotify.Watcher, configuredDirectories []string, logger *zap.Logger) {
	for _, absoluteDirectory := range configuredDirectories {
		if info, statErr := os.Stat(absoluteDirectory); statErr == nil && info.IsDir() {
			addDirectoryTree(watcher, absoluteDirectory, logger)
			continue
		}
		ancestor := nearestExistingAncestor(absoluteDirectory)
		if ancestor == "" {
			continue
		}
		if addErr := watcher.Add(ancestor); addErr != nil {
			logger.Warn(watchAddFailedMessage, zap.String("directory", ancestor), zap.Error(addErr))
		}
	}
}

func nearestExistingAncestor(absoluteDirectory string) string {
	current := filepath.Dir(absoluteDirectory)
	for {
		if info, statErr := os.Stat(current); statErr == nil && info.IsDir() {
			return current
		}
		parent := filepath.Dir(current)
		if parent == current {
			return ""
		}
		current = parent
	}
}

// requiresRewatch reports whether an event changes which directories must be watched: a directory
// created inside or on the way to a configured directory, or a configured directory or one of its
// ancestors removed or renamed.
func requiresRewatch(event fsnotify.Event, configuredDirectories []string) bool {
	if event.Op&fsnotify.Create == fsnotify.Create {
		info, statErr := os.Stat(event.Name)
		if statErr != nil || !info.IsDir() {
			return false
		}
		for _, configuredDirectory := range configuredDirectories {
			if isWithinDirectory(configuredDirectory, event.Name) || isWithinDirectory(event.Name, configuredDirectory) {
				return true
			}
		}
		return false
	}
	if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		for _, configuredDirectory := range configuredDirectories {
			if isWithinDirectory(event.Name, configuredDirectory) {
				return true
			}
		}
	}
	return false
}

func isWithinDirectory(parent string, candidate string) bool {
	relativePath, relErr := filepath.Rel(parent, candidate)
	if relErr != nil {
		return false
	}
	return relativePath != ".." && !strings.HasPrefix(relativePath, ".."+string(filepath.Separator))
}

// addDirectoryTree registers a directory and all of its subdirectories, since fsnotify watches are not recursive.
func addDirectoryTree(watcher *fsnotify.Watcher, absoluteDirectory string, logger *zap.Logger) {
	walkErr := filepath.WalkDir(absoluteDirectory, func(currentPath string, directoryEntry fs.DirEntry, walkError error) error {
		if walkError != nil {
			return nil
		}
		if !directoryEntry.IsDir() {
			return nil
		}
		if addErr := watcher.Add(currentPath); addErr != nil {
			logger.Warn(watchAddFailedMessage, zap.String("directory", currentPath), zap.Error(addErr))
		}
		return nil
	})
	if walkErr != nil {
		logger.Warn(watchAddFailedMessage, zap.String("directory", absoluteDirectory), zap.Error(walkErr))
	}
}

func ignoreCancellation(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
