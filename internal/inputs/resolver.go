// Package inputs resolves which project files a build or test run considers under a BuildConfiguration.
package inputs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/phelcfg/internal/config"
	"github.com/temirov/phelcfg/internal/utils"
)

const (
	errorAbsoluteRootFormat  = "resolve project root %s: %w"
	errorStatDirectoryFormat = "stat directory %s: %w"
	errorNotDirectoryFormat  = "configured path %s is not a directory"
	errorWalkDirectoryFormat = "walk directory %s: %w"

	missingDirectoryMessage = "configured directory does not exist"
)

// DirectoryRole tells whether a configured directory holds sources or tests.
type DirectoryRole string

const (
	// RoleSource marks a directory listed in src_dirs.
	RoleSource DirectoryRole = "source"
	// RoleTest marks a directory listed in test_dirs.
	RoleTest DirectoryRole = "test"
)

// Options controls input resolution.
type Options struct {
	// Root is the project root that configured directories are relative to.
	Root string
	// Configuration supplies the directories and the ignore list.
	Configuration config.BuildConfiguration
	// Logger receives warnings about missing directories. A no-op logger is used when nil.
	Logger *zap.Logger
}

// Inputs lists the files a build or test run considers. Paths are relative to the project root
// in forward-slash form and sorted.
type Inputs struct {
	SourceFiles        []string `json:"sourceFiles" yaml:"source_files"`
	IgnoredFiles       []string `json:"ignoredFiles" yaml:"ignored_files"`
	TestFiles          []string `json:"testFiles" yaml:"test_files"`
	MissingDirectories []string `json:"missingDirectories" yaml:"missing_directories"`
}

// directoryScan is the outcome of walking one configured directory.
type directoryScan struct {
	directory string
	role      DirectoryRole
	missing   bool
	included  []string
	ignored   []string
}

// Resolve walks every configured source and test directory concurrently.
// The ignore list applies to source directories only. Configured directories that do not exist
// are reported in MissingDirectories and logged rather than treated as errors.
func Resolve(ctx context.Context, options Options) (Inputs, error) {
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	absoluteRoot, absoluteErr := filepath.Abs(options.Root)
	if absoluteErr != nil {
		return Inputs{}, fmt.Errorf(errorAbsoluteRootFormat, options.Root, absoluteErr)
	}

	type plannedScan struct {
		directory string
		role      DirectoryRole
	}
	var plannedScans []plannedScan
	for _, directory := range options.Configuration.SourceDirectories() {
		plannedScans = append(plannedScans, plannedScan{directory: directory, role: RoleSource})
	}
	for _, directory := range options.Configuration.TestDirectories() {
		plannedScans = append(plannedScans, plannedScan{directory: directory, role: RoleTest})
	}

	scans := make([]directoryScan, len(plannedScans))
	group, groupCtx := errgroup.WithContext(ctx)
	for scanIndex, planned := range plannedScans {
		scanIndex, planned := scanIndex, planned
		group.Go(func() error {
			var ignorePatterns []string
			if planned.role == RoleSource {
				ignorePatterns = options.Configuration.IgnoreWhenBuilding()
			}
			scan, scanErr := scanDirectory(groupCtx, absoluteRoot, planned.directory, planned.role, ignorePatterns)
			if scanErr != nil {
				return scanErr
			}
			scans[scanIndex] = scan
			return nil
		})
	}
	if waitErr := group.Wait(); waitErr != nil {
		return Inputs{}, waitErr
	}

	var resolved Inputs
	for _, scan := range scans {
		if scan.missing {
			logger.Warn(missingDirectoryMessage, zap.String("directory", scan.directory), zap.String("role", string(scan.role)))
			resolved.MissingDirectories = append(resolved.MissingDirectories, scan.directory)
			continue
		}
		switch scan.role {
		case RoleSource:
			resolved.SourceFiles = append(resolved.SourceFiles, scan.included...)
			resolved.IgnoredFiles = append(resolved.IgnoredFiles, scan.ignored...)
		case RoleTest:
			resolved.TestFiles = append(resolved.TestFiles, scan.included...)
		}
	}

	resolved.SourceFiles = sortedUnique(resolved.SourceFiles)
	resolved.IgnoredFiles = sortedUnique(resolved.IgnoredFiles)
	resolved.TestFiles = sortedUnique(resolved.TestFiles)
	resolved.MissingDirectories = sortedUnique(resolved.MissingDirectories)
	return resolved, nil
}

// scanDirectory collects Phel files below one configured directory. Files matching
// ignorePatterns, evaluated relative to the configured directory, are returned separately.
func scanDirectory(ctx context.Context, absoluteRoot string, directory string, role DirectoryRole, ignorePatterns []string) (directoryScan, error) {
	scan := directoryScan{directory: directory, role: role}
	absoluteDirectory := filepath.Join(absoluteRoot, filepath.FromSlash(directory))

	info, statErr := os.Stat(absoluteDirectory)
	if statErr != nil {
		if errors.Is(statErr, fs.ErrNotExist) {
			scan.missing = true
			return scan, nil
		}
		return directoryScan{}, fmt.Errorf(errorStatDirectoryFormat, directory, statErr)
	}
	if !info.IsDir() {
		return directoryScan{}, fmt.Errorf(errorNotDirectoryFormat, directory)
	}

	walkFunction := func(currentPath string, directoryEntry fs.DirEntry, walkError error) error {
		if walkError != nil {
			return walkError
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if directoryEntry.IsDir() || !directoryEntry.Type().IsRegular() {
			return nil
		}
		if !strings.EqualFold(filepath.Ext(directoryEntry.Name()), utils.PhelFileExtension) {
			return nil
		}
		pathWithinDirectory := utils.RelativePathOrSelf(currentPath, absoluteDirectory)
		pathWithinRoot := utils.RelativePathOrSelf(currentPath, absoluteRoot)
		if utils.MatchesIgnorePattern(pathWithinDirectory, ignorePatterns) {
			scan.ignored = append(scan.ignored, pathWithinRoot)
			return nil
		}
		scan.included = append(scan.included, pathWithinRoot)
		return nil
	}

	if walkErr := filepath.WalkDir(absoluteDirectory, walkFunction); walkErr != nil {
		if errors.Is(walkErr, context.Canceled) || errors.Is(walkErr, context.DeadlineExceeded) {
			return directoryScan{}, walkErr
		}
		return directoryScan{}, fmt.Errorf(errorWalkDirectoryFormat, directory, walkErr)
	}
	return scan, nil
}

func sortedUnique(values []string) []string {
	unique := utils.DeduplicatePatterns(values)
	sort.Strings(unique)
	return unique
}
