package inputs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/go-cmp/cmp"

	"github.com/temirov/phelcfg/internal/config"
)

func TestWatchPicksUpNestedConfiguredDirectoryCreatedLater(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "lib"), 0o755); err != nil {
		t.Fatalf("mkdir lib: %v", err)
	}
	configuration := config.NewBuildConfiguration().SetSourceDirectories("lib/phel").Build()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	published := make(chan Inputs, 8)
	watchDone := make(chan error, 1)
	go func() {
		watchDone <- Watch(ctx, WatchOptions{
			Options:          Options{Root: root, Configuration: configuration},
			DebounceInterval: 20 * time.Millisecond,
		}, func(resolved Inputs) error {
			published <- resolved
			return nil
		})
	}()

	select {
	case initial := <-published:
		if diff := cmp.Diff([]string{"lib/phel", "tests"}, initial.MissingDirectories); diff != "" {
			t.Fatalf("unexpected initial missing directories (-want +got):\n%s", diff)
		}
	case <-ctx.Done():
		t.Fatalf("timed out waiting for initial inputs")
	}

	if err := os.Mkdir(filepath.Join(root, "lib", "phel"), 0o755); err != nil {
		t.Fatalf("mkdir lib/phel: %v", err)
	}
	writeProjectFile(t, root, "lib/phel/core.phel")

	for {
		select {
		case updated := <-published:
			if cmp.Equal([]string{"lib/phel/core.phel"}, updated.SourceFiles) {
				cancel()
				if watchErr := <-watchDone; watchErr != nil {
					t.Fatalf("Watch returned error: %v", watchErr)
				}
				return
			}
		case <-ctx.Done():
			t.Fatalf("timed out waiting for lib/phel/core.phel")
		}
	}
}

func TestRequiresRewatch(t *testing.T) {
	root := t.TempDir()
	for _, directory := range []string{"lib", "lib/phel/app", "vendor/pkg"} {
		if err := os.MkdirAll(filepath.Join(root, filepath.FromSlash(directory)), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", directory, err)
		}
	}
	writeProjectFile(t, root, "lib/phel/core.phel")
	configuredDirectories := []string{filepath.Join(root, "lib", "phel"), filepath.Join(root, "tests")}

	testCases := []struct {
		name     string
		event    fsnotify.Event
		expected bool
	}{
		{
			name:     "created_configured_directory",
			event:    fsnotify.Event{Name: filepath.Join(root, "lib", "phel"), Op: fsnotify.Create},
			expected: true,
		},
		{
			name:     "created_ancestor_directory",
			event:    fsnotify.Event{Name: filepath.Join(root, "lib"), Op: fsnotify.Create},
			expected: true,
		},
		{
			name:     "created_nested_directory",
			event:    fsnotify.Event{Name: filepath.Join(root, "lib", "phel", "app"), Op: fsnotify.Create},
			expected: true,
		},
		{
			name:     "created_unrelated_directory",
			event:    fsnotify.Event{Name: filepath.Join(root, "vendor"), Op: fsnotify.Create},
			expected: false,
		},
		{
			name:     "created_unrelated_nested_directory",
			event:    fsnotify.Event{Name: filepath.Join(root, "vendor", "pkg"), Op: fsnotify.Create},
			expected: false,
		},
		{
			name:     "created_file",
			event:    fsnotify.Event{Name: filepath.Join(root, "lib", "phel", "core.phel"), Op: fsnotify.Create},
			expected: false,
		},
		{
			name:     "removed_configured_directory",
			event:    fsnotify.Event{Name: filepath.Join(root, "tests"), Op: fsnotify.Remove},
			expected: true,
		},
		{
			name:     "renamed_ancestor_directory",
			event:    fsnotify.Event{Name: filepath.Join(root, "lib"), Op: fsnotify.Rename},
			expected: true,
		},
		{
			name:     "removed_nested_directory",
			event:    fsnotify.Event{Name: filepath.Join(root, "lib", "phel", "app"), Op: fsnotify.Remove},
			expected: false,
		},
		{
			name:     "written_file",
			event:    fsnotify.Event{Name: filepath.Join(root, "lib", "phel", "core.phel"), Op: fsnotify.Write},
			expected: false,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if actual := requiresRewatch(testCase.event, configuredDirectories); actual != testCase.expected {
				t.Fatalf("expected %t, got %t", testCase.expected, actual)
			}
		})
	}
}

func TestNearestExistingAncestor(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "lib"), 0o755); err != nil {
		t.Fatalf("mkdir lib: %v", err)
	}
	actual := nearestExistingAncestor(filepath.Join(root, "lib", "phel", "app"))
	if actual != filepath.Join(root, "lib") {
		t.Fatalf("expected %s, got %s", filepath.Join(root, "lib"), actual)
	}
}
