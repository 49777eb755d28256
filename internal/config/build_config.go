// Package config defines the project build configuration and loads it from configuration files.
package config

import (
	"github.com/temirov/phelcfg/internal/utils"
)

const (
	// DefaultSourceDirectory is the source directory used when none is configured.
	DefaultSourceDirectory = "src"
	// DefaultTestDirectory is the test directory used when none is configured.
	DefaultTestDirectory = "tests"
)

// BuildConfiguration declares which directories hold sources and tests and which
// files are skipped when building. A BuildConfiguration is immutable; accessors return copies.
type BuildConfiguration struct {
	sourceDirectories  []string
	testDirectories    []string
	ignoreWhenBuilding []string
}

// Document is the serializable form of a BuildConfiguration.
type Document struct {
	SourceDirectories  []string `json:"src_dirs" yaml:"src_dirs"`
	TestDirectories    []string `json:"test_dirs" yaml:"test_dirs"`
	IgnoreWhenBuilding []string `json:"ignore_when_building" yaml:"ignore_when_building"`
}

// BuildConfigurationBuilder collects settings before they are frozen by Build.
type BuildConfigurationBuilder struct {
	configuration BuildConfiguration
}

// NewBuildConfiguration returns a builder populated with the default directories and an empty ignore list.
func NewBuildConfiguration() *BuildConfigurationBuilder {
	return &BuildConfigurationBuilder{
		configuration: BuildConfiguration{
			sourceDirectories:  []string{DefaultSourceDirectory},
			testDirectories:    []string{DefaultTestDirectory},
			ignoreWhenBuilding: []string{},
		},
	}
}

// SetSourceDirectories replaces the source directories.
func (builder *BuildConfigurationBuilder) SetSourceDirectories(directories ...string) *BuildConfigurationBuilder {
	builder.configuration.sourceDirectories = normalizeDirectories(directories)
	return builder
}

// SetTestDirectories replaces the test directories.
func (builder *BuildConfigurationBuilder) SetTestDirectories(directories ...string) *BuildConfigurationBuilder {
	builder.configuration.testDirectories = normalizeDirectories(directories)
	return builder
}

// SetIgnoreWhenBuilding replaces the file patterns excluded from builds.
func (builder *BuildConfigurationBuilder) SetIgnoreWhenBuilding(patterns ...string) *BuildConfigurationBuilder {
	builder.configuration.ignoreWhenBuilding = utils.NormalizeEntries(patterns)
	return builder
}

// Build returns the configuration collected so far. Later setter calls do not affect the returned value.
func (builder *BuildConfigurationBuilder) Build() BuildConfiguration {
	return BuildConfiguration{
		sourceDirectories:  cloneStrings(builder.configuration.sourceDirectories),
		testDirectories:    cloneStrings(builder.configuration.testDirectories),
		ignoreWhenBuilding: cloneStrings(builder.configuration.ignoreWhenBuilding),
	}
}

// SourceDirectories returns the configured source directories in declaration order.
func (configuration BuildConfiguration) SourceDirectories() []string {
	return cloneStrings(configuration.sourceDirectories)
}

// TestDirectories returns the configured test directories in declaration order.
func (configuration BuildConfiguration) TestDirectories() []string {
	return cloneStrings(configuration.testDirectories)
}

// IgnoreWhenBuilding returns the patterns excluded from builds.
func (configuration BuildConfiguration) IgnoreWhenBuilding() []string {
	return cloneStrings(configuration.ignoreWhenBuilding)
}

// IsIgnoredWhenBuilding reports whether a path relative to a source directory is excluded from builds.
func (configuration BuildConfiguration) IsIgnoredWhenBuilding(relativePath string) bool {
	return utils.MatchesIgnorePattern(relativePath, configuration.ignoreWhenBuilding)
}

// Document converts the configuration into its serializable form.
func (configuration BuildConfiguration) Document() Document {
	return Document{
		SourceDirectories:  configuration.SourceDirectories(),
		TestDirectories:    configuration.TestDirectories(),
		IgnoreWhenBuilding: configuration.IgnoreWhenBuilding(),
	}
}

func normalizeDirectories(directories []string) []string {
	normalizedDirectories := make([]string, 0, len(directories))
	for _, directory := range directories {
		normalizedDirectory := utils.NormalizeDirectory(directory)
		if normalizedDirectory == utils.EmptyString {
			continue
		}
		normalizedDirectories = append(normalizedDirectories, normalizedDirectory)
	}
	return utils.DeduplicatePatterns(normalizedDirectories)
}

func cloneStrings(values []string) []string {
	cloned := make([]string, len(values))
	copy(cloned, values)
	return cloned
}
