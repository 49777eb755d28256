package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/temirov/phelcfg/internal/utils"
)

const (
	errorWorkingDirectoryFormat   = "determine working directory: %w"
	errorResolveConfigPathFormat  = "resolve configuration path %s: %w"
	errorStatConfigurationFormat  = "stat configuration %s: %w"
	errorConfigurationIsDirectory = "configuration path %s is a directory"
	errorReadConfigurationFormat  = "read configuration from %s: %w"
	errorDecodeConfigurationFmt   = "decode configuration from %s: %w"
	errorExplicitConfigMissing    = "configuration file %s does not exist"
)

// LoadOptions controls how the build configuration is discovered.
type LoadOptions struct {
	// WorkingDirectory is the project root. The current directory is used when empty.
	WorkingDirectory string
	// ExplicitFilePath replaces the project configuration file. Relative paths resolve against WorkingDirectory.
	ExplicitFilePath string
	// SkipGlobal disables the configuration file in the user's home directory.
	SkipGlobal bool
}

// configurationLayer is one decoded configuration file. Nil fields were absent from the file.
type configurationLayer struct {
	SourceDirectories  *[]string `mapstructure:"src_dirs"`
	TestDirectories    *[]string `mapstructure:"test_dirs"`
	IgnoreWhenBuilding *[]string `mapstructure:"ignore_when_building"`
}

// LoadBuildConfiguration builds the configuration from defaults, the global file, and the project file.
// Each later source replaces only the fields it declares. Missing files are skipped unless the
// project file was named explicitly.
func LoadBuildConfiguration(options LoadOptions) (BuildConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return BuildConfiguration{}, fmt.Errorf(errorWorkingDirectoryFormat, err)
		}
		workingDirectory = currentDirectory
	}

	builder := NewBuildConfiguration()

	if !options.SkipGlobal {
		if homeDirectory, err := os.UserHomeDir(); err == nil && homeDirectory != "" {
			globalPath := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.ConfigFileName)
			globalLayer, loadErr := loadLayerFromPath(globalPath)
			if loadErr != nil {
				return BuildConfiguration{}, loadErr
			}
			globalLayer.applyTo(builder)
		}
	}

	localPath, resolveErr := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	if resolveErr != nil {
		return BuildConfiguration{}, resolveErr
	}
	if options.ExplicitFilePath != "" {
		if _, statErr := os.Stat(localPath); os.IsNotExist(statErr) {
			return BuildConfiguration{}, fmt.Errorf(errorExplicitConfigMissing, localPath)
		}
	}
	localLayer, loadErr := loadLayerFromPath(localPath)
	if loadErr != nil {
		return BuildConfiguration{}, loadErr
	}
	localLayer.applyTo(builder)

	return builder.Build(), nil
}

// ProjectConfigurationPath returns the configuration file path that LoadBuildConfiguration reads for the project.
func ProjectConfigurationPath(options LoadOptions) (string, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf(errorWorkingDirectoryFormat, err)
		}
		workingDirectory = currentDirectory
	}
	return resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
}

func resolveLocalConfigPath(workingDirectory, explicitPath string) (string, error) {
	if explicitPath == "" {
		return filepath.Join(workingDirectory, utils.ConfigFileName), nil
	}
	if filepath.IsAbs(explicitPath) {
		return explicitPath, nil
	}
	absolute, err := filepath.Abs(filepath.Join(workingDirectory, explicitPath))
	if err != nil {
		return "", fmt.Errorf(errorResolveConfigPathFormat, explicitPath, err)
	}
	return absolute, nil
}

func loadLayerFromPath(path string) (configurationLayer, error) {
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return configurationLayer{}, nil
		}
		return configurationLayer{}, fmt.Errorf(errorStatConfigurationFormat, path, statErr)
	}
	if info.IsDir() {
		return configurationLayer{}, fmt.Errorf(errorConfigurationIsDirectory, path)
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	if readErr := reader.ReadInConfig(); readErr != nil {
		return configurationLayer{}, fmt.Errorf(errorReadConfigurationFormat, path, readErr)
	}
	var layer configurationLayer
	if decodeErr := reader.UnmarshalExact(&layer); decodeErr != nil {
		return configurationLayer{}, fmt.Errorf(errorDecodeConfigurationFmt, path, decodeErr)
	}
	return layer, nil
}

func (layer configurationLayer) applyTo(builder *BuildConfigurationBuilder) {
	if layer.SourceDirectories != nil {
		builder.SetSourceDirectories(*layer.SourceDirectories...)
	}
	if layer.TestDirectories != nil {
		builder.SetTestDirectories(*layer.TestDirectories...)
	}
	if layer.IgnoreWhenBuilding != nil {
		builder.SetIgnoreWhenBuilding(*layer.IgnoreWhenBuilding...)
	}
}
