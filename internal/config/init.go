package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"

	"github.com/temirov/phelcfg/internal/utils"
)

// InitTarget identifies where configuration should be initialized.
type InitTarget string

const (
	// InitTargetLocal writes configuration into the project root.
	InitTargetLocal InitTarget = "local"
	// InitTargetGlobal writes configuration into the global configuration directory.
	InitTargetGlobal InitTarget = "global"

	// DefaultConfigurationTemplate is written by InitializeConfiguration.
	DefaultConfigurationTemplate = `# Directories holding project sources, relative to the project root.
src_dirs:
  - src
# Directories holding tests, relative to the project root.
test_dirs:
  - tests
# File names or patterns skipped when building. The list does not apply to tests.
ignore_when_building:
  - performance.phel
  - local.phel
`

	configurationFilePermissions      = 0o600
	configurationDirectoryPermissions = 0o755
)

// InitOptions controls how configuration initialization behaves.
type InitOptions struct {
	Target           InitTarget
	Force            bool
	WorkingDirectory string
	// ExplicitFilePath names the local file to write instead of <WorkingDirectory>/phel-config.yaml.
	ExplicitFilePath string
}

// InitializeConfiguration writes the default configuration to the requested target and returns its path.
// An existing file is only replaced when Force is set.
func InitializeConfiguration(options InitOptions) (string, error) {
	target := options.Target
	if target == "" {
		target = InitTargetLocal
	}
	var destinationPath string
	switch target {
	case InitTargetLocal:
		localPath, err := ProjectConfigurationPath(LoadOptions{
			WorkingDirectory: options.WorkingDirectory,
			ExplicitFilePath: options.ExplicitFilePath,
		})
		if err != nil {
			return "", err
		}
		destinationPath = localPath
	case InitTargetGlobal:
		homeDirectory, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory for configuration: %w", err)
		}
		configurationDirectory := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName)
		if err := os.MkdirAll(configurationDirectory, configurationDirectoryPermissions); err != nil {
			return "", fmt.Errorf("create configuration directory %s: %w", configurationDirectory, err)
		}
		destinationPath = filepath.Join(configurationDirectory, utils.ConfigFileName)
	default:
		return "", fmt.Errorf("unsupported init target %q", target)
	}

	if _, err := os.Stat(destinationPath); err == nil {
		if !options.Force {
			return "", fmt.Errorf("configuration file already exists at %s", destinationPath)
		}
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("inspect configuration path %s: %w", destinationPath, err)
	}

	if err := writeConfigurationAtomically(destinationPath, []byte(DefaultConfigurationTemplate)); err != nil {
		return "", err
	}

	return destinationPath, nil
}

func writeConfigurationAtomically(destinationPath string, content []byte) error {
	pendingFile, err := renameio.NewPendingFile(destinationPath, renameio.WithPermissions(configurationFilePermissions))
	if err != nil {
		return fmt.Errorf("create pending configuration file %s: %w", destinationPath, err)
	}
	defer func() {
		_ = pendingFile.Cleanup()
	}()

	if _, err := pendingFile.Write(content); err != nil {
		return fmt.Errorf("write configuration to %s: %w", destinationPath, err)
	}
	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace configuration at %s: %w", destinationPath, err)
	}
	return nil
}
