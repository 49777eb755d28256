// Package cli provides the command line interface.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/phelcfg/internal/config"
	"github.com/temirov/phelcfg/internal/inputs"
	"github.com/temirov/phelcfg/internal/output"
	"github.com/temirov/phelcfg/internal/services/clipboard"
	"github.com/temirov/phelcfg/internal/utils"
)

const (
	configFlagName       = "config"
	rootFlagName         = "root"
	versionFlagName      = "version"
	formatFlagName       = "format"
	copyFlagName         = "copy"
	globalFlagName       = "global"
	forceFlagName        = "force"
	noGlobalFlagName     = "no-global"
	versionTemplate      = "phelcfg version: %s\n"
	defaultRootDirectory = "."
	rootUse              = "phelcfg"
	rootShortDescription = "phelcfg command line interface"
	rootLongDescription  = `phelcfg loads the build configuration of a Phel project.
It shows the effective source directories, test directories, and files ignored when building,
and lists the files a build or a test run would consider.
Use --root to point at a project and --config to read a configuration file other than phel-config.yaml.`

	showUse                 = "show"
	initUse                 = "init"
	sourcesUse              = "sources"
	testsUse                = "tests"
	watchUse                = "watch"
	showShortDescription    = "print the effective build configuration"
	initShortDescription    = "write the default build configuration"
	sourcesShortDescription = "list files considered when building"
	testsShortDescription   = "list files considered when testing"
	watchShortDescription   = "list build files again whenever they change"

	// showUsageExample demonstrates show command usage.
	showUsageExample = `  # Print the configuration as JSON
  phelcfg show --format json

  # Inspect another project and copy the result
  phelcfg show --root ../app --copy`

	// initUsageExample demonstrates init command usage.
	initUsageExample = `  # Create phel-config.yaml in the current project
  phelcfg init

  # Replace the configuration in the home directory
  phelcfg init --global --force`

	// sourcesUsageExample demonstrates sources command usage.
	sourcesUsageExample = `  # List build inputs as YAML
  phelcfg sources --format yaml`

	configFlagDescription   = "configuration file to read instead of <root>/phel-config.yaml"
	rootFlagDescription     = "project root directory"
	versionFlagDescription  = "display application version"
	formatFlagDescription   = "output format (raw, json, yaml)"
	copyFlagDescription     = "copy output to the clipboard"
	globalFlagDescription   = "write the configuration into the home directory"
	forceFlagDescription    = "overwrite an existing configuration file"
	noGlobalFlagDescription = "ignore the configuration file in the home directory"

	invalidFormatMessage        = "invalid format value '%s'"
	errorResolveRootFormat      = "resolve project root %s: %w"
	errorRootNotDirectoryFormat = "project root %s is not a directory"
	errorCopyOutputFormat       = "copy output to clipboard: %w"
	initializedMessageFormat    = "wrote %s\n"
	copiedMessage               = "output copied to clipboard"
	watchStartedMessage         = "watching build inputs"
)

// Dependencies carries the collaborators shared by every command.
type Dependencies struct {
	Logger *zap.Logger
	Copier clipboard.Copier
}

// rootOptions stores values of the persistent flags.
type rootOptions struct {
	configPath    string
	rootDirectory string
	skipGlobal    bool
}

// renderOptions stores values of the output flags.
type renderOptions struct {
	format      string
	copyEnabled bool
}

// Execute runs the phelcfg application.
func Execute(logger *zap.Logger) error {
	rootCommand := NewRootCommand(Dependencies{Logger: logger, Copier: clipboard.NewService()})
	rootCommand.SetArgs(normalizeBooleanFlagArguments(rootCommand, os.Args[1:]))
	return rootCommand.ExecuteContext(context.Background())
}

// NewRootCommand builds the root Cobra command.
func NewRootCommand(dependencies Dependencies) *cobra.Command {
	if dependencies.Logger == nil {
		dependencies.Logger = zap.NewNop()
	}
	var showVersion bool
	options := &rootOptions{}

	rootCommand := &cobra.Command{
		Use:          rootUse,
		Short:        rootShortDescription,
		Long:         rootLongDescription,
		SilenceUsage: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			if showVersion {
				fmt.Fprintf(command.OutOrStdout(), versionTemplate, utils.GetApplicationVersion())
				return nil
			}
			return command.Help()
		},
	}
	rootCommand.PersistentFlags().StringVar(&options.configPath, configFlagName, "", configFlagDescription)
	rootCommand.PersistentFlags().StringVar(&options.rootDirectory, rootFlagName, defaultRootDirectory, rootFlagDescription)
	registerBooleanFlag(rootCommand.PersistentFlags(), &options.skipGlobal, noGlobalFlagName, false, noGlobalFlagDescription)
	rootCommand.Flags().BoolVar(&showVersion, versionFlagName, false, versionFlagDescription)
	rootCommand.AddCommand(
		createShowCommand(dependencies, options),
		createInitCommand(options),
		createSourcesCommand(dependencies, options),
		createTestsCommand(dependencies, options),
		createWatchCommand(dependencies, options),
	)
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

// addRenderFlags registers output flags on the command.
func addRenderFlags(command *cobra.Command, options *renderOptions) {
	command.Flags().StringVar(&options.format, formatFlagName, output.FormatRaw, formatFlagDescription)
	registerBooleanFlag(command.Flags(), &options.copyEnabled, copyFlagName, false, copyFlagDescription)
}

func (options renderOptions) normalizedFormat() (string, error) {
	formatLower := strings.ToLower(strings.TrimSpace(options.format))
	if !output.IsSupportedFormat(formatLower) {
		return "", fmt.Errorf(invalidFormatMessage, formatLower)
	}
	return formatLower, nil
}

func createShowCommand(dependencies Dependencies, options *rootOptions) *cobra.Command {
	var rendering renderOptions
	showCommand := &cobra.Command{
		Use:     showUse,
		Short:   showShortDescription,
		Example: showUsageExample,
		Args:    cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			format, formatErr := rendering.normalizedFormat()
			if formatErr != nil {
				return formatErr
			}
			_, configuration, loadErr := options.load()
			if loadErr != nil {
				return loadErr
			}
			rendered, renderErr := output.RenderConfiguration(configuration, format)
			if renderErr != nil {
				return renderErr
			}
			return emit(command, dependencies, rendering, rendered)
		},
	}
	addRenderFlags(showCommand, &rendering)
	return showCommand
}

func createInitCommand(options *rootOptions) *cobra.Command {
	var globalTarget bool
	var force bool
	initCommand := &cobra.Command{
		Use:     initUse,
		Short:   initShortDescription,
		Example: initUsageExample,
		Args:    cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			initOptions := config.InitOptions{Target: config.InitTargetLocal, Force: force}
			if globalTarget {
				initOptions.Target = config.InitTargetGlobal
			} else {
				rootDirectory, rootErr := options.resolveRoot()
				if rootErr != nil {
					return rootErr
				}
				initOptions.WorkingDirectory = rootDirectory
				initOptions.ExplicitFilePath = options.configPath
			}
			writtenPath, initErr := config.InitializeConfiguration(initOptions)
			if initErr != nil {
				return initErr
			}
			fmt.Fprintf(command.OutOrStdout(), initializedMessageFormat, writtenPath)
			return nil
		},
	}
	registerBooleanFlag(initCommand.Flags(), &globalTarget, globalFlagName, false, globalFlagDescription)
	registerBooleanFlag(initCommand.Flags(), &force, forceFlagName, false, forceFlagDescription)
	return initCommand
}

func createSourcesCommand(dependencies Dependencies, options *rootOptions) *cobra.Command {
	var rendering renderOptions
	sourcesCommand := &cobra.Command{
		Use:     sourcesUse,
		Short:   sourcesShortDescription,
		Example: sourcesUsageExample,
		Args:    cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			return runInputsCommand(command, dependencies, options, rendering, output.RenderSources)
		},
	}
	addRenderFlags(sourcesCommand, &rendering)
	return sourcesCommand
}

func createTestsCommand(dependencies Dependencies, options *rootOptions) *cobra.Command {
	var rendering renderOptions
	testsCommand := &cobra.Command{
		Use:   testsUse,
		Short: testsShortDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			return runInputsCommand(command, dependencies, options, rendering, output.RenderTests)
		},
	}
	addRenderFlags(testsCommand, &rendering)
	return testsCommand
}

func createWatchCommand(dependencies Dependencies, options *rootOptions) *cobra.Command {
	var rendering renderOptions
	watchCommand := &cobra.Command{
		Use:   watchUse,
		Short: watchShortDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			format, formatErr := rendering.normalizedFormat()
			if formatErr != nil {
				return formatErr
			}
			rootDirectory, configuration, loadErr := options.load()
			if loadErr != nil {
				return loadErr
			}
			signalCtx, stop := signal.NotifyContext(command.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			dependencies.Logger.Info(watchStartedMessage, zap.String("root", rootDirectory))
			watchOptions := inputs.WatchOptions{
				Options: inputs.Options{Root: rootDirectory, Configuration: configuration, Logger: dependencies.Logger},
			}
			return inputs.Watch(signalCtx, watchOptions, func(resolved inputs.Inputs) error {
				rendered, renderErr := output.RenderSources(resolved, format)
				if renderErr != nil {
					return renderErr
				}
				_, writeErr := fmt.Fprint(command.OutOrStdout(), rendered)
				return writeErr
			})
		},
	}
	watchCommand.Flags().StringVar(&rendering.format, formatFlagName, output.FormatRaw, formatFlagDescription)
	return watchCommand
}

func runInputsCommand(
	command *cobra.Command,
	dependencies Dependencies,
	options *rootOptions,
	rendering renderOptions,
	render func(inputs.Inputs, string) (string, error),
) error {
	format, formatErr := rendering.normalizedFormat()
	if formatErr != nil {
		return formatErr
	}
	rootDirectory, configuration, loadErr := options.load()
	if loadErr != nil {
		return loadErr
	}
	resolved, resolveErr := inputs.Resolve(command.Context(), inputs.Options{
		Root:          rootDirectory,
		Configuration: configuration,
		Logger:        dependencies.Logger,
	})
	if resolveErr != nil {
		return resolveErr
	}
	rendered, renderErr := render(resolved, format)
	if renderErr != nil {
		return renderErr
	}
	return emit(command, dependencies, rendering, rendered)
}

// emit writes rendered output to the command's output stream and optionally copies it to the clipboard.
func emit(command *cobra.Command, dependencies Dependencies, rendering renderOptions, rendered string) error {
	if _, writeErr := fmt.Fprint(command.OutOrStdout(), rendered); writeErr != nil {
		return writeErr
	}
	if !rendering.copyEnabled || dependencies.Copier == nil {
		return nil
	}
	if copyErr := dependencies.Copier.Copy(rendered); copyErr != nil {
		return fmt.Errorf(errorCopyOutputFormat, copyErr)
	}
	dependencies.Logger.Info(copiedMessage)
	return nil
}

// resolveRoot converts the --root flag to an absolute directory and validates it.
func (options *rootOptions) resolveRoot() (string, error) {
	rootDirectory := options.rootDirectory
	if rootDirectory == "" {
		rootDirectory = defaultRootDirectory
	}
	absoluteRoot, absoluteErr := filepath.Abs(rootDirectory)
	if absoluteErr != nil {
		return "", fmt.Errorf(errorResolveRootFormat, rootDirectory, absoluteErr)
	}
	info, statErr := os.Stat(absoluteRoot)
	if statErr != nil {
		return "", fmt.Errorf(errorResolveRootFormat, rootDirectory, statErr)
	}
	if !info.IsDir() {
		return "", fmt.Errorf(errorRootNotDirectoryFormat, rootDirectory)
	}
	return absoluteRoot, nil
}

// load resolves the project root and loads its build configuration.
func (options *rootOptions) load() (string, config.BuildConfiguration, error) {
	rootDirectory, rootErr := options.resolveRoot()
	if rootErr != nil {
		return "", config.BuildConfiguration{}, rootErr
	}
	configuration, loadErr := config.LoadBuildConfiguration(config.LoadOptions{
		WorkingDirectory: rootDirectory,
		ExplicitFilePath: options.configPath,
		SkipGlobal:       options.skipGlobal,
	})
	if loadErr != nil {
		return "", config.BuildConfiguration{}, loadErr
	}
	return rootDirectory, configuration, nil
}
