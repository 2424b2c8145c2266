// Package cli provides the repoctx command line interface.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/repoctx/internal/config"
	"github.com/temirov/repoctx/internal/services/clipboard"
	"github.com/temirov/repoctx/internal/types"
	"github.com/temirov/repoctx/internal/utils"
)

const (
	configFlagName       = "config"
	verboseFlagName      = "verbose"
	logLevelFlagName     = "log-level"
	versionTemplate      = "repoctx version: {{.Version}}\n"
	rootUse              = "repoctx"
	rootShortDescription = "export a GitHub repository as one Markdown context document"
	rootLongDescription  = `repoctx lists a GitHub repository, keeps source and text files that pass the
extension allowlist and your exclusions, and concatenates them into a single Markdown
document with one fenced, language-tagged block per file.

Credentials come from --token or GITHUB_TOKEN (a .env file in the working directory is read).
Defaults are read from ~/.repoctx/config.yaml and ./repoctx.yaml; see "repoctx init".`
	configFlagDescription   = "configuration file overriding ./repoctx.yaml"
	verboseFlagDescription  = "enable debug logging"
	logLevelFlagDescription = "log level (debug, info, warn, error)"

	workingDirectoryErrorFormat = "unable to determine working directory: %w"
	loggerErrorFormat           = "initialize logger: %w"
)

// Options injects process collaborators; zero values select the real environment.
type Options struct {
	WorkingDirectory string
	HomeDirectory    string
	Copier           clipboard.Copier
}

// application carries state shared by every subcommand once flags are parsed.
type application struct {
	options       Options
	configPath    string
	verbose       bool
	logLevel      string
	configuration config.ApplicationConfiguration
	logger        *zap.Logger
}

// Execute runs the repoctx application until it finishes or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	rootCommand := NewRootCommand(Options{})
	rootCommand.SetArgs(normalizeBooleanFlagArguments(rootCommand, os.Args[1:]))
	return rootCommand.ExecuteContext(ctx)
}

// NewRootCommand builds the root Cobra command.
func NewRootCommand(options Options) *cobra.Command {
	app := &application{options: options}

	rootCommand := &cobra.Command{
		Use:           rootUse,
		Short:         rootShortDescription,
		Long:          rootLongDescription,
		Version:       utils.GetApplicationVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return app.prepare(command.Name() != types.CommandInit)
		},
		PersistentPostRun: func(command *cobra.Command, arguments []string) {
			if app.logger != nil {
				_ = app.logger.Sync()
			}
		},
	}
	rootCommand.SetVersionTemplate(versionTemplate)
	rootCommand.PersistentFlags().StringVar(&app.configPath, configFlagName, "", configFlagDescription)
	registerBooleanFlag(rootCommand.PersistentFlags(), &app.verbose, verboseFlagName, false, verboseFlagDescription)
	rootCommand.PersistentFlags().StringVar(&app.logLevel, logLevelFlagName, "", logLevelFlagDescription)
	rootCommand.AddCommand(
		createExportCommand(app),
		createServeCommand(app),
		createInitCommand(app),
	)
	return rootCommand
}

// prepare loads .env, configuration files and the logger. Configuration files are skipped when
// loadConfiguration is false so "init --force" can replace a broken file.
func (app *application) prepare(loadConfiguration bool) error {
	if app.options.WorkingDirectory == "" {
		workingDirectory, err := os.Getwd()
		if err != nil {
			return fmt.Errorf(workingDirectoryErrorFormat, err)
		}
		app.options.WorkingDirectory = workingDirectory
	}
	if err := config.LoadEnvironmentFile(app.options.WorkingDirectory); err != nil {
		return err
	}
	if loadConfiguration {
		configuration, err := config.LoadApplicationConfiguration(config.LoadOptions{
			WorkingDirectory: app.options.WorkingDirectory,
			ExplicitFilePath: app.configPath,
			HomeDirectory:    app.options.HomeDirectory,
		})
		if err != nil {
			return err
		}
		app.configuration = configuration
	}

	levelName := app.logLevel
	if levelName == "" {
		levelName = app.configuration.Log.Level
	}
	logger, err := utils.NewApplicationLogger(levelName, app.verbose)
	if err != nil {
		return fmt.Errorf(loggerErrorFormat, err)
	}
	app.logger = logger
	return nil
}

func (app *application) copier() clipboard.Copier {
	if app.options.Copier != nil {
		return app.options.Copier
	}
	return clipboard.NewService()
}
