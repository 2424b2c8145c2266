package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/repoctx/internal/config"
	"github.com/temirov/repoctx/internal/export"
	"github.com/temirov/repoctx/internal/forge"
	"github.com/temirov/repoctx/internal/tokenizer"
	"github.com/temirov/repoctx/internal/types"
	"github.com/temirov/repoctx/internal/utils"
)

const (
	exportUse              = types.CommandExport + " <repository-url>"
	exportAlias            = "x"
	exportShortDescription = "export a repository as a Markdown document (" + exportAlias + ")"
	exportLongDescription  = `Export every allowlisted file of a repository branch into one Markdown document.
Paths containing any --exclude (-e) pattern (case-insensitive) are skipped, as is package-lock.json.
The document is written to ./<repo>_<branch>_context.md unless --output is given.`
	exportUsageExample = `  # Export the main branch of a public repository
  repoctx export https://github.com/octo/demo

  # Export a branch without tests or vendored code and print it
  repoctx export https://github.com/octo/demo --branch develop -e test -e vendor/ --output -

  # Export a private repository, copy the document and estimate tokens
  GITHUB_TOKEN=ghp_example repoctx export github.com/octo/private --copy --tokens`

	branchFlagName         = "branch"
	exclusionFlagName      = "exclude"
	exclusionShorthand     = "e"
	tokenFlagName          = "token"
	outputFlagName         = "output"
	copyFlagName           = "copy"
	tokensFlagName         = "tokens"
	modelFlagName          = "model"
	workersFlagName        = "workers"
	allowTruncatedFlagName = "allow-truncated"
	apiURLFlagName         = "api-url"
	hostFlagName           = "host"

	branchFlagDescription         = "branch or reference to export"
	exclusionFlagDescription      = "exclude paths containing this pattern (repeatable, comma-separated)"
	tokenFlagDescription          = "GitHub token; defaults to GITHUB_TOKEN"
	outputFlagDescription         = "output file path, or - for standard output"
	copyFlagDescription           = "copy the document to the system clipboard"
	tokensFlagDescription         = "estimate the document's token count"
	modelFlagDescription          = "tokenizer model used for --tokens"
	workersFlagDescription        = "concurrent file downloads"
	allowTruncatedFlagDescription = "export a partial document when GitHub truncates the tree listing"
	apiURLFlagDescription         = "GitHub API base URL (for GitHub Enterprise)"
	hostFlagDescription           = "host accepted in repository URLs"

	exportSummaryFormat      = "Summary: %d files, %s"
	exportTokensFormat       = ", %d tokens (%s)"
	exportDestinationFormat  = " -> %s\n"
	destinationClipboard     = "clipboard"
	writeDocumentErrorFormat = "write document to %s: %w"
	authenticationHint       = "Provide a token with --" + tokenFlagName + " or the " + config.TokenEnvironmentVariable + " environment variable."
)

// exportFlags holds raw flag values before configuration defaults are applied.
type exportFlags struct {
	branch          string
	exclusions      []string
	token           string
	output          string
	copyToClipboard bool
	tokens          bool
	model           string
	workers         int
	allowTruncated  bool
	apiURL          string
	host            string
}

// exportSettings are the effective values for one export.
type exportSettings struct {
	branch          string
	exclusions      []string
	token           string
	output          string
	copyToClipboard bool
	tokens          bool
	model           string
	workers         int
	allowTruncated  bool
	apiURL          string
	host            string
	timeout         time.Duration
}

// UserError carries the message shown to a person for a failed export.
type UserError struct {
	Kind    export.ErrorKind
	Message string
	Err     error
}

// Error returns the user-facing message.
func (userError *UserError) Error() string {
	return userError.Message
}

// Unwrap exposes the underlying failure.
func (userError *UserError) Unwrap() error {
	return userError.Err
}

func newUserError(err error) error {
	kind := export.ClassifyError(err)
	message := export.UserMessage(err)
	if kind == export.KindAuthenticationRequired || kind == export.KindSessionExpired {
		message += " " + authenticationHint
	}
	return &UserError{Kind: kind, Message: message, Err: err}
}

func createExportCommand(app *application) *cobra.Command {
	var flags exportFlags

	exportCommand := &cobra.Command{
		Use:     exportUse,
		Aliases: []string{exportAlias},
		Short:   exportShortDescription,
		Long:    exportLongDescription,
		Example: exportUsageExample,
		Args:    cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			settings := resolveExportSettings(command, flags, app.configuration)
			return app.runExport(command, arguments[0], settings)
		},
	}
	exportCommand.Flags().StringVar(&flags.branch, branchFlagName, forge.DefaultReference, branchFlagDescription)
	exportCommand.Flags().StringArrayVarP(&flags.exclusions, exclusionFlagName, exclusionShorthand, nil, exclusionFlagDescription)
	exportCommand.Flags().StringVar(&flags.token, tokenFlagName, "", tokenFlagDescription)
	exportCommand.Flags().StringVarP(&flags.output, outputFlagName, "o", "", outputFlagDescription)
	registerBooleanFlag(exportCommand.Flags(), &flags.copyToClipboard, copyFlagName, false, copyFlagDescription)
	registerBooleanFlag(exportCommand.Flags(), &flags.tokens, tokensFlagName, false, tokensFlagDescription)
	exportCommand.Flags().StringVar(&flags.model, modelFlagName, tokenizer.DefaultModel, modelFlagDescription)
	exportCommand.Flags().IntVar(&flags.workers, workersFlagName, 1, workersFlagDescription)
	registerBooleanFlag(exportCommand.Flags(), &flags.allowTruncated, allowTruncatedFlagName, false, allowTruncatedFlagDescription)
	exportCommand.Flags().StringVar(&flags.apiURL, apiURLFlagName, forge.DefaultAPIBaseURL, apiURLFlagDescription)
	exportCommand.Flags().StringVar(&flags.host, hostFlagName, forge.DefaultHost, hostFlagDescription)
	return exportCommand
}

// resolveExportSettings applies configuration defaults to every flag the user did not set.
func resolveExportSettings(command *cobra.Command, flags exportFlags, configuration config.ApplicationConfiguration) exportSettings {
	changed := command.Flags().Changed
	exportConfig := configuration.Export
	settings := exportSettings{
		branch:          flags.branch,
		token:           config.ResolveToken(flags.token),
		output:          flags.output,
		copyToClipboard: flags.copyToClipboard,
		tokens:          flags.tokens,
		model:           flags.model,
		workers:         flags.workers,
		allowTruncated:  flags.allowTruncated,
		apiURL:          flags.apiURL,
		host:            flags.host,
		timeout:         configuration.Forge.Timeout,
	}
	if !changed(branchFlagName) && exportConfig.Branch != "" {
		settings.branch = exportConfig.Branch
	}
	if !changed(outputFlagName) && exportConfig.Output != "" {
		settings.output = exportConfig.Output
	}
	if !changed(copyFlagName) && exportConfig.Clipboard != nil {
		settings.copyToClipboard = *exportConfig.Clipboard
	}
	if !changed(tokensFlagName) && exportConfig.Tokens.Enabled != nil {
		settings.tokens = *exportConfig.Tokens.Enabled
	}
	if !changed(modelFlagName) && exportConfig.Tokens.Model != "" {
		settings.model = exportConfig.Tokens.Model
	}
	if !changed(workersFlagName) && exportConfig.Workers != nil {
		settings.workers = *exportConfig.Workers
	}
	if !changed(allowTruncatedFlagName) && exportConfig.AllowTruncated != nil {
		settings.allowTruncated = *exportConfig.AllowTruncated
	}
	if !changed(apiURLFlagName) && configuration.Forge.APIURL != "" {
		settings.apiURL = configuration.Forge.APIURL
	}
	if !changed(hostFlagName) && configuration.Forge.Host != "" {
		settings.host = configuration.Forge.Host
	}
	combined := append(append([]string{}, exportConfig.Exclude...), utils.SplitPatternList(flags.exclusions)...)
	settings.exclusions = utils.DeduplicatePatterns(combined)
	return settings
}

func (app *application) runExport(command *cobra.Command, repositoryURL string, settings exportSettings) error {
	logger := app.logger
	session := forge.NewSession(settings.token)
	client, clientErr := forge.NewClient(session, forge.Options{
		APIBaseURL:     settings.apiURL,
		Timeout:        settings.timeout,
		Logger:         logger,
		AllowTruncated: settings.allowTruncated,
	})
	if clientErr != nil {
		return clientErr
	}

	runnerOptions := export.Options{
		Host:    settings.host,
		Workers: settings.workers,
		Logger:  logger,
	}
	if settings.tokens {
		counter, model, counterErr := tokenizer.NewCounter(tokenizer.Config{Model: settings.model})
		if counterErr != nil {
			logger.Warn("token estimate disabled", zap.Error(counterErr))
		} else {
			runnerOptions.Counter = counter
			runnerOptions.Model = model
		}
	}
	runner, runnerErr := export.NewRunner(client, runnerOptions)
	if runnerErr != nil {
		return runnerErr
	}

	result, runErr := runner.Run(command.Context(), export.Request{
		RepositoryURL:     repositoryURL,
		Branch:            settings.branch,
		ExclusionPatterns: settings.exclusions,
	})
	if runErr != nil {
		return newUserError(runErr)
	}
	return app.deliver(command, result, settings)
}

// deliver writes the document to its destinations and reports the summary on standard error.
func (app *application) deliver(command *cobra.Command, result export.Result, settings exportSettings) error {
	destinations := make([]string, 0, 2)
	switch settings.output {
	case utils.StandardStreamPath:
		if _, err := command.OutOrStdout().Write(result.Artifact.Data); err != nil {
			return fmt.Errorf(writeDocumentErrorFormat, "standard output", err)
		}
	default:
		outputPath := settings.output
		if outputPath == "" {
			outputPath = result.Artifact.FileName
		}
		if !filepath.IsAbs(outputPath) {
			outputPath = filepath.Join(app.options.WorkingDirectory, outputPath)
		}
		if err := os.WriteFile(outputPath, result.Artifact.Data, 0o644); err != nil {
			return fmt.Errorf(writeDocumentErrorFormat, outputPath, err)
		}
		destinations = append(destinations, outputPath)
	}
	if settings.copyToClipboard {
		if err := app.copier().Copy(result.Document); err != nil {
			return err
		}
		destinations = append(destinations, destinationClipboard)
	}

	var summary strings.Builder
	fmt.Fprintf(&summary, exportSummaryFormat, result.Summary.TotalFiles, result.Summary.TotalSize)
	if result.Summary.Model != "" {
		fmt.Fprintf(&summary, exportTokensFormat, result.Summary.TotalTokens, result.Summary.Model)
	}
	if len(destinations) > 0 {
		fmt.Fprintf(&summary, exportDestinationFormat, strings.Join(destinations, ", "))
	} else {
		summary.WriteString("\n")
	}
	_, err := fmt.Fprint(command.ErrOrStderr(), summary.String())
	return err
}
