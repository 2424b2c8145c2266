package cli

import (
	"fmt"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/temirov/repoctx/internal/config"
	"github.com/temirov/repoctx/internal/export"
	"github.com/temirov/repoctx/internal/forge"
	"github.com/temirov/repoctx/internal/metrics"
	"github.com/temirov/repoctx/internal/services/server"
	"github.com/temirov/repoctx/internal/types"
)

const (
	serveUse              = types.CommandServe
	serveShortDescription = "serve exports over HTTP"
	serveLongDescription  = `Serve POST /exports, GET /healthz and GET /metrics.
POST /exports accepts {"repositoryUrl", "branch", "exclude", "token"} and returns the
Markdown document as an attachment, or a JSON error.`
	serveUsageExample = `  # Listen on the default address
  repoctx serve

  # Listen on all interfaces with a fallback token for anonymous requests
  repoctx serve --address 0.0.0.0:8080 --token "$GITHUB_TOKEN"`

	addressFlagName             = "address"
	addressFlagDescription      = "listen address"
	serveTokenFlagDescription   = "token used when a request carries none; defaults to GITHUB_TOKEN"
	defaultServeAddress         = "127.0.0.1:8080"
	serveListeningMessageFormat = "Listening on http://%s\n"
)

type serveFlags struct {
	address        string
	token          string
	workers        int
	allowTruncated bool
	apiURL         string
	host           string
}

func createServeCommand(app *application) *cobra.Command {
	var flags serveFlags

	serveCommand := &cobra.Command{
		Use:     serveUse,
		Short:   serveShortDescription,
		Long:    serveLongDescription,
		Example: serveUsageExample,
		Args:    cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			return app.runServe(command, resolveServeFlags(command, flags, app.configuration))
		},
	}
	serveCommand.Flags().StringVar(&flags.address, addressFlagName, defaultServeAddress, addressFlagDescription)
	serveCommand.Flags().StringVar(&flags.token, tokenFlagName, "", serveTokenFlagDescription)
	serveCommand.Flags().IntVar(&flags.workers, workersFlagName, 1, workersFlagDescription)
	registerBooleanFlag(serveCommand.Flags(), &flags.allowTruncated, allowTruncatedFlagName, false, allowTruncatedFlagDescription)
	serveCommand.Flags().StringVar(&flags.apiURL, apiURLFlagName, forge.DefaultAPIBaseURL, apiURLFlagDescription)
	serveCommand.Flags().StringVar(&flags.host, hostFlagName, forge.DefaultHost, hostFlagDescription)
	return serveCommand
}

func resolveServeFlags(command *cobra.Command, flags serveFlags, configuration config.ApplicationConfiguration) serveFlags {
	changed := command.Flags().Changed
	resolved := flags
	if !changed(addressFlagName) && configuration.Serve.Address != "" {
		resolved.address = configuration.Serve.Address
	}
	resolved.token = config.ResolveToken(flags.token)
	if !changed(workersFlagName) && configuration.Export.Workers != nil {
		resolved.workers = *configuration.Export.Workers
	}
	if !changed(allowTruncatedFlagName) && configuration.Export.AllowTruncated != nil {
		resolved.allowTruncated = *configuration.Export.AllowTruncated
	}
	if !changed(apiURLFlagName) && configuration.Forge.APIURL != "" {
		resolved.apiURL = configuration.Forge.APIURL
	}
	if !changed(hostFlagName) && configuration.Forge.Host != "" {
		resolved.host = configuration.Forge.Host
	}
	return resolved
}

func (app *application) runServe(command *cobra.Command, flags serveFlags) error {
	registry := prom.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewPrometheusRecorder(registry)
	logger := app.logger
	timeout := app.configuration.Forge.Timeout

	newExporter := func(session *forge.Session) (server.Exporter, error) {
		client, clientErr := forge.NewClient(session, forge.Options{
			APIBaseURL:     flags.apiURL,
			Timeout:        timeout,
			Logger:         logger,
			AllowTruncated: flags.allowTruncated,
		})
		if clientErr != nil {
			return nil, clientErr
		}
		runner, runnerErr := export.NewRunner(client, export.Options{
			Host:     flags.host,
			Workers:  flags.workers,
			Logger:   logger,
			Recorder: recorder,
		})
		if runnerErr != nil {
			return nil, runnerErr
		}
		return runner, nil
	}

	exportServer := server.NewServer(server.Config{
		Address:        flags.address,
		NewExporter:    newExporter,
		DefaultToken:   flags.token,
		MetricsHandler: metrics.HTTPHandler(registry),
		Logger:         logger,
	})
	return exportServer.Run(command.Context(), func(address string) {
		fmt.Fprintf(command.ErrOrStderr(), serveListeningMessageFormat, address)
	})
}
