package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temirov/repoctx/internal/config"
	"github.com/temirov/repoctx/internal/types"
)

const (
	initUse               = types.CommandInit
	initShortDescription  = "write a default configuration file"
	initLongDescription   = `Write the default configuration to ./repoctx.yaml, or to ~/.repoctx/config.yaml with --global.`
	globalFlagName        = "global"
	forceFlagName         = "force"
	globalFlagDescription = "write the global configuration"
	forceFlagDescription  = "overwrite an existing configuration file"
	initCompletedFormat   = "Configuration written to %s\n"
)

func createInitCommand(app *application) *cobra.Command {
	var global bool
	var force bool

	initCommand := &cobra.Command{
		Use:   initUse,
		Short: initShortDescription,
		Long:  initLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			target := config.InitTargetLocal
			if global {
				target = config.InitTargetGlobal
			}
			path, err := config.InitializeConfiguration(config.InitOptions{
				Target:           target,
				Force:            force,
				WorkingDirectory: app.options.WorkingDirectory,
				HomeDirectory:    app.options.HomeDirectory,
			})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(command.OutOrStdout(), initCompletedFormat, path)
			return err
		},
	}
	registerBooleanFlag(initCommand.Flags(), &global, globalFlagName, false, globalFlagDescription)
	registerBooleanFlag(initCommand.Flags(), &force, forceFlagName, false, forceFlagDescription)
	return initCommand
}
