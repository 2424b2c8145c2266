package main

import (
	"fmt"

	"github.com/temirov/repoctx/internal/cli"
	"github.com/temirov/repoctx/internal/utils"
)

// main is the entry point for the repoctx command.
func main() {
	loggerInstance, loggerInitializationError := utils.NewApplicationLogger("", false)
	if loggerInitializationError != nil {
		panic(fmt.Errorf(utils.LoggerInitializationFailedMessageFormat, loggerInitializationError))
	}
	defer loggerInstance.Sync()
	if applicationExecutionError := cli.Execute(); applicationExecutionError != nil {
		loggerInstance.Fatal(utils.ApplicationExecutionFailedMessage + ": " + applicationExecutionError.Error())
	}
}
