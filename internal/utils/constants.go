package utils

// StandardStreamPath selects standard output wherever a file path is accepted.
const StandardStreamPath = "-"

// LoggerInitializationFailedMessageFormat reports a logger that could not be built.
const LoggerInitializationFailedMessageFormat = "failed to initialize logger: %v"

// ApplicationExecutionFailedMessage prefixes the final error of a failed command.
const ApplicationExecutionFailedMessage = "repoctx failed"
