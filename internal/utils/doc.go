// Package utils exposes reusable helpers consumed by multiple commands.
//
// It houses ConfigurationLoader and LoggerFactory abstractions that integrate Viper,
// environment variables, and zap logging for the beagle CLI, plus a FlushingWriter used
// to stream audit tool output without buffering delays.
package utils
