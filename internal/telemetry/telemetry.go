// Package telemetry wraps zap for the simulator's structured logging. The
// only log lines the simulator emits are the bus's warnings for accesses to
// unmapped addresses and the CLI's end-of-run summary.
package telemetry

import "go.uber.org/zap"

// New builds a logger. Verbose selects a development console encoder with
// debug-level output; otherwise a production JSON encoder at info level.
func New(verbose bool) *zap.Logger {
	var logger *zap.Logger
	if verbose {
		cfg := zap.NewDevelopmentConfig()
		l, err := cfg.Build()
		if err != nil {
			panic("telemetry: building development logger: " + err.Error())
		}
		logger = l
	} else {
		l, err := zap.NewProduction()
		if err != nil {
			panic("telemetry: building production logger: " + err.Error())
		}
		logger = l
	}
	return logger
}

// Nop returns a logger that discards everything, for tests.
func Nop() *zap.Logger {
	return zap.NewNop()
}
