package main

import (
	"fmt"

	"go.uber.org/zap"
)

// newLogger builds a JSON production logger, or a human-readable debug
// logger when verbose is set. Both write to stderr.
func newLogger(verbose bool) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	return logger, nil
}
