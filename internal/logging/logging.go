// Package logging builds the process-wide structured logger.
package logging

import (
	"go.uber.org/zap"
)

// New returns a sugared zap logger. In debug mode the development
// config is used for human-readable console output.
func New(debug bool) (*zap.SugaredLogger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if debug {
		cfg := zap.NewDevelopmentConfig()
		logger, err = cfg.Build()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}
