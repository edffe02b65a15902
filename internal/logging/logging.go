// Package logging builds the zap loggers used by the NutriAI binaries.
package logging

import (
	"strings"

	"go.uber.org/zap"
)

// New returns a production logger when env is "production" and a
// development logger otherwise. The service name is attached to every entry.
func New(env, service string) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if strings.EqualFold(env, "production") {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, err
	}
	if service != "" {
		logger = logger.With(zap.String("service", service))
	}
	return logger, nil
}

// MustNew is New for process start-up, where a logger failure is fatal.
func MustNew(env, service string) *zap.Logger {
	logger, err := New(env, service)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	return logger
}
