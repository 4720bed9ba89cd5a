package utils

import "go.uber.org/zap"

var Logger *zap.Logger

// InitLogger sets up the package-level zap logger. Call once at startup
// (and from test helpers) before anything logs.
func InitLogger() {
	if Logger != nil {
		return
	}
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	Logger = logger
}
