package logger

import (
	"go.uber.org/zap"
)

// New builds a zap logger for env: JSON output at info level in production,
// human-readable debug output everywhere else.
func New(env string) (*zap.Logger, error) {
	switch env {
	case "production", "prod":
		return zap.NewProduction()
	default:
		return zap.NewDevelopment()
	}
}
