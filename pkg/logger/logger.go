package logger

import (
	"go.uber.org/zap"
)

// NewLogger builds a zap logger appropriate for the given environment.
func NewLogger(environment string) (*zap.Logger, error) {
	var (
		l   *zap.Logger
		err error
	)
	switch environment {
	case "production", "prod":
		l, err = zap.NewProduction()
	case "test":
		l = zap.NewExample()
	default:
		l, err = zap.NewDevelopment()
	}

	return l, err
}

func MustNewLogger(environment string) *zap.Logger {
	return zap.Must(NewLogger(environment))
}
