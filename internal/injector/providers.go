package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/scenery/internal/config"
	"github.com/zeusync/scenery/internal/core/observability/log"
)

// LoggerSet provides a zap-backed log.Log built from the logging section.
var LoggerSet = wire.NewSet(
	ProvideLogger,
	wire.Bind(new(log.Log), new(*log.Logger)),
)

// ProvideLogger builds the logger; the cleanup flushes it.
func ProvideLogger(cfg *config.Config) (*log.Logger, func(), error) {
	level, err := log.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, nil, err
	}
	l, err := log.New(log.Options{Level: level, Encoding: cfg.Logging.Encoding})
	if err != nil {
		return nil, nil, err
	}
	return l, func() { _ = l.Sync() }, nil
}
