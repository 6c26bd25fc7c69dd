//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/scenery/internal/config"
	"github.com/zeusync/scenery/internal/core/events/bus"
	"github.com/zeusync/scenery/internal/runtime"
)

// InitializeRuntime loads the config at path and assembles a Runtime.
func InitializeRuntime(path string) (*runtime.Runtime, func(), error) {
	wire.Build(
		config.Load,
		LoggerSet,
		bus.New,
		runtime.NewScene,
		runtime.NewInspector,
		runtime.New,
	)
	return nil, nil, nil
}
