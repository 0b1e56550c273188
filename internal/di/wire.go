//go:build wireinject
// +build wireinject

package di

import (
	"PulseWatch/pkg/config"
	"PulseWatch/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient infrastructure
		ProvideLogger,
		ProvideMetrics,

		// Quote feed
		ProvideQuoteSource,

		// Analysis core
		ProvideDetector,
		ProvideAlertEngine,

		// External sinks and mirror
		ProvideAlertSinks,
		ProvideDispatcher,
		ProvideResultMirror,

		// Engine and HTTP surface
		ProvideOrchestrator,
		ProvideHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
