package config

import "go.uber.org/fx"

// Module provides application and collections configuration.
var Module = fx.Module("config",
	fx.Provide(
		Load,
		NewCollectionsConfigHolder,
	),
)
