package ratelimit

import "go.uber.org/fx"

var Module = fx.Module("rate.limit",
	fx.Provide(NewClient),
	fx.Provide(NewTokenBucket),
	fx.Provide(NewLocker),
)
