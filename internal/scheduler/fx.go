package scheduler

import (
	"context"
	"time"

	"github.com/smallbiznis/paynest/internal/config"
	"go.uber.org/fx"
)

func ProvideConfig(cfg config.Config) Config {
	return Config{
		TickInterval: time.Duration(cfg.SchedulerTickSeconds) * time.Second,
	}
}

var Module = fx.Module("scheduler",
	fx.Provide(ProvideConfig),
	fx.Provide(New),
	fx.Invoke(StartScheduler),
)

func StartScheduler(lc fx.Lifecycle, sched *Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ctx, cancel := context.WithCancel(context.Background())

			go sched.RunForever(ctx)

			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					cancel()
					return nil
				},
			})

			return nil
		},
	})
}
