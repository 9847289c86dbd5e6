package balance

import (
	"github.com/smallbiznis/paynest/internal/balance/service"
	"go.uber.org/fx"
)

var Module = fx.Module("balance.service",
	fx.Provide(service.NewService),
)
