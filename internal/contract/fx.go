package contract

import (
	"github.com/smallbiznis/paynest/internal/contract/service"
	"go.uber.org/fx"
)

var Module = fx.Module("contract.service",
	fx.Provide(service.NewService),
)
