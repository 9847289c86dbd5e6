package debtor

import (
	"github.com/smallbiznis/paynest/internal/debtor/service"
	"go.uber.org/fx"
)

var Module = fx.Module("debtor.service",
	fx.Provide(service.NewService),
)
