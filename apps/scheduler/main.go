package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/paynest/internal/balance"
	"github.com/smallbiznis/paynest/internal/clock"
	"github.com/smallbiznis/paynest/internal/config"
	"github.com/smallbiznis/paynest/internal/contract"
	"github.com/smallbiznis/paynest/internal/customer"
	"github.com/smallbiznis/paynest/internal/debtor"
	"github.com/smallbiznis/paynest/internal/logger"
	"github.com/smallbiznis/paynest/internal/migration"
	"github.com/smallbiznis/paynest/internal/payment"
	"github.com/smallbiznis/paynest/internal/prepaid"
	"github.com/smallbiznis/paynest/internal/ratelimit"
	"github.com/smallbiznis/paynest/internal/scheduler"
	"github.com/smallbiznis/paynest/pkg/db"
	"github.com/smallbiznis/paynest/pkg/telemetry"
	"go.uber.org/fx"
)

// Headless materializer runner for deployments that keep the API and
// the nightly batch in separate processes.
func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		telemetry.Module,
		migration.Module,

		// Scheduler dependencies
		customer.Module,
		contract.Module,
		payment.Module,
		prepaid.Module,
		balance.Module,
		debtor.Module,

		ratelimit.Module,
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
