package migration

import (
	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/paynest/internal/audit/domain"
	balancedomain "github.com/smallbiznis/paynest/internal/balance/domain"
	"github.com/smallbiznis/paynest/internal/config"
	contractdomain "github.com/smallbiznis/paynest/internal/contract/domain"
	customerdomain "github.com/smallbiznis/paynest/internal/customer/domain"
	debtordomain "github.com/smallbiznis/paynest/internal/debtor/domain"
	paymentdomain "github.com/smallbiznis/paynest/internal/payment/domain"
	prepaiddomain "github.com/smallbiznis/paynest/internal/prepaid/domain"
	"github.com/smallbiznis/paynest/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// AutoMigrate creates the schema through gorm. It is the path for sqlite
// and mysql deployments where the embedded SQL migrations do not apply.
func AutoMigrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&customerdomain.Customer{},
		&customerdomain.Employee{},
		&contractdomain.Contract{},
		&paymentdomain.Payment{},
		&debtordomain.Debtor{},
		&prepaiddomain.PrepaidRecord{},
		&balancedomain.Balance{},
		&auditdomain.AuditLog{},
	)
}

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, genID *snowflake.Node) error {
		if cfg.RunMigrations {
			if cfg.DBType == "postgres" {
				sqlDB, err := conn.DB()
				if err != nil {
					return err
				}
				if err := RunMigrations(sqlDB); err != nil {
					return err
				}
			} else if err := AutoMigrate(conn); err != nil {
				return err
			}
		}

		if cfg.SeedDemo {
			return seed.EnsureDemoData(conn, genID)
		}
		return nil
	}),
)
