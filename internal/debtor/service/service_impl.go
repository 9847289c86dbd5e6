package service

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/paynest/internal/audit/domain"
	"github.com/smallbiznis/paynest/internal/clock"
	"github.com/smallbiznis/paynest/internal/config"
	contractdomain "github.com/smallbiznis/paynest/internal/contract/domain"
	debtordomain "github.com/smallbiznis/paynest/internal/debtor/domain"
	"github.com/smallbiznis/paynest/internal/ledger"
	paymentdomain "github.com/smallbiznis/paynest/internal/payment/domain"
	"github.com/smallbiznis/paynest/pkg/db"
	"github.com/smallbiznis/paynest/pkg/telemetry"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Collections *config.CollectionsConfigHolder
	Metrics     *telemetry.Metrics  `optional:"true"`
	Audit       auditdomain.Service `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	collections *config.CollectionsConfigHolder
	metrics     *telemetry.Metrics
	audit       auditdomain.Service
}

func NewService(p ServiceParam) debtordomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("debtor.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		collections: p.Collections,
		metrics:     p.Metrics,
		audit:       p.Audit,
	}
}

func (s *Service) Materialize(ctx context.Context) (debtordomain.RunReport, error) {
	started := time.Now()
	loc := s.collections.Get().Location()
	now := s.clock.Now()

	var contracts []contractdomain.Contract
	err := s.db.WithContext(ctx).
		Where("is_active = ? AND is_deleted = ? AND is_declare = ? AND status = ?",
			true, false, false, contractdomain.ContractStatusActive).
		Find(&contracts).Error
	if err != nil {
		s.observeRun("error", debtordomain.RunReport{}, started)
		return debtordomain.RunReport{}, err
	}

	var report debtordomain.RunReport
	for _, contract := range contracts {
		result := s.materializeContract(ctx, contract, now, loc)
		report.Created += result.Created
		report.Updated += result.Updated
		report.TotalOverduePayments += result.Scanned
		if result.Failed() {
			report.Failed++
			s.log.Error("contract materialization failed",
				zap.Int64("contract_id", int64(result.ContractID)),
				zap.String("cause", result.Error),
			)
		}
		report.Results = append(report.Results, result)
	}

	status := "ok"
	if report.Failed > 0 {
		status = "partial"
	}
	s.observeRun(status, report, started)

	s.log.Info("materializer run finished",
		zap.Int("contracts", len(contracts)),
		zap.Int("created", report.Created),
		zap.Int("updated", report.Updated),
		zap.Int("overdue_payments", report.TotalOverduePayments),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

// materializeContract upserts one Debtor per overdue monthly obligation.
// Each write is independent so a crash mid-run leaves earlier contracts
// intact; a re-run is safe through the (contract, due date) key.
func (s *Service) materializeContract(ctx context.Context, contract contractdomain.Contract, now time.Time, loc *time.Location) debtordomain.ContractResult {
	result := debtordomain.ContractResult{ContractID: contract.ID}

	var overdue []paymentdomain.Payment
	err := s.db.WithContext(ctx).
		Where("contract_id = ? AND type = ? AND status <> ?",
			contract.ID, paymentdomain.PaymentTypeMonthly, paymentdomain.PaymentStatusPaid).
		Where("due_date < ?", startOfDay(now, loc)).
		Order("due_date asc").
		Find(&overdue).Error
	if err != nil {
		result.Error = err.Error()
		return result
	}

	for _, payment := range overdue {
		result.Scanned++
		created, err := s.upsertDebtor(ctx, contract, payment, now, loc)
		if err != nil {
			result.Error = err.Error()
			return result
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}
	return result
}

func (s *Service) upsertDebtor(ctx context.Context, contract contractdomain.Contract, payment paymentdomain.Payment, now time.Time, loc *time.Location) (created bool, err error) {
	overdueDays := ledger.DaysBetween(payment.DueDate, now, loc)
	if overdueDays < 0 {
		overdueDays = 0
	}

	var existing debtordomain.Debtor
	err = s.db.WithContext(ctx).
		Where("contract_id = ? AND due_date = ?", contract.ID, payment.DueDate).
		First(&existing).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		paymentID := payment.ID
		record := debtordomain.Debtor{
			ID:          s.genID.Generate(),
			ContractID:  contract.ID,
			CustomerID:  contract.CustomerID,
			PaymentID:   &paymentID,
			DueDate:     payment.DueDate,
			Amount:      payment.Amount,
			OverdueDays: overdueDays,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if createErr := s.db.WithContext(ctx).Create(&record).Error; createErr != nil {
			// A concurrent run can win the insert; fall through to the
			// update path, the unique key guarantees a single record.
			if !db.IsDuplicateKeyErr(createErr) {
				return false, createErr
			}
			return false, s.refreshOverdueDays(ctx, contract.ID, payment.DueDate, overdueDays, now)
		}
		return true, nil
	}
	if err != nil {
		return false, err
	}

	return false, s.refreshOverdueDays(ctx, contract.ID, payment.DueDate, overdueDays, now)
}

func (s *Service) refreshOverdueDays(ctx context.Context, contractID snowflake.ID, dueDate time.Time, overdueDays int, now time.Time) error {
	return s.db.WithContext(ctx).
		Model(&debtordomain.Debtor{}).
		Where("contract_id = ? AND due_date = ?", contractID, dueDate).
		Updates(map[string]any{
			"overdue_days": overdueDays,
			"updated_at":   now,
		}).Error
}

func (s *Service) Declare(ctx context.Context, contractIDs []snowflake.ID, createdBy snowflake.ID) (debtordomain.DeclareReport, error) {
	if len(contractIDs) == 0 {
		return debtordomain.DeclareReport{}, debtordomain.ErrNoContracts
	}

	loc := s.collections.Get().Location()
	now := s.clock.Now()

	var report debtordomain.DeclareReport
	for _, id := range contractIDs {
		var contract contractdomain.Contract
		err := s.db.WithContext(ctx).
			Where("id = ? AND is_deleted = ?", id, false).
			First(&contract).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			report.Skipped++
			continue
		}
		if err != nil {
			return report, err
		}

		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if !contract.IsDeclare {
				err := tx.Model(&contractdomain.Contract{}).
					Where("id = ?", contract.ID).
					Updates(map[string]any{"is_declare": true, "updated_at": now}).Error
				if err != nil {
					return err
				}
				report.Declared++
			}

			var count int64
			if err := tx.Model(&debtordomain.Debtor{}).Where("contract_id = ?", contract.ID).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return nil
			}

			dueDate := startOfDay(now, loc)
			if contract.NextPaymentDate != nil {
				dueDate = *contract.NextPaymentDate
			}
			overdueDays := ledger.DaysBetween(dueDate, now, loc)
			if overdueDays < 0 {
				overdueDays = 0
			}

			creator := createdBy
			record := debtordomain.Debtor{
				ID:          s.genID.Generate(),
				ContractID:  contract.ID,
				CustomerID:  contract.CustomerID,
				DueDate:     dueDate,
				Amount:      contract.MonthlyPayment,
				OverdueDays: overdueDays,
				CreatedBy:   &creator,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := tx.Create(&record).Error; err != nil {
				if db.IsDuplicateKeyErr(err) {
					return nil
				}
				return err
			}
			report.Created++
			return nil
		})
		if err != nil {
			return report, err
		}
	}

	if s.audit != nil && (report.Declared > 0 || report.Created > 0) {
		creator := createdBy
		err := s.audit.Record(ctx, auditdomain.Entry{
			ManagerID:  &creator,
			Action:     auditdomain.ActionDebtorsDeclared,
			TargetType: "contract",
			Metadata: map[string]any{
				"declared": report.Declared,
				"created":  report.Created,
				"skipped":  report.Skipped,
			},
		})
		if err != nil {
			s.log.Warn("audit record failed", zap.Error(err))
		}
	}

	return report, nil
}

func (s *Service) ListByContract(ctx context.Context, contractID snowflake.ID) ([]debtordomain.Debtor, error) {
	var debtors []debtordomain.Debtor
	err := s.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("due_date asc").
		Find(&debtors).Error
	if err != nil {
		return nil, err
	}
	return debtors, nil
}

func (s *Service) observeRun(status string, report debtordomain.RunReport, started time.Time) {
	s.metrics.ObserveMaterializerRun(status, report.Created, report.Updated, report.Failed, time.Since(started))
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
