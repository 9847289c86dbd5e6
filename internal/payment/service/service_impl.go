package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/paynest/internal/audit/domain"
	balancedomain "github.com/smallbiznis/paynest/internal/balance/domain"
	"github.com/smallbiznis/paynest/internal/clock"
	"github.com/smallbiznis/paynest/internal/config"
	contractdomain "github.com/smallbiznis/paynest/internal/contract/domain"
	customerdomain "github.com/smallbiznis/paynest/internal/customer/domain"
	paymentdomain "github.com/smallbiznis/paynest/internal/payment/domain"
	prepaiddomain "github.com/smallbiznis/paynest/internal/prepaid/domain"
	"github.com/smallbiznis/paynest/pkg/repository"
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
	BalanceSvc  balancedomain.Service
	PrepaidSvc  prepaiddomain.Service
	ContractSvc contractdomain.Service
	Metrics     *telemetry.Metrics  `optional:"true"`
	Audit       auditdomain.Service `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	collections *config.CollectionsConfigHolder
	balanceSvc  balancedomain.Service
	prepaidSvc  prepaiddomain.Service
	contractSvc contractdomain.Service
	metrics     *telemetry.Metrics
	audit       auditdomain.Service

	paymentrepo repository.Repository[paymentdomain.Payment]
}

func NewService(p ServiceParam) paymentdomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("payment.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		collections: p.Collections,
		balanceSvc:  p.BalanceSvc,
		prepaidSvc:  p.PrepaidSvc,
		contractSvc: p.ContractSvc,
		metrics:     p.Metrics,
		audit:       p.Audit,

		paymentrepo: repository.ProvideStore[paymentdomain.Payment](p.DB),
	}
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (paymentdomain.Payment, error) {
	payment, err := s.paymentrepo.FindOne(ctx, &paymentdomain.Payment{ID: id})
	if err != nil {
		return paymentdomain.Payment{}, err
	}
	if payment == nil {
		return paymentdomain.Payment{}, paymentdomain.ErrPaymentNotFound
	}
	return *payment, nil
}

func (s *Service) ListByContract(ctx context.Context, contractID snowflake.ID) ([]paymentdomain.Payment, error) {
	var payments []paymentdomain.Payment
	err := s.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("due_date asc, id asc").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

// Confirm settles a payment. The payment row, the contract's schedule
// pointer, the manager's balance and any prepaid credit are written in
// one transaction; the completion recheck runs after commit because the
// confirmed payment is the authoritative event and must not be rolled
// back by bookkeeping failures.
func (s *Service) Confirm(ctx context.Context, req paymentdomain.ConfirmPaymentRequest) (paymentdomain.ConfirmPaymentResponse, error) {
	if req.PaymentID == 0 || req.ManagerID == 0 || req.ActualAmount.LessThanOrEqual(decimal.Zero) {
		return paymentdomain.ConfirmPaymentResponse{}, paymentdomain.ErrInvalidPayment
	}

	payment, err := s.GetByID(ctx, req.PaymentID)
	if err != nil {
		return paymentdomain.ConfirmPaymentResponse{}, err
	}
	if payment.IsPaid() {
		return paymentdomain.ConfirmPaymentResponse{}, paymentdomain.ErrPaymentNotPending
	}

	contract, err := s.contractSvc.GetByID(ctx, payment.ContractID)
	if err != nil {
		return paymentdomain.ConfirmPaymentResponse{}, err
	}

	managerName := s.managerName(ctx, req.ManagerID)

	now := s.clock.Now()
	excess := req.ActualAmount.Sub(payment.ExpectedOrScheduled())

	var prepaidSaved bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		managerID := req.ManagerID
		payment.Status = paymentdomain.PaymentStatusPaid
		payment.ActualAmount = decimal.NullDecimal{Decimal: req.ActualAmount, Valid: true}
		payment.PaymentMethod = req.PaymentMethod
		payment.ManagerID = &managerID
		payment.PaidAt = &now
		payment.ReminderDate = nil
		if req.Note != "" {
			payment.Note = req.Note
		}
		payment.UpdatedAt = now
		if err := tx.Save(&payment).Error; err != nil {
			return fmt.Errorf("save payment: %w", err)
		}

		if err := s.advanceSchedule(ctx, tx, &contract, payment); err != nil {
			return err
		}

		if err := s.balanceSvc.Apply(ctx, tx, req.ManagerID, string(req.PaymentMethod), req.ActualAmount); err != nil {
			return err
		}

		paymentID := payment.ID
		result, err := s.prepaidSvc.Reconcile(ctx, tx, prepaiddomain.ReconcileInput{
			ContractID:       contract.ID,
			ContractCustomID: contract.CustomID,
			CustomerID:       contract.CustomerID,
			PaymentID:        &paymentID,
			Excess:           excess,
			PaymentMethod:    string(req.PaymentMethod),
			ManagerName:      managerName,
			RecordedAt:       now,
			ExtraNote:        req.Note,
		})
		if err != nil {
			return err
		}
		prepaidSaved = result.Saved
		return nil
	})
	if err != nil {
		return paymentdomain.ConfirmPaymentResponse{}, err
	}

	refreshed, err := s.contractSvc.RefreshCompletion(ctx, contract.ID)
	if err != nil {
		s.log.Warn("completion recheck failed after confirmation",
			zap.Int64("contract_id", int64(contract.ID)),
			zap.Error(err),
		)
		refreshed = contract
	}

	s.metrics.ObservePaymentConfirmation(string(req.PaymentMethod))
	s.log.Info("payment confirmed",
		zap.Int64("payment_id", int64(payment.ID)),
		zap.Int64("contract_id", int64(contract.ID)),
		zap.String("actual_amount", req.ActualAmount.String()),
		zap.String("excess", excess.String()),
	)
	s.auditRecord(ctx, req.ManagerID, auditdomain.ActionPaymentConfirmed, payment.ID, map[string]any{
		"contract_id":   contract.ID.String(),
		"actual_amount": req.ActualAmount.String(),
		"method":        string(req.PaymentMethod),
		"excess":        excess.String(),
	})

	return paymentdomain.ConfirmPaymentResponse{
		Payment:       payment,
		Excess:        excess,
		PrepaidSaved:  prepaidSaved,
		ContractState: string(refreshed.Status),
	}, nil
}

// Reverse undoes a confirmation. The balance delta, any prepaid credit
// created by this payment and the schedule pointer are rolled back in
// one transaction, then the completion state is recomputed so a
// completed contract returns to active.
func (s *Service) Reverse(ctx context.Context, paymentID snowflake.ID) (paymentdomain.Payment, error) {
	payment, err := s.GetByID(ctx, paymentID)
	if err != nil {
		return paymentdomain.Payment{}, err
	}
	if !payment.IsPaid() {
		return paymentdomain.Payment{}, paymentdomain.ErrPaymentNotPaid
	}

	contract, err := s.contractSvc.GetByID(ctx, payment.ContractID)
	if err != nil {
		return paymentdomain.Payment{}, err
	}

	now := s.clock.Now()
	confirmedBy := payment.ManagerID
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if payment.ManagerID != nil && payment.PaymentMethod != "" {
			err := s.balanceSvc.Apply(ctx, tx, *payment.ManagerID, string(payment.PaymentMethod), payment.PaidAmount().Neg())
			if err != nil && !errors.Is(err, balancedomain.ErrInvalidMethod) {
				return err
			}
		}

		var records []prepaiddomain.PrepaidRecord
		if err := tx.Where("payment_id = ?", payment.ID).Find(&records).Error; err != nil {
			return err
		}
		for _, record := range records {
			if err := tx.Delete(&prepaiddomain.PrepaidRecord{}, "id = ?", record.ID).Error; err != nil {
				return err
			}
			err := tx.Model(&contractdomain.Contract{}).
				Where("id = ?", record.ContractID).
				Update("prepaid_balance", gorm.Expr("prepaid_balance - ?", record.Amount)).Error
			if err != nil {
				return err
			}
		}

		payment.Status = paymentdomain.PaymentStatusUnpaid
		payment.ActualAmount = decimal.NullDecimal{}
		payment.PaidAt = nil
		payment.PaymentMethod = ""
		payment.ManagerID = nil
		payment.UpdatedAt = now
		if err := tx.Save(&payment).Error; err != nil {
			return err
		}

		return s.restoreSchedulePointer(ctx, tx, contract.ID)
	})
	if err != nil {
		return paymentdomain.Payment{}, err
	}

	if _, err := s.contractSvc.RefreshCompletion(ctx, contract.ID); err != nil {
		s.log.Warn("completion recheck failed after reversal",
			zap.Int64("contract_id", int64(contract.ID)),
			zap.Error(err),
		)
	}

	s.log.Info("payment reversed",
		zap.Int64("payment_id", int64(payment.ID)),
		zap.Int64("contract_id", int64(contract.ID)),
	)
	reversedFrom := snowflake.ID(0)
	if confirmedBy != nil {
		reversedFrom = *confirmedBy
	}
	s.auditRecord(ctx, reversedFrom, auditdomain.ActionPaymentReversed, payment.ID, map[string]any{
		"contract_id": contract.ID.String(),
	})
	return payment, nil
}

// auditRecord appends to the audit trail when one is wired. The trail
// is best effort and never fails the action it describes.
func (s *Service) auditRecord(ctx context.Context, managerID snowflake.ID, action string, paymentID snowflake.ID, metadata map[string]any) {
	if s.audit == nil {
		return
	}
	entry := auditdomain.Entry{
		Action:     action,
		TargetType: "payment",
		Metadata:   metadata,
	}
	if managerID != 0 {
		entry.ManagerID = &managerID
	}
	target := paymentID.String()
	entry.TargetID = &target
	if err := s.audit.Record(ctx, entry); err != nil {
		s.log.Warn("audit record failed", zap.String("action", action), zap.Error(err))
	}
}

func (s *Service) MarkPending(ctx context.Context, paymentID snowflake.ID) (paymentdomain.Payment, error) {
	payment, err := s.GetByID(ctx, paymentID)
	if err != nil {
		return paymentdomain.Payment{}, err
	}
	if payment.IsPaid() {
		return paymentdomain.Payment{}, paymentdomain.ErrPaymentNotPending
	}

	payment.Status = paymentdomain.PaymentStatusPending
	payment.UpdatedAt = s.clock.Now()
	if err := s.db.WithContext(ctx).Save(&payment).Error; err != nil {
		return paymentdomain.Payment{}, err
	}
	return payment, nil
}

func (s *Service) SetReminder(ctx context.Context, req paymentdomain.SetReminderRequest) (paymentdomain.Payment, error) {
	payment, err := s.GetByID(ctx, req.PaymentID)
	if err != nil {
		return paymentdomain.Payment{}, err
	}
	if payment.IsPaid() {
		return paymentdomain.Payment{}, paymentdomain.ErrPaymentNotPending
	}

	reminder := req.ReminderDate
	payment.ReminderDate = &reminder
	payment.UpdatedAt = s.clock.Now()
	if err := s.db.WithContext(ctx).Save(&payment).Error; err != nil {
		return paymentdomain.Payment{}, err
	}
	return payment, nil
}

func (s *Service) ClearReminder(ctx context.Context, paymentID snowflake.ID) (paymentdomain.Payment, error) {
	payment, err := s.GetByID(ctx, paymentID)
	if err != nil {
		return paymentdomain.Payment{}, err
	}

	payment.ReminderDate = nil
	payment.UpdatedAt = s.clock.Now()
	if err := s.db.WithContext(ctx).Save(&payment).Error; err != nil {
		return paymentdomain.Payment{}, err
	}
	return payment, nil
}

// advanceSchedule moves the contract's previous/next payment dates
// after a monthly obligation settles.
func (s *Service) advanceSchedule(ctx context.Context, tx *gorm.DB, contract *contractdomain.Contract, paid paymentdomain.Payment) error {
	if paid.Type != paymentdomain.PaymentTypeMonthly {
		return nil
	}

	prev := paid.DueDate
	contract.PreviousPaymentDate = &prev

	var next paymentdomain.Payment
	err := tx.WithContext(ctx).
		Where("contract_id = ? AND type = ? AND status <> ?",
			contract.ID, paymentdomain.PaymentTypeMonthly, paymentdomain.PaymentStatusPaid).
		Where("id <> ?", paid.ID).
		Order("due_date asc").
		First(&next).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		contract.NextPaymentDate = nil
	case err != nil:
		return err
	default:
		due := next.DueDate
		contract.NextPaymentDate = &due
	}

	contract.UpdatedAt = s.clock.Now()
	return tx.WithContext(ctx).Save(contract).Error
}

// restoreSchedulePointer recomputes next payment date from the earliest
// unpaid monthly obligation after a reversal.
func (s *Service) restoreSchedulePointer(ctx context.Context, tx *gorm.DB, contractID snowflake.ID) error {
	var next paymentdomain.Payment
	err := tx.WithContext(ctx).
		Where("contract_id = ? AND type = ? AND status <> ?",
			contractID, paymentdomain.PaymentTypeMonthly, paymentdomain.PaymentStatusPaid).
		Order("due_date asc").
		First(&next).Error

	updates := map[string]any{"updated_at": s.clock.Now()}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		updates["next_payment_date"] = nil
	case err != nil:
		return err
	default:
		updates["next_payment_date"] = next.DueDate
	}

	return tx.WithContext(ctx).
		Model(&contractdomain.Contract{}).
		Where("id = ?", contractID).
		Updates(updates).Error
}

func (s *Service) managerName(ctx context.Context, managerID snowflake.ID) string {
	var emp customerdomain.Employee
	if err := s.db.WithContext(ctx).First(&emp, "id = ?", managerID).Error; err != nil {
		return ""
	}
	return emp.FullName
}
