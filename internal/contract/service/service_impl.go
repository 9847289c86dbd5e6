package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/paynest/internal/audit/domain"
	"github.com/smallbiznis/paynest/internal/clock"
	"github.com/smallbiznis/paynest/internal/config"
	contractdomain "github.com/smallbiznis/paynest/internal/contract/domain"
	"github.com/smallbiznis/paynest/internal/ledger"
	paymentdomain "github.com/smallbiznis/paynest/internal/payment/domain"
	prepaiddomain "github.com/smallbiznis/paynest/internal/prepaid/domain"
	"github.com/smallbiznis/paynest/pkg/db"
	"github.com/smallbiznis/paynest/pkg/db/option"
	"github.com/smallbiznis/paynest/pkg/db/pagination"
	"github.com/smallbiznis/paynest/pkg/repository"
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
	PrepaidSvc  prepaiddomain.Service
	Audit       auditdomain.Service `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	collections *config.CollectionsConfigHolder
	prepaidSvc  prepaiddomain.Service
	audit       auditdomain.Service

	contractrepo repository.Repository[contractdomain.Contract]
}

func NewService(p ServiceParam) contractdomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("contract.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		collections: p.Collections,
		prepaidSvc:  p.PrepaidSvc,
		audit:       p.Audit,

		contractrepo: repository.ProvideStore[contractdomain.Contract](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req contractdomain.CreateContractRequest) (contractdomain.Contract, error) {
	if req.CustomerID == 0 || req.Months <= 0 || req.StartDate.IsZero() {
		return contractdomain.Contract{}, contractdomain.ErrInvalidContract
	}
	if req.Price.LessThanOrEqual(decimal.Zero) && !(req.TotalPrice.Valid && req.TotalPrice.Decimal.GreaterThan(decimal.Zero)) {
		return contractdomain.Contract{}, contractdomain.ErrInvalidContract
	}

	now := s.clock.Now()
	contract := contractdomain.Contract{
		ID:                 s.genID.Generate(),
		CustomID:           strings.TrimSpace(req.CustomID),
		CustomerID:         req.CustomerID,
		ManagerID:          req.ManagerID,
		ProductName:        req.ProductName,
		Price:              req.Price,
		TotalPrice:         req.TotalPrice,
		InitialPayment:     req.InitialPayment,
		MonthlyPayment:     req.MonthlyPayment,
		Months:             req.Months,
		StartDate:          req.StartDate,
		OriginalPaymentDay: req.OriginalPaymentDay,
		PrepaidBalance:     decimal.Zero,
		Status:             contractdomain.ContractStatusActive,
		IsActive:           true,
		Note:               req.Note,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	schedule := s.generateSchedule(&contract)
	if len(schedule) > 0 {
		first := schedule[0].DueDate
		contract.NextPaymentDate = &first
		for _, p := range schedule {
			if p.Type == paymentdomain.PaymentTypeMonthly {
				due := p.DueDate
				contract.NextPaymentDate = &due
				break
			}
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&contract).Error; err != nil {
			if db.IsDuplicateKeyErr(err) {
				return contractdomain.ErrDuplicateCustomID
			}
			return err
		}
		if len(schedule) == 0 {
			return nil
		}
		return tx.Create(&schedule).Error
	})
	if err != nil {
		return contractdomain.Contract{}, err
	}

	s.log.Info("contract created",
		zap.Int64("contract_id", int64(contract.ID)),
		zap.Int64("customer_id", int64(contract.CustomerID)),
		zap.Int("months", contract.Months),
	)
	return contract, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (contractdomain.Contract, error) {
	contract, err := s.contractrepo.FindOne(ctx, &contractdomain.Contract{ID: id})
	if err != nil {
		return contractdomain.Contract{}, err
	}
	if contract == nil || contract.IsDeleted {
		return contractdomain.Contract{}, contractdomain.ErrContractNotFound
	}
	return *contract, nil
}

func (s *Service) List(ctx context.Context, req contractdomain.ListContractRequest) (contractdomain.ListContractResponse, error) {
	stmt := s.db.WithContext(ctx).
		Model(&contractdomain.Contract{}).
		Where("is_deleted = ?", false)
	if req.CustomerID != nil {
		stmt = stmt.Where("customer_id = ?", *req.CustomerID)
	}
	if req.Status != nil {
		stmt = stmt.Where("status = ?", *req.Status)
	}

	stmt = option.ApplyPagination(req.Pagination).Apply(stmt)

	var contracts []*contractdomain.Contract
	if err := stmt.Order("created_at desc, id desc").Find(&contracts).Error; err != nil {
		return contractdomain.ListContractResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(contracts, req.Pagination.Limit(), func(c *contractdomain.Contract) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{
			ID:        c.ID.String(),
			CreatedAt: c.CreatedAt.Format("2006-01-02T15:04:05.999999999Z07:00"),
		})
		return token
	})

	resp := contractdomain.ListContractResponse{PageInfo: *pageInfo}
	limit := req.Pagination.Limit()
	for i, c := range contracts {
		if i >= limit {
			break
		}
		resp.Contracts = append(resp.Contracts, *c)
	}
	return resp, nil
}

func (s *Service) Update(ctx context.Context, id snowflake.ID, req contractdomain.UpdateContractRequest) (contractdomain.Contract, error) {
	contract, err := s.GetByID(ctx, id)
	if err != nil {
		return contractdomain.Contract{}, err
	}

	termsChanged := false
	if req.CustomID != nil {
		contract.CustomID = strings.TrimSpace(*req.CustomID)
	}
	if req.ProductName != nil {
		contract.ProductName = *req.ProductName
	}
	if req.TotalPrice != nil {
		contract.TotalPrice = *req.TotalPrice
		termsChanged = true
	}
	if req.MonthlyPayment != nil {
		contract.MonthlyPayment = *req.MonthlyPayment
		termsChanged = true
	}
	if req.NextPaymentDate != nil {
		next := *req.NextPaymentDate
		contract.NextPaymentDate = &next
	}
	if req.OriginalPaymentDay != nil {
		day := *req.OriginalPaymentDay
		if day < 1 || day > 31 {
			return contractdomain.Contract{}, contractdomain.ErrInvalidContract
		}
		contract.OriginalPaymentDay = &day
	}
	if req.Note != nil {
		contract.Note = *req.Note
	}
	contract.UpdatedAt = s.clock.Now()

	if err := s.db.WithContext(ctx).Save(&contract).Error; err != nil {
		if db.IsDuplicateKeyErr(err) {
			return contractdomain.Contract{}, contractdomain.ErrDuplicateCustomID
		}
		return contractdomain.Contract{}, err
	}

	if termsChanged {
		return s.RefreshCompletion(ctx, id)
	}
	return contract, nil
}

func (s *Service) SoftDelete(ctx context.Context, id snowflake.ID) error {
	contract, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).
		Model(&contractdomain.Contract{}).
		Where("id = ?", contract.ID).
		Updates(map[string]any{
			"is_deleted": true,
			"is_active":  false,
			"updated_at": s.clock.Now(),
		}).Error
}

// HardDelete removes the contract and everything derived from it. This
// is the irreversible administrative path.
func (s *Service) HardDelete(ctx context.Context, id snowflake.ID) error {
	contract, err := s.contractrepo.FindOne(ctx, &contractdomain.Contract{ID: id})
	if err != nil {
		return err
	}
	if contract == nil {
		return contractdomain.ErrContractNotFound
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("contract_id = ?", id).Delete(&paymentdomain.Payment{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM debtors WHERE contract_id = ?", int64(id)).Error; err != nil {
			return err
		}
		if err := tx.Where("contract_id = ?", id).Delete(&prepaiddomain.PrepaidRecord{}).Error; err != nil {
			return err
		}
		return tx.Delete(&contractdomain.Contract{}, "id = ?", id).Error
	})
	if err != nil {
		return err
	}

	if s.audit != nil {
		target := id.String()
		err := s.audit.Record(ctx, auditdomain.Entry{
			Action:     auditdomain.ActionContractDeleted,
			TargetType: "contract",
			TargetID:   &target,
			Metadata: map[string]any{
				"customer_id": contract.CustomerID.String(),
				"custom_id":   contract.CustomID,
			},
		})
		if err != nil {
			s.log.Warn("audit record failed", zap.Error(err))
		}
	}
	return nil
}

func (s *Service) RefreshCompletion(ctx context.Context, id snowflake.ID) (contractdomain.Contract, error) {
	contract, err := s.contractrepo.FindOne(ctx, &contractdomain.Contract{ID: id})
	if err != nil {
		return contractdomain.Contract{}, err
	}
	if contract == nil || contract.IsDeleted {
		return contractdomain.Contract{}, contractdomain.ErrContractNotFound
	}

	var payments []paymentdomain.Payment
	if err := s.db.WithContext(ctx).Where("contract_id = ?", id).Find(&payments).Error; err != nil {
		return contractdomain.Contract{}, err
	}

	collections := s.collections.Get()
	cfg := ledger.Config{
		Location:             collections.Location(),
		RecentPaidWindowDays: collections.RecentPaidWindowDays,
		Tolerance:            decimal.NewFromFloat(collections.Tolerance),
	}

	view := ledger.Compute(*contract, payments, s.clock.Now(), cfg)

	stats, err := s.prepaidSvc.ContractStats(ctx, id)
	if err != nil {
		return contractdomain.Contract{}, err
	}

	final := ledger.FinalRemainingDebt(view, stats.Total)
	settled := ledger.Settled(final, cfg.Tolerance)

	switch {
	case settled && contract.Status != contractdomain.ContractStatusCompleted:
		contract.Status = contractdomain.ContractStatusCompleted
		contract.NextPaymentDate = nil
	case !settled && contract.Status != contractdomain.ContractStatusActive:
		contract.Status = contractdomain.ContractStatusActive
		if next := earliestUnpaidDue(payments); next != nil {
			contract.NextPaymentDate = next
		}
	default:
		return *contract, nil
	}

	contract.UpdatedAt = s.clock.Now()
	if err := s.db.WithContext(ctx).Save(contract).Error; err != nil {
		return contractdomain.Contract{}, err
	}

	s.log.Info("contract completion state changed",
		zap.Int64("contract_id", int64(contract.ID)),
		zap.String("status", string(contract.Status)),
		zap.String("final_remaining_debt", final.String()),
	)
	return *contract, nil
}

func earliestUnpaidDue(payments []paymentdomain.Payment) *time.Time {
	var earliest *time.Time
	for _, p := range payments {
		if p.IsPaid() || p.Type != paymentdomain.PaymentTypeMonthly || p.DueDate.IsZero() {
			continue
		}
		if earliest == nil || p.DueDate.Before(*earliest) {
			due := p.DueDate
			earliest = &due
		}
	}
	return earliest
}
