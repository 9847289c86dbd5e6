package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/paynest/internal/clock"
	"github.com/smallbiznis/paynest/internal/config"
	contractdomain "github.com/smallbiznis/paynest/internal/contract/domain"
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
	Metrics     *telemetry.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	collections *config.CollectionsConfigHolder
	metrics     *telemetry.Metrics

	prepaidrepo repository.Repository[prepaiddomain.PrepaidRecord]
}

func NewService(p ServiceParam) prepaiddomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("prepaid.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		collections: p.Collections,
		metrics:     p.Metrics,

		prepaidrepo: repository.ProvideStore[prepaiddomain.PrepaidRecord](p.DB),
	}
}

// FormatNote renders the audit note for a prepaid record. Field order
// is fixed so the notes stay diff-friendly.
func FormatNote(in prepaiddomain.ReconcileInput) string {
	parts := []string{
		in.RecordedAt.Format("02.01.2006 - 15:04"),
		"$" + in.Excess.StringFixed(2),
		"To'lash usuli: " + in.PaymentMethod,
		in.ManagerName,
	}
	if extra := strings.TrimSpace(in.ExtraNote); extra != "" {
		parts = append(parts, extra)
	}
	return strings.Join(parts, " | ")
}

func (s *Service) Reconcile(ctx context.Context, tx *gorm.DB, in prepaiddomain.ReconcileInput) (prepaiddomain.ReconcileResult, error) {
	if tx == nil {
		tx = s.db
	}
	if in.ContractID == 0 {
		return prepaiddomain.ReconcileResult{}, prepaiddomain.ErrInvalidRecord
	}

	tolerance := decimal.NewFromFloat(s.collections.Get().Tolerance)
	if in.Excess.LessThanOrEqual(tolerance) {
		return prepaiddomain.ReconcileResult{}, nil
	}

	if in.RecordedAt.IsZero() {
		in.RecordedAt = s.clock.Now()
	}

	record := prepaiddomain.PrepaidRecord{
		ID:               s.genID.Generate(),
		ContractID:       in.ContractID,
		ContractCustomID: in.ContractCustomID,
		CustomerID:       in.CustomerID,
		PaymentID:        in.PaymentID,
		Amount:           in.Excess,
		PaymentMethod:    in.PaymentMethod,
		ManagerName:      in.ManagerName,
		Note:             FormatNote(in),
		RecordedAt:       in.RecordedAt,
		CreatedAt:        s.clock.Now(),
		UpdatedAt:        s.clock.Now(),
	}

	if err := tx.WithContext(ctx).Create(&record).Error; err != nil {
		return prepaiddomain.ReconcileResult{}, fmt.Errorf("append prepaid record: %w", err)
	}

	err := tx.WithContext(ctx).
		Model(&contractdomain.Contract{}).
		Where("id = ?", in.ContractID).
		Update("prepaid_balance", gorm.Expr("prepaid_balance + ?", in.Excess)).Error
	if err != nil {
		return prepaiddomain.ReconcileResult{}, fmt.Errorf("increment prepaid balance: %w", err)
	}

	s.metrics.ObservePrepaidCredit()
	s.log.Info("prepaid credit recorded",
		zap.Int64("contract_id", int64(in.ContractID)),
		zap.String("amount", in.Excess.String()),
	)
	return prepaiddomain.ReconcileResult{Saved: true, Record: record}, nil
}

func (s *Service) ContractHistory(ctx context.Context, contractID snowflake.ID) ([]prepaiddomain.PrepaidRecord, error) {
	items, err := s.prepaidrepo.Find(ctx, &prepaiddomain.PrepaidRecord{ContractID: contractID})
	if err != nil {
		return nil, err
	}

	records := make([]prepaiddomain.PrepaidRecord, 0, len(items))
	for _, r := range items {
		records = append(records, *r)
	}
	return records, nil
}

// ContractStats reads both representations of the prepaid total and
// keeps the larger one. The divergence between the two is a known
// inherited gap, surfaced rather than silently resolved.
func (s *Service) ContractStats(ctx context.Context, contractID snowflake.ID) (prepaiddomain.Stats, error) {
	var recordSum decimal.NullDecimal
	err := s.db.WithContext(ctx).
		Model(&prepaiddomain.PrepaidRecord{}).
		Where("contract_id = ?", contractID).
		Select("SUM(amount)").
		Scan(&recordSum).Error
	if err != nil {
		return prepaiddomain.Stats{}, err
	}

	var contract contractdomain.Contract
	if err := s.db.WithContext(ctx).First(&contract, "id = ?", contractID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return prepaiddomain.Stats{}, contractdomain.ErrContractNotFound
		}
		return prepaiddomain.Stats{}, err
	}

	return buildStats(recordSum, contract.PrepaidBalance), nil
}

func (s *Service) CustomerStats(ctx context.Context, customerID snowflake.ID) (prepaiddomain.Stats, error) {
	var recordSum decimal.NullDecimal
	err := s.db.WithContext(ctx).
		Model(&prepaiddomain.PrepaidRecord{}).
		Where("customer_id = ?", customerID).
		Select("SUM(amount)").
		Scan(&recordSum).Error
	if err != nil {
		return prepaiddomain.Stats{}, err
	}

	var cachedSum decimal.NullDecimal
	err = s.db.WithContext(ctx).
		Model(&contractdomain.Contract{}).
		Where("customer_id = ? AND is_deleted = ?", customerID, false).
		Select("SUM(prepaid_balance)").
		Scan(&cachedSum).Error
	if err != nil {
		return prepaiddomain.Stats{}, err
	}

	cached := decimal.Zero
	if cachedSum.Valid {
		cached = cachedSum.Decimal
	}
	return buildStats(recordSum, cached), nil
}

func buildStats(recordSum decimal.NullDecimal, cached decimal.Decimal) prepaiddomain.Stats {
	records := decimal.Zero
	if recordSum.Valid {
		records = recordSum.Decimal
	}

	total := records
	if cached.GreaterThan(total) {
		total = cached
	}
	return prepaiddomain.Stats{
		RecordSum:     records,
		CachedBalance: cached,
		Total:         total,
	}
}

func (s *Service) UpdateNote(ctx context.Context, id snowflake.ID, note string) (prepaiddomain.PrepaidRecord, error) {
	record, err := s.prepaidrepo.FindOne(ctx, &prepaiddomain.PrepaidRecord{ID: id})
	if err != nil {
		return prepaiddomain.PrepaidRecord{}, err
	}
	if record == nil {
		return prepaiddomain.PrepaidRecord{}, prepaiddomain.ErrRecordNotFound
	}

	record.Note = note
	record.UpdatedAt = s.clock.Now()
	if err := s.db.WithContext(ctx).Save(record).Error; err != nil {
		return prepaiddomain.PrepaidRecord{}, err
	}
	return *record, nil
}

// Delete removes a record and rolls the cached balance back by the
// record's amount, in one transaction.
func (s *Service) Delete(ctx context.Context, id snowflake.ID) error {
	record, err := s.prepaidrepo.FindOne(ctx, &prepaiddomain.PrepaidRecord{ID: id})
	if err != nil {
		return err
	}
	if record == nil {
		return prepaiddomain.ErrRecordNotFound
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&prepaiddomain.PrepaidRecord{}, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Model(&contractdomain.Contract{}).
			Where("id = ?", record.ContractID).
			Update("prepaid_balance", gorm.Expr("prepaid_balance - ?", record.Amount)).Error
	})
}
