package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	balancedomain "github.com/smallbiznis/paynest/internal/balance/domain"
	"github.com/smallbiznis/paynest/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
}

func NewService(p ServiceParam) balancedomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("balance.service"),
		genID: p.GenID,
		clock: p.Clock,
	}
}

func columnForMethod(method string) (string, error) {
	switch method {
	case "dollar":
		return "dollar", nil
	case "sum":
		return "sum", nil
	case "card":
		return "card", nil
	default:
		return "", balancedomain.ErrInvalidMethod
	}
}

func (s *Service) Apply(ctx context.Context, tx *gorm.DB, managerID snowflake.ID, method string, delta decimal.Decimal) error {
	if tx == nil {
		tx = s.db
	}

	column, err := columnForMethod(method)
	if err != nil {
		return err
	}

	var bal balancedomain.Balance
	err = tx.WithContext(ctx).Where("manager_id = ?", managerID).First(&bal).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		now := s.clock.Now()
		bal = balancedomain.Balance{
			ID:        s.genID.Generate(),
			ManagerID: managerID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.WithContext(ctx).Create(&bal).Error; err != nil {
			return fmt.Errorf("create balance: %w", err)
		}
	} else if err != nil {
		return err
	}

	err = tx.WithContext(ctx).
		Model(&balancedomain.Balance{}).
		Where("manager_id = ?", managerID).
		Updates(map[string]any{
			column:       gorm.Expr(fmt.Sprintf("%s + ?", column), delta),
			"updated_at": s.clock.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("apply balance delta: %w", err)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, managerID snowflake.ID) (balancedomain.Balance, error) {
	var bal balancedomain.Balance
	err := s.db.WithContext(ctx).Where("manager_id = ?", managerID).First(&bal).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return balancedomain.Balance{}, balancedomain.ErrBalanceNotFound
	}
	if err != nil {
		return balancedomain.Balance{}, err
	}
	return bal, nil
}

func (s *Service) List(ctx context.Context) ([]balancedomain.Balance, error) {
	var balances []balancedomain.Balance
	if err := s.db.WithContext(ctx).Order("manager_id asc").Find(&balances).Error; err != nil {
		return nil, err
	}
	return balances, nil
}
