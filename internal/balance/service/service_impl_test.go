package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	balancedomain "github.com/smallbiznis/paynest/internal/balance/domain"
	"github.com/smallbiznis/paynest/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (balancedomain.Service, *snowflake.Node) {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&balancedomain.Balance{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2025, time.June, 15, 10, 0, 0, 0, time.UTC))
	svc := NewService(ServiceParam{DB: conn, Log: zap.NewNop(), GenID: node, Clock: fake})
	return svc, node
}

func TestApply_CreatesRowAndAccumulatesPerMethod(t *testing.T) {
	svc, node := newTestService(t)
	ctx := context.Background()
	managerID := node.Generate()

	require.NoError(t, svc.Apply(ctx, nil, managerID, "dollar", decimal.NewFromInt(130)))
	require.NoError(t, svc.Apply(ctx, nil, managerID, "sum", decimal.NewFromInt(500000)))
	require.NoError(t, svc.Apply(ctx, nil, managerID, "dollar", decimal.NewFromInt(70)))

	bal, err := svc.Get(ctx, managerID)
	require.NoError(t, err)
	assert.True(t, bal.Dollar.Equal(decimal.NewFromInt(200)), "dollar = %s", bal.Dollar)
	assert.True(t, bal.Sum.Equal(decimal.NewFromInt(500000)))
	assert.True(t, bal.Card.IsZero())
}

func TestApply_NegativeDeltaReversesCollection(t *testing.T) {
	svc, node := newTestService(t)
	ctx := context.Background()
	managerID := node.Generate()

	require.NoError(t, svc.Apply(ctx, nil, managerID, "card", decimal.NewFromInt(100)))
	require.NoError(t, svc.Apply(ctx, nil, managerID, "card", decimal.NewFromInt(100).Neg()))

	bal, err := svc.Get(ctx, managerID)
	require.NoError(t, err)
	assert.True(t, bal.Card.IsZero())
}

func TestApply_UnknownMethod(t *testing.T) {
	svc, node := newTestService(t)

	err := svc.Apply(context.Background(), nil, node.Generate(), "crypto", decimal.NewFromInt(10))
	assert.ErrorIs(t, err, balancedomain.ErrInvalidMethod)
}

func TestGet_UnknownManager(t *testing.T) {
	svc, node := newTestService(t)

	_, err := svc.Get(context.Background(), node.Generate())
	assert.ErrorIs(t, err, balancedomain.ErrBalanceNotFound)
}

func TestList_OrdersByManager(t *testing.T) {
	svc, node := newTestService(t)
	ctx := context.Background()

	first := node.Generate()
	second := node.Generate()
	require.NoError(t, svc.Apply(ctx, nil, second, "dollar", decimal.NewFromInt(10)))
	require.NoError(t, svc.Apply(ctx, nil, first, "dollar", decimal.NewFromInt(20)))

	balances, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, balances, 2)
	assert.Equal(t, first, balances[0].ManagerID)
	assert.Equal(t, second, balances[1].ManagerID)
}
