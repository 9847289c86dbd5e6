package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/paynest/internal/clock"
	customerdomain "github.com/smallbiznis/paynest/internal/customer/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) customerdomain.Service {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, conn.AutoMigrate(&customerdomain.Customer{}, &customerdomain.Employee{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2025, time.June, 15, 10, 0, 0, 0, time.UTC))
	return NewService(ServiceParam{DB: conn, Log: zap.NewNop(), GenID: node, Clock: fake})
}

func TestCustomerCRUD(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, customerdomain.CreateCustomerRequest{
		FullName:    "  Olim Rustamov  ",
		PhoneNumber: "+998901234567",
	})
	require.NoError(t, err)
	assert.Equal(t, "Olim Rustamov", created.FullName)

	got, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	newPhone := "+998907654321"
	updated, err := svc.Update(ctx, created.ID, customerdomain.UpdateCustomerRequest{
		PhoneNumber: &newPhone,
	})
	require.NoError(t, err)
	assert.Equal(t, newPhone, updated.PhoneNumber)
	assert.Equal(t, "Olim Rustamov", updated.FullName)

	require.NoError(t, svc.Delete(ctx, created.ID))

	_, err = svc.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, customerdomain.ErrCustomerNotFound)
}

func TestCustomerCreate_RejectsEmptyName(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Create(context.Background(), customerdomain.CreateCustomerRequest{FullName: "   "})
	assert.ErrorIs(t, err, customerdomain.ErrInvalidCustomer)
}

func TestCustomerList_Search(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, name := range []string{"Olim Rustamov", "Aziz Karimov", "Olima Saidova"} {
		_, err := svc.Create(ctx, customerdomain.CreateCustomerRequest{FullName: name})
		require.NoError(t, err)
	}

	resp, err := svc.List(ctx, customerdomain.ListCustomerRequest{Search: "Olim"})
	require.NoError(t, err)
	assert.Len(t, resp.Customers, 2)

	resp, err = svc.List(ctx, customerdomain.ListCustomerRequest{})
	require.NoError(t, err)
	assert.Len(t, resp.Customers, 3)
}

func TestEmployeeLifecycle(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	emp, err := svc.CreateEmployee(ctx, customerdomain.CreateEmployeeRequest{FullName: "Aziz Karimov"})
	require.NoError(t, err)
	assert.Equal(t, "manager", emp.Role, "role defaults to manager")
	assert.True(t, emp.IsActive)

	got, err := svc.GetEmployee(ctx, emp.ID)
	require.NoError(t, err)
	assert.Equal(t, emp.FullName, got.FullName)

	employees, err := svc.ListEmployees(ctx)
	require.NoError(t, err)
	assert.Len(t, employees, 1)

	node, _ := snowflake.NewNode(2)
	_, err = svc.GetEmployee(ctx, node.Generate())
	assert.ErrorIs(t, err, customerdomain.ErrEmployeeNotFound)
}
