package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/paynest/pkg/db/pagination"
)

type CreateCustomerRequest struct {
	FullName         string `json:"full_name" binding:"required"`
	PhoneNumber      string `json:"phone_number"`
	ExtraPhoneNumber string `json:"extra_phone_number"`
	Address          string `json:"address"`
	PassportID       string `json:"passport_id"`
	Note             string `json:"note"`
}

type UpdateCustomerRequest struct {
	FullName         *string `json:"full_name"`
	PhoneNumber      *string `json:"phone_number"`
	ExtraPhoneNumber *string `json:"extra_phone_number"`
	Address          *string `json:"address"`
	PassportID       *string `json:"passport_id"`
	Note             *string `json:"note"`
}

type ListCustomerRequest struct {
	pagination.Pagination
	Search string `form:"q"`
}

type ListCustomerResponse struct {
	pagination.PageInfo
	Customers []Customer `json:"customers"`
}

type Service interface {
	Create(ctx context.Context, req CreateCustomerRequest) (Customer, error)
	GetByID(ctx context.Context, id snowflake.ID) (Customer, error)
	List(ctx context.Context, req ListCustomerRequest) (ListCustomerResponse, error)
	Update(ctx context.Context, id snowflake.ID, req UpdateCustomerRequest) (Customer, error)
	Delete(ctx context.Context, id snowflake.ID) error

	CreateEmployee(ctx context.Context, req CreateEmployeeRequest) (Employee, error)
	GetEmployee(ctx context.Context, id snowflake.ID) (Employee, error)
	ListEmployees(ctx context.Context) ([]Employee, error)
}

type CreateEmployeeRequest struct {
	FullName    string `json:"full_name" binding:"required"`
	PhoneNumber string `json:"phone_number"`
	Role        string `json:"role"`
}

var (
	ErrCustomerNotFound = errors.New("customer_not_found")
	ErrEmployeeNotFound = errors.New("employee_not_found")
	ErrInvalidCustomer  = errors.New("invalid_customer")
)
