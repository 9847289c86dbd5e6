package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/paynest/internal/clock"
	customerdomain "github.com/smallbiznis/paynest/internal/customer/domain"
	"github.com/smallbiznis/paynest/pkg/db/option"
	"github.com/smallbiznis/paynest/pkg/db/pagination"
	"github.com/smallbiznis/paynest/pkg/repository"
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

	customerrepo repository.Repository[customerdomain.Customer]
	employeerepo repository.Repository[customerdomain.Employee]
}

func NewService(p ServiceParam) customerdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("customer.service"),
		genID: p.GenID,
		clock: p.Clock,

		customerrepo: repository.ProvideStore[customerdomain.Customer](p.DB),
		employeerepo: repository.ProvideStore[customerdomain.Employee](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req customerdomain.CreateCustomerRequest) (customerdomain.Customer, error) {
	if strings.TrimSpace(req.FullName) == "" {
		return customerdomain.Customer{}, customerdomain.ErrInvalidCustomer
	}

	now := s.clock.Now()
	cust := customerdomain.Customer{
		ID:               s.genID.Generate(),
		FullName:         strings.TrimSpace(req.FullName),
		PhoneNumber:      req.PhoneNumber,
		ExtraPhoneNumber: req.ExtraPhoneNumber,
		Address:          req.Address,
		PassportID:       req.PassportID,
		Note:             req.Note,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.customerrepo.Create(ctx, &cust); err != nil {
		return customerdomain.Customer{}, err
	}
	return cust, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (customerdomain.Customer, error) {
	cust, err := s.customerrepo.FindOne(ctx, &customerdomain.Customer{ID: id})
	if err != nil {
		return customerdomain.Customer{}, err
	}
	if cust == nil {
		return customerdomain.Customer{}, customerdomain.ErrCustomerNotFound
	}
	return *cust, nil
}

func (s *Service) List(ctx context.Context, req customerdomain.ListCustomerRequest) (customerdomain.ListCustomerResponse, error) {
	stmt := s.db.WithContext(ctx).Model(&customerdomain.Customer{})
	if q := strings.TrimSpace(req.Search); q != "" {
		pattern := "%" + q + "%"
		stmt = stmt.Where("full_name LIKE ? OR phone_number LIKE ?", pattern, pattern)
	}

	stmt = option.ApplyPagination(req.Pagination).Apply(stmt)

	var customers []*customerdomain.Customer
	if err := stmt.Order("created_at desc, id desc").Find(&customers).Error; err != nil {
		return customerdomain.ListCustomerResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(customers, req.Pagination.Limit(), func(c *customerdomain.Customer) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{
			ID:        c.ID.String(),
			CreatedAt: c.CreatedAt.Format("2006-01-02T15:04:05.999999999Z07:00"),
		})
		return token
	})

	resp := customerdomain.ListCustomerResponse{PageInfo: *pageInfo}
	limit := req.Pagination.Limit()
	for i, c := range customers {
		if i >= limit {
			break
		}
		resp.Customers = append(resp.Customers, *c)
	}
	return resp, nil
}

func (s *Service) Update(ctx context.Context, id snowflake.ID, req customerdomain.UpdateCustomerRequest) (customerdomain.Customer, error) {
	cust, err := s.customerrepo.FindOne(ctx, &customerdomain.Customer{ID: id})
	if err != nil {
		return customerdomain.Customer{}, err
	}
	if cust == nil {
		return customerdomain.Customer{}, customerdomain.ErrCustomerNotFound
	}

	if req.FullName != nil {
		if strings.TrimSpace(*req.FullName) == "" {
			return customerdomain.Customer{}, customerdomain.ErrInvalidCustomer
		}
		cust.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.PhoneNumber != nil {
		cust.PhoneNumber = *req.PhoneNumber
	}
	if req.ExtraPhoneNumber != nil {
		cust.ExtraPhoneNumber = *req.ExtraPhoneNumber
	}
	if req.Address != nil {
		cust.Address = *req.Address
	}
	if req.PassportID != nil {
		cust.PassportID = *req.PassportID
	}
	if req.Note != nil {
		cust.Note = *req.Note
	}
	cust.UpdatedAt = s.clock.Now()

	if err := s.db.WithContext(ctx).Save(cust).Error; err != nil {
		return customerdomain.Customer{}, err
	}
	return *cust, nil
}

func (s *Service) Delete(ctx context.Context, id snowflake.ID) error {
	cust, err := s.customerrepo.FindOne(ctx, &customerdomain.Customer{ID: id})
	if err != nil {
		return err
	}
	if cust == nil {
		return customerdomain.ErrCustomerNotFound
	}
	return s.customerrepo.Delete(ctx, id.String())
}

func (s *Service) CreateEmployee(ctx context.Context, req customerdomain.CreateEmployeeRequest) (customerdomain.Employee, error) {
	if strings.TrimSpace(req.FullName) == "" {
		return customerdomain.Employee{}, customerdomain.ErrInvalidCustomer
	}

	role := req.Role
	if role == "" {
		role = "manager"
	}

	now := s.clock.Now()
	emp := customerdomain.Employee{
		ID:          s.genID.Generate(),
		FullName:    strings.TrimSpace(req.FullName),
		PhoneNumber: req.PhoneNumber,
		Role:        role,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.employeerepo.Create(ctx, &emp); err != nil {
		return customerdomain.Employee{}, err
	}
	return emp, nil
}

func (s *Service) GetEmployee(ctx context.Context, id snowflake.ID) (customerdomain.Employee, error) {
	emp, err := s.employeerepo.FindOne(ctx, &customerdomain.Employee{ID: id})
	if err != nil {
		return customerdomain.Employee{}, err
	}
	if emp == nil {
		return customerdomain.Employee{}, customerdomain.ErrEmployeeNotFound
	}
	return *emp, nil
}

func (s *Service) ListEmployees(ctx context.Context) ([]customerdomain.Employee, error) {
	items, err := s.employeerepo.Find(ctx, &customerdomain.Employee{},
		option.WithSortBy(option.QuerySortBy{Allow: map[string]bool{"created_at": true}}),
	)
	if err != nil {
		return nil, err
	}

	employees := make([]customerdomain.Employee, 0, len(items))
	for _, e := range items {
		employees = append(employees, *e)
	}
	return employees, nil
}
