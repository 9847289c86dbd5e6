package option

import (
	"fmt"

	"github.com/smallbiznis/paynest/pkg/db/pagination"
	"gorm.io/gorm"
)

// QueryOption mutates a gorm statement before execution.
type QueryOption interface {
	Apply(*gorm.DB) *gorm.DB
}

type queryOptionFunc func(*gorm.DB) *gorm.DB

func (f queryOptionFunc) Apply(db *gorm.DB) *gorm.DB { return f(db) }

// Operator is a SQL comparison operator for Condition filters.
type Operator string

const (
	EQ  Operator = "="
	NE  Operator = "<>"
	GT  Operator = ">"
	GTE Operator = ">="
	LT  Operator = "<"
	LTE Operator = "<="
)

// Condition is a single field comparison applied to the query.
type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

// ApplyOperator adds a WHERE clause for the given condition.
func ApplyOperator(c Condition) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		return db.Where(fmt.Sprintf("%s %s ?", c.Field, c.Operator), c.Value)
	})
}

// QuerySortBy describes a requested sort with an allowlist of columns.
type QuerySortBy struct {
	SortBy  string
	OrderBy string
	Allow   map[string]bool
}

// WithQuerySortBy builds a QuerySortBy from request parameters.
func WithQuerySortBy(sortBy, orderBy string, allow map[string]bool) QuerySortBy {
	return QuerySortBy{SortBy: sortBy, OrderBy: orderBy, Allow: allow}
}

// WithSortBy orders the query by the requested column if allowed,
// falling back to created_at desc.
func WithSortBy(sort QuerySortBy) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		column := sort.SortBy
		if column == "" || !sort.Allow[column] {
			column = "created_at"
		}
		direction := "desc"
		if sort.OrderBy == "asc" {
			direction = "asc"
		}
		return db.Order(fmt.Sprintf("%s %s, id desc", column, direction))
	})
}

// ApplyPagination applies cursor pagination to the query. It fetches one
// extra row so callers can detect whether a next page exists.
func ApplyPagination(page pagination.Pagination) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		limit := page.Limit()
		if cursor, err := pagination.DecodeCursor(page.PageToken); err == nil && cursor != nil {
			db = db.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
		}
		return db.Limit(limit + 1)
	})
}
