package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/paynest/pkg/db/pagination"
	"gorm.io/gorm"
)

// Entry describes one action to record.
type Entry struct {
	ManagerID  *snowflake.ID
	Action     string
	TargetType string
	TargetID   *string
	Metadata   map[string]any
}

type ListAuditLogRequest struct {
	pagination.Pagination
	ManagerID  *snowflake.ID `form:"manager_id"`
	Action     string        `form:"action"`
	TargetType string        `form:"target_type"`
	TargetID   string        `form:"target_id"`
	StartAt    *time.Time    `form:"start_at"`
	EndAt      *time.Time    `form:"end_at"`
}

type ListAuditLogResponse struct {
	pagination.PageInfo
	AuditLogs []AuditLog `json:"audit_logs"`
}

type Service interface {
	// Record appends one entry. Failures are reported but callers treat
	// the trail as best effort; a lost audit row never aborts the action
	// it describes.
	Record(ctx context.Context, entry Entry) error

	List(ctx context.Context, req ListAuditLogRequest) (ListAuditLogResponse, error)
}

// Repository is the storage behind the service.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *AuditLog) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*AuditLog, error)
}

var (
	ErrInvalidAction    = errors.New("invalid_audit_action")
	ErrInvalidPageToken = errors.New("invalid_page_token")
	ErrInvalidTimeRange = errors.New("invalid_time_range")
)
