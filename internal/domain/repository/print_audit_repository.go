package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/kitchen-pos/internal/domain/entity"
	"github.com/sangkips/kitchen-pos/pkg/pagination"
)

// PrintAuditRepository defines the interface for print audit records
type PrintAuditRepository interface {
	Create(ctx context.Context, audit *entity.PrintAudit) error
	List(ctx context.Context, params *PrintAuditFilterParams) ([]entity.PrintAudit, int64, error)
}

// PrintAuditFilterParams contains filtering parameters for audit queries
type PrintAuditFilterParams struct {
	Pagination *pagination.PaginationParams
	OrderID    *uuid.UUID
	Success    *bool
}
