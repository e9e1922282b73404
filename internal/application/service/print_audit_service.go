package service

import (
	"context"

	"github.com/sangkips/kitchen-pos/internal/domain/entity"
	"github.com/sangkips/kitchen-pos/internal/domain/repository"
	"github.com/sangkips/kitchen-pos/pkg/pagination"
	"go.uber.org/zap"
)

// PrintAuditService records print outcomes. Recording never fails a print.
type PrintAuditService struct {
	repo repository.PrintAuditRepository
	log  *zap.Logger
}

// NewPrintAuditService creates a new print audit service
func NewPrintAuditService(repo repository.PrintAuditRepository, log *zap.Logger) *PrintAuditService {
	return &PrintAuditService{repo: repo, log: log.Named("audit")}
}

// Record stores one job outcome. Storage errors are logged and dropped.
func (s *PrintAuditService) Record(ctx context.Context, audit *entity.PrintAudit) {
	if err := s.repo.Create(ctx, audit); err != nil {
		s.log.Error("failed to record print audit",
			zap.String("order_number", audit.OrderNumber),
			zap.String("category", audit.Category),
			zap.Error(err))
	}
}

// List returns audit records, newest first.
func (s *PrintAuditService) List(ctx context.Context, params *repository.PrintAuditFilterParams) (*pagination.PaginatedResult[entity.PrintAudit], error) {
	if params.Pagination == nil {
		params.Pagination = pagination.DefaultPagination()
	}
	params.Pagination.Validate()

	audits, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, err
	}
	return pagination.NewPaginatedResult(audits, pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total)), nil
}
