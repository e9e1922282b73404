package repository

import (
	"context"

	"github.com/sangkips/kitchen-pos/internal/domain/entity"
	domainRepo "github.com/sangkips/kitchen-pos/internal/domain/repository"
	"gorm.io/gorm"
)

type printAuditRepository struct {
	db *gorm.DB
}

// NewPrintAuditRepository creates a new print audit repository
func NewPrintAuditRepository(db *gorm.DB) domainRepo.PrintAuditRepository {
	return &printAuditRepository{db: db}
}

func (r *printAuditRepository) Create(ctx context.Context, audit *entity.PrintAudit) error {
	return r.db.WithContext(ctx).Create(audit).Error
}

func (r *printAuditRepository) List(ctx context.Context, params *domainRepo.PrintAuditFilterParams) ([]entity.PrintAudit, int64, error) {
	var audits []entity.PrintAudit
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.PrintAudit{})
	if params.OrderID != nil {
		query = query.Where("order_id = ?", *params.OrderID)
	}
	if params.Success != nil {
		query = query.Where("success = ?", *params.Success)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("created_at DESC").
		Scopes(Paginate(params.Pagination)).
		Find(&audits).Error
	return audits, total, err
}
