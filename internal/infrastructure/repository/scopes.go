package repository

import (
	"time"

	"github.com/sangkips/kitchen-pos/pkg/pagination"
	"gorm.io/gorm"
)

// Paginate returns a GORM scope applying offset pagination.
// A nil params falls back to the default page.
func Paginate(params *pagination.PaginationParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if params == nil {
			params = pagination.DefaultPagination()
		}
		params.Validate()
		return db.Offset(params.Offset()).Limit(params.PerPage)
	}
}

// CreatedOnDay returns a GORM scope matching rows created on the calendar
// day of day, evaluated in day's location.
func CreatedOnDay(day time.Time) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
		return db.Where("created_at >= ? AND created_at < ?", start, start.AddDate(0, 0, 1))
	}
}

// ItemsInOrder preloads line items in their original sequence.
func ItemsInOrder(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}
