package repository

import (
	"kiosk/internal/dto"
	"kiosk/internal/model"
)

// ImpactRepository defines the interface for impact data operations.
type ImpactRepository interface {
	// Create operations
	Insert(impact *model.Impact) (int64, error)

	// Read operations
	GetByID(id int64) (*model.Impact, error)
	GetByFilename(filename string) (*model.Impact, error)
	GetAll(filter *dto.ImpactFilters) ([]model.Impact, error)
	GetTotalCount(filter *dto.ImpactFilters) (int, error)
	GetStats() (*model.ImpactStats, error)

	// Delete operations
	DeleteByFilename(filename string) error
	DeleteAll() error
}

// DetectionRepository defines the interface for the person boxes stored with impacts.
type DetectionRepository interface {
	InsertBatch(detections []model.Detection) error
	GetByImpactID(impactID int64) ([]model.Detection, error)
}
