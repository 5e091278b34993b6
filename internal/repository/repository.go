package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository aggregate of every data-access interface
type Repository struct {
	db *gorm.DB

	Stage         StageRepository
	Group         GroupRepository
	Account       AccountRepository
	Graduate      GraduateRepository
	DocumentType  DocumentTypeRepository
	Document      DocumentRepository
	PlanGroup     PlanGroupRepository
	TitlingOption TitlingOptionRepository
}

// NewRepository builds the aggregate on db
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:            db,
		Stage:         NewStageRepo(db),
		Group:         NewGroupRepo(db),
		Account:       NewAccountRepo(db),
		Graduate:      NewGraduateRepo(db),
		DocumentType:  NewDocumentTypeRepo(db),
		Document:      NewDocumentRepo(db),
		PlanGroup:     NewPlanGroupRepo(db),
		TitlingOption: NewTitlingOptionRepo(db),
	}
}

// Transaction runs fn with an aggregate bound to one transaction.
// A returned error (or panic) rolls everything back.
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}

// Ping checks the connection (health endpoint)
func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
