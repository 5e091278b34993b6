package repository

import (
	"context"

	"gorm.io/gorm"

	"titulacion/internal/model"
)

// StageRepository stage catalog access
type StageRepository interface {
	List(ctx context.Context) ([]model.Stage, error)
	GetByName(ctx context.Context, name string) (*model.Stage, error)
	Create(ctx context.Context, stage *model.Stage) error
}

type stageRepo struct {
	db *gorm.DB
}

// NewStageRepo creates a StageRepository
func NewStageRepo(db *gorm.DB) StageRepository {
	return &stageRepo{db: db}
}

func (r *stageRepo) List(ctx context.Context) ([]model.Stage, error) {
	var stages []model.Stage
	err := r.db.WithContext(ctx).Order("stage_order ASC").Find(&stages).Error
	return stages, err
}

func (r *stageRepo) GetByName(ctx context.Context, name string) (*model.Stage, error) {
	var stage model.Stage
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&stage).Error; err != nil {
		return nil, err
	}
	return &stage, nil
}

func (r *stageRepo) Create(ctx context.Context, stage *model.Stage) error {
	return r.db.WithContext(ctx).Create(stage).Error
}
