package repository

import (
	"context"

	"gorm.io/gorm"

	"titulacion/internal/model"
)

// PlanGroupRepository plan groups and their plans
type PlanGroupRepository interface {
	List(ctx context.Context) ([]model.PlanGroup, error)
	GetByID(ctx context.Context, id uint) (*model.PlanGroup, error)
	Create(ctx context.Context, g *model.PlanGroup) error
	CreatePlan(ctx context.Context, p *model.Plan) error
}

type planGroupRepo struct {
	db *gorm.DB
}

// NewPlanGroupRepo creates a PlanGroupRepository
func NewPlanGroupRepo(db *gorm.DB) PlanGroupRepository {
	return &planGroupRepo{db: db}
}

func (r *planGroupRepo) List(ctx context.Context) ([]model.PlanGroup, error) {
	var groups []model.PlanGroup
	err := r.db.WithContext(ctx).
		Preload("Plans", func(db *gorm.DB) *gorm.DB { return db.Order("name ASC") }).
		Order("name ASC").
		Find(&groups).Error
	return groups, err
}

func (r *planGroupRepo) GetByID(ctx context.Context, id uint) (*model.PlanGroup, error) {
	var g model.PlanGroup
	if err := r.db.WithContext(ctx).Preload("Plans").Where("id = ?", id).First(&g).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *planGroupRepo) Create(ctx context.Context, g *model.PlanGroup) error {
	return r.db.WithContext(ctx).Omit("Plans").Create(g).Error
}

func (r *planGroupRepo) CreatePlan(ctx context.Context, p *model.Plan) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// TitlingOptionRepository titling options
type TitlingOptionRepository interface {
	List(ctx context.Context) ([]model.TitlingOption, error)
	GetByID(ctx context.Context, id uint) (*model.TitlingOption, error)
	Create(ctx context.Context, o *model.TitlingOption) error
}

type titlingOptionRepo struct {
	db *gorm.DB
}

// NewTitlingOptionRepo creates a TitlingOptionRepository
func NewTitlingOptionRepo(db *gorm.DB) TitlingOptionRepository {
	return &titlingOptionRepo{db: db}
}

func (r *titlingOptionRepo) List(ctx context.Context) ([]model.TitlingOption, error) {
	var opts []model.TitlingOption
	err := r.db.WithContext(ctx).Order("name ASC").Find(&opts).Error
	return opts, err
}

func (r *titlingOptionRepo) GetByID(ctx context.Context, id uint) (*model.TitlingOption, error) {
	var o model.TitlingOption
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *titlingOptionRepo) Create(ctx context.Context, o *model.TitlingOption) error {
	return r.db.WithContext(ctx).Create(o).Error
}
