package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"titulacion/internal/model"
)

// GraduateFilter optional list filters
type GraduateFilter struct {
	StageID *uint
	Search  string // control number, CURP or name fragment
}

// GraduateRepository graduate records
type GraduateRepository interface {
	Create(ctx context.Context, g *model.Graduate) error
	Update(ctx context.Context, g *model.Graduate) error
	GetByIdentityKey(ctx context.Context, key string) (*model.Graduate, error)
	GetByControlNumber(ctx context.Context, control string) (*model.Graduate, error)
	GetByAccountID(ctx context.Context, accountID string) (*model.Graduate, error)
	SetStage(ctx context.Context, key string, stageID *uint) error
	LinkAccount(ctx context.Context, key string, accountID string) error
	// ClearAccountAndStage nulls both references; the row itself stays
	ClearAccountAndStage(ctx context.Context, key string) error
	ListByStageIDs(ctx context.Context, stageIDs []uint) ([]model.Graduate, error)
	List(ctx context.Context, f GraduateFilter, offset, limit int) ([]model.Graduate, int64, error)
}

type graduateRepo struct {
	db *gorm.DB
}

// NewGraduateRepo creates a GraduateRepository
func NewGraduateRepo(db *gorm.DB) GraduateRepository {
	return &graduateRepo{db: db}
}

func (r *graduateRepo) Create(ctx context.Context, g *model.Graduate) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(g).Error
}

func (r *graduateRepo) Update(ctx context.Context, g *model.Graduate) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(g).Error
}

func (r *graduateRepo) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Stage").
		Preload("PlanGroup").
		Preload("TitlingOption")
}

func (r *graduateRepo) GetByIdentityKey(ctx context.Context, key string) (*model.Graduate, error) {
	var g model.Graduate
	if err := r.preloaded(ctx).Where("curp = ?", key).First(&g).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *graduateRepo) GetByControlNumber(ctx context.Context, control string) (*model.Graduate, error) {
	var g model.Graduate
	if err := r.preloaded(ctx).Where("control_number = ?", control).First(&g).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *graduateRepo) GetByAccountID(ctx context.Context, accountID string) (*model.Graduate, error) {
	var g model.Graduate
	if err := r.preloaded(ctx).Where("account_id = ?", accountID).First(&g).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *graduateRepo) SetStage(ctx context.Context, key string, stageID *uint) error {
	return r.db.WithContext(ctx).
		Model(&model.Graduate{}).
		Where("curp = ?", key).
		Update("stage_id", stageID).Error
}

func (r *graduateRepo) LinkAccount(ctx context.Context, key string, accountID string) error {
	return r.db.WithContext(ctx).
		Model(&model.Graduate{}).
		Where("curp = ?", key).
		Update("account_id", accountID).Error
}

func (r *graduateRepo) ClearAccountAndStage(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).
		Model(&model.Graduate{}).
		Where("curp = ?", key).
		Updates(map[string]interface{}{
			"account_id": nil,
			"stage_id":   nil,
		}).Error
}

func (r *graduateRepo) ListByStageIDs(ctx context.Context, stageIDs []uint) ([]model.Graduate, error) {
	var graduates []model.Graduate
	if len(stageIDs) == 0 {
		return graduates, nil
	}
	err := r.preloaded(ctx).
		Where("stage_id IN ?", stageIDs).
		Order("control_number ASC").
		Find(&graduates).Error
	return graduates, err
}

func (r *graduateRepo) List(ctx context.Context, f GraduateFilter, offset, limit int) ([]model.Graduate, int64, error) {
	var graduates []model.Graduate
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Graduate{})
	if f.StageID != nil {
		db = db.Where("stage_id = ?", *f.StageID)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		db = db.Where(
			"LOWER(control_number) LIKE ? OR LOWER(curp) LIKE ? OR LOWER(name) LIKE ? OR LOWER(first_surname) LIKE ?",
			like, like, like, like,
		)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Stage").
		Offset(offset).Limit(limit).
		Order("control_number ASC").
		Find(&graduates).Error; err != nil {
		return nil, 0, err
	}

	return graduates, total, nil
}
