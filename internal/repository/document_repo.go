package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"titulacion/internal/model"
)

// DocumentTypeRepository document type catalog
type DocumentTypeRepository interface {
	List(ctx context.Context) ([]model.DocumentType, error)
	GetByKey(ctx context.Context, key string) (*model.DocumentType, error)
	Create(ctx context.Context, dt *model.DocumentType) error
}

type documentTypeRepo struct {
	db *gorm.DB
}

// NewDocumentTypeRepo creates a DocumentTypeRepository
func NewDocumentTypeRepo(db *gorm.DB) DocumentTypeRepository {
	return &documentTypeRepo{db: db}
}

func (r *documentTypeRepo) List(ctx context.Context) ([]model.DocumentType, error) {
	var types []model.DocumentType
	err := r.db.WithContext(ctx).Order("id ASC").Find(&types).Error
	return types, err
}

func (r *documentTypeRepo) GetByKey(ctx context.Context, key string) (*model.DocumentType, error) {
	var dt model.DocumentType
	if err := r.db.WithContext(ctx).Where("doc_key = ?", key).First(&dt).Error; err != nil {
		return nil, err
	}
	return &dt, nil
}

func (r *documentTypeRepo) Create(ctx context.Context, dt *model.DocumentType) error {
	return r.db.WithContext(ctx).Create(dt).Error
}

// DocumentRepository submitted documents.
// Rows are only appended; review edits status and notes in place.
type DocumentRepository interface {
	Create(ctx context.Context, doc *model.SubmittedDocument) error
	GetByID(ctx context.Context, id uint) (*model.SubmittedDocument, error)
	UpdateReview(ctx context.Context, id uint, status, notes string) error
	// LatestByGraduates most recent submission per (graduate, type), keyed by CURP
	LatestByGraduates(ctx context.Context, keys []string) (map[string][]model.SubmittedDocument, error)
	ListByGraduate(ctx context.Context, key string) ([]model.SubmittedDocument, error)
}

type documentRepo struct {
	db *gorm.DB
}

// NewDocumentRepo creates a DocumentRepository
func NewDocumentRepo(db *gorm.DB) DocumentRepository {
	return &documentRepo{db: db}
}

func (r *documentRepo) Create(ctx context.Context, doc *model.SubmittedDocument) error {
	if doc.SubmittedAt.IsZero() {
		doc.SubmittedAt = time.Now()
	}
	if doc.Status == "" {
		doc.Status = model.StatusPending
	}
	return r.db.WithContext(ctx).Omit("Graduate", "DocumentType").Create(doc).Error
}

func (r *documentRepo) GetByID(ctx context.Context, id uint) (*model.SubmittedDocument, error) {
	var doc model.SubmittedDocument
	err := r.db.WithContext(ctx).
		Preload("DocumentType").
		Preload("Graduate").
		Where("id = ?", id).
		First(&doc).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepo) UpdateReview(ctx context.Context, id uint, status, notes string) error {
	return r.db.WithContext(ctx).
		Model(&model.SubmittedDocument{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"notes":      notes,
			"updated_at": time.Now(),
		}).Error
}

func (r *documentRepo) ListByGraduate(ctx context.Context, key string) ([]model.SubmittedDocument, error) {
	var docs []model.SubmittedDocument
	err := r.db.WithContext(ctx).
		Preload("DocumentType").
		Where("graduate_curp = ?", key).
		Order("submitted_at DESC, id DESC").
		Find(&docs).Error
	return docs, err
}

func (r *documentRepo) LatestByGraduates(ctx context.Context, keys []string) (map[string][]model.SubmittedDocument, error) {
	out := make(map[string][]model.SubmittedDocument, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	var docs []model.SubmittedDocument
	err := r.db.WithContext(ctx).
		Preload("DocumentType").
		Where("graduate_curp IN ?", keys).
		Order("graduate_curp ASC, submitted_at DESC, id DESC").
		Find(&docs).Error
	if err != nil {
		return nil, err
	}

	type pair struct {
		graduate string
		docType  uint
	}
	seen := make(map[pair]bool, len(docs))
	for _, d := range docs {
		p := pair{d.GraduateID, d.DocumentTypeID}
		if seen[p] {
			continue
		}
		seen[p] = true
		out[d.GraduateID] = append(out[d.GraduateID], d)
	}
	return out, nil
}
