package service

import (
	"context"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"titulacion/config"
	"titulacion/internal/dto"
	"titulacion/internal/model"
	"titulacion/internal/repository"
	"titulacion/internal/workflow"
	"titulacion/pkg/jwt"
)

// Service aggregate of every business service
type Service struct {
	Auth         AuthService
	Registration RegistrationService
	Graduate     GraduateService
	Review       ReviewService
	Import       ImportService
	Generator    GeneratorService
	Export       ExportService
	Catalog      CatalogService
}

// ── collaborators ──

// TokenIssuer signs token pairs
type TokenIssuer interface {
	GenerateAccessToken(accountID, role, identityKey string) (string, error)
	GenerateRefreshToken(accountID, role, identityKey string, rememberMe bool) (string, error)
}

// TokenManager issues and parses tokens
type TokenManager interface {
	TokenIssuer
	ParseToken(token string) (*jwt.Claims, error)
}

// TokenBlacklist revoked token store; nil disables revocation
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// FileStore document storage
type FileStore interface {
	EnsureGraduateDir(controlNumber string) error
	Save(controlNumber, documentKey, originalName string, size int64, src io.Reader) (string, error)
	Open(rel string) (*os.File, error)
	Remove(rel string) error
}

// Upload one incoming file keyed by document type
type Upload struct {
	Key      string
	Filename string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

// Deps everything NewService needs
type Deps struct {
	Config    *config.Config
	Repo      *repository.Repository
	Machine   *workflow.Machine
	Tokens    TokenManager
	Blacklist TokenBlacklist
	Files     FileStore
	Logger    *zap.Logger
}

// NewService wires every service
func NewService(d Deps) *Service {
	mover := newStageMover(d.Machine, d.Logger)
	return &Service{
		Auth:         NewAuthService(d.Config, d.Repo, d.Tokens, d.Blacklist, d.Logger),
		Registration: NewRegistrationService(d.Config, d.Repo, d.Tokens, d.Files, d.Logger),
		Graduate:     NewGraduateService(d.Repo, mover, d.Files, d.Logger),
		Review:       NewReviewService(d.Config, d.Repo, mover, d.Files, d.Logger),
		Import:       NewImportService(d.Config, d.Repo, d.Machine, d.Files, d.Logger),
		Generator:    NewGeneratorService(d.Config, d.Repo, d.Logger),
		Export:       NewExportService(d.Repo, d.Machine, d.Logger),
		Catalog:      NewCatalogService(d.Repo, d.Machine, mover, d.Files, d.Logger),
	}
}

// ── conversions ──

const timeLayout = time.RFC3339

func toStageResponse(s *model.Stage) *dto.StageResponse {
	if s == nil {
		return nil
	}
	return &dto.StageResponse{
		ID:          s.ID,
		Order:       s.Order,
		Name:        s.Name,
		Title:       s.Title,
		Description: s.Description,
	}
}

func toGraduateSummary(g *model.Graduate) dto.GraduateSummary {
	return dto.GraduateSummary{
		CURP:          g.IdentityKey,
		ControlNumber: g.ControlNumber,
		FullName:      g.FullName(),
		Gender:        g.Gender,
		HasAccount:    g.HasAccount(),
		Stage:         toStageResponse(g.Stage),
	}
}

func toDocumentTypeResponse(d *model.DocumentType) dto.DocumentTypeResponse {
	return dto.DocumentTypeResponse{
		ID:                 d.ID,
		Key:                d.Key,
		Title:              d.Title,
		Description:        d.Description,
		AcceptedExtensions: d.Extensions(),
	}
}

func toSubmissionResponse(d *model.SubmittedDocument) dto.SubmissionResponse {
	key := ""
	if d.DocumentType != nil {
		key = d.DocumentType.Key
	}
	return dto.SubmissionResponse{
		ID:          d.ID,
		DocumentKey: key,
		File:        d.File,
		Status:      d.Status,
		Notes:       d.Notes,
		SubmittedAt: d.SubmittedAt.Format(timeLayout),
		UpdatedAt:   d.UpdatedAt.Format(timeLayout),
	}
}

// storeUploads saves each upload and records it; returns stored paths so a
// failed transaction can remove them
func storeUploads(ctx context.Context, tx *repository.Repository, files FileStore, g *model.Graduate, uploads []Upload, types map[string]*model.DocumentType, status string) ([]string, error) {
	var stored []string
	for _, up := range uploads {
		dt, ok := types[up.Key]
		if !ok {
			continue
		}
		rel, err := saveUpload(files, g.ControlNumber, up)
		if err != nil {
			return stored, err
		}
		stored = append(stored, rel)

		doc := &model.SubmittedDocument{
			GraduateID:     g.IdentityKey,
			DocumentTypeID: dt.ID,
			File:           rel,
			Status:         status,
		}
		if err := tx.Document.Create(ctx, doc); err != nil {
			return stored, err
		}
	}
	return stored, nil
}

func saveUpload(files FileStore, controlNumber string, up Upload) (string, error) {
	if err := files.EnsureGraduateDir(controlNumber); err != nil {
		return "", err
	}
	src, err := up.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()
	return files.Save(controlNumber, up.Key, up.Filename, up.Size, src)
}

func removeFiles(files FileStore, paths []string, logger *zap.Logger) {
	for _, p := range paths {
		if err := files.Remove(p); err != nil {
			logger.Warn("remove orphaned upload failed", zap.String("file", p), zap.Error(err))
		}
	}
}
