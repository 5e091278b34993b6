package service

import (
	"context"
	"errors"
	"path/filepath"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"titulacion/internal/dto"
	"titulacion/internal/model"
	"titulacion/internal/repository"
	"titulacion/internal/workflow"
)

var (
	ErrNoFiles             = errors.New("no se recibió ningún archivo")
	ErrUnknownDocumentType = errors.New("tipo de documento desconocido")
	ErrNoGraduateForLogin  = errors.New("la cuenta no está vinculada a un egresado")
)

// GraduateService the graduate's own portal
type GraduateService interface {
	Dashboard(ctx context.Context, accountID string) (*dto.DashboardResponse, error)
	// Upload stores every file and then advances the graduate one stage
	Upload(ctx context.Context, accountID string, uploads []Upload) (*dto.UploadResponse, error)
	Profile(ctx context.Context, accountID string) (*dto.GraduateProfileResponse, error)
}

type graduateService struct {
	repo   *repository.Repository
	mover  *stageMover
	files  FileStore
	logger *zap.Logger
}

// NewGraduateService creates the GraduateService
func NewGraduateService(repo *repository.Repository, mover *stageMover, files FileStore, logger *zap.Logger) GraduateService {
	return &graduateService{repo: repo, mover: mover, files: files, logger: logger}
}

func (s *graduateService) graduateFor(ctx context.Context, accountID string) (*model.Graduate, error) {
	g, err := s.repo.Graduate.GetByAccountID(ctx, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoGraduateForLogin
		}
		s.logger.Error("load graduate by account failed", zap.String("account_id", accountID), zap.Error(err))
		return nil, err
	}
	return g, nil
}

// ────────────────────── Dashboard ──────────────────────

func (s *graduateService) Dashboard(ctx context.Context, accountID string) (*dto.DashboardResponse, error) {
	g, err := s.graduateFor(ctx, accountID)
	if err != nil {
		return nil, err
	}

	types, err := s.repo.DocumentType.List(ctx)
	if err != nil {
		return nil, err
	}
	latest, err := s.repo.Document.LatestByGraduates(ctx, []string{g.IdentityKey})
	if err != nil {
		return nil, err
	}
	byType := make(map[uint]*model.SubmittedDocument)
	for i := range latest[g.IdentityKey] {
		d := &latest[g.IdentityKey][i]
		byType[d.DocumentTypeID] = d
	}

	var required []string
	if g.Stage != nil {
		required = workflow.Requirements(g.Stage.Name)
	}
	requiredSet := make(map[string]bool, len(required))
	for _, k := range required {
		requiredSet[k] = true
	}

	present := make(map[string]bool)
	items := make([]dto.DashboardItem, 0, len(types))
	for i := range types {
		dt := &types[i]
		item := dto.DashboardItem{
			DocumentType: toDocumentTypeResponse(dt),
			Required:     requiredSet[dt.Key],
		}
		if d, ok := byType[dt.ID]; ok {
			sub := toSubmissionResponse(d)
			item.Latest = &sub
			present[dt.Key] = true
		}
		items = append(items, item)
	}

	missing := []string{}
	if g.Stage != nil {
		if m := workflow.Missing(g.Stage.Name, present); m != nil {
			missing = m
		}
	}
	if required == nil {
		required = []string{}
	}

	return &dto.DashboardResponse{
		Graduate:  toGraduateSummary(g),
		Required:  required,
		Missing:   missing,
		Documents: items,
	}, nil
}

// ────────────────────── Upload ──────────────────────

func (s *graduateService) Upload(ctx context.Context, accountID string, uploads []Upload) (*dto.UploadResponse, error) {
	if len(uploads) == 0 {
		return nil, ErrNoFiles
	}
	g, err := s.graduateFor(ctx, accountID)
	if err != nil {
		return nil, err
	}

	types := make(map[string]*model.DocumentType, len(uploads))
	for _, up := range uploads {
		dt, err := s.repo.DocumentType.GetByKey(ctx, up.Key)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrUnknownDocumentType
			}
			return nil, err
		}
		if !dt.Accepts(filepath.Ext(up.Filename)) {
			return nil, ErrExtensionNotAllowed
		}
		types[dt.Key] = dt
	}

	var stored []string
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		stored, err = storeUploads(ctx, tx, s.files, g, uploads, types, model.StatusPending)
		if err != nil {
			return err
		}
		_, err = s.mover.advance(ctx, tx, g)
		return err
	})
	if err != nil {
		removeFiles(s.files, stored, s.logger)
		s.logger.Error("graduate upload rolled back", zap.String("control_number", g.ControlNumber), zap.Error(err))
		return nil, err
	}

	return &dto.UploadResponse{Stored: len(stored), Graduate: toGraduateSummary(g)}, nil
}

// ────────────────────── Profile ──────────────────────

func (s *graduateService) Profile(ctx context.Context, accountID string) (*dto.GraduateProfileResponse, error) {
	g, err := s.graduateFor(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return toGraduateProfile(g), nil
}

func toGraduateProfile(g *model.Graduate) *dto.GraduateProfileResponse {
	p := &dto.GraduateProfileResponse{
		GraduateSummary:  toGraduateSummary(g),
		Name:             g.Name,
		FirstSurname:     g.Surname1,
		GraduationYear:   g.GraduationYear,
		GraduationPeriod: g.GraduationPeriod,
	}
	if g.Surname2 != nil {
		p.SecondSurname = *g.Surname2
	}
	if g.PlanGroup != nil {
		p.PlanGroup = &dto.NamedRef{ID: g.PlanGroup.ID, Name: g.PlanGroup.Name}
	}
	if g.TitlingOption != nil {
		p.TitlingOption = &dto.NamedRef{ID: g.TitlingOption.ID, Name: g.TitlingOption.Name}
	}
	return p
}
