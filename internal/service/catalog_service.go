package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"titulacion/internal/dto"
	"titulacion/internal/model"
	"titulacion/internal/repository"
	"titulacion/internal/workflow"
)

var (
	ErrPlanGroupNotFound     = errors.New("el grupo de planes no existe")
	ErrTitlingOptionNotFound = errors.New("la opción de titulación no existe")
	ErrStageNotFound         = errors.New("la etapa no existe")
)

// CatalogService stages, taxonomies and staff edits of graduate records
type CatalogService interface {
	ListStages(ctx context.Context) []dto.StageResponse

	ListPlanGroups(ctx context.Context) ([]model.PlanGroup, error)
	CreatePlanGroup(ctx context.Context, req *dto.CreatePlanGroupRequest) (*model.PlanGroup, error)
	CreatePlan(ctx context.Context, groupID uint, req *dto.CreatePlanRequest) (*model.Plan, error)
	ListTitlingOptions(ctx context.Context) ([]model.TitlingOption, error)
	CreateTitlingOption(ctx context.Context, req *dto.CreateTitlingOptionRequest) (*model.TitlingOption, error)

	ListGraduates(ctx context.Context, req *dto.GraduateListRequest) ([]dto.GraduateSummary, int64, error)
	UpdateGraduate(ctx context.Context, controlNumber string, req *dto.UpdateGraduateRequest) (*dto.GraduateProfileResponse, error)
	AdvanceGraduate(ctx context.Context, controlNumber string) (*dto.StageMoveResponse, error)
	// RetreatGraduate from the first stage deletes the graduate's account
	RetreatGraduate(ctx context.Context, controlNumber string) (*dto.StageMoveResponse, error)
}

type catalogService struct {
	repo    *repository.Repository
	machine *workflow.Machine
	mover   *stageMover
	files   FileStore
	logger  *zap.Logger
}

// NewCatalogService creates the CatalogService
func NewCatalogService(repo *repository.Repository, machine *workflow.Machine, mover *stageMover, files FileStore, logger *zap.Logger) CatalogService {
	return &catalogService{repo: repo, machine: machine, mover: mover, files: files, logger: logger}
}

// ────────────────────── stages ──────────────────────

func (s *catalogService) ListStages(_ context.Context) []dto.StageResponse {
	stages := s.machine.Stages()
	out := make([]dto.StageResponse, 0, len(stages))
	for i := range stages {
		out = append(out, *toStageResponse(&stages[i]))
	}
	return out
}

// ────────────────────── taxonomies ──────────────────────

func (s *catalogService) ListPlanGroups(ctx context.Context) ([]model.PlanGroup, error) {
	return s.repo.PlanGroup.List(ctx)
}

func (s *catalogService) CreatePlanGroup(ctx context.Context, req *dto.CreatePlanGroupRequest) (*model.PlanGroup, error) {
	g := &model.PlanGroup{Name: req.Name, Description: req.Description}
	if err := s.repo.PlanGroup.Create(ctx, g); err != nil {
		s.logger.Error("create plan group failed", zap.Error(err))
		return nil, err
	}
	return g, nil
}

func (s *catalogService) CreatePlan(ctx context.Context, groupID uint, req *dto.CreatePlanRequest) (*model.Plan, error) {
	if _, err := s.repo.PlanGroup.GetByID(ctx, groupID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanGroupNotFound
		}
		return nil, err
	}
	p := &model.Plan{Name: req.Name, Description: req.Description, PlanGroupID: groupID}
	if err := s.repo.PlanGroup.CreatePlan(ctx, p); err != nil {
		s.logger.Error("create plan failed", zap.Error(err))
		return nil, err
	}
	return p, nil
}

func (s *catalogService) ListTitlingOptions(ctx context.Context) ([]model.TitlingOption, error) {
	return s.repo.TitlingOption.List(ctx)
}

func (s *catalogService) CreateTitlingOption(ctx context.Context, req *dto.CreateTitlingOptionRequest) (*model.TitlingOption, error) {
	o := &model.TitlingOption{Name: req.Name, Description: req.Description}
	if err := s.repo.TitlingOption.Create(ctx, o); err != nil {
		s.logger.Error("create titling option failed", zap.Error(err))
		return nil, err
	}
	return o, nil
}

// ────────────────────── graduates ──────────────────────

func (s *catalogService) ListGraduates(ctx context.Context, req *dto.GraduateListRequest) ([]dto.GraduateSummary, int64, error) {
	filter := repository.GraduateFilter{Search: req.Search}
	if req.Stage != "" {
		st, ok := s.machine.ByName(req.Stage)
		if !ok {
			return nil, 0, ErrStageNotFound
		}
		filter.StageID = &st.ID
	}

	graduates, total, err := s.repo.Graduate.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("list graduates failed", zap.Error(err))
		return nil, 0, err
	}
	out := make([]dto.GraduateSummary, 0, len(graduates))
	for i := range graduates {
		out = append(out, toGraduateSummary(&graduates[i]))
	}
	return out, total, nil
}

func (s *catalogService) UpdateGraduate(ctx context.Context, controlNumber string, req *dto.UpdateGraduateRequest) (*dto.GraduateProfileResponse, error) {
	g, err := s.repo.Graduate.GetByControlNumber(ctx, controlNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGraduateNotFound
		}
		return nil, err
	}

	if req.GraduationYear != nil {
		g.GraduationYear = req.GraduationYear
	}
	if req.GraduationPeriod != nil {
		g.GraduationPeriod = req.GraduationPeriod
	}
	if req.PlanGroupID != nil {
		pg, err := s.repo.PlanGroup.GetByID(ctx, *req.PlanGroupID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrPlanGroupNotFound
			}
			return nil, err
		}
		g.PlanGroupID = &pg.ID
		g.PlanGroup = pg
	}
	if req.TitlingOptionID != nil {
		opt, err := s.repo.TitlingOption.GetByID(ctx, *req.TitlingOptionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrTitlingOptionNotFound
			}
			return nil, err
		}
		g.TitlingOptionID = &opt.ID
		g.TitlingOption = opt
	}

	if err := s.repo.Graduate.Update(ctx, g); err != nil {
		s.logger.Error("update graduate failed", zap.String("control_number", controlNumber), zap.Error(err))
		return nil, err
	}
	// every saved graduate has a folder
	if err := s.files.EnsureGraduateDir(g.ControlNumber); err != nil {
		s.logger.Warn("create graduate folder failed", zap.String("control_number", g.ControlNumber), zap.Error(err))
	}
	return toGraduateProfile(g), nil
}

func (s *catalogService) AdvanceGraduate(ctx context.Context, controlNumber string) (*dto.StageMoveResponse, error) {
	return s.move(ctx, controlNumber, s.mover.advance)
}

func (s *catalogService) RetreatGraduate(ctx context.Context, controlNumber string) (*dto.StageMoveResponse, error) {
	return s.move(ctx, controlNumber, s.mover.retreat)
}

type moveFunc func(ctx context.Context, tx *repository.Repository, g *model.Graduate) (workflow.Step, error)

func (s *catalogService) move(ctx context.Context, controlNumber string, fn moveFunc) (*dto.StageMoveResponse, error) {
	var (
		g    *model.Graduate
		step workflow.Step
	)
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		g, err = tx.Graduate.GetByControlNumber(ctx, controlNumber)
		if err != nil {
			return err
		}
		step, err = fn(ctx, tx, g)
		return err
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGraduateNotFound
		}
		s.logger.Error("manual stage move failed", zap.String("control_number", controlNumber), zap.Error(err))
		return nil, err
	}
	return &dto.StageMoveResponse{Move: step.Move.String(), Graduate: toGraduateSummary(g)}, nil
}
