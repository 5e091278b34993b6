package service

import (
	"context"
	"errors"
	"mime"
	"os"
	"path"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"titulacion/config"
	"titulacion/internal/dto"
	"titulacion/internal/model"
	"titulacion/internal/repository"
	"titulacion/internal/workflow"
	"titulacion/pkg/sanitize"
)

var (
	ErrInvalidStatus    = errors.New("estado de documento no válido")
	ErrDocumentNotFound = errors.New("el documento no existe")
)

// StatusUpdate staff decision on one submitted document
type StatusUpdate struct {
	DocumentID uint
	Status     string
	Notes      []string
}

// ReviewSubmission one review form for one graduate
type ReviewSubmission struct {
	ControlNumber string
	Statuses      []StatusUpdate
	Uploads       []Upload // staff uploads are recorded as accepted
}

// DocumentFile an opened stored file; the caller closes Content
type DocumentFile struct {
	Filename    string
	Size        int64
	ContentType string
	Content     *os.File
}

// ReviewService staff review of submitted documents
type ReviewService interface {
	Board(ctx context.Context) (*dto.ReviewBoardResponse, error)
	// SubmitReview applies statuses and uploads, then advances the graduate
	// when nothing was rejected or retreats otherwise. A rejection that lands
	// the graduate on the first review stage retreats once more.
	SubmitReview(ctx context.Context, in *ReviewSubmission) (*dto.ReviewResult, error)
	BatchAdvance(ctx context.Context, controlNumbers []string) (*dto.BatchAdvanceResponse, error)
	DocumentFile(ctx context.Context, id uint) (*DocumentFile, error)
}

type reviewService struct {
	cfg    *config.Config
	repo   *repository.Repository
	mover  *stageMover
	files  FileStore
	logger *zap.Logger
}

// NewReviewService creates the ReviewService
func NewReviewService(cfg *config.Config, repo *repository.Repository, mover *stageMover, files FileStore, logger *zap.Logger) ReviewService {
	return &reviewService{cfg: cfg, repo: repo, mover: mover, files: files, logger: logger}
}

// ────────────────────── Board ──────────────────────

func (s *reviewService) Board(ctx context.Context) (*dto.ReviewBoardResponse, error) {
	return buildBoard(ctx, s.repo, s.mover.machine)
}

func buildBoard(ctx context.Context, repo *repository.Repository, machine *workflow.Machine) (*dto.ReviewBoardResponse, error) {
	var (
		stages []*model.Stage
		ids    []uint
	)
	for _, name := range workflow.ReviewStages() {
		if st, ok := machine.ByName(name); ok {
			stages = append(stages, st)
			ids = append(ids, st.ID)
		}
	}

	graduates, err := repo.Graduate.ListByStageIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(graduates))
	for _, g := range graduates {
		keys = append(keys, g.IdentityKey)
	}
	latest, err := repo.Document.LatestByGraduates(ctx, keys)
	if err != nil {
		return nil, err
	}

	byStage := make(map[uint][]dto.BoardGraduate)
	for i := range graduates {
		g := &graduates[i]
		docs := make([]dto.SubmissionResponse, 0, len(latest[g.IdentityKey]))
		present := make(map[string]bool)
		for j := range latest[g.IdentityKey] {
			d := &latest[g.IdentityKey][j]
			docs = append(docs, toSubmissionResponse(d))
			if d.DocumentType != nil {
				present[d.DocumentType.Key] = true
			}
		}
		missing := []string{}
		if g.Stage != nil {
			if m := workflow.Missing(g.Stage.Name, present); m != nil {
				missing = m
			}
		}
		byStage[*g.StageID] = append(byStage[*g.StageID], dto.BoardGraduate{
			GraduateSummary: toGraduateSummary(g),
			Documents:       docs,
			Missing:         missing,
		})
	}

	resp := &dto.ReviewBoardResponse{Stages: make([]dto.BoardStage, 0, len(stages))}
	for _, st := range stages {
		rows := byStage[st.ID]
		if rows == nil {
			rows = []dto.BoardGraduate{}
		}
		resp.Stages = append(resp.Stages, dto.BoardStage{
			Stage:     *toStageResponse(st),
			Required:  workflow.Requirements(st.Name),
			Graduates: rows,
		})
	}
	return resp, nil
}

// ────────────────────── SubmitReview ──────────────────────

func (s *reviewService) SubmitReview(ctx context.Context, in *ReviewSubmission) (*dto.ReviewResult, error) {
	for _, st := range in.Statuses {
		if !model.ValidStatus(st.Status) {
			return nil, ErrInvalidStatus
		}
	}

	g, err := s.repo.Graduate.GetByControlNumber(ctx, in.ControlNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGraduateNotFound
		}
		s.logger.Error("load graduate failed", zap.String("control_number", in.ControlNumber), zap.Error(err))
		return nil, err
	}

	result := &dto.ReviewResult{Moves: []string{}}
	var stored []string

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		// statuses
		for _, st := range in.Statuses {
			if st.Status == model.StatusRejected {
				result.Rejected = true
			}
			doc, err := tx.Document.GetByID(ctx, st.DocumentID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					result.Skipped++
					continue
				}
				return err
			}
			if doc.GraduateID != g.IdentityKey {
				result.Skipped++
				continue
			}
			if err := tx.Document.UpdateReview(ctx, doc.ID, st.Status, sanitize.JoinNotes(st.Notes)); err != nil {
				return err
			}
			result.Updated++
		}

		// staff uploads
		types := make(map[string]*model.DocumentType)
		var known []Upload
		for _, up := range in.Uploads {
			dt, err := tx.DocumentType.GetByKey(ctx, up.Key)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					result.Skipped++
					continue
				}
				return err
			}
			types[dt.Key] = dt
			known = append(known, up)
		}
		var err error
		stored, err = storeUploads(ctx, tx, s.files, g, known, types, model.StatusAccepted)
		if err != nil {
			return err
		}
		result.Uploaded = len(stored)

		// stage
		if !result.Rejected {
			step, err := s.mover.advance(ctx, tx, g)
			if err != nil {
				return err
			}
			result.Moves = append(result.Moves, step.Move.String())
			return nil
		}

		step, err := s.mover.retreat(ctx, tx, g)
		if err != nil {
			return err
		}
		result.Moves = append(result.Moves, step.Move.String())
		if step.Move == workflow.MoveTo && step.Stage.Name == s.cfg.Workflow.FirstReviewStage {
			step, err = s.mover.retreat(ctx, tx, g)
			if err != nil {
				return err
			}
			result.Moves = append(result.Moves, step.Move.String())
		}
		return nil
	})
	if err != nil {
		removeFiles(s.files, stored, s.logger)
		s.logger.Error("review rolled back", zap.String("control_number", in.ControlNumber), zap.Error(err))
		return nil, err
	}

	result.Graduate = toGraduateSummary(g)
	return result, nil
}

// ────────────────────── BatchAdvance ──────────────────────

func (s *reviewService) BatchAdvance(ctx context.Context, controlNumbers []string) (*dto.BatchAdvanceResponse, error) {
	resp := &dto.BatchAdvanceResponse{}
	seen := make(map[string]bool, len(controlNumbers))

	for _, cn := range controlNumbers {
		if cn == "" || seen[cn] {
			continue
		}
		seen[cn] = true
		resp.Requested++

		err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
			g, err := tx.Graduate.GetByControlNumber(ctx, cn)
			if err != nil {
				return err
			}
			_, err = s.mover.advance(ctx, tx, g)
			return err
		})
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			s.logger.Error("batch advance failed", zap.String("control_number", cn), zap.Error(err))
			return resp, err
		}
		resp.Advanced++
	}
	return resp, nil
}

// ────────────────────── DocumentFile ──────────────────────

func (s *reviewService) DocumentFile(ctx context.Context, id uint) (*DocumentFile, error) {
	doc, err := s.repo.Document.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}

	f, err := s.files.Open(doc.File)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Warn("stored file missing", zap.Uint("document_id", id), zap.String("file", doc.File))
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	name := path.Base(doc.File)
	contentType := mime.TypeByExtension(path.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &DocumentFile{Filename: name, Size: info.Size(), ContentType: contentType, Content: f}, nil
}
