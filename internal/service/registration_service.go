package service

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"titulacion/config"
	"titulacion/internal/dto"
	"titulacion/internal/model"
	"titulacion/internal/repository"
	apperrors "titulacion/pkg/errors"
)

var (
	ErrGraduateNotFound     = errors.New("no existe un egresado con esa CURP")
	ErrIdentityRegistered   = errors.New("esa CURP ya tiene una cuenta registrada")
	ErrEmailRegistered      = errors.New("ese correo ya está registrado")
	ErrIdentityFileRequired = errors.New("se requiere el archivo de identificación")
	ErrExtensionNotAllowed  = errors.New("tipo de archivo no permitido")
)

// RegistrationService graduate self-registration
type RegistrationService interface {
	// Register creates the account, records the identity document, moves the
	// graduate to the intake stage and logs in, all in one transaction.
	Register(ctx context.Context, req *dto.RegisterRequest, identity *Upload) (*dto.TokenResponse, error)
}

type registrationService struct {
	cfg    *config.Config
	repo   *repository.Repository
	tokens TokenIssuer
	files  FileStore
	logger *zap.Logger
}

// NewRegistrationService creates the RegistrationService
func NewRegistrationService(
	cfg *config.Config,
	repo *repository.Repository,
	tokens TokenIssuer,
	files FileStore,
	logger *zap.Logger,
) RegistrationService {
	return &registrationService{
		cfg:    cfg,
		repo:   repo,
		tokens: tokens,
		files:  files,
		logger: logger,
	}
}

// ────────────────────── Register ──────────────────────

func (s *registrationService) Register(ctx context.Context, req *dto.RegisterRequest, identity *Upload) (*dto.TokenResponse, error) {
	curp := strings.TrimSpace(req.CURP)
	email := strings.TrimSpace(req.Email)

	// 1. validation, nothing written yet
	graduate, err := s.repo.Graduate.GetByIdentityKey(ctx, curp)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGraduateNotFound
		}
		s.logger.Error("load graduate failed", zap.String("curp", curp), zap.Error(err))
		return nil, err
	}

	if exists, err := s.repo.Account.ExistsByUsername(ctx, curp); err != nil {
		return nil, err
	} else if exists {
		return nil, ErrIdentityRegistered
	}
	if exists, err := s.repo.Account.ExistsByEmail(ctx, email); err != nil {
		return nil, err
	} else if exists {
		return nil, ErrEmailRegistered
	}
	if identity == nil || identity.Open == nil {
		return nil, ErrIdentityFileRequired
	}

	wf := s.cfg.Workflow
	var (
		stored []string
		result *dto.TokenResponse
	)

	// 2. everything below commits or rolls back together
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		group, err := tx.Group.GetByName(ctx, wf.GraduateGroup)
		if err != nil {
			return lookupError("group", wf.GraduateGroup, err)
		}
		stage, err := tx.Stage.GetByName(ctx, wf.IntakeStage)
		if err != nil {
			return lookupError("stage", wf.IntakeStage, err)
		}
		docType, err := tx.DocumentType.GetByKey(ctx, wf.IdentityDocumentKey)
		if err != nil {
			return lookupError("document type", wf.IdentityDocumentKey, err)
		}
		if !docType.Accepts(filepath.Ext(identity.Filename)) {
			return ErrExtensionNotAllowed
		}

		account := &model.Account{
			Username:  curp,
			Email:     email,
			FirstName: graduate.Name,
			LastName:  surnames(graduate),
		}
		if err := tx.Account.Create(ctx, account); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errAccountTaken
			}
			return err
		}
		if err := tx.Account.AddGroup(ctx, account, group); err != nil {
			return err
		}

		up := *identity
		up.Key = docType.Key
		stored, err = storeUploads(ctx, tx, s.files, graduate,
			[]Upload{up}, map[string]*model.DocumentType{docType.Key: docType}, model.StatusPending)
		if err != nil {
			return err
		}

		if err := tx.Graduate.SetStage(ctx, graduate.IdentityKey, &stage.ID); err != nil {
			return err
		}
		if err := tx.Graduate.LinkAccount(ctx, graduate.IdentityKey, account.ID); err != nil {
			return err
		}

		// log in through the same transaction; failure undoes the registration
		loggedIn, g, err := authenticateGraduate(ctx, tx, wf.GraduateGroup, curp, email)
		if err != nil {
			return err
		}
		result, err = issueTokens(s.tokens, s.cfg, loggedIn, model.RoleGraduate, g, false)
		return err
	})
	if err != nil {
		removeFiles(s.files, stored, s.logger)
		if errors.Is(err, errAccountTaken) {
			return nil, s.accountConflict(ctx, curp)
		}
		if errors.Is(err, apperrors.ErrConfiguration) {
			s.logger.Error("registration aborted: missing configuration", zap.Error(err))
		} else if !errors.Is(err, ErrExtensionNotAllowed) {
			s.logger.Error("registration rolled back", zap.String("curp", curp), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("graduate registered", zap.String("curp", curp), zap.String("control_number", graduate.ControlNumber))
	return result, nil
}

// errAccountTaken a concurrent registration won the unique constraint
var errAccountTaken = errors.New("account already exists")

// accountConflict names the unique key a lost insert collided with
func (s *registrationService) accountConflict(ctx context.Context, curp string) error {
	exists, err := s.repo.Account.ExistsByUsername(ctx, curp)
	if err != nil {
		return err
	}
	if exists {
		return ErrIdentityRegistered
	}
	return ErrEmailRegistered
}

// lookupError turns a missing row the workflow depends on into a configuration error
func lookupError(entity, key string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NewConfigurationError(entity, key, err)
	}
	return err
}

func surnames(g *model.Graduate) string {
	s := g.Surname1
	if g.Surname2 != nil && *g.Surname2 != "" {
		s += " " + *g.Surname2
	}
	return s
}
