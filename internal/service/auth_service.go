package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"titulacion/config"
	"titulacion/internal/dto"
	"titulacion/internal/model"
	"titulacion/internal/repository"
	"titulacion/pkg/jwt"
)

var (
	ErrInvalidCredentials = errors.New("usuario o contraseña incorrectos")
	ErrGraduateLogin      = errors.New("CURP o correo incorrectos")
	ErrNotStaff           = errors.New("la cuenta no pertenece a servicios escolares")
	ErrNotGraduate        = errors.New("la cuenta no pertenece a egresados")
	ErrAccountNotFound    = errors.New("la cuenta no existe")
	ErrRefreshInvalid     = errors.New("refresh token inválido o expirado")
	ErrTokenRevoked       = errors.New("token revocado")
)

// AuthService staff and graduate authentication
type AuthService interface {
	StaffLogin(ctx context.Context, req *dto.StaffLoginRequest) (*dto.TokenResponse, error)
	GraduateLogin(ctx context.Context, req *dto.GraduateLoginRequest) (*dto.TokenResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	// Logout revokes the access token jti and, when given, the refresh token
	Logout(ctx context.Context, jti string, exp time.Time, refreshToken string) error
}

type authService struct {
	cfg       *config.Config
	repo      *repository.Repository
	tokens    TokenManager
	blacklist TokenBlacklist
	logger    *zap.Logger
}

// NewAuthService creates the AuthService
func NewAuthService(
	cfg *config.Config,
	repo *repository.Repository,
	tokens TokenManager,
	blacklist TokenBlacklist,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:       cfg,
		repo:      repo,
		tokens:    tokens,
		blacklist: blacklist,
		logger:    logger,
	}
}

// ────────────────────── StaffLogin ──────────────────────

func (s *authService) StaffLogin(ctx context.Context, req *dto.StaffLoginRequest) (*dto.TokenResponse, error) {
	account, err := s.repo.Account.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("load account failed", zap.Error(err))
		return nil, err
	}

	if !account.HasUsablePassword() {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !account.InGroup(s.cfg.Workflow.StaffGroup) {
		return nil, ErrNotStaff
	}

	return issueTokens(s.tokens, s.cfg, account, model.RoleStaff, nil, req.RememberMe)
}

// ────────────────────── GraduateLogin ──────────────────────

func (s *authService) GraduateLogin(ctx context.Context, req *dto.GraduateLoginRequest) (*dto.TokenResponse, error) {
	account, graduate, err := authenticateGraduate(ctx, s.repo, s.cfg.Workflow.GraduateGroup, req.CURP, req.Email)
	if err != nil {
		if !errors.Is(err, ErrGraduateLogin) && !errors.Is(err, ErrNotGraduate) {
			s.logger.Error("graduate login failed", zap.Error(err))
		}
		return nil, err
	}
	return issueTokens(s.tokens, s.cfg, account, model.RoleGraduate, graduate, req.RememberMe)
}

// authenticateGraduate matches identity key + email against the graduate and
// its linked account. repo may be transaction-scoped.
func authenticateGraduate(ctx context.Context, repo *repository.Repository, graduateGroup, curp, email string) (*model.Account, *model.Graduate, error) {
	curp = strings.TrimSpace(curp)
	email = strings.TrimSpace(email)
	if curp == "" || email == "" {
		return nil, nil, ErrGraduateLogin
	}

	graduate, err := repo.Graduate.GetByIdentityKey(ctx, curp)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrGraduateLogin
		}
		return nil, nil, err
	}
	if !graduate.HasAccount() {
		return nil, nil, ErrGraduateLogin
	}

	account, err := repo.Account.GetByID(ctx, *graduate.AccountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrGraduateLogin
		}
		return nil, nil, err
	}
	if !strings.EqualFold(account.Email, email) {
		return nil, nil, ErrGraduateLogin
	}
	if !account.InGroup(graduateGroup) {
		return nil, nil, ErrNotGraduate
	}
	return account, graduate, nil
}

// ────────────────────── RefreshToken ──────────────────────

func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	if refreshToken == "" {
		return nil, ErrRefreshInvalid
	}
	claims, err := s.tokens.ParseToken(refreshToken)
	if err != nil || claims.TokenType != jwt.TokenTypeRefresh {
		return nil, ErrRefreshInvalid
	}

	if s.blacklist != nil {
		revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			// redis down: keep serving
			s.logger.Warn("blacklist check failed", zap.Error(err))
		} else if revoked {
			return nil, ErrTokenRevoked
		}
	}

	account, err := s.repo.Account.GetByID(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		s.logger.Error("load account failed", zap.Error(err))
		return nil, err
	}

	switch {
	case account.InGroup(s.cfg.Workflow.StaffGroup):
		return issueTokens(s.tokens, s.cfg, account, model.RoleStaff, nil, claims.RememberMe)
	case account.InGroup(s.cfg.Workflow.GraduateGroup):
		graduate, err := s.repo.Graduate.GetByAccountID(ctx, account.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrAccountNotFound
			}
			return nil, err
		}
		return issueTokens(s.tokens, s.cfg, account, model.RoleGraduate, graduate, claims.RememberMe)
	default:
		return nil, ErrRefreshInvalid
	}
}

// ────────────────────── Logout ──────────────────────

func (s *authService) Logout(ctx context.Context, jti string, exp time.Time, refreshToken string) error {
	if s.blacklist == nil {
		return nil
	}
	if jti != "" {
		if err := s.blacklist.BlacklistToken(ctx, jti, time.Until(exp)); err != nil {
			s.logger.Warn("blacklist access token failed", zap.Error(err))
		}
	}
	if refreshToken != "" {
		if claims, err := s.tokens.ParseToken(refreshToken); err == nil {
			if err := s.blacklist.BlacklistToken(ctx, claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
				s.logger.Warn("blacklist refresh token failed", zap.Error(err))
			}
		}
	}
	return nil
}

// ── helpers ──

func issueTokens(tokens TokenIssuer, cfg *config.Config, account *model.Account, role string, graduate *model.Graduate, rememberMe bool) (*dto.TokenResponse, error) {
	identityKey := ""
	if graduate != nil {
		identityKey = graduate.IdentityKey
	}

	access, err := tokens.GenerateAccessToken(account.ID, role, identityKey)
	if err != nil {
		return nil, err
	}
	refresh, err := tokens.GenerateRefreshToken(account.ID, role, identityKey, rememberMe)
	if err != nil {
		return nil, err
	}

	resp := &dto.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(cfg.Auth.AccessTokenTTL.Seconds()),
		RememberMe:   rememberMe,
		Account: dto.AccountResponse{
			ID:        account.ID,
			Username:  account.Username,
			Email:     account.Email,
			FirstName: account.FirstName,
			LastName:  account.LastName,
			Role:      role,
		},
	}
	if graduate != nil {
		summary := toGraduateSummary(graduate)
		resp.Graduate = &summary
	}
	return resp, nil
}
