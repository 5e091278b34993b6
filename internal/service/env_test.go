package service

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"titulacion/config"
	"titulacion/internal/dto"
	"titulacion/internal/model"
	"titulacion/internal/repository"
	"titulacion/internal/seed"
	"titulacion/internal/workflow"
	"titulacion/pkg/database"
	"titulacion/pkg/jwt"
	"titulacion/pkg/storage"
)

// ── test environment: SQLite in memory + seeded catalog + temp media root ──

type testEnv struct {
	cfg       *config.Config
	db        *gorm.DB
	repo      *repository.Repository
	machine   *workflow.Machine
	files     *storage.Storage
	mediaRoot string
	tokens    *jwt.Manager
	svc       *Service
}

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:               "service-test-secret-0123456789",
			AccessTokenTTL:          15 * time.Minute,
			RefreshTokenTTLDefault:  24 * time.Hour,
			RefreshTokenTTLRemember: 7 * 24 * time.Hour,
		},
		Storage: config.StorageConfig{MaxFileSize: 1 << 20},
		Workflow: config.WorkflowConfig{
			IntakeStage:         "identificacion_se",
			FirstReviewStage:    "revision_se",
			IdentityDocumentKey: "id",
			StaffGroup:          "servicios_escolares",
			GraduateGroup:       "egresados",
		},
		Import: config.ImportConfig{MaxRows: 1000},
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := database.AutoMigrate(db); err != nil {
		t.Fatal(err)
	}

	repo := repository.NewRepository(db)
	catalog, err := seed.Default()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := seed.Run(ctx, repo, catalog, "user4life", zap.NewNop()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	stages, err := repo.Stage.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	machine, err := workflow.NewMachine(stages)
	if err != nil {
		t.Fatal(err)
	}

	root := t.TempDir()
	files, err := storage.New(root, 1<<20)
	if err != nil {
		t.Fatal(err)
	}

	cfg := testConfig()
	tokens := jwt.NewManager(&cfg.Auth)
	env := &testEnv{
		cfg:       cfg,
		db:        db,
		repo:      repo,
		machine:   machine,
		files:     files,
		mediaRoot: root,
		tokens:    tokens,
	}
	env.svc = NewService(Deps{
		Config:  cfg,
		Repo:    repo,
		Machine: machine,
		Tokens:  tokens,
		Files:   files,
		Logger:  zap.NewNop(),
	})
	return env
}

func fileUpload(key, name, content string) Upload {
	return Upload{
		Key:      key,
		Filename: name,
		Size:     int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}

// register provisions graduate curp and returns the token response
func (e *testEnv) register(t *testing.T, curp, email string) *dto.TokenResponse {
	t.Helper()
	up := fileUpload("", "ine.pdf", "%PDF-identity")
	resp, err := e.svc.Registration.Register(context.Background(), &dto.RegisterRequest{CURP: curp, Email: email}, &up)
	if err != nil {
		t.Fatalf("register %s: %v", curp, err)
	}
	return resp
}

func (e *testEnv) graduate(t *testing.T, curp string) *model.Graduate {
	t.Helper()
	g, err := e.repo.Graduate.GetByIdentityKey(context.Background(), curp)
	if err != nil {
		t.Fatalf("load graduate %s: %v", curp, err)
	}
	return g
}

func (e *testEnv) stageID(t *testing.T, name string) uint {
	t.Helper()
	st, ok := e.machine.ByName(name)
	if !ok {
		t.Fatalf("unknown stage %s", name)
	}
	return st.ID
}

func (e *testEnv) setStage(t *testing.T, curp, name string) {
	t.Helper()
	id := e.stageID(t, name)
	if err := e.repo.Graduate.SetStage(context.Background(), curp, &id); err != nil {
		t.Fatal(err)
	}
}

func (e *testEnv) addDocument(t *testing.T, curp, key string) *model.SubmittedDocument {
	t.Helper()
	ctx := context.Background()
	dt, err := e.repo.DocumentType.GetByKey(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	doc := &model.SubmittedDocument{GraduateID: curp, DocumentTypeID: dt.ID, File: "documents/x/" + key + ".pdf"}
	if err := e.repo.Document.Create(ctx, doc); err != nil {
		t.Fatal(err)
	}
	return doc
}

// insertAfterAccountLookups commits a competing account once n queries on
// accounts have run, the way a concurrent registration would.
func (e *testEnv) insertAfterAccountLookups(t *testing.T, n int, username, email string) {
	t.Helper()
	lookups := 0
	err := e.db.Callback().Query().After("gorm:query").Register("test:competing_account", func(tx *gorm.DB) {
		if tx.Statement.Table != "accounts" {
			return
		}
		lookups++
		if lookups != n {
			return
		}
		now := time.Now()
		_, err := tx.Statement.ConnPool.ExecContext(tx.Statement.Context,
			"INSERT INTO accounts (id, username, email, first_name, last_name, password_hash, created_at, updated_at) VALUES (?, ?, ?, '', '', '', ?, ?)",
			uuid.NewString(), username, email, now, now)
		if err != nil {
			t.Errorf("insert competing account: %v", err)
		}
	})
	if err != nil {
		t.Fatal(err)
	}
}

func stageName(g *model.Graduate) string {
	if g.Stage == nil {
		return ""
	}
	return g.Stage.Name
}

// filesUnder counts regular files below dir
func filesUnder(t *testing.T, dir string) int {
	t.Helper()
	n := 0
	err := filepath.Walk(dir, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			n++
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		t.Fatal(err)
	}
	return n
}

// ── fakes ──

type failingIssuer struct{}

func (failingIssuer) GenerateAccessToken(_, _, _ string) (string, error) {
	return "", errors.New("signing key unavailable")
}

func (failingIssuer) GenerateRefreshToken(_, _, _ string, _ bool) (string, error) {
	return "", errors.New("signing key unavailable")
}

type memoryBlacklist struct {
	mu      sync.Mutex
	revoked map[string]bool
	err     error
}

func newMemoryBlacklist() *memoryBlacklist {
	return &memoryBlacklist{revoked: make(map[string]bool)}
}

func (m *memoryBlacklist) BlacklistToken(_ context.Context, jti string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.revoked[jti] = true
	return nil
}

func (m *memoryBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	return m.revoked[jti], nil
}
