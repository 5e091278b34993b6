package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"titulacion/config"
	"titulacion/internal/api/middleware"
	"titulacion/internal/dto"
	"titulacion/internal/model"
	"titulacion/internal/service"
	pkgerrors "titulacion/pkg/errors"
	"titulacion/pkg/response"
	"titulacion/pkg/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock AuthService ──

type mockAuthService struct {
	loginResult   *dto.TokenResponse
	loginErr      error
	refreshResult *dto.TokenResponse
	refreshErr    error
	logoutErr     error

	gotRefresh   string
	gotLogoutJTI string
	gotLogoutRT  string
}

func (m *mockAuthService) StaffLogin(_ context.Context, _ *dto.StaffLoginRequest) (*dto.TokenResponse, error) {
	return m.loginResult, m.loginErr
}
func (m *mockAuthService) GraduateLogin(_ context.Context, _ *dto.GraduateLoginRequest) (*dto.TokenResponse, error) {
	return m.loginResult, m.loginErr
}
func (m *mockAuthService) RefreshToken(_ context.Context, token string) (*dto.TokenResponse, error) {
	m.gotRefresh = token
	return m.refreshResult, m.refreshErr
}
func (m *mockAuthService) Logout(_ context.Context, jti string, _ time.Time, refresh string) error {
	m.gotLogoutJTI, m.gotLogoutRT = jti, refresh
	return m.logoutErr
}

// ── Mock RegistrationService ──

type mockRegistrationService struct {
	result      *dto.TokenResponse
	err         error
	gotIdentity *service.Upload
	gotReq      *dto.RegisterRequest
}

func (m *mockRegistrationService) Register(_ context.Context, req *dto.RegisterRequest, identity *service.Upload) (*dto.TokenResponse, error) {
	m.gotReq, m.gotIdentity = req, identity
	return m.result, m.err
}

// ── Mock GraduateService ──

type mockGraduateService struct {
	dashboard  *dto.DashboardResponse
	upload     *dto.UploadResponse
	profile    *dto.GraduateProfileResponse
	err        error
	gotUploads []service.Upload
}

func (m *mockGraduateService) Dashboard(_ context.Context, _ string) (*dto.DashboardResponse, error) {
	return m.dashboard, m.err
}
func (m *mockGraduateService) Upload(_ context.Context, _ string, uploads []service.Upload) (*dto.UploadResponse, error) {
	m.gotUploads = uploads
	return m.upload, m.err
}
func (m *mockGraduateService) Profile(_ context.Context, _ string) (*dto.GraduateProfileResponse, error) {
	return m.profile, m.err
}

// ── Mock GeneratorService ──

type mockGeneratorService struct {
	doc *service.GeneratedDocument
	err error
}

func (m *mockGeneratorService) Generate(_ context.Context, _, _ string) (*service.GeneratedDocument, error) {
	return m.doc, m.err
}

// ── Mock ReviewService ──

type mockReviewService struct {
	board     *dto.ReviewBoardResponse
	result    *dto.ReviewResult
	batch     *dto.BatchAdvanceResponse
	file      *service.DocumentFile
	err       error
	gotSubmit *service.ReviewSubmission
	gotBatch  []string
}

func (m *mockReviewService) Board(_ context.Context) (*dto.ReviewBoardResponse, error) {
	return m.board, m.err
}
func (m *mockReviewService) SubmitReview(_ context.Context, in *service.ReviewSubmission) (*dto.ReviewResult, error) {
	m.gotSubmit = in
	return m.result, m.err
}
func (m *mockReviewService) BatchAdvance(_ context.Context, controlNumbers []string) (*dto.BatchAdvanceResponse, error) {
	m.gotBatch = controlNumbers
	return m.batch, m.err
}
func (m *mockReviewService) DocumentFile(_ context.Context, _ uint) (*service.DocumentFile, error) {
	return m.file, m.err
}

// ── Mock ExportService ──

type mockExportService struct {
	buf      *bytes.Buffer
	filename string
	err      error
}

func (m *mockExportService) ExportBoard(_ context.Context) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}

// ── Mock ImportService ──

type mockImportService struct {
	rows     []service.ImportRow
	parseErr error
	result   *dto.ImportResult
	err      error
}

func (m *mockImportService) ParseImportFile(_ io.Reader) ([]service.ImportRow, error) {
	return m.rows, m.parseErr
}
func (m *mockImportService) Import(_ context.Context, _ []service.ImportRow) (*dto.ImportResult, error) {
	return m.result, m.err
}

// ── Mock CatalogService ──

type mockCatalogService struct {
	stages    []dto.StageResponse
	groups    []model.PlanGroup
	graduates []dto.GraduateSummary
	total     int64
	move      *dto.StageMoveResponse
	profile   *dto.GraduateProfileResponse
	err       error
}

func (m *mockCatalogService) ListStages(_ context.Context) []dto.StageResponse { return m.stages }
func (m *mockCatalogService) ListPlanGroups(_ context.Context) ([]model.PlanGroup, error) {
	return m.groups, m.err
}
func (m *mockCatalogService) CreatePlanGroup(_ context.Context, req *dto.CreatePlanGroupRequest) (*model.PlanGroup, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &model.PlanGroup{ID: 1, Name: req.Name}, nil
}
func (m *mockCatalogService) CreatePlan(_ context.Context, groupID uint, req *dto.CreatePlanRequest) (*model.Plan, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &model.Plan{ID: 1, PlanGroupID: groupID, Name: req.Name}, nil
}
func (m *mockCatalogService) ListTitlingOptions(_ context.Context) ([]model.TitlingOption, error) {
	return nil, m.err
}
func (m *mockCatalogService) CreateTitlingOption(_ context.Context, req *dto.CreateTitlingOptionRequest) (*model.TitlingOption, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &model.TitlingOption{ID: 1, Name: req.Name}, nil
}
func (m *mockCatalogService) ListGraduates(_ context.Context, _ *dto.GraduateListRequest) ([]dto.GraduateSummary, int64, error) {
	return m.graduates, m.total, m.err
}
func (m *mockCatalogService) UpdateGraduate(_ context.Context, _ string, _ *dto.UpdateGraduateRequest) (*dto.GraduateProfileResponse, error) {
	return m.profile, m.err
}
func (m *mockCatalogService) AdvanceGraduate(_ context.Context, _ string) (*dto.StageMoveResponse, error) {
	return m.move, m.err
}
func (m *mockCatalogService) RetreatGraduate(_ context.Context, _ string) (*dto.StageMoveResponse, error) {
	return m.move, m.err
}

type mockPinger struct{ err error }

func (m mockPinger) Ping(_ context.Context) error { return m.err }

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

// withAccount stands in for JWTAuth
func withAccount(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.CtxAccountID, "test-account-id")
		c.Set(middleware.CtxRole, role)
		c.Set(middleware.CtxTokenJTI, "test-jti")
		c.Set(middleware.CtxTokenExp, time.Now().Add(15*time.Minute))
		c.Next()
	}
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var resp response.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON body %q: %v", w.Body.String(), err)
	}
	return resp
}

type formFile struct {
	field, name, content string
}

// multipartBody builds a multipart form; values may repeat a key
func multipartBody(t *testing.T, values [][2]string, files ...formFile) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, kv := range values {
		if err := mw.WriteField(kv[0], kv[1]); err != nil {
			t.Fatal(err)
		}
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte(f.content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func serve(r *gin.Engine, method, path string, body io.Reader, contentType string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	r.ServeHTTP(w, req)
	return w
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range w.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

// ═══════════════════════════════════════════════════════════
// AuthHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAuthHandler_StaffLogin_Success(t *testing.T) {
	mock := &mockAuthService{loginResult: &dto.TokenResponse{
		AccessToken:  "test-access-token",
		RefreshToken: "test-refresh-token",
		ExpiresIn:    900,
		RememberMe:   true,
	}}
	h := NewAuthHandler(mock, &config.AuthConfig{
		RefreshTokenTTLDefault:  24 * time.Hour,
		RefreshTokenTTLRemember: 168 * time.Hour,
		Cookie:                  config.CookieConfig{SameSite: "Strict"},
	})

	r := gin.New()
	r.POST("/auth/staff/login", h.StaffLogin)
	w := serve(r, "POST", "/auth/staff/login",
		jsonBody(dto.StaffLoginRequest{Username: "se1", Password: "user4life", RememberMe: true}), "application/json")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	ck := findCookie(w, "refresh_token")
	if ck == nil {
		t.Fatal("expected refresh_token cookie to be set")
	}
	if ck.Value != "test-refresh-token" || !ck.HttpOnly || ck.Path != "/api/v1/auth" {
		t.Errorf("unexpected cookie %+v", ck)
	}
	if ck.MaxAge != int((168 * time.Hour).Seconds()) {
		t.Errorf("remember-me cookie should last 168h, got %ds", ck.MaxAge)
	}
	if ck.SameSite != http.SameSiteStrictMode {
		t.Errorf("expected SameSite=Strict, got %v", ck.SameSite)
	}
	if strings.Contains(w.Body.String(), "test-refresh-token") {
		t.Error("refresh token must only travel in the cookie")
	}
}

func TestAuthHandler_StaffLogin_BadJSON(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, nil)
	r := gin.New()
	r.POST("/auth/staff/login", h.StaffLogin)

	w := serve(r, "POST", "/auth/staff/login", strings.NewReader("invalid json"), "application/json")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if resp := parseResponse(t, w); resp.Code != 10001 {
		t.Errorf("expected code 10001, got %d", resp.Code)
	}
}

func TestAuthHandler_LoginErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   int
	}{
		{"bad credentials", service.ErrInvalidCredentials, http.StatusUnauthorized, 11001},
		{"bad graduate login", service.ErrGraduateLogin, http.StatusUnauthorized, 11002},
		{"not staff", service.ErrNotStaff, http.StatusForbidden, 11003},
		{"not graduate", service.ErrNotGraduate, http.StatusForbidden, 11004},
		{"configuration", pkgerrors.NewConfigurationError("group", "egresados", nil), http.StatusInternalServerError, 50001},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, 50000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAuthHandler(&mockAuthService{loginErr: tt.err}, nil)
			r := gin.New()
			r.POST("/auth/graduate/login", h.GraduateLogin)

			w := serve(r, "POST", "/auth/graduate/login",
				jsonBody(dto.GraduateLoginRequest{CURP: "5", Email: "valeria@example.com"}), "application/json")
			if w.Code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, w.Code)
			}
			if resp := parseResponse(t, w); resp.Code != tt.code {
				t.Errorf("expected code %d, got %d", tt.code, resp.Code)
			}
		})
	}
}

func TestAuthHandler_GraduateLogin_InvalidEmail(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, nil)
	r := gin.New()
	r.POST("/auth/graduate/login", h.GraduateLogin)

	w := serve(r, "POST", "/auth/graduate/login",
		jsonBody(map[string]string{"curp": "5", "correo": "not-an-email"}), "application/json")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestAuthHandler_RefreshToken(t *testing.T) {
	newRouter := func(m *mockAuthService) *gin.Engine {
		r := gin.New()
		r.POST("/auth/refresh", NewAuthHandler(m, nil).RefreshToken)
		return r
	}

	t.Run("missing token", func(t *testing.T) {
		w := serve(newRouter(&mockAuthService{}), "POST", "/auth/refresh", nil, "")
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
		if resp := parseResponse(t, w); resp.Code != 11005 {
			t.Errorf("expected code 11005, got %d", resp.Code)
		}
	})

	t.Run("from cookie", func(t *testing.T) {
		m := &mockAuthService{refreshResult: &dto.TokenResponse{AccessToken: "a", RefreshToken: "new-refresh"}}
		w := serve(newRouter(m), "POST", "/auth/refresh", nil, "",
			&http.Cookie{Name: "refresh_token", Value: "cookie-refresh"})
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		if m.gotRefresh != "cookie-refresh" {
			t.Errorf("expected cookie token, got %q", m.gotRefresh)
		}
		if ck := findCookie(w, "refresh_token"); ck == nil || ck.Value != "new-refresh" {
			t.Error("expected rotated refresh cookie")
		}
	})

	t.Run("body wins over cookie", func(t *testing.T) {
		m := &mockAuthService{refreshResult: &dto.TokenResponse{AccessToken: "a", RefreshToken: "b"}}
		serve(newRouter(m), "POST", "/auth/refresh",
			jsonBody(dto.RefreshTokenRequest{RefreshToken: "body-refresh"}), "application/json",
			&http.Cookie{Name: "refresh_token", Value: "cookie-refresh"})
		if m.gotRefresh != "body-refresh" {
			t.Errorf("expected body token, got %q", m.gotRefresh)
		}
	})

	t.Run("revoked", func(t *testing.T) {
		m := &mockAuthService{refreshErr: service.ErrTokenRevoked}
		w := serve(newRouter(m), "POST", "/auth/refresh", nil, "",
			&http.Cookie{Name: "refresh_token", Value: "x"})
		if resp := parseResponse(t, w); w.Code != http.StatusUnauthorized || resp.Code != 11006 {
			t.Errorf("expected 401/11006, got %d/%d", w.Code, resp.Code)
		}
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	m := &mockAuthService{}
	r := gin.New()
	r.POST("/auth/logout", withAccount(model.RoleStaff), NewAuthHandler(m, nil).Logout)

	w := serve(r, "POST", "/auth/logout", nil, "", &http.Cookie{Name: "refresh_token", Value: "rt"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if m.gotLogoutJTI != "test-jti" || m.gotLogoutRT != "rt" {
		t.Errorf("unexpected logout args jti=%q refresh=%q", m.gotLogoutJTI, m.gotLogoutRT)
	}
	if ck := findCookie(w, "refresh_token"); ck == nil || ck.MaxAge >= 0 {
		t.Error("expected refresh cookie to be cleared")
	}
}

func TestAuthHandler_Logout_Unauthenticated(t *testing.T) {
	r := gin.New()
	r.POST("/auth/logout", NewAuthHandler(&mockAuthService{}, nil).Logout)

	w := serve(r, "POST", "/auth/logout", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// RegistrationHandler Tests
// ═══════════════════════════════════════════════════════════

func TestRegistrationHandler_Register_Success(t *testing.T) {
	m := &mockRegistrationService{result: &dto.TokenResponse{AccessToken: "a", RefreshToken: "r"}}
	r := gin.New()
	r.POST("/auth/register", NewRegistrationHandler(m, nil).Register)

	body, ct := multipartBody(t, [][2]string{{"correo", "valeria@example.com"}, {"curp", "5"}},
		formFile{"id", "ine.pdf", "%PDF-identity"})
	w := serve(r, "POST", "/auth/register", body, ct)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if m.gotReq.CURP != "5" || m.gotReq.Email != "valeria@example.com" {
		t.Errorf("unexpected request %+v", m.gotReq)
	}
	if m.gotIdentity == nil || m.gotIdentity.Filename != "ine.pdf" || m.gotIdentity.Key != "id" {
		t.Fatalf("unexpected identity upload %+v", m.gotIdentity)
	}
	rc, err := m.gotIdentity.Open()
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	if data, _ := io.ReadAll(rc); string(data) != "%PDF-identity" {
		t.Errorf("unexpected file content %q", data)
	}
	if findCookie(w, "refresh_token") == nil {
		t.Error("registration logs the graduate in")
	}
}

func TestRegistrationHandler_Register_Errors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		withFile bool
		status   int
		code     int
	}{
		{"unknown curp", service.ErrGraduateNotFound, true, http.StatusNotFound, 12001},
		{"curp registered", service.ErrIdentityRegistered, true, http.StatusConflict, 12002},
		{"email registered", service.ErrEmailRegistered, true, http.StatusConflict, 12003},
		{"missing file", service.ErrIdentityFileRequired, false, http.StatusBadRequest, 12004},
		{"bad extension", service.ErrExtensionNotAllowed, true, http.StatusBadRequest, 12005},
		{"too large", storage.ErrFileTooLarge, true, http.StatusRequestEntityTooLarge, 12006},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mockRegistrationService{err: tt.err}
			r := gin.New()
			r.POST("/auth/register", NewRegistrationHandler(m, nil).Register)

			var files []formFile
			if tt.withFile {
				files = append(files, formFile{"id", "ine.pdf", "x"})
			}
			body, ct := multipartBody(t, [][2]string{{"correo", "a@example.com"}, {"curp", "5"}}, files...)
			w := serve(r, "POST", "/auth/register", body, ct)

			if w.Code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, w.Code)
			}
			if resp := parseResponse(t, w); resp.Code != tt.code {
				t.Errorf("expected code %d, got %d", tt.code, resp.Code)
			}
			if !tt.withFile && m.gotIdentity != nil {
				t.Error("no identity upload expected without a file")
			}
		})
	}
}

func TestRegistrationHandler_Register_MissingEmail(t *testing.T) {
	m := &mockRegistrationService{}
	r := gin.New()
	r.POST("/auth/register", NewRegistrationHandler(m, nil).Register)

	body, ct := multipartBody(t, [][2]string{{"curp", "5"}})
	w := serve(r, "POST", "/auth/register", body, ct)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if m.gotReq != nil {
		t.Error("service must not be called on invalid input")
	}
}

// ═══════════════════════════════════════════════════════════
// GraduateHandler Tests
// ═══════════════════════════════════════════════════════════

func graduateRouter(g *mockGraduateService, gen *mockGeneratorService) *gin.Engine {
	h := NewGraduateHandler(g, gen)
	r := gin.New()
	grp := r.Group("", withAccount(model.RoleGraduate))
	grp.GET("/graduate", h.Dashboard)
	grp.POST("/graduate/documents", h.Upload)
	grp.GET("/graduate/profile", h.Profile)
	grp.POST("/graduate/generate", h.Generate)
	return r
}

func TestGraduateHandler_Dashboard(t *testing.T) {
	g := &mockGraduateService{dashboard: &dto.DashboardResponse{Required: []string{"acta"}}}
	w := serve(graduateRouter(g, &mockGeneratorService{}), "GET", "/graduate", nil, "")
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	g.err = service.ErrNoGraduateForLogin
	w = serve(graduateRouter(g, &mockGeneratorService{}), "GET", "/graduate", nil, "")
	if resp := parseResponse(t, w); w.Code != http.StatusNotFound || resp.Code != 17004 {
		t.Errorf("expected 404/17004, got %d/%d", w.Code, resp.Code)
	}
}

func TestGraduateHandler_Dashboard_Unauthenticated(t *testing.T) {
	r := gin.New()
	r.GET("/graduate", NewGraduateHandler(&mockGraduateService{}, &mockGeneratorService{}).Dashboard)
	w := serve(r, "GET", "/graduate", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestGraduateHandler_Upload(t *testing.T) {
	g := &mockGraduateService{upload: &dto.UploadResponse{Stored: 2}}
	body, ct := multipartBody(t, nil,
		formFile{"curp", "curp.pdf", "c"},
		formFile{"acta", "acta.png", "a"},
	)
	w := serve(graduateRouter(g, &mockGeneratorService{}), "POST", "/graduate/documents", body, ct)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if len(g.gotUploads) != 2 || g.gotUploads[0].Key != "acta" || g.gotUploads[1].Key != "curp" {
		t.Errorf("expected uploads keyed acta, curp; got %+v", g.gotUploads)
	}
}

func TestGraduateHandler_Upload_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   int
	}{
		{"no files", service.ErrNoFiles, http.StatusBadRequest, 17001},
		{"unknown key", service.ErrUnknownDocumentType, http.StatusBadRequest, 17002},
		{"extension", service.ErrExtensionNotAllowed, http.StatusBadRequest, 17003},
		{"too large", storage.ErrFileTooLarge, http.StatusRequestEntityTooLarge, 17005},
		{"configuration", pkgerrors.NewConfigurationError("stage", "revision_egresados", nil), http.StatusInternalServerError, 50001},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &mockGraduateService{err: tt.err}
			body, ct := multipartBody(t, nil, formFile{"acta", "acta.exe", "x"})
			w := serve(graduateRouter(g, &mockGeneratorService{}), "POST", "/graduate/documents", body, ct)

			if w.Code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, w.Code)
			}
			resp := parseResponse(t, w)
			if resp.Code != tt.code {
				t.Errorf("expected code %d, got %d", tt.code, resp.Code)
			}
			if tt.code == 50001 && !strings.Contains(resp.Details, "revision_egresados") {
				t.Errorf("configuration details should name the key, got %q", resp.Details)
			}
		})
	}
}

func TestGraduateHandler_Upload_NotMultipart(t *testing.T) {
	g := &mockGraduateService{}
	w := serve(graduateRouter(g, &mockGeneratorService{}), "POST", "/graduate/documents",
		strings.NewReader("{}"), "application/json")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if g.gotUploads != nil {
		t.Error("service must not be called")
	}
}

func TestGraduateHandler_Generate(t *testing.T) {
	gen := &mockGeneratorService{doc: &service.GeneratedDocument{
		Filename:    "bienvenida_22490006.pdf",
		ContentType: "application/pdf",
		Data:        []byte("%PDF-1.3"),
	}}
	form := url.Values{"clave_documento": {"cni"}}
	w := serve(graduateRouter(&mockGraduateService{}, gen), "POST", "/graduate/generate",
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := w.Header().Get("Content-Disposition"); got != `attachment; filename="bienvenida_22490006.pdf"` {
		t.Errorf("unexpected Content-Disposition %q", got)
	}
	if w.Header().Get("Content-Type") != "application/pdf" || !strings.HasPrefix(w.Body.String(), "%PDF") {
		t.Error("expected a PDF body")
	}
}

func TestGraduateHandler_Generate_UnknownKindRedirects(t *testing.T) {
	gen := &mockGeneratorService{err: service.ErrUnknownDocumentKind}
	form := url.Values{"clave_documento": {"diploma"}}
	w := serve(graduateRouter(&mockGraduateService{}, gen), "POST", "/graduate/generate",
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")

	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/api/v1/graduate" {
		t.Errorf("expected redirect to the dashboard, got %q", loc)
	}
	if resp := parseResponse(t, w); resp.Code != 15001 {
		t.Errorf("expected code 15001, got %d", resp.Code)
	}
}

func TestGraduateHandler_Generate_MissingKey(t *testing.T) {
	w := serve(graduateRouter(&mockGraduateService{}, &mockGeneratorService{}), "POST", "/graduate/generate",
		strings.NewReader(""), "application/x-www-form-urlencoded")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ReviewHandler Tests
// ═══════════════════════════════════════════════════════════

func reviewRouter(rs *mockReviewService, es *mockExportService) *gin.Engine {
	h := NewReviewHandler(rs, es)
	r := gin.New()
	grp := r.Group("", withAccount(model.RoleStaff))
	grp.GET("/review", h.Board)
	grp.POST("/review", h.Submit)
	grp.POST("/review/batch-advance", h.BatchAdvance)
	grp.GET("/review/export", h.Export)
	grp.GET("/review/documents/:id/file", h.DocumentFile)
	return r
}

func TestReviewHandler_Submit(t *testing.T) {
	rs := &mockReviewService{result: &dto.ReviewResult{Updated: 2, Moves: []string{"move"}}}
	body, ct := multipartBody(t, [][2]string{
		{"numero_control", "22490006"},
		{"estado_12", "accepted"},
		{"estado_3", "rejected"},
		{"notas_3", "ilegible"},
		{"notas_3", "falta firma"},
	}, formFile{"subir_acta", "acta.pdf", "%PDF"}, formFile{"otro", "x.pdf", "x"})

	w := serve(reviewRouter(rs, &mockExportService{}), "POST", "/review", body, ct)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	in := rs.gotSubmit
	if in.ControlNumber != "22490006" {
		t.Errorf("unexpected control number %q", in.ControlNumber)
	}
	if len(in.Statuses) != 2 || in.Statuses[0].DocumentID != 3 || in.Statuses[1].DocumentID != 12 {
		t.Fatalf("expected statuses for 3 and 12 in order, got %+v", in.Statuses)
	}
	if in.Statuses[0].Status != "rejected" || len(in.Statuses[0].Notes) != 2 {
		t.Errorf("unexpected status update %+v", in.Statuses[0])
	}
	if len(in.Uploads) != 1 || in.Uploads[0].Key != "acta" {
		t.Errorf("only subir_ fields are staff uploads, got %+v", in.Uploads)
	}
}

func TestReviewHandler_Submit_URLEncoded(t *testing.T) {
	rs := &mockReviewService{result: &dto.ReviewResult{}}
	form := url.Values{"numero_control": {"22490006"}, "estado_7": {"accepted"}}
	w := serve(reviewRouter(rs, &mockExportService{}), "POST", "/review",
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if len(rs.gotSubmit.Statuses) != 1 || len(rs.gotSubmit.Uploads) != 0 {
		t.Errorf("unexpected submission %+v", rs.gotSubmit)
	}
}

func TestReviewHandler_Submit_BadInput(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
	}{
		{"missing control number", url.Values{"estado_1": {"accepted"}}},
		{"bad document id", url.Values{"numero_control": {"1"}, "estado_abc": {"accepted"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := &mockReviewService{}
			w := serve(reviewRouter(rs, &mockExportService{}), "POST", "/review",
				strings.NewReader(tt.form.Encode()), "application/x-www-form-urlencoded")
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", w.Code)
			}
			if rs.gotSubmit != nil {
				t.Error("service must not be called")
			}
		})
	}
}

func TestReviewHandler_Submit_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   int
	}{
		{"invalid status", service.ErrInvalidStatus, http.StatusBadRequest, 13001},
		{"graduate not found", service.ErrGraduateNotFound, http.StatusNotFound, 13002},
		{"configuration", pkgerrors.NewConfigurationError("stage", "revision_egresados", nil), http.StatusInternalServerError, 50001},
		{"unexpected", errors.New("db down"), http.StatusInternalServerError, 50000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := &mockReviewService{err: tt.err}
			form := url.Values{"numero_control": {"22490006"}}
			w := serve(reviewRouter(rs, &mockExportService{}), "POST", "/review",
				strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
			if w.Code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, w.Code)
			}
			if resp := parseResponse(t, w); resp.Code != tt.code {
				t.Errorf("expected code %d, got %d", tt.code, resp.Code)
			}
		})
	}
}

func TestReviewHandler_BatchAdvance(t *testing.T) {
	t.Run("empty selection warns", func(t *testing.T) {
		rs := &mockReviewService{}
		w := serve(reviewRouter(rs, &mockExportService{}), "POST", "/review/batch-advance",
			strings.NewReader(""), "application/x-www-form-urlencoded")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		if resp := parseResponse(t, w); resp.Message == "success" {
			t.Error("expected a warning message")
		}
		if rs.gotBatch != nil {
			t.Error("service must not be called")
		}
	})

	t.Run("selected graduates", func(t *testing.T) {
		rs := &mockReviewService{batch: &dto.BatchAdvanceResponse{Requested: 2, Advanced: 2}}
		form := url.Values{"egresados_seleccionados": {"22490001", "22490002"}}
		w := serve(reviewRouter(rs, &mockExportService{}), "POST", "/review/batch-advance",
			strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		if len(rs.gotBatch) != 2 || rs.gotBatch[1] != "22490002" {
			t.Errorf("unexpected batch %v", rs.gotBatch)
		}
	})
}

func TestReviewHandler_DocumentFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "acta.pdf")
	if err := os.WriteFile(path, []byte("%PDF-acta"), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	rs := &mockReviewService{file: &service.DocumentFile{
		Filename: "acta.pdf", Size: 9, ContentType: "application/pdf", Content: f,
	}}

	w := serve(reviewRouter(rs, &mockExportService{}), "GET", "/review/documents/4/file", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Body.String() != "%PDF-acta" {
		t.Errorf("unexpected body %q", w.Body.String())
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), "acta.pdf") {
		t.Errorf("unexpected Content-Disposition %q", w.Header().Get("Content-Disposition"))
	}
}

func TestReviewHandler_DocumentFile_Errors(t *testing.T) {
	rs := &mockReviewService{err: service.ErrDocumentNotFound}
	w := serve(reviewRouter(rs, &mockExportService{}), "GET", "/review/documents/4/file", nil, "")
	if resp := parseResponse(t, w); w.Code != http.StatusNotFound || resp.Code != 13003 {
		t.Errorf("expected 404/13003, got %d/%d", w.Code, resp.Code)
	}

	w = serve(reviewRouter(rs, &mockExportService{}), "GET", "/review/documents/abc/file", nil, "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestReviewHandler_Export(t *testing.T) {
	es := &mockExportService{buf: bytes.NewBufferString("xlsx-bytes"), filename: "revision_20261017.xlsx"}
	w := serve(reviewRouter(&mockReviewService{}, es), "GET", "/review/export", nil, "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment;") || !strings.Contains(cd, "revision_20261017.xlsx") {
		t.Errorf("unexpected Content-Disposition %q", cd)
	}
	if w.Header().Get("Content-Type") != xlsxContentType {
		t.Errorf("unexpected Content-Type %q", w.Header().Get("Content-Type"))
	}

	es.err = service.ErrExportGenerateFail
	w = serve(reviewRouter(&mockReviewService{}, es), "GET", "/review/export", nil, "")
	if resp := parseResponse(t, w); w.Code != http.StatusInternalServerError || resp.Code != 13010 {
		t.Errorf("expected 500/13010, got %d/%d", w.Code, resp.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ImportHandler Tests
// ═══════════════════════════════════════════════════════════

func importRouter(m *mockImportService) *gin.Engine {
	r := gin.New()
	r.POST("/graduates/import", NewImportHandler(m).Import)
	return r
}

func TestImportHandler_Import(t *testing.T) {
	m := &mockImportService{result: &dto.ImportResult{Rows: 3, Created: 2, Skipped: 1}}
	body, ct := multipartBody(t, nil, formFile{"archivo_excel", "egresados.xlsx", "PK"})
	w := serve(importRouter(m), "POST", "/graduates/import", body, ct)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestImportHandler_Import_Errors(t *testing.T) {
	rowErr := &service.ImportRowError{Row: 4, Err: service.ErrImportCURPMismatch}
	tests := []struct {
		name     string
		mock     *mockImportService
		withFile bool
		status   int
		code     int
	}{
		{"missing file", &mockImportService{}, false, http.StatusBadRequest, 14001},
		{"unreadable", &mockImportService{parseErr: service.ErrImportUnreadable}, true, http.StatusBadRequest, 14002},
		{"bad header", &mockImportService{parseErr: service.ErrImportBadHeader}, true, http.StatusBadRequest, 14003},
		{"no data", &mockImportService{parseErr: service.ErrImportNoData}, true, http.StatusBadRequest, 14004},
		{"too many rows", &mockImportService{parseErr: service.ErrImportTooManyRows}, true, http.StatusBadRequest, 14005},
		{"row error", &mockImportService{result: &dto.ImportResult{Rows: 5, Created: 2}, err: rowErr}, true, http.StatusUnprocessableEntity, 14006},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var files []formFile
			if tt.withFile {
				files = append(files, formFile{"archivo_excel", "egresados.xlsx", "PK"})
			}
			body, ct := multipartBody(t, [][2]string{{"x", "y"}}, files...)
			w := serve(importRouter(tt.mock), "POST", "/graduates/import", body, ct)

			if w.Code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, w.Code)
			}
			resp := parseResponse(t, w)
			if resp.Code != tt.code {
				t.Errorf("expected code %d, got %d", tt.code, resp.Code)
			}
			if tt.code == 14006 && (!strings.Contains(resp.Message, "fila 4") || !strings.Contains(resp.Details, "creados: 2")) {
				t.Errorf("row error should name the row and the partial counts, got %q / %q", resp.Message, resp.Details)
			}
		})
	}
}

// ═══════════════════════════════════════════════════════════
// CatalogHandler Tests
// ═══════════════════════════════════════════════════════════

func catalogRouter(m *mockCatalogService) *gin.Engine {
	h := NewCatalogHandler(m)
	r := gin.New()
	r.GET("/stages", h.ListStages)
	r.GET("/plan-groups", h.ListPlanGroups)
	r.POST("/plan-groups", h.CreatePlanGroup)
	r.POST("/plan-groups/:id/plans", h.CreatePlan)
	r.POST("/titling-options", h.CreateTitlingOption)
	r.GET("/graduates", h.ListGraduates)
	r.PUT("/graduates/:control", h.UpdateGraduate)
	r.POST("/graduates/:control/advance", h.AdvanceGraduate)
	r.POST("/graduates/:control/retreat", h.RetreatGraduate)
	return r
}

func TestCatalogHandler_ListGraduates(t *testing.T) {
	m := &mockCatalogService{
		graduates: []dto.GraduateSummary{{ControlNumber: "22490001"}, {ControlNumber: "22490002"}},
		total:     45,
	}
	w := serve(catalogRouter(m), "GET", "/graduates?page=2&page_size=20", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body struct {
		Data response.PageData `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	p := body.Data.Pagination
	if p.Page != 2 || p.Total != 45 || p.TotalPages != 3 {
		t.Errorf("unexpected pagination %+v", p)
	}
}

func TestCatalogHandler_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		method string
		path   string
		body   interface{}
		status int
		code   int
	}{
		{"unknown stage filter", service.ErrStageNotFound, "GET", "/graduates?stage=nope", nil, http.StatusNotFound, 16003},
		{"plan group missing", service.ErrPlanGroupNotFound, "POST", "/plan-groups/9/plans", dto.CreatePlanRequest{Name: "ISC-2010"}, http.StatusNotFound, 16001},
		{"titling option missing", service.ErrTitlingOptionNotFound, "PUT", "/graduates/22490001", dto.UpdateGraduateRequest{}, http.StatusNotFound, 16002},
		{"graduate missing", service.ErrGraduateNotFound, "POST", "/graduates/999/advance", nil, http.StatusNotFound, 13002},
		{"retreat misconfigured", pkgerrors.NewConfigurationError("stage", "order 2", nil), "POST", "/graduates/22490001/retreat", nil, http.StatusInternalServerError, 50001},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body io.Reader
			ct := ""
			if tt.body != nil {
				body, ct = jsonBody(tt.body), "application/json"
			}
			w := serve(catalogRouter(&mockCatalogService{err: tt.err}), tt.method, tt.path, body, ct)
			if w.Code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, w.Code)
			}
			if resp := parseResponse(t, w); resp.Code != tt.code {
				t.Errorf("expected code %d, got %d", tt.code, resp.Code)
			}
		})
	}
}

func TestCatalogHandler_CreatePlanGroup(t *testing.T) {
	w := serve(catalogRouter(&mockCatalogService{}), "POST", "/plan-groups",
		jsonBody(dto.CreatePlanGroupRequest{Name: "Ingenierías"}), "application/json")
	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", w.Code)
	}

	w = serve(catalogRouter(&mockCatalogService{}), "POST", "/plan-groups", jsonBody(map[string]string{}), "application/json")
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing name: expected 400, got %d", w.Code)
	}

	w = serve(catalogRouter(&mockCatalogService{}), "POST", "/plan-groups/abc/plans",
		jsonBody(dto.CreatePlanRequest{Name: "x"}), "application/json")
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad group id: expected 400, got %d", w.Code)
	}
}

func TestCatalogHandler_UpdateGraduate_Validation(t *testing.T) {
	period := "3"
	w := serve(catalogRouter(&mockCatalogService{}), "PUT", "/graduates/22490001",
		jsonBody(dto.UpdateGraduateRequest{GraduationPeriod: &period}), "application/json")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for period 3, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// HealthHandler Tests
// ═══════════════════════════════════════════════════════════

func TestHealthHandler_Check(t *testing.T) {
	tests := []struct {
		name   string
		pinger Pinger
		status int
	}{
		{"no pinger", nil, http.StatusOK},
		{"db up", mockPinger{}, http.StatusOK},
		{"db down", mockPinger{err: errors.New("refused")}, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/health", NewHealthHandler(tt.pinger).Check)
			w := serve(r, "GET", "/health", nil, "")
			if w.Code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, w.Code)
			}
		})
	}
}
