package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_DefaultsWithEnvSecret(t *testing.T) {
	t.Setenv("TITULACION_AUTH_JWT_SECRET", "a-very-long-test-secret")
	wd, _ := os.Getwd()
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Workflow.IntakeStage != "identificacion_se" {
		t.Errorf("expected intake stage identificacion_se, got %s", cfg.Workflow.IntakeStage)
	}
	if cfg.Workflow.IdentityDocumentKey != "id" {
		t.Errorf("expected identity document key id, got %s", cfg.Workflow.IdentityDocumentKey)
	}
	if cfg.Auth.AccessTokenTTL != 15*time.Minute {
		t.Errorf("expected 15m access ttl, got %s", cfg.Auth.AccessTokenTTL)
	}
	if cfg.Import.MaxRows != 1000 {
		t.Errorf("expected max rows 1000, got %d", cfg.Import.MaxRows)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  port: 9090
auth:
  jwt_secret: file-secret-0123456789
db:
  driver: sqlite
  path: /tmp/t.db
workflow:
  intake_stage: intake
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("expected sqlite driver, got %s", cfg.Database.Driver)
	}
	if cfg.Workflow.IntakeStage != "intake" {
		t.Errorf("expected intake stage override, got %s", cfg.Workflow.IntakeStage)
	}
	// untouched keys keep defaults
	if cfg.Workflow.GraduateGroup != "egresados" {
		t.Errorf("expected default graduate group, got %s", cfg.Workflow.GraduateGroup)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: 8080},
			Auth:     AuthConfig{JWTSecret: "0123456789abcdef"},
			Database: DatabaseConfig{Driver: "postgres"},
			Workflow: WorkflowConfig{
				IntakeStage:         "identificacion_se",
				IdentityDocumentKey: "id",
				StaffGroup:          "servicios_escolares",
				GraduateGroup:       "egresados",
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"empty secret", func(c *Config) { c.Auth.JWTSecret = "" }, true},
		{"short secret", func(c *Config) { c.Auth.JWTSecret = "short" }, true},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, true},
		{"bad driver", func(c *Config) { c.Database.Driver = "mysql" }, true},
		{"missing intake", func(c *Config) { c.Workflow.IntakeStage = "" }, true},
		{"missing group", func(c *Config) { c.Workflow.GraduateGroup = "" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
