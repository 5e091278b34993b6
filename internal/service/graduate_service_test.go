package service

import (
	"context"
	"errors"
	"testing"
)

func TestDashboard(t *testing.T) {
	env := newTestEnv(t)
	resp := env.register(t, "5", "luis@example.com")

	dash, err := env.svc.Graduate.Dashboard(context.Background(), resp.Account.ID)
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}
	if dash.Graduate.Stage == nil || dash.Graduate.Stage.Name != "identificacion_se" {
		t.Fatalf("unexpected stage: %+v", dash.Graduate.Stage)
	}
	if len(dash.Required) != 1 || dash.Required[0] != "id" {
		t.Errorf("expected required [id], got %v", dash.Required)
	}
	if len(dash.Missing) != 0 {
		t.Errorf("identity document already uploaded, missing %v", dash.Missing)
	}
	if len(dash.Documents) != 15 {
		t.Fatalf("expected every document type, got %d", len(dash.Documents))
	}
	for _, item := range dash.Documents {
		if item.DocumentType.Key == "id" {
			if item.Latest == nil || item.Latest.Status != "pending" || !item.Required {
				t.Errorf("unexpected id item: %+v", item)
			}
		} else if item.Latest != nil {
			t.Errorf("%s should have no submission", item.DocumentType.Key)
		}
	}
}

func TestUpload_StoresAndAdvances(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	resp := env.register(t, "5", "luis@example.com")

	res, err := env.svc.Graduate.Upload(ctx, resp.Account.ID, []Upload{
		fileUpload("acta", "acta.pdf", "%PDF-acta"),
		fileUpload("curp", "curp.jpg", "jpeg"),
	})
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if res.Stored != 2 {
		t.Errorf("expected 2 stored, got %d", res.Stored)
	}
	if res.Graduate.Stage == nil || res.Graduate.Stage.Name != "revision_egresados" {
		t.Errorf("expected revision_egresados, got %+v", res.Graduate.Stage)
	}
	docs, _ := env.repo.Document.ListByGraduate(ctx, "5")
	if len(docs) != 3 {
		t.Errorf("expected 3 documents, got %d", len(docs))
	}
}

func TestUpload_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	resp := env.register(t, "5", "luis@example.com")

	tests := []struct {
		name    string
		uploads []Upload
		wantErr error
	}{
		{"no files", nil, ErrNoFiles},
		{"unknown key", []Upload{fileUpload("diploma", "d.pdf", "x")}, ErrUnknownDocumentType},
		{"bad extension", []Upload{fileUpload("acta", "acta.docx", "x")}, ErrExtensionNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.Graduate.Upload(ctx, resp.Account.ID, tt.uploads)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
	if got := stageName(env.graduate(t, "5")); got != "identificacion_se" {
		t.Errorf("rejected uploads must not move the graduate, got %s", got)
	}
}

func TestProfile(t *testing.T) {
	env := newTestEnv(t)
	resp := env.register(t, "4", "ana@example.com")

	p, err := env.svc.Graduate.Profile(context.Background(), resp.Account.ID)
	if err != nil {
		t.Fatal(err)
	}
	if p.FullName != "Ana Hernández Díaz" || p.SecondSurname != "Díaz" {
		t.Errorf("unexpected profile: %+v", p)
	}

	if _, err := env.svc.Graduate.Profile(context.Background(), "missing"); !errors.Is(err, ErrNoGraduateForLogin) {
		t.Errorf("expected ErrNoGraduateForLogin, got %v", err)
	}
}
