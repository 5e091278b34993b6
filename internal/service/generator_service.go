package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"titulacion/config"
	"titulacion/internal/model"
	"titulacion/internal/repository"
)

var ErrUnknownDocumentKind = errors.New("no existe un generador para ese documento")

// DocumentKind documents the portal can generate on demand
type DocumentKind int

const (
	KindUnknown DocumentKind = iota
	// KindNoInconvenience carta de no inconveniencia, delivered as a welcome letter
	KindNoInconvenience
)

var documentKinds = map[string]DocumentKind{
	"cni": KindNoInconvenience,
}

// ParseDocumentKind maps a form key to a kind
func ParseDocumentKind(key string) (DocumentKind, error) {
	if k, ok := documentKinds[key]; ok {
		return k, nil
	}
	return KindUnknown, fmt.Errorf("%w: %q", ErrUnknownDocumentKind, key)
}

// Key form key of the kind
func (k DocumentKind) Key() string {
	for key, kind := range documentKinds {
		if kind == k {
			return key
		}
	}
	return ""
}

// GeneratedDocument rendered binary with its download name
type GeneratedDocument struct {
	Filename    string
	ContentType string
	Data        []byte
}

// GeneratorService renders documents for the logged-in graduate
type GeneratorService interface {
	Generate(ctx context.Context, accountID, key string) (*GeneratedDocument, error)
}

type generatorService struct {
	cfg    *config.Config
	repo   *repository.Repository
	logger *zap.Logger
}

// NewGeneratorService creates the GeneratorService
func NewGeneratorService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) GeneratorService {
	return &generatorService{cfg: cfg, repo: repo, logger: logger}
}

func (s *generatorService) Generate(ctx context.Context, accountID, key string) (*GeneratedDocument, error) {
	kind, err := ParseDocumentKind(key)
	if err != nil {
		return nil, err
	}

	g, err := s.repo.Graduate.GetByAccountID(ctx, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoGraduateForLogin
		}
		return nil, err
	}

	switch kind {
	case KindNoInconvenience:
		return s.welcomeLetter(g)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDocumentKind, key)
	}
}

// welcomeLetter one Letter page: optional logo, greeting by gender, control number
func (s *generatorService) welcomeLetter(g *model.Graduate) (*GeneratedDocument, error) {
	greeting := "Bienvenido"
	if g.Gender == model.GenderFemale {
		greeting = "Bienvenida"
	}

	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetTitle("Carta de no inconveniencia", true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	width, _ := pdf.GetPageSize()

	if logo := s.cfg.Generator.LogoPath; logo != "" {
		if _, err := os.Stat(logo); err == nil {
			pdf.ImageOptions(logo, 100, 42, 108, 108, false, fpdf.ImageOptions{ReadDpi: true}, 0, "")
		}
	}

	pdf.SetFont("Helvetica", "B", 24)
	pdf.SetXY(0, 176)
	pdf.CellFormat(width, 30, tr(greeting+" "+g.FullName()), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 14)
	pdf.SetXY(100, 236)
	pdf.CellFormat(width-200, 20, tr("Número de control: "+g.ControlNumber), "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		s.logger.Error("render pdf failed", zap.String("control_number", g.ControlNumber), zap.Error(err))
		return nil, err
	}

	return &GeneratedDocument{
		Filename:    fmt.Sprintf("bienvenida_%s.pdf", g.ControlNumber),
		ContentType: "application/pdf",
		Data:        buf.Bytes(),
	}, nil
}
