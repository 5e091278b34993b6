package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"titulacion/config"
	"titulacion/internal/dto"
	"titulacion/internal/model"
	"titulacion/internal/repository"
	"titulacion/internal/workflow"
)

// missingPlaceholder what spreadsheets exported from pandas put in empty cells
const missingPlaceholder = "nan"

var (
	ErrImportNoData       = errors.New("el archivo no tiene filas de datos (la primera fila es el encabezado)")
	ErrImportBadHeader    = errors.New("faltan columnas obligatorias: numero_control, curp")
	ErrImportTooManyRows  = errors.New("el archivo excede el número máximo de filas")
	ErrImportUnreadable   = errors.New("no se pudo leer el archivo de Excel")
	ErrImportCURPMismatch = errors.New("la CURP no coincide con la registrada para ese número de control")
	ErrImportCURPTaken    = errors.New("la CURP ya pertenece a otro número de control")
	ErrImportBadGender    = errors.New("género no válido (use M o F)")
)

// ImportRow one parsed spreadsheet row
type ImportRow struct {
	Row           int // 1-based sheet row
	ControlNumber string
	CURP          string
	Name          string
	Surname1      string
	Surname2      string
	Gender        string
}

// skip reports whether the row lacks a control number or CURP
func (r ImportRow) skip() bool {
	return r.ControlNumber == "" || r.CURP == "" ||
		r.ControlNumber == missingPlaceholder || r.CURP == missingPlaceholder
}

// ImportRowError failure on a specific row; earlier rows are already committed
type ImportRowError struct {
	Row int
	Err error
}

func (e *ImportRowError) Error() string { return fmt.Sprintf("fila %d: %v", e.Row, e.Err) }

func (e *ImportRowError) Unwrap() error { return e.Err }

// ImportService spreadsheet ingestion of graduates
type ImportService interface {
	ParseImportFile(reader io.Reader) ([]ImportRow, error)
	// Import processes rows in order, one transaction per row. The first
	// failing row stops the import; the returned result counts what was done.
	Import(ctx context.Context, rows []ImportRow) (*dto.ImportResult, error)
}

type importService struct {
	cfg     *config.Config
	repo    *repository.Repository
	machine *workflow.Machine
	files   FileStore
	logger  *zap.Logger
}

// NewImportService creates the ImportService
func NewImportService(cfg *config.Config, repo *repository.Repository, machine *workflow.Machine, files FileStore, logger *zap.Logger) ImportService {
	return &importService{cfg: cfg, repo: repo, machine: machine, files: files, logger: logger}
}

// ────────────────────── ParseImportFile ──────────────────────

func (s *importService) ParseImportFile(reader io.Reader) ([]ImportRow, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImportUnreadable, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	cells, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImportUnreadable, err)
	}
	if len(cells) < 2 {
		return nil, ErrImportNoData
	}

	col := headerIndex(cells[0])
	if col["numero_control"] < 0 || col["curp"] < 0 {
		return nil, ErrImportBadHeader
	}

	get := func(row []string, name string) string {
		idx := col[name]
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var rows []ImportRow
	for i := 1; i < len(cells); i++ {
		r := cells[i]
		item := ImportRow{
			Row:           i + 1,
			ControlNumber: get(r, "numero_control"),
			CURP:          get(r, "curp"),
			Name:          get(r, "nombre"),
			Surname1:      get(r, "primer_apellido"),
			Surname2:      get(r, "segundo_apellido"),
			Gender:        strings.ToUpper(get(r, "genero")),
		}
		if item.ControlNumber == "" && item.CURP == "" && item.Name == "" && item.Surname1 == "" {
			continue
		}
		rows = append(rows, item)
	}

	if len(rows) == 0 {
		return nil, ErrImportNoData
	}
	if max := s.cfg.Import.MaxRows; max > 0 && len(rows) > max {
		return nil, fmt.Errorf("%w (%d)", ErrImportTooManyRows, max)
	}
	return rows, nil
}

// headerIndex maps the known column names (trimmed, lower-cased) to indexes
func headerIndex(header []string) map[string]int {
	idx := map[string]int{
		"numero_control":   -1,
		"curp":             -1,
		"nombre":           -1,
		"primer_apellido":  -1,
		"segundo_apellido": -1,
		"genero":           -1,
	}
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		if _, ok := idx[name]; ok && idx[name] < 0 {
			idx[name] = i
		}
	}
	return idx
}

// ────────────────────── Import ──────────────────────

func (s *importService) Import(ctx context.Context, rows []ImportRow) (*dto.ImportResult, error) {
	result := &dto.ImportResult{Rows: len(rows)}
	first := s.machine.Lowest()

	for _, row := range rows {
		if row.skip() {
			result.Skipped++
			continue
		}

		created, err := s.importRow(ctx, row, &first)
		if err != nil {
			s.logger.Error("import aborted",
				zap.Int("row", row.Row),
				zap.String("control_number", row.ControlNumber),
				zap.Error(err),
			)
			return result, &ImportRowError{Row: row.Row, Err: err}
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}

	s.logger.Info("graduates imported",
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

func (s *importService) importRow(ctx context.Context, row ImportRow, first *model.Stage) (bool, error) {
	surname2 := row.Surname2
	if surname2 == missingPlaceholder {
		surname2 = ""
	}
	gender := row.Gender
	switch gender {
	case "", strings.ToUpper(missingPlaceholder):
		gender = model.GenderMale
	case model.GenderMale, model.GenderFemale:
	default:
		return false, ErrImportBadGender
	}

	created := false
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		// login: username = control number, password = control number
		account, err := tx.Account.GetByUsername(ctx, row.ControlNumber)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(row.ControlNumber), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			account = &model.Account{
				Username:     row.ControlNumber,
				FirstName:    row.Name,
				LastName:     strings.TrimSpace(row.Surname1 + " " + surname2),
				PasswordHash: string(hash),
			}
			if err := tx.Account.Create(ctx, account); err != nil {
				return err
			}
		}

		var s2 *string
		if surname2 != "" {
			s2 = &surname2
		}

		g, err := tx.Graduate.GetByControlNumber(ctx, row.ControlNumber)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if _, err := tx.Graduate.GetByIdentityKey(ctx, row.CURP); err == nil {
				return ErrImportCURPTaken
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			accountID := account.ID
			g = &model.Graduate{
				IdentityKey:   row.CURP,
				ControlNumber: row.ControlNumber,
				Name:          row.Name,
				Surname1:      row.Surname1,
				Surname2:      s2,
				Gender:        gender,
				AccountID:     &accountID,
				StageID:       &first.ID,
			}
			if err := tx.Graduate.Create(ctx, g); err != nil {
				return err
			}
			created = true

		case err != nil:
			return err

		default:
			if g.IdentityKey != row.CURP {
				return ErrImportCURPMismatch
			}
			g.Name = row.Name
			g.Surname1 = row.Surname1
			g.Surname2 = s2
			g.Gender = gender
			// an existing login (e.g. self-registered) is never replaced
			if !g.HasAccount() {
				accountID := account.ID
				g.AccountID = &accountID
			}
			if g.StageID == nil {
				g.StageID = &first.ID
			}
			if err := tx.Graduate.Update(ctx, g); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	if err := s.files.EnsureGraduateDir(row.ControlNumber); err != nil {
		s.logger.Warn("create graduate folder failed", zap.String("control_number", row.ControlNumber), zap.Error(err))
	}
	return created, nil
}
