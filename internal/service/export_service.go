package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"titulacion/internal/repository"
	"titulacion/internal/workflow"
)

var ErrExportGenerateFail = errors.New("no se pudo generar el archivo de Excel")

// ExportService spreadsheet export of the review board
type ExportService interface {
	// ExportBoard one sheet row per graduate on the board
	ExportBoard(ctx context.Context) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo    *repository.Repository
	machine *workflow.Machine
	logger  *zap.Logger
	now     func() time.Time
}

// NewExportService creates the ExportService
func NewExportService(repo *repository.Repository, machine *workflow.Machine, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, machine: machine, logger: logger, now: time.Now}
}

func (s *exportService) ExportBoard(ctx context.Context) (*bytes.Buffer, string, error) {
	board, err := buildBoard(ctx, s.repo, s.machine)
	if err != nil {
		s.logger.Error("load review board failed", zap.Error(err))
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Revision"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return nil, "", ErrExportGenerateFail
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headers := []string{"Etapa", "Número de control", "CURP", "Nombre", "Género", "Documentos", "Pendientes por subir"}
	widths := []float64{24, 18, 22, 36, 8, 60, 40}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#1F4E78"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	for i, h := range headers {
		name := colName(i)
		f.SetColWidth(sheet, name, name, widths[i])
		f.SetCellValue(sheet, cell(name, 1), h)
	}
	f.SetCellStyle(sheet, "A1", cell(colName(len(headers)-1), 1), headerStyle)

	row := 2
	for _, st := range board.Stages {
		stageLabel := st.Stage.Name
		if st.Stage.Title != nil && *st.Stage.Title != "" {
			stageLabel = *st.Stage.Title
		}
		for _, g := range st.Graduates {
			docs := make([]string, 0, len(g.Documents))
			for _, d := range g.Documents {
				docs = append(docs, fmt.Sprintf("%s: %s", d.DocumentKey, d.Status))
			}
			values := []interface{}{
				stageLabel,
				g.ControlNumber,
				g.CURP,
				g.FullName,
				g.Gender,
				strings.Join(docs, ", "),
				strings.Join(g.Missing, ", "),
			}
			for i, v := range values {
				f.SetCellValue(sheet, cell(colName(i), row), v)
			}
			row++
		}
	}
	f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("write xlsx failed", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("revision_%s.xlsx", s.now().Format("20060102"))
	return buf, filename, nil
}

// ── helpers ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
