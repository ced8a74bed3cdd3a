package datasource

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"ipdash/pkg/contracts/domain"
)

// ExcelSource reads a worksheet from a local Excel workbook. Used for
// offline report runs and as a fallback when no Sheets credential is
// configured.
type ExcelSource struct {
	path      string
	worksheet string
}

// NewExcelSource builds a source for one workbook tab. An empty
// worksheet name selects the first sheet.
func NewExcelSource(path, worksheet string) *ExcelSource {
	return &ExcelSource{path: path, worksheet: worksheet}
}

// ID implements Source.
func (s *ExcelSource) ID() string {
	return "excel:" + s.path + "/" + s.worksheet
}

// Fetch implements Source.
func (s *ExcelSource) Fetch(ctx context.Context) (domain.RawTable, error) {
	if err := ctx.Err(); err != nil {
		return domain.RawTable{}, err
	}
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := s.worksheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("read worksheet %q: %w", sheet, err)
	}
	return splitTable(rows), nil
}
