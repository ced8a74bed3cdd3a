package datasource

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"

	"ipdash/pkg/contracts/domain"
)

// CSVSource reads the table from a local CSV file.
type CSVSource struct {
	path string
}

// NewCSVSource builds a source for a CSV file.
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

// ID implements Source.
func (s *CSVSource) ID() string {
	return "csv:" + s.path
}

// Fetch implements Source.
func (s *CSVSource) Fetch(ctx context.Context) (domain.RawTable, error) {
	if err := ctx.Err(); err != nil {
		return domain.RawTable{}, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("read csv: %w", err)
	}
	return splitTable(rows), nil
}
