// Package datasource acquires the raw long-format table from a
// spreadsheet-backed source and fronts it with a time-bounded
// read-through cache. The data source is treated as read-only; there
// are no writers.
package datasource

import (
	"context"

	"ipdash/pkg/contracts/domain"
)

// Source fetches the raw table. Implementations exist for Google
// Sheets worksheets, Excel workbooks, and CSV files.
type Source interface {
	// ID identifies the data source for cache keying and logging.
	ID() string
	// Fetch retrieves the full table, header row first.
	Fetch(ctx context.Context) (domain.RawTable, error)
}

// splitTable separates the header row from the records. An entirely
// empty sheet yields an empty table.
func splitTable(rows [][]string) domain.RawTable {
	if len(rows) == 0 {
		return domain.RawTable{}
	}
	return domain.RawTable{Header: rows[0], Rows: rows[1:]}
}
