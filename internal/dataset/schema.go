// Package dataset turns raw spreadsheet tables into the typed event
// table the analytics core consumes. Column presence is validated once
// here, at the boundary; downstream code assumes a validated shape.
package dataset

import (
	"fmt"
	"strings"

	"ipdash/pkg/contracts/domain"
)

// Canonical column names. Source headers are mapped onto these through
// a ColumnMap, so localized sheet labels never leak past this package.
const (
	ColIP          = "ip"
	ColSlot        = "slot"
	ColMetric      = "metric"
	ColMedia       = "media"
	ColDemographic = "demographic"
	ColEpisode     = "episode"
	ColWeek        = "week"
	ColWeekStart   = "week_start"
	ColAirStart    = "air_start"
	ColValue       = "value"
)

// requiredColumns must be present in the header for normalization to
// proceed at all. Everything else degrades to missing fields.
var requiredColumns = []string{ColIP, ColMetric, ColValue}

// ColumnMap maps canonical column names to the header labels used by
// the source sheet. Zero-value entries fall back to the canonical name
// itself.
type ColumnMap map[string]string

// DefaultColumns returns the identity mapping for sheets that already
// use canonical headers.
func DefaultColumns() ColumnMap {
	return ColumnMap{}
}

// label resolves the source header label for a canonical column.
func (m ColumnMap) label(canonical string) string {
	if m != nil {
		if l, ok := m[canonical]; ok && l != "" {
			return l
		}
	}
	return canonical
}

// SchemaError is a data-shape error: a missing expected column, an
// empty table, or an unparseable header. It is surfaced to the user as
// an inline message; the pipeline returns an empty result rather than
// failing past the view boundary.
type SchemaError struct {
	Column string `json:"column,omitempty"`
	Reason string `json:"reason"`
}

func (e *SchemaError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("schema: %s (column %q)", e.Reason, e.Column)
	}
	return "schema: " + e.Reason
}

// columnIndex locates each canonical column in the header, matching
// labels after whitespace trimming. Optional columns may be absent; the
// returned map then simply lacks the key.
func columnIndex(header []string, cols ColumnMap) (map[string]int, error) {
	if len(header) == 0 {
		return nil, &SchemaError{Reason: "empty table"}
	}
	byLabel := make(map[string]int, len(header))
	for i, h := range header {
		byLabel[strings.TrimSpace(h)] = i
	}

	index := map[string]int{}
	all := []string{
		ColIP, ColSlot, ColMetric, ColMedia, ColDemographic,
		ColEpisode, ColWeek, ColWeekStart, ColAirStart, ColValue,
	}
	for _, canonical := range all {
		if i, ok := byLabel[cols.label(canonical)]; ok {
			index[canonical] = i
		}
	}
	for _, required := range requiredColumns {
		if _, ok := index[required]; !ok {
			return nil, &SchemaError{Column: cols.label(required), Reason: "required column missing"}
		}
	}
	return index, nil
}

// Validate checks the table header against the column map without
// normalizing any rows.
func Validate(table domain.RawTable, cols ColumnMap) error {
	_, err := columnIndex(table.Header, cols)
	return err
}
