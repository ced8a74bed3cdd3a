package domain

// RawTable is a 2-D string table as fetched from a spreadsheet-like
// source: the first row of the sheet is the header, the rest are
// records. Cells keep their raw string form; typing happens in the
// normalizer.
type RawTable struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// Empty reports whether the table carries no header at all.
func (t RawTable) Empty() bool {
	return len(t.Header) == 0
}
