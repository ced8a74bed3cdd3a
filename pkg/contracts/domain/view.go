package domain

// ViewID identifies a dashboard view. The transport layer resolves a
// ViewID to exactly one builder through an explicit registry; there is
// no name probing.
type ViewID string

const (
	ViewOverview        ViewID = "overview"
	ViewIPDetail        ViewID = "ip-detail"
	ViewHeatmap         ViewID = "heatmap"
	ViewComparison      ViewID = "comparison"
	ViewEpisodes        ViewID = "episodes"
	ViewGrowthBroadcast ViewID = "growth-broadcast"
	ViewGrowthDigital   ViewID = "growth-digital"
)

// KPI is a named scalar for a dashboard card. Formatted carries the
// display string; when Valid is false it holds a "no data" placeholder
// and Value must be ignored.
type KPI struct {
	Name      string  `json:"name"`
	Value     float64 `json:"value"`
	Valid     bool    `json:"valid"`
	Formatted string  `json:"formatted"`
}

// GridCell is one cell of a tabular grid. Sentinel marks an undefined
// comparison index (division by a zero base); such cells render as an
// infinity marker and are excluded from range computations.
type GridCell struct {
	Value     float64 `json:"value"`
	Valid     bool    `json:"valid"`
	Sentinel  bool    `json:"sentinel,omitempty"`
	Formatted string  `json:"formatted"`
}

// Grid is a named table keyed by row label and column label.
type Grid struct {
	Name    string       `json:"name"`
	Columns []string     `json:"columns"`
	RowKeys []string     `json:"row_keys"`
	Rows    [][]GridCell `json:"rows"`
}

// SeriesPoint is one chart point. Label is an optional per-point
// annotation (a grade label on a sweep chart, for example).
type SeriesPoint struct {
	X     string  `json:"x"`
	Y     float64 `json:"y"`
	Valid bool    `json:"valid"`
	Label string  `json:"label,omitempty"`
}

// Series is a named chart-ready series.
type Series struct {
	Name   string        `json:"name"`
	Points []SeriesPoint `json:"points"`
}

// ViewPayload is the full render result for one view.
type ViewPayload struct {
	View     ViewID   `json:"view"`
	KPIs     []KPI    `json:"kpis,omitempty"`
	Grids    []Grid   `json:"grids,omitempty"`
	Series   []Series `json:"series,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	// Message carries an inline data-shape notice (empty table, missing
	// column) when the pipeline returned an empty result.
	Message string `json:"message,omitempty"`
}
