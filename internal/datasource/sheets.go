package datasource

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"

	"ipdash/pkg/contracts/domain"
)

// SheetsSource reads a worksheet from a Google Sheets spreadsheet with
// a read-only service-account credential.
type SheetsSource struct {
	service       *sheets.Service
	spreadsheetID string
	worksheet     string
	logger        *slog.Logger
}

// NewSheetsSource builds a source for one worksheet. credentialsJSON is
// the service-account key; worksheet is the tab name (or a numeric gid,
// resolved to its tab title on first fetch).
func NewSheetsSource(ctx context.Context, credentialsJSON []byte, spreadsheetID, worksheet string, logger *slog.Logger) (*SheetsSource, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(credentialsJSON) == 0 {
		return nil, fmt.Errorf("sheets source: empty service-account credentials")
	}
	service, err := sheets.NewService(ctx,
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(sheets.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &SheetsSource{
		service:       service,
		spreadsheetID: spreadsheetID,
		worksheet:     worksheet,
		logger:        logger,
	}, nil
}

// ID implements Source.
func (s *SheetsSource) ID() string {
	return "sheets:" + s.spreadsheetID + "/" + s.worksheet
}

// Fetch implements Source. All cells are coerced to strings even when
// the API returns typed values, to tolerate spreadsheet client
// inconsistencies; the normalizer owns typing.
func (s *SheetsSource) Fetch(ctx context.Context) (domain.RawTable, error) {
	tab, err := s.resolveWorksheet(ctx)
	if err != nil {
		return domain.RawTable{}, err
	}

	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, tab).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).Do()
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("fetch worksheet %q: %w", tab, err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make([]string, len(raw))
		for i, cell := range raw {
			row[i] = fmt.Sprint(cell)
		}
		rows = append(rows, row)
	}

	s.logger.InfoContext(ctx, "fetched worksheet",
		slog.String("source", s.ID()),
		slog.Int("rows", len(rows)))
	return splitTable(rows), nil
}

// resolveWorksheet maps a numeric gid to the tab title; a non-numeric
// worksheet setting is already a title.
func (s *SheetsSource) resolveWorksheet(ctx context.Context) (string, error) {
	gid, err := strconv.ParseInt(s.worksheet, 10, 64)
	if err != nil {
		return s.worksheet, nil
	}
	meta, err := s.service.Spreadsheets.Get(s.spreadsheetID).
		Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("resolve worksheet gid %d: %w", gid, err)
	}
	for _, sh := range meta.Sheets {
		if sh.Properties != nil && sh.Properties.SheetId == gid {
			return sh.Properties.Title, nil
		}
	}
	if len(meta.Sheets) > 0 && meta.Sheets[0].Properties != nil {
		s.logger.WarnContext(ctx, "worksheet gid not found, falling back to first tab",
			slog.Int64("gid", gid))
		return meta.Sheets[0].Properties.Title, nil
	}
	return "", fmt.Errorf("spreadsheet %s has no worksheets", s.spreadsheetID)
}
