package datasource

import (
	"context"
	"fmt"
	"log/slog"

	"ipdash/internal/config"
)

// FromConfig builds the configured source wrapped in the read-through
// cache.
func FromConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Cache, error) {
	var (
		source Source
		err    error
	)
	switch cfg.Source.Kind {
	case "sheets":
		credentials, credErr := cfg.Credentials()
		if credErr != nil {
			return nil, credErr
		}
		source, err = NewSheetsSource(ctx, credentials, cfg.Source.SheetID, cfg.Source.Worksheet, logger)
	case "excel":
		source = NewExcelSource(cfg.Source.Path, cfg.Source.Worksheet)
	case "csv":
		source = NewCSVSource(cfg.Source.Path)
	default:
		err = fmt.Errorf("unknown source kind %q", cfg.Source.Kind)
	}
	if err != nil {
		return nil, err
	}
	return NewCache(source, cfg.Source.CacheTTL, logger), nil
}
