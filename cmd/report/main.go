// Command report runs the dashboard pipeline once and renders view
// output as terminal tables or CSV files.
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"ipdash/internal/config"
	"ipdash/internal/dataset"
	"ipdash/internal/datasource"
	"ipdash/internal/infrastructure"
	"ipdash/internal/services"
	"ipdash/pkg/contracts"
	"ipdash/pkg/contracts/domain"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "report",
		Short:         "Render IP performance views outside the web server",
		Version:       contracts.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newViewCmd(), newExportCmd())
	return root
}

// buildService loads config and wires the same pipeline the web server
// uses.
func buildService(ctx context.Context) (*services.DashboardService, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}
	source, err := datasource.FromConfig(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return services.NewDashboardService(source, dataset.ColumnMap(cfg.Columns), cfg.Analytics, logger), nil
}

func newViewCmd() *cobra.Command {
	var (
		ip        string
		compareIP string
		metric    string
		cutoff    float64
	)
	cmd := &cobra.Command{
		Use:   "view <name>",
		Short: "Render one view as terminal tables",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := buildService(cmd.Context())
			if err != nil {
				return err
			}
			payload, err := service.Render(cmd.Context(), services.ViewRequest{
				View:      domain.ViewID(args[0]),
				IP:        ip,
				CompareIP: compareIP,
				Metric:    domain.Metric(metric),
				Cutoff:    cutoff,
			})
			if err != nil {
				return err
			}
			printPayload(payload)
			return nil
		},
	}
	cmd.Flags().StringVar(&ip, "ip", "", "IP to focus on")
	cmd.Flags().StringVar(&compareIP, "compare-ip", "", "second IP for comparison views")
	cmd.Flags().StringVar(&metric, "metric", "", "metric override")
	cmd.Flags().Float64Var(&cutoff, "cutoff", 0, "episode cutoff for grading")
	return cmd
}

func newExportCmd() *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "export <view>",
		Short: "Write a view's grids to CSV files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := buildService(cmd.Context())
			if err != nil {
				return err
			}
			payload, err := service.Render(cmd.Context(), services.ViewRequest{
				View: domain.ViewID(args[0]),
			})
			if err != nil {
				return err
			}
			if payload.Message != "" {
				return fmt.Errorf("view returned no data: %s", payload.Message)
			}
			for _, grid := range payload.Grids {
				path := filepath.Join(outDir, fmt.Sprintf("%s-%s.csv", args[0], grid.Name))
				if err := writeGridCSV(path, grid); err != nil {
					return err
				}
				fmt.Println("wrote", path)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&outDir, "out", ".", "output directory")
	return cmd
}

func printPayload(payload domain.ViewPayload) {
	if payload.Message != "" {
		fmt.Println(payload.Message)
		return
	}
	for _, warning := range payload.Warnings {
		fmt.Println("warning:", warning)
	}

	if len(payload.KPIs) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"KPI", "Value"})
		for _, k := range payload.KPIs {
			t.AppendRow(table.Row{k.Name, k.Formatted})
		}
		t.Render()
	}

	for _, grid := range payload.Grids {
		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleLight)
		t.SetTitle(grid.Name)
		header := table.Row{""}
		for _, c := range grid.Columns {
			header = append(header, c)
		}
		t.AppendHeader(header)
		for i, key := range grid.RowKeys {
			row := table.Row{key}
			for _, cell := range grid.Rows[i] {
				row = append(row, cell.Formatted)
			}
			t.AppendRow(row)
		}
		t.Render()
	}
}

func writeGridCSV(path string, grid domain.Grid) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(append([]string{""}, grid.Columns...)); err != nil {
		return err
	}
	for i, key := range grid.RowKeys {
		record := []string{key}
		for _, cell := range grid.Rows[i] {
			record = append(record, cell.Formatted)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}
