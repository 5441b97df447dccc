package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"agristat/internal/models"
	"agristat/internal/render"
)

// chartFlags are shared by both chart subcommands
type chartFlags struct {
	asJSON  bool
	pngPath string
}

func (a *app) chartCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Build one of the dashboard charts from the command line",
	}
	cmd.AddCommand(a.chartStateCommand(), a.chartYieldCommand())
	return cmd
}

func (a *app) chartStateCommand() *cobra.Command {
	var (
		sel   models.Selection
		flags chartFlags
	)
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Area and production by state for one crop and year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if sel.Year < 0 || sel.Year > 9999 {
				return fmt.Errorf("--year must be between 0 and 9999, got %d", sel.Year)
			}
			d, err := a.loadDashboard()
			if err != nil {
				return err
			}
			sel = d.WithDefaults(sel)
			return a.emitChart(cmd, flags, d.StateTable(sel), d.StateView(sel))
		},
	}
	cmd.Flags().StringVar(&sel.Crop, "crop", "", "crop name, e.g. RICE (default: first crop)")
	cmd.Flags().IntVar(&sel.Year, "year", 0, "year (default: latest)")
	addChartFlags(cmd, &flags)
	return cmd
}

func (a *app) chartYieldCommand() *cobra.Command {
	var (
		sel   models.Selection
		flags chartFlags
	)
	cmd := &cobra.Command{
		Use:   "yield",
		Short: "Yield comparison over years for one state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.loadDashboard()
			if err != nil {
				return err
			}
			sel = d.WithDefaults(sel)
			return a.emitChart(cmd, flags, d.YieldTable(sel), d.YieldView(sel))
		},
	}
	cmd.Flags().StringVar(&sel.State, "state", "", "state name (default: first state)")
	cmd.Flags().StringSliceVar(&sel.YieldColumns, "yield", nil, "yield columns to compare (default: all)")
	addChartFlags(cmd, &flags)
	return cmd
}

func addChartFlags(cmd *cobra.Command, flags *chartFlags) {
	cmd.Flags().BoolVar(&flags.asJSON, "json", false, "print the chart specification as JSON")
	cmd.Flags().StringVar(&flags.pngPath, "png", "", "also write the chart as a PNG file")
}

func (a *app) emitChart(cmd *cobra.Command, flags chartFlags, agg *models.AggregatedTable, spec *models.ChartSpec) error {
	if flags.pngPath != "" {
		if err := writePNGFile(flags.pngPath, spec, a.cfg.Charts.Width, a.cfg.Charts.Height); err != nil {
			return err
		}
		a.logger.Info("chart written", "path", flags.pngPath)
	}

	if flags.asJSON {
		enc := json.NewEncoder(out(cmd))
		enc.SetIndent("", "  ")
		return enc.Encode(spec)
	}

	if spec.Empty {
		fmt.Fprintln(out(cmd), "No data for this selection.")
		return nil
	}
	writeAggregateTable(out(cmd), agg)
	return nil
}

// writePNGFile skips empty charts and leaves no file behind on failure
func writePNGFile(path string, spec *models.ChartSpec, width, height int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	err = render.PNG(f, spec, width, height)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		if errors.Is(err, render.ErrEmptyChart) {
			return fmt.Errorf("%s: %w", path, err)
		}
		return err
	}
	return nil
}

func writeAggregateTable(w io.Writer, agg *models.AggregatedTable) {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetHeader(append([]string{agg.KeyField}, agg.Columns...))
	for _, row := range agg.Rows {
		line := make([]string, 0, len(row.Values)+1)
		line = append(line, row.Key)
		for _, v := range row.Values {
			line = append(line, formatValue(v))
		}
		table.Append(line)
	}
	table.Render()
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
