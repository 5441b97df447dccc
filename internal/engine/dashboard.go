package engine

import (
	"strings"

	"agristat/internal/models"
)

// Chart titles and labels of the two views
const (
	StateViewTitle = "Area and Production by State"
	YieldViewTitle = "Crop Yields Over Years"
)

var YieldLabels = models.Labels{Value: "Yield (Kg per ha)", Variable: "Crop"}

// DefaultKindColors color area and production columns unless configured otherwise
var DefaultKindColors = map[string]string{
	KindArea:       "#1f77b4",
	KindProduction: "#ff7f0e",
}

type DashboardOptions struct {
	// ColorMap fixes the color of series in the by-state chart. Keys are
	// column names or measurement kinds (AREA, PRODUCTION, YIELD); a
	// column name wins over its kind.
	ColorMap map[string]string
}

// Dashboard turns selections into charts over one immutable table.
// The table is handed in at startup; every method is a pure read.
type Dashboard struct {
	table      *RecordTable
	catalogue  *Catalogue
	opts       DashboardOptions
	kindColors map[string]string
}

func NewDashboard(t *RecordTable, opts DashboardOptions) *Dashboard {
	kindColors := make(map[string]string, len(DefaultKindColors))
	for kind, c := range DefaultKindColors {
		kindColors[kind] = c
	}
	for key, c := range opts.ColorMap {
		switch kind := strings.ToUpper(strings.TrimSpace(key)); kind {
		case KindArea, KindProduction, KindYield:
			kindColors[kind] = c
		}
	}
	return &Dashboard{
		table:      t,
		catalogue:  NewCatalogue(t.Columns()),
		opts:       opts,
		kindColors: kindColors,
	}
}

func (d *Dashboard) Table() *RecordTable {
	return d.table
}

func (d *Dashboard) Catalogue() *Catalogue {
	return d.catalogue
}

// Options lists what the selectors can offer
func (d *Dashboard) Options() models.Options {
	return models.Options{
		Crops:        d.catalogue.Crops(),
		Years:        d.table.DistinctYears(),
		States:       d.table.DistinctStates(),
		YieldColumns: d.catalogue.YieldColumns(),
	}
}

// WithDefaults fills unset fields of sel with the first selectable value
func (d *Dashboard) WithDefaults(sel models.Selection) models.Selection {
	opts := d.Options()
	if sel.Crop == "" && len(opts.Crops) > 0 {
		sel.Crop = opts.Crops[0]
	}
	if sel.Year == 0 && len(opts.Years) > 0 {
		sel.Year = opts.Years[0]
	}
	if sel.State == "" && len(opts.States) > 0 {
		sel.State = opts.States[0]
	}
	return d.normalize(sel)
}

// normalize applies the "no yield columns means all of them" rule
func (d *Dashboard) normalize(sel models.Selection) models.Selection {
	if len(sel.YieldColumns) == 0 {
		sel.YieldColumns = d.catalogue.YieldColumns()
	}
	return sel
}

// StateTable sums the selected crop's columns per state for the selected year
func (d *Dashboard) StateTable(sel models.Selection) *models.AggregatedTable {
	return ByYear(d.table, sel.Year, d.catalogue.Columns(sel.Crop))
}

// YieldTable sums the selected yield columns per year for the selected state
func (d *Dashboard) YieldTable(sel models.Selection) *models.AggregatedTable {
	sel = d.normalize(sel)
	return ByState(d.table, sel.State, sel.YieldColumns)
}

// StateView is the "area and production by state" chart
func (d *Dashboard) StateView(sel models.Selection) *models.ChartSpec {
	agg := d.StateTable(sel)
	return BuildColorMappedBarChart(agg, models.FieldState, agg.Columns, StateViewTitle, d.seriesColors(agg.Columns))
}

// seriesColors picks each column's color by name, then by measurement kind
func (d *Dashboard) seriesColors(columns []string) map[string]string {
	out := make(map[string]string, len(columns))
	for _, col := range columns {
		if c := d.opts.ColorMap[col]; c != "" {
			out[col] = c
			continue
		}
		cc, ok := d.catalogue.Lookup(col)
		if !ok {
			continue
		}
		if c := d.kindColors[cc.Kind]; c != "" {
			out[col] = c
		}
	}
	return out
}

// YieldView is the "crop yield comparison" chart
func (d *Dashboard) YieldView(sel models.Selection) *models.ChartSpec {
	agg := d.YieldTable(sel)
	return BuildGroupedBarChart(agg, models.FieldYear, agg.Columns, YieldViewTitle, YieldLabels)
}

// Render runs one full pass for sel
func (d *Dashboard) Render(sel models.Selection) *models.DashboardView {
	sel = d.normalize(sel)
	return &models.DashboardView{
		Selection: sel,
		Options:   d.Options(),
		ByState:   d.StateView(sel),
		ByYear:    d.YieldView(sel),
	}
}
