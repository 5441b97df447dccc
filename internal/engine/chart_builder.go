package engine

import (
	"agristat/internal/models"
)

// DefaultPalette colors series that have no explicit color
var DefaultPalette = []string{
	"#636EFA", "#EF553B", "#00CC96", "#AB63FA", "#FFA15A",
	"#19D3F3", "#FF6692", "#B6E880", "#FF97FF", "#FECB52",
}

// StackedLabels are the axis labels of color-mapped charts
var StackedLabels = models.Labels{Value: "Value", Variable: "Category"}

// BuildGroupedBarChart draws one bar per (category, field) pair, grouped by category.
// It never fails: missing fields plot as zeros and empty input gives an empty chart.
func BuildGroupedBarChart(agg *models.AggregatedTable, xField string, yFields []string, title string, labels models.Labels) *models.ChartSpec {
	spec := newBarChart(agg, xField, yFields, title, labels, models.ModeGroup)
	for i := range spec.Series {
		spec.Series[i].Color = DefaultPalette[i%len(DefaultPalette)]
	}
	return spec
}

// BuildColorMappedBarChart stacks the fields per category and colors each
// field from colorMap, falling back to DefaultPalette for unmapped fields.
func BuildColorMappedBarChart(agg *models.AggregatedTable, xField string, yFields []string, title string, colorMap map[string]string) *models.ChartSpec {
	spec := newBarChart(agg, xField, yFields, title, StackedLabels, models.ModeStack)
	auto := 0
	for i := range spec.Series {
		if c, ok := colorMap[spec.Series[i].Name]; ok && c != "" {
			spec.Series[i].Color = c
			continue
		}
		spec.Series[i].Color = DefaultPalette[auto%len(DefaultPalette)]
		auto++
	}
	return spec
}

func newBarChart(agg *models.AggregatedTable, xField string, yFields []string, title string, labels models.Labels, mode string) *models.ChartSpec {
	spec := &models.ChartSpec{
		Kind:       models.KindBar,
		BarMode:    mode,
		Title:      title,
		XField:     xField,
		YFields:    append([]string{}, yFields...),
		XLabel:     xField,
		Labels:     labels,
		Categories: make([]string, 0),
		Series:     make([]models.Series, 0, len(yFields)),
	}
	if agg != nil {
		spec.Categories = agg.Keys()
	}

	for _, field := range yFields {
		var values []float64
		if agg != nil {
			values = agg.Column(field)
		}
		if values == nil {
			values = make([]float64, len(spec.Categories))
		}
		spec.Series = append(spec.Series, models.Series{Name: field, Values: values})
	}

	spec.Empty = len(spec.Series) == 0 || len(spec.Categories) == 0
	return spec
}
