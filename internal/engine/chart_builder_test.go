package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agristat/internal/models"
)

func sampleAggregate() *models.AggregatedTable {
	return &models.AggregatedTable{
		KeyField: models.FieldYear,
		Columns:  []string{"RICE YIELD (Kg per ha)", "WHEAT YIELD (Kg per ha)"},
		Rows: []models.AggRow{
			{Key: "2010", Values: []float64{800, 2500}},
			{Key: "2011", Values: []float64{850, 2550}},
		},
	}
}

func TestBuildGroupedBarChart(t *testing.T) {
	labels := models.Labels{Value: "Yield", Variable: "Crop"}
	spec := BuildGroupedBarChart(sampleAggregate(), models.FieldYear, []string{"WHEAT YIELD (Kg per ha)", "RICE YIELD (Kg per ha)"}, "Yields", labels)

	assert.Equal(t, models.KindBar, spec.Kind)
	assert.Equal(t, models.ModeGroup, spec.BarMode)
	assert.Equal(t, "Yields", spec.Title)
	assert.Equal(t, labels, spec.Labels)
	assert.Equal(t, []string{"2010", "2011"}, spec.Categories)
	assert.False(t, spec.Empty)

	require.Len(t, spec.Series, 2)
	assert.Equal(t, "WHEAT YIELD (Kg per ha)", spec.Series[0].Name)
	assert.Equal(t, []float64{2500, 2550}, spec.Series[0].Values)
	assert.Equal(t, DefaultPalette[0], spec.Series[0].Color)
	assert.Equal(t, DefaultPalette[1], spec.Series[1].Color)
}

func TestBuildGroupedBarChart_UnknownFieldPlotsZeros(t *testing.T) {
	spec := BuildGroupedBarChart(sampleAggregate(), models.FieldYear, []string{"MAIZE"}, "t", YieldLabels)
	require.Len(t, spec.Series, 1)
	assert.Equal(t, []float64{0, 0}, spec.Series[0].Values)
}

func TestBuildColorMappedBarChart(t *testing.T) {
	colors := map[string]string{"WHEAT YIELD (Kg per ha)": "#ff7f0e"}
	spec := BuildColorMappedBarChart(sampleAggregate(), models.FieldYear, sampleAggregate().Columns, "Stacked", colors)

	assert.Equal(t, models.ModeStack, spec.BarMode)
	assert.Equal(t, StackedLabels, spec.Labels)
	require.Len(t, spec.Series, 2)
	// Unmapped series take palette colors in order
	assert.Equal(t, DefaultPalette[0], spec.Series[0].Color)
	assert.Equal(t, "#ff7f0e", spec.Series[1].Color)
}

func TestChartBuilders_AreTotal(t *testing.T) {
	empty := &models.AggregatedTable{KeyField: models.FieldState, Columns: []string{}, Rows: []models.AggRow{}}

	tests := []struct {
		name string
		spec *models.ChartSpec
	}{
		{name: "grouped, no fields", spec: BuildGroupedBarChart(sampleAggregate(), models.FieldYear, nil, "t", YieldLabels)},
		{name: "grouped, no rows", spec: BuildGroupedBarChart(empty, models.FieldState, []string{"A"}, "t", YieldLabels)},
		{name: "grouped, nil table", spec: BuildGroupedBarChart(nil, models.FieldState, []string{"A"}, "t", YieldLabels)},
		{name: "mapped, no fields", spec: BuildColorMappedBarChart(sampleAggregate(), models.FieldYear, nil, "t", nil)},
		{name: "mapped, no rows", spec: BuildColorMappedBarChart(empty, models.FieldState, []string{"A"}, "t", nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotNil(t, tt.spec)
			assert.True(t, tt.spec.Empty)
			assert.Equal(t, models.KindBar, tt.spec.Kind)
			assert.NotNil(t, tt.spec.Categories)
			assert.NotNil(t, tt.spec.Series)
		})
	}
}
