package engine

import (
	"math"
	"sort"
	"strconv"

	"agristat/internal/models"
)

// ByYear keeps the rows of one year and sums valueColumns per state.
// States come out in ascending order.
func ByYear(t *RecordTable, year int, valueColumns []string) *models.AggregatedTable {
	numStates := len(t.StateDict)
	numCols := len(valueColumns)
	cols := t.resolve(valueColumns)

	// Flattened [State][Column] -> [State * numCols + Column]
	matrix := make([]float64, numStates*numCols)
	seen := make([]bool, numStates)

	for i, ry := range t.Years {
		if int(ry) != year {
			continue
		}
		sid := t.StateIDs[i]
		seen[sid] = true
		base := int(sid) * numCols
		for j, col := range cols {
			if col == nil || math.IsNaN(col[i]) {
				continue
			}
			matrix[base+j] += col[i]
		}
	}

	agg := newAggregated(models.FieldState, valueColumns)
	for sid, ok := range seen {
		if !ok {
			continue
		}
		values := make([]float64, numCols)
		copy(values, matrix[sid*numCols:(sid+1)*numCols])
		agg.Rows = append(agg.Rows, models.AggRow{Key: t.StateDict[sid], Values: values})
	}
	sort.Slice(agg.Rows, func(i, j int) bool { return agg.Rows[i].Key < agg.Rows[j].Key })
	return agg
}

// ByState keeps the rows of one state and sums valueColumns per year.
// Years come out in ascending order.
func ByState(t *RecordTable, state string, valueColumns []string) *models.AggregatedTable {
	agg := newAggregated(models.FieldYear, valueColumns)
	sid, ok := t.stateID(state)
	if !ok {
		return agg
	}

	numCols := len(valueColumns)
	cols := t.resolve(valueColumns)
	sums := make(map[int32][]float64)

	for i, rs := range t.StateIDs {
		if rs != sid {
			continue
		}
		y := t.Years[i]
		row, exists := sums[y]
		if !exists {
			row = make([]float64, numCols)
			sums[y] = row
		}
		for j, col := range cols {
			if col == nil || math.IsNaN(col[i]) {
				continue
			}
			row[j] += col[i]
		}
	}

	years := make([]int, 0, len(sums))
	for y := range sums {
		years = append(years, int(y))
	}
	sort.Ints(years)
	for _, y := range years {
		agg.Rows = append(agg.Rows, models.AggRow{Key: strconv.Itoa(y), Values: sums[int32(y)]})
	}
	return agg
}

func newAggregated(keyField string, valueColumns []string) *models.AggregatedTable {
	columns := make([]string, len(valueColumns))
	copy(columns, valueColumns)
	return &models.AggregatedTable{
		KeyField: keyField,
		Columns:  columns,
		Rows:     make([]models.AggRow, 0),
	}
}

// resolve maps column names to their data; unknown columns map to nil and sum to zero
func (t *RecordTable) resolve(columns []string) [][]float64 {
	out := make([][]float64, len(columns))
	for j, c := range columns {
		out[j] = t.Measures[c]
	}
	return out
}
