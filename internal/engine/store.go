package engine

import (
	"math"
	"sort"
)

// RecordTable holds the dataset in Struct-of-Arrays format.
// It is never mutated after the loader returns it.
type RecordTable struct {
	// Structural columns
	Years    []int32
	StateIDs []int32

	// Dictionary (ID -> State Name)
	StateDict []string

	// Measurement columns, NaN marks an absent value
	Measures map[string][]float64

	// Header order, structural columns included
	columns []string
}

// Len returns the number of rows
func (t *RecordTable) Len() int {
	return len(t.Years)
}

// Columns returns the column catalogue in header order
func (t *RecordTable) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// MeasureColumns returns the measurement columns in header order
func (t *RecordTable) MeasureColumns() []string {
	out := make([]string, 0, len(t.Measures))
	for _, c := range t.columns {
		if _, ok := t.Measures[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

// HasColumn reports whether name is part of the catalogue
func (t *RecordTable) HasColumn(name string) bool {
	for _, c := range t.columns {
		if c == name {
			return true
		}
	}
	return false
}

// Year returns the Year of row i
func (t *RecordTable) Year(i int) int {
	return int(t.Years[i])
}

// State returns the State Name of row i
func (t *RecordTable) State(i int) string {
	return t.StateDict[t.StateIDs[i]]
}

// Measure returns the value of column at row i and whether it is present
func (t *RecordTable) Measure(column string, i int) (float64, bool) {
	col, ok := t.Measures[column]
	if !ok || math.IsNaN(col[i]) {
		return 0, false
	}
	return col[i], true
}

// DistinctYears returns every year in the table, latest first
func (t *RecordTable) DistinctYears() []int {
	seen := make(map[int32]struct{})
	out := make([]int, 0)
	for _, y := range t.Years {
		if _, ok := seen[y]; ok {
			continue
		}
		seen[y] = struct{}{}
		out = append(out, int(y))
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}

// DistinctStates returns every state in the table in descending order
func (t *RecordTable) DistinctStates() []string {
	out := make([]string, len(t.StateDict))
	copy(out, t.StateDict)
	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	return out
}

// stateID resolves a state name to its dictionary ID
func (t *RecordTable) stateID(name string) (int32, bool) {
	for id, s := range t.StateDict {
		if s == name {
			return int32(id), true
		}
	}
	return 0, false
}
