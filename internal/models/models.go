package models

// Grouping dimensions of the record table
const (
	FieldYear  = "Year"
	FieldState = "State Name"
)

// Chart kinds and bar modes understood by the renderers
const (
	KindBar   = "bar"
	ModeGroup = "group"
	ModeStack = "stack"
)

// Selection is the set of user choices driving one render pass
type Selection struct {
	Crop         string   `json:"crop" query:"crop"`
	Year         int      `json:"year" query:"year" validate:"gte=0,lte=9999"`
	State        string   `json:"state" query:"state"`
	YieldColumns []string `json:"yield_columns" query:"yield" validate:"dive,required"`
}

// AggregatedTable is a table grouped by one key column.
// Rows[i].Values[j] is the sum of Columns[j] for Rows[i].Key.
type AggregatedTable struct {
	KeyField string   `json:"key_field"`
	Columns  []string `json:"columns"`
	Rows     []AggRow `json:"rows"`
}

type AggRow struct {
	Key    string    `json:"key"`
	Values []float64 `json:"values"`
}

// Column returns the values of the named column in row order, or nil
func (t *AggregatedTable) Column(name string) []float64 {
	for j, c := range t.Columns {
		if c == name {
			out := make([]float64, len(t.Rows))
			for i, r := range t.Rows {
				out[i] = r.Values[j]
			}
			return out
		}
	}
	return nil
}

// Keys returns the grouping keys in row order
func (t *AggregatedTable) Keys() []string {
	keys := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		keys[i] = r.Key
	}
	return keys
}

// Reverse returns a copy of the table with rows in the opposite order
func (t *AggregatedTable) Reverse() *AggregatedTable {
	out := &AggregatedTable{KeyField: t.KeyField, Columns: t.Columns, Rows: make([]AggRow, len(t.Rows))}
	for i, r := range t.Rows {
		out.Rows[len(t.Rows)-1-i] = r
	}
	return out
}

// Labels names the two implicit axes of a multi-series bar chart
type Labels struct {
	Value    string `json:"value"`
	Variable string `json:"variable"`
}

// ChartSpec is a renderer-agnostic description of a bar chart
type ChartSpec struct {
	Kind       string   `json:"kind"`
	BarMode    string   `json:"bar_mode"`
	Title      string   `json:"title"`
	XField     string   `json:"x_field"`
	YFields    []string `json:"y_fields"`
	XLabel     string   `json:"x_label"`
	Labels     Labels   `json:"labels"`
	Categories []string `json:"categories"`
	Series     []Series `json:"series"`
	Empty      bool     `json:"empty"`
}

type Series struct {
	Name   string    `json:"name"`
	Color  string    `json:"color"`
	Values []float64 `json:"values"`
}

// Options are the values the selectors may offer
type Options struct {
	Crops        []string `json:"crops"`
	Years        []int    `json:"years"`
	States       []string `json:"states"`
	YieldColumns []string `json:"yield_columns"`
}

// DashboardView is everything one render pass produces
type DashboardView struct {
	Selection Selection  `json:"selection"`
	Options   Options    `json:"options"`
	ByState   *ChartSpec `json:"by_state"`
	ByYear    *ChartSpec `json:"by_year"`
}
