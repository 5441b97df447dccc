package engine

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"

	"agristat/internal/models"
)

// Measurement kinds found in crop column headers
const (
	KindArea       = "AREA"
	KindProduction = "PRODUCTION"
	KindYield      = "YIELD"
)

// cropColumnRe splits "RICE AREA (1000 ha)" into crop, kind and unit
var cropColumnRe = regexp.MustCompile(`^(.+?)\s+(AREA|PRODUCTION|YIELD)\s*\((.+)\)$`)

// fold returns s in a form suitable for case-insensitive comparison.
// Casers keep state, so each call gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}

// MatchColumns returns the columns whose name contains crop, ignoring case.
// Substring matching can pick up unrelated crops; Catalogue does exact lookups.
func MatchColumns(crop string, columns []string) []string {
	out := make([]string, 0)
	if strings.TrimSpace(crop) == "" {
		return out
	}
	needle := fold(crop)
	for _, c := range columns {
		if c == models.FieldYear || c == models.FieldState {
			continue
		}
		if strings.Contains(fold(c), needle) {
			out = append(out, c)
		}
	}
	return out
}

// CropColumn is one parsed measurement header
type CropColumn struct {
	Name string
	Crop string
	Kind string
	Unit string
}

// ParseCropColumn splits a measurement header into its parts
func ParseCropColumn(name string) (CropColumn, bool) {
	m := cropColumnRe.FindStringSubmatch(strings.TrimSpace(name))
	if m == nil {
		return CropColumn{}, false
	}
	return CropColumn{
		Name: name,
		Crop: strings.ToUpper(strings.TrimSpace(m[1])),
		Kind: m[2],
		Unit: strings.TrimSpace(m[3]),
	}, true
}

// Catalogue maps each crop to its measurement columns.
// It is derived once from a table's header and never changes.
type Catalogue struct {
	crops  []string
	byCrop map[string][]CropColumn
}

func NewCatalogue(columns []string) *Catalogue {
	c := &Catalogue{byCrop: make(map[string][]CropColumn)}
	for _, name := range columns {
		cc, ok := ParseCropColumn(name)
		if !ok {
			continue
		}
		key := fold(cc.Crop)
		if _, seen := c.byCrop[key]; !seen {
			c.crops = append(c.crops, cc.Crop)
		}
		c.byCrop[key] = append(c.byCrop[key], cc)
	}
	return c
}

// Crops returns the selectable crops in header order
func (c *Catalogue) Crops() []string {
	out := make([]string, len(c.crops))
	copy(out, c.crops)
	return out
}

// Columns returns every measurement column of crop, or an empty slice
func (c *Catalogue) Columns(crop string) []string {
	return c.columns(crop, "")
}

// ColumnsOfKind returns the columns of crop with the given kind
func (c *Catalogue) ColumnsOfKind(crop, kind string) []string {
	return c.columns(crop, kind)
}

func (c *Catalogue) columns(crop, kind string) []string {
	out := make([]string, 0)
	for _, cc := range c.byCrop[fold(strings.TrimSpace(crop))] {
		if kind == "" || cc.Kind == kind {
			out = append(out, cc.Name)
		}
	}
	return out
}

// YieldColumns returns the yield column of every crop, in crop order
func (c *Catalogue) YieldColumns() []string {
	out := make([]string, 0, len(c.crops))
	for _, crop := range c.crops {
		out = append(out, c.ColumnsOfKind(crop, KindYield)...)
	}
	return out
}

// Lookup returns the parsed header for a column of the catalogue
func (c *Catalogue) Lookup(column string) (CropColumn, bool) {
	cc, ok := ParseCropColumn(column)
	if !ok {
		return CropColumn{}, false
	}
	for _, known := range c.byCrop[fold(cc.Crop)] {
		if known.Name == column {
			return known, true
		}
	}
	return CropColumn{}, false
}
