package engine

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"

	"agristat/internal/models"
)

// DefaultMissingValues are the cell spellings treated as an absent measurement
var DefaultMissingValues = []string{"", "NA", "N/A", "-", "null", "NULL"}

type LoaderOptions struct {
	MissingValues []string
}

// Loader reads data sources into RecordTables and keeps each table
// for the lifetime of the Loader. A path is read at most once until Reload.
type Loader struct {
	opts   LoaderOptions
	logger *slog.Logger

	mu    sync.Mutex
	cache map[string]*RecordTable
}

func NewLoader(opts LoaderOptions, logger *slog.Logger) *Loader {
	if opts.MissingValues == nil {
		opts.MissingValues = DefaultMissingValues
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{opts: opts, logger: logger, cache: make(map[string]*RecordTable)}
}

// Load returns the table for path, reading it on first use
func (l *Loader) Load(path string) (*RecordTable, error) {
	key := filepath.Clean(path)

	l.mu.Lock()
	defer l.mu.Unlock()
	if t, ok := l.cache[key]; ok {
		return t, nil
	}

	start := time.Now()
	l.logger.Info("loading dataset", slog.String("path", key))

	t, err := LoadColumnar(key, l.opts)
	if err != nil {
		return nil, err
	}
	l.cache[key] = t

	l.logger.Info("dataset loaded",
		slog.String("path", key),
		slog.Int("rows", t.Len()),
		slog.Int("columns", len(t.columns)),
		slog.Duration("took", time.Since(start)))
	return t, nil
}

// Reload drops any cached table for path and reads it again
func (l *Loader) Reload(path string) (*RecordTable, error) {
	l.mu.Lock()
	delete(l.cache, filepath.Clean(path))
	l.mu.Unlock()
	return l.Load(path)
}

// LoadColumnar reads a .csv or .xlsx file into a RecordTable
func LoadColumnar(path string, opts LoaderOptions) (*RecordTable, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return loadWorkbook(path, opts)
	case ".csv", ".txt", "":
		f, err := os.Open(path)
		if err != nil {
			return nil, &DataSourceError{Path: path, Op: "open", Err: err}
		}
		defer f.Close()

		t, err := ParseCSV(f, opts)
		if err != nil {
			var dse *DataSourceError
			if errors.As(err, &dse) {
				dse.Path = path
			}
			return nil, err
		}
		return t, nil
	default:
		return nil, &DataSourceError{Path: path, Op: "open", Err: ErrUnsupportedExt}
	}
}

// ParseCSV reads comma-separated records with a header row
func ParseCSV(r io.Reader, opts LoaderOptions) (*RecordTable, error) {
	reader := csv.NewReader(r)
	// Column count is checked against the header below
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &DataSourceError{Op: "read header", Err: ErrMissingHeader}
	}
	if err != nil {
		return nil, &DataSourceError{Op: "read header", Err: err}
	}

	b, err := newTableBuilder(header, opts)
	if err != nil {
		return nil, err
	}

	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &DataSourceError{Op: "read rows", Err: err}
		}
		if len(row) != len(header) {
			return nil, &DataSourceError{
				Op:  fmt.Sprintf("line %d", line),
				Err: fmt.Errorf("%w: got %d fields, header has %d", ErrColumnCount, len(row), len(header)),
			}
		}
		if err := b.add(row); err != nil {
			return nil, &DataSourceError{Op: fmt.Sprintf("line %d", line), Err: err}
		}
	}
	return b.table, nil
}

// loadWorkbook reads the first sheet of a spreadsheet.
// Spreadsheet rows drop trailing empty cells, so short rows are padded.
func loadWorkbook(path string, opts LoaderOptions) (*RecordTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &DataSourceError{Path: path, Op: "open", Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &DataSourceError{Path: path, Op: "read header", Err: ErrMissingHeader}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &DataSourceError{Path: path, Op: "read rows", Err: err}
	}
	if len(rows) == 0 {
		return nil, &DataSourceError{Path: path, Op: "read header", Err: ErrMissingHeader}
	}

	header := rows[0]
	b, err := newTableBuilder(header, opts)
	if err != nil {
		var dse *DataSourceError
		if errors.As(err, &dse) {
			dse.Path = path
		}
		return nil, err
	}

	for i, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		if len(row) > len(header) {
			return nil, &DataSourceError{
				Path: path,
				Op:   fmt.Sprintf("row %d", i+2),
				Err:  fmt.Errorf("%w: got %d cells, header has %d", ErrColumnCount, len(row), len(header)),
			}
		}
		for len(row) < len(header) {
			row = append(row, "")
		}
		if err := b.add(row); err != nil {
			return nil, &DataSourceError{Path: path, Op: fmt.Sprintf("row %d", i+2), Err: err}
		}
	}
	return b.table, nil
}

// tableBuilder appends parsed rows to a RecordTable
type tableBuilder struct {
	table    *RecordTable
	yearIdx  int
	stateIdx int
	measures []*[]float64 // by header position, nil for structural columns
	missing  map[string]struct{}
	stateMap map[string]int32
}

func newTableBuilder(header []string, opts LoaderOptions) (*tableBuilder, error) {
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	b := &tableBuilder{
		table: &RecordTable{
			Measures: make(map[string][]float64),
			columns:  make([]string, len(header)),
		},
		yearIdx:  -1,
		stateIdx: -1,
		measures: make([]*[]float64, len(header)),
		missing:  make(map[string]struct{}),
		stateMap: make(map[string]int32),
	}
	for _, m := range opts.MissingValues {
		b.missing[strings.TrimSpace(m)] = struct{}{}
	}

	for i, h := range header {
		name := strings.TrimSpace(h)
		b.table.columns[i] = name
		switch name {
		case models.FieldYear:
			b.yearIdx = i
		case models.FieldState:
			b.stateIdx = i
		}
	}
	if b.yearIdx < 0 {
		return nil, &DataSourceError{Op: "read header", Err: fmt.Errorf("%w: %q", ErrMissingColumn, models.FieldYear)}
	}
	if b.stateIdx < 0 {
		return nil, &DataSourceError{Op: "read header", Err: fmt.Errorf("%w: %q", ErrMissingColumn, models.FieldState)}
	}

	// Second pass once the structural columns are known
	for i, name := range b.table.columns {
		if i == b.yearIdx || i == b.stateIdx {
			continue
		}
		col := make([]float64, 0)
		b.table.Measures[name] = col
		b.measures[i] = &col
	}
	return b, nil
}

func (b *tableBuilder) add(row []string) error {
	yearStr := strings.TrimSpace(row[b.yearIdx])
	year, err := strconv.ParseInt(yearStr, 10, 32)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidYear, yearStr)
	}

	state := strings.TrimSpace(row[b.stateIdx])
	id, ok := b.stateMap[state]
	if !ok {
		id = int32(len(b.table.StateDict))
		b.table.StateDict = append(b.table.StateDict, state)
		b.stateMap[state] = id
	}

	b.table.Years = append(b.table.Years, int32(year))
	b.table.StateIDs = append(b.table.StateIDs, id)

	for i, col := range b.measures {
		if col == nil {
			continue
		}
		*col = append(*col, b.parseMeasure(row[i]))
		b.table.Measures[b.table.columns[i]] = *col
	}
	return nil
}

// parseMeasure returns NaN for absent, non-numeric or non-finite cells
func (b *tableBuilder) parseMeasure(cell string) float64 {
	s := strings.TrimSpace(cell)
	if _, ok := b.missing[s]; ok {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) {
		return math.NaN()
	}
	return f
}
