package engine

import (
	"errors"
	"fmt"
)

// Structural problems a data source can have
var (
	ErrMissingHeader  = errors.New("header row absent")
	ErrMissingColumn  = errors.New("required column absent")
	ErrColumnCount    = errors.New("inconsistent column count")
	ErrInvalidYear    = errors.New("year is not an integer")
	ErrUnsupportedExt = errors.New("unsupported source format")
)

// DataSourceError reports a dataset that could not be loaded.
// Nothing can be rendered without the table, so callers abort on it.
type DataSourceError struct {
	Path string
	Op   string
	Err  error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("data source %s: %s: %v", e.Path, e.Op, e.Err)
}

func (e *DataSourceError) Unwrap() error {
	return e.Err
}

// IsDataSourceError reports whether err is, or wraps, a DataSourceError
func IsDataSourceError(err error) bool {
	var dse *DataSourceError
	return errors.As(err, &dse)
}
