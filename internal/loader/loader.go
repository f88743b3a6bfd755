// Package loader turns files on disk into table.Rows. Format handling lives
// here; the table package never sees file formats.
package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/tabsift/internal/table"
)

// ErrUnsupported indicates no registered loader handles the file.
var ErrUnsupported = errors.New("unsupported dataset format")

// Options tune format-specific reading.
type Options struct {
	// Delimiter for CSV. If 0, chosen by extension (',' or '\t' for .tsv).
	Delimiter rune
	// XLSX sheet selection; SheetName wins over the 1-based SheetIndex.
	SheetName  string
	SheetIndex int
	// Selector picks the HTML table; defaults to the first <table>.
	Selector string
}

// Loader reads one dataset format.
type Loader interface {
	CanLoad(path string) bool
	Read(path string, opt Options) (table.Rows, error)
}

var registry []Loader

// Register adds a loader implementation to the registry.
func Register(l Loader) {
	registry = append(registry, l)
}

// Supported reports whether any loader handles path.
func Supported(path string) bool {
	for _, l := range registry {
		if l.CanLoad(path) {
			return true
		}
	}
	return false
}

// ReadFile selects a loader by file name and returns its raw rows. Every
// failure is a *table.LoadError.
func ReadFile(path string, opt Options) (table.Rows, error) {
	for _, l := range registry {
		if !l.CanLoad(path) {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			return table.Rows{}, table.NewLoadError(path, "unreadable", err)
		}
		rows, err := l.Read(path, opt)
		if err != nil {
			var le *table.LoadError
			if errors.As(err, &le) {
				return table.Rows{}, err
			}
			return table.Rows{}, table.NewLoadError(path, "malformed", err)
		}
		rows.Source = path
		return rows, nil
	}
	ext := strings.ToLower(filepath.Ext(path))
	return table.Rows{}, table.NewLoadError(path, fmt.Sprintf("extension %q", ext), ErrUnsupported)
}

// LoadFile reads path and builds a Table from it.
func LoadFile(path string, opt Options) (*table.Table, error) {
	rows, err := ReadFile(path, opt)
	if err != nil {
		return nil, err
	}
	return table.Load(rows)
}

// splitHeader treats the first record as the header. A source without any
// record is empty.
func splitHeader(records [][]string) (table.Rows, error) {
	if len(records) == 0 {
		return table.Rows{}, errors.New("no header row")
	}
	return table.Rows{Header: records[0], Records: records[1:]}, nil
}

func hasExt(path string, exts ...string) bool {
	name := strings.ToLower(path)
	for _, e := range exts {
		if strings.HasSuffix(name, e) {
			return true
		}
	}
	return false
}

func init() {
	Register(csvLoader{})
	Register(xlsxLoader{})
	Register(htmlLoader{})
}
