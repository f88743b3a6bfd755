package store

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/KaramelBytes/tabsift/internal/loader"
	"github.com/KaramelBytes/tabsift/internal/table"
	"github.com/KaramelBytes/tabsift/internal/utils"
	"github.com/KaramelBytes/tabsift/internal/xlsx"
)

const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"

	// DefaultFileName matches the snapshot name spreadsheet users expect.
	DefaultFileName = "filtered_data"
)

// FileStore writes snapshots as spreadsheet files inside Dir.
type FileStore struct {
	Dir    string
	Format string
	// Name is the base file name without extension.
	Name string
}

// NewFileStore returns a FileStore writing format ("xlsx" or "csv") files.
func NewFileStore(dir, format, name string) (*FileStore, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatXLSX
	}
	if format != FormatXLSX && format != FormatCSV {
		return nil, fmt.Errorf("unsupported snapshot format %q (use xlsx or csv)", format)
	}
	if name == "" {
		name = DefaultFileName
	}
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return &FileStore{Dir: dir, Format: format, Name: name}, nil
}

// Path returns where the snapshot file is written.
func (s *FileStore) Path() string { return filepath.Join(s.Dir, s.Name+"."+s.Format) }

func (s *FileStore) Persist(ctx context.Context, t *table.Table) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return Handle{}, err
	}
	var data []byte
	var err error
	switch s.Format {
	case FormatCSV:
		data, err = encodeCSV(t)
	default:
		data, err = encodeXLSX(t)
	}
	if err != nil {
		return Handle{}, fmt.Errorf("encode snapshot: %w", err)
	}
	p := s.Path()
	if err := utils.SafeWriteFile(p, data); err != nil {
		return Handle{}, err
	}
	return Handle{ID: uuid.NewString(), Backend: "file", Location: p, Rows: t.Len()}, nil
}

func (s *FileStore) Load(ctx context.Context, h Handle) (*table.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(h.Location); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownHandle, h.Location)
	}
	rows, err := loader.ReadFile(h.Location, loader.Options{})
	if err != nil {
		return nil, err
	}
	// spreadsheets drop trailing rows with no values
	for len(rows.Records) < h.Rows {
		rows.Records = append(rows.Records, make([]string, len(rows.Header)))
	}
	return table.Load(rows)
}

func (s *FileStore) Discard(ctx context.Context, h Handle) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(h.Location); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrUnknownHandle, h.Location)
		}
		return fmt.Errorf("remove snapshot: %w", err)
	}
	return nil
}

func encodeCSV(t *table.Table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Columns()); err != nil {
		return nil, err
	}
	for _, rec := range t.Records() {
		// a lone empty field would be a blank line, which readers skip
		if len(rec) == 1 && rec[0] == "" {
			w.Flush()
			buf.WriteString("\"\"\n")
			continue
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeXLSX(t *table.Table) ([]byte, error) {
	rows := make([][]xlsx.Value, 0, t.Len()+1)
	header := make([]xlsx.Value, t.Width())
	for j, name := range t.Columns() {
		header[j] = xlsx.Value{Text: name}
	}
	rows = append(rows, header)
	for i := 0; i < t.Len(); i++ {
		row := make([]xlsx.Value, t.Width())
		for j := range row {
			c := t.Cell(i, j)
			row[j] = xlsx.Value{Text: c.String(), Numeric: c.Kind == table.Numeric}
		}
		rows = append(rows, row)
	}
	var buf bytes.Buffer
	if err := xlsx.Write(&buf, "Filtered", rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
