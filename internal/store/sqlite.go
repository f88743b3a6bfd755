package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/KaramelBytes/tabsift/internal/table"
	"github.com/KaramelBytes/tabsift/internal/utils"
)

const catalogDDL = `CREATE TABLE IF NOT EXISTS tabsift_snapshots (
	id         TEXT PRIMARY KEY,
	table_name TEXT NOT NULL UNIQUE,
	created_at TEXT NOT NULL,
	columns    TEXT NOT NULL,
	row_count  INTEGER NOT NULL
)`

// SQLiteStore keeps every snapshot in its own table of a SQLite database.
// Column names and order live in the tabsift_snapshots catalog; data tables
// use positional columns c0..cN so any header text is safe.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
			return nil, fmt.Errorf("ensure sqlite dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one connection so ":memory:" databases are shared across calls
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, catalogDDL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create catalog: %w", err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Persist(ctx context.Context, t *table.Table) (Handle, error) {
	id := uuid.New()
	name := "snap_" + strings.ReplaceAll(id.String(), "-", "")
	cols, err := json.Marshal(t.Columns())
	if err != nil {
		return Handle{}, fmt.Errorf("encode columns: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Handle{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	defs := make([]string, 0, t.Width()+1)
	defs = append(defs, "_row INTEGER PRIMARY KEY")
	for j := 0; j < t.Width(); j++ {
		defs = append(defs, fmt.Sprintf("c%d TEXT", j))
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", name, strings.Join(defs, ", "))); err != nil {
		return Handle{}, fmt.Errorf("create snapshot table: %w", err)
	}

	if t.Width() > 0 && t.Len() > 0 {
		marks := strings.TrimSuffix(strings.Repeat("?, ", t.Width()+1), ", ")
		stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s VALUES (%s)", name, marks))
		if err != nil {
			return Handle{}, fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()
		args := make([]any, t.Width()+1)
		for i := 0; i < t.Len(); i++ {
			args[0] = i
			for j := 0; j < t.Width(); j++ {
				c := t.Cell(i, j)
				if c.IsMissing() {
					args[j+1] = nil
				} else {
					args[j+1] = c.String()
				}
			}
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return Handle{}, fmt.Errorf("insert row %d: %w", i+1, err)
			}
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO tabsift_snapshots (id, table_name, created_at, columns, row_count) VALUES (?, ?, ?, ?, ?)`,
		id.String(), name, time.Now().UTC().Format(time.RFC3339), string(cols), t.Len()); err != nil {
		return Handle{}, fmt.Errorf("record snapshot: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Handle{}, fmt.Errorf("commit snapshot: %w", err)
	}
	return Handle{ID: id.String(), Backend: "sqlite", Location: name, Rows: t.Len()}, nil
}

func (s *SQLiteStore) Load(ctx context.Context, h Handle) (*table.Table, error) {
	name, header, err := s.lookup(ctx, s.db, h)
	if err != nil {
		return nil, err
	}
	sel := make([]string, len(header))
	for j := range header {
		sel[j] = fmt.Sprintf("c%d", j)
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT %s FROM %s ORDER BY _row", strings.Join(sel, ", "), name))
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	defer rows.Close()

	var records [][]string
	vals := make([]sql.NullString, len(header))
	ptrs := make([]any, len(header))
	for j := range vals {
		ptrs[j] = &vals[j]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		rec := make([]string, len(header))
		for j, v := range vals {
			if v.Valid {
				rec[j] = v.String
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return table.Load(table.Rows{Source: h.String(), Header: header, Records: records})
}

func (s *SQLiteStore) Discard(ctx context.Context, h Handle) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	name, _, err := s.lookup(ctx, tx, h)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+name); err != nil {
		return fmt.Errorf("drop snapshot table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tabsift_snapshots WHERE id = ?`, h.ID); err != nil {
		return fmt.Errorf("delete catalog row: %w", err)
	}
	return tx.Commit()
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLiteStore) lookup(ctx context.Context, q querier, h Handle) (string, []string, error) {
	var name, cols string
	err := q.QueryRowContext(ctx, `SELECT table_name, columns FROM tabsift_snapshots WHERE id = ?`, h.ID).Scan(&name, &cols)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, fmt.Errorf("%w: %s", ErrUnknownHandle, h.ID)
	}
	if err != nil {
		return "", nil, fmt.Errorf("lookup snapshot: %w", err)
	}
	var header []string
	if err := json.Unmarshal([]byte(cols), &header); err != nil {
		return "", nil, fmt.Errorf("decode columns: %w", err)
	}
	return name, header, nil
}
