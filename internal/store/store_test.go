package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/tabsift/internal/table"
)

func sample(t *testing.T) *table.Table {
	t.Helper()
	tbl, err := table.Load(table.Rows{
		Header: []string{"name", "age", "city", "note"},
		Records: [][]string{
			{"Ann", "34", "Oslo", ""},
			{"", "", "", ""},
			{"Bob", "", "Köln", "has, comma"},
			{"Annie", "2.50", "", "007"},
			{"Cy", "", "", "bell\x07 _x0041_ tab\tend"},
			{"", "", "", ""},
		},
	})
	require.NoError(t, err)
	return tbl
}

func stores(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()
	xs, err := NewFileStore(dir, "xlsx", "")
	require.NoError(t, err)
	cs, err := NewFileStore(filepath.Join(dir, "csv"), "csv", "snapshot.csv")
	require.NoError(t, err)
	ss, err := OpenSQLite(context.Background(), filepath.Join(dir, "db", "tabsift.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })
	return map[string]Store{"xlsx": xs, "csv": cs, "sqlite": ss}
}

func TestPersistLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			want := sample(t)
			h, err := s.Persist(ctx, want)
			require.NoError(t, err)
			require.NotEmpty(t, h.ID)

			got, err := s.Load(ctx, h)
			require.NoError(t, err)
			if diff := cmp.Diff(want.Columns(), got.Columns()); diff != "" {
				t.Fatalf("columns mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(want.Records(), got.Records()); diff != "" {
				t.Fatalf("records mismatch (-want +got):\n%s", diff)
			}
			require.True(t, want.Equal(got), "reloaded table differs")
			cells, _ := got.Column("age")
			require.Equal(t, table.Numeric, cells[0].Kind)
			require.True(t, cells[1].IsMissing())
			require.True(t, cells[2].IsMissing())
		})
	}
}

func TestPersistLoadSingleColumnWithGaps(t *testing.T) {
	ctx := context.Background()
	want, err := table.Load(table.Rows{
		Header:  []string{"note"},
		Records: [][]string{{"x"}, {""}, {"y"}, {""}},
	})
	require.NoError(t, err)
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			h, err := s.Persist(ctx, want)
			require.NoError(t, err)
			got, err := s.Load(ctx, h)
			require.NoError(t, err)
			require.Equal(t, want.Len(), got.Len())
			require.True(t, want.Equal(got), "reloaded table differs: %q", got.Records())
		})
	}
}

func TestPersistEmptyTable(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			empty, err := table.Filter(sample(t), "name", "zzz")
			require.NoError(t, err)
			h, err := s.Persist(ctx, empty)
			require.NoError(t, err)
			got, err := s.Load(ctx, h)
			require.NoError(t, err)
			require.Equal(t, 0, got.Len())
			require.Equal(t, empty.Columns(), got.Columns())
		})
	}
}

func TestDiscard(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			h, err := s.Persist(ctx, sample(t))
			require.NoError(t, err)
			require.NoError(t, s.Discard(ctx, h))

			_, err = s.Load(ctx, h)
			require.ErrorIs(t, err, ErrUnknownHandle)
			require.ErrorIs(t, s.Discard(ctx, h), ErrUnknownHandle)
		})
	}
}

func TestFileStoreDefaults(t *testing.T) {
	s, err := NewFileStore("/tmp/ws", "", "")
	require.NoError(t, err)
	require.Equal(t, filepath.Join("/tmp/ws", "filtered_data.xlsx"), s.Path())

	_, err = NewFileStore("/tmp/ws", "parquet", "")
	require.Error(t, err)
}

func TestSQLiteKeepsSnapshotsApart(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	defer s.Close()

	full := sample(t)
	part, err := table.Filter(full, "name", "ann")
	require.NoError(t, err)

	h1, err := s.Persist(ctx, full)
	require.NoError(t, err)
	h2, err := s.Persist(ctx, part)
	require.NoError(t, err)
	require.NotEqual(t, h1.Location, h2.Location)

	require.NoError(t, s.Discard(ctx, h1))
	got, err := s.Load(ctx, h2)
	require.NoError(t, err)
	require.Equal(t, 2, got.Len())
}
