// Package session owns the "current table" of a tabsift run: the original
// dataset, the filtered snapshot that replaced it, and the on-disk state that
// lets successive CLI invocations continue where the last one stopped.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KaramelBytes/tabsift/internal/loader"
	"github.com/KaramelBytes/tabsift/internal/logging"
	"github.com/KaramelBytes/tabsift/internal/store"
	"github.com/KaramelBytes/tabsift/internal/table"
	"github.com/KaramelBytes/tabsift/internal/utils"
)

const stateFileName = "session.json"

var (
	// ErrNoTable is returned by operations that need an opened dataset.
	ErrNoTable = errors.New("no dataset opened")
	// ErrNothingToDiscard means no filtered snapshot exists.
	ErrNothingToDiscard = errors.New("no filtered data to discard")
	// ErrNoSession means the workspace holds no saved session.
	ErrNoSession = errors.New("no saved session")
)

// Filter is one predicate applied to the dataset.
type Filter struct {
	Column  string `json:"column"`
	Pattern string `json:"pattern"`
}

// State is the JSON-serialized part of a session.
type State struct {
	ID        string        `json:"id"`
	Source    string        `json:"source"`
	Options   SourceOptions `json:"options"`
	Filters   []Filter      `json:"filters,omitempty"`
	Handle    *store.Handle `json:"handle,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// SourceOptions records how the source file was read so it can be reread.
type SourceOptions struct {
	SheetName  string `json:"sheet_name,omitempty"`
	SheetIndex int    `json:"sheet_index,omitempty"`
	Delimiter  string `json:"delimiter,omitempty"`
	Selector   string `json:"selector,omitempty"`
}

func (o SourceOptions) loaderOptions() loader.Options {
	opt := loader.Options{SheetName: o.SheetName, SheetIndex: o.SheetIndex, Selector: o.Selector}
	if r := []rune(o.Delimiter); len(r) > 0 {
		opt.Delimiter = r[0]
	}
	return opt
}

// Session holds the original and current tables. Tables are replaced, never
// mutated; a failed operation leaves both untouched.
type Session struct {
	state    State
	store    store.Store
	rootDir  string
	original *table.Table
	current  *table.Table
}

// New returns an empty session persisting snapshots through st and its own
// state under dir. An empty dir keeps the session in memory only.
func New(st store.Store, dir string) *Session {
	now := time.Now()
	return &Session{
		state:   State{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now},
		store:   st,
		rootDir: dir,
	}
}

// ID identifies the session across invocations.
func (s *Session) ID() string { return s.state.ID }

// Source is the path of the opened dataset.
func (s *Session) Source() string { return s.state.Source }

// Filters lists the predicates applied since the dataset was opened.
func (s *Session) Filters() []Filter { return append([]Filter(nil), s.state.Filters...) }

// Current is the table later operations act on.
func (s *Session) Current() *table.Table { return s.current }

// Original is the table as loaded from the source.
func (s *Session) Original() *table.Table { return s.original }

// Handle returns the handle of the persisted filtered snapshot, if any.
func (s *Session) Handle() (store.Handle, bool) {
	if s.state.Handle == nil {
		return store.Handle{}, false
	}
	return *s.state.Handle, true
}

// Open loads rows as a new original table. Any previous snapshot is dropped.
func (s *Session) Open(ctx context.Context, source string, rows table.Rows) error {
	if rows.Source == "" {
		rows.Source = source
	}
	t, err := table.Load(rows)
	if err != nil {
		return err
	}
	s.replaceSource(ctx, source, SourceOptions{}, t)
	return nil
}

// OpenFile reads path through the loader registry and opens it.
func (s *Session) OpenFile(ctx context.Context, path string, opt SourceOptions) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	t, err := loader.LoadFile(abs, opt.loaderOptions())
	if err != nil {
		return err
	}
	s.replaceSource(ctx, abs, opt, t)
	return nil
}

func (s *Session) replaceSource(ctx context.Context, source string, opt SourceOptions, t *table.Table) {
	if h, ok := s.Handle(); ok {
		if err := s.store.Discard(ctx, h); err != nil && !errors.Is(err, store.ErrUnknownHandle) {
			logging.L().Warn("discard stale snapshot", zap.String("handle", h.String()), zap.Error(err))
		}
	}
	s.state.Source = source
	s.state.Options = opt
	s.state.Filters = nil
	s.state.Handle = nil
	s.original = t
	s.current = t
	logging.L().Info("dataset opened",
		zap.String("session", s.state.ID),
		zap.String("source", source),
		zap.Int("rows", t.Len()),
		zap.Int("columns", t.Width()))
}

// ApplyFilter filters the current table, persists the result and makes the
// reloaded snapshot current. On error nothing changes.
func (s *Session) ApplyFilter(ctx context.Context, column, pattern string) (*table.Table, error) {
	if s.current == nil {
		return nil, ErrNoTable
	}
	filtered, err := table.Filter(s.current, column, pattern)
	if err != nil {
		return nil, err
	}
	h, err := s.store.Persist(ctx, filtered)
	if err != nil {
		return nil, fmt.Errorf("persist filtered data: %w", err)
	}
	prev, hadPrev := s.Handle()
	reloaded, err := s.store.Load(ctx, h)
	if err != nil {
		// a store that writes in place has already replaced the previous
		// snapshot; removing it would orphan the saved handle
		if !hadPrev || prev.Location != h.Location {
			_ = s.store.Discard(ctx, h)
		}
		return nil, fmt.Errorf("reload filtered data: %w", err)
	}
	if hadPrev && prev.Location != h.Location {
		if err := s.store.Discard(ctx, prev); err != nil && !errors.Is(err, store.ErrUnknownHandle) {
			logging.L().Warn("discard previous snapshot", zap.String("handle", prev.String()), zap.Error(err))
		}
	}
	s.state.Handle = &h
	s.state.Filters = append(s.state.Filters, Filter{Column: column, Pattern: pattern})
	s.current = reloaded
	logging.L().Info("filter applied",
		zap.String("session", s.state.ID),
		zap.String("column", column),
		zap.Int("matches", reloaded.Len()),
		zap.String("handle", h.String()))
	return reloaded, nil
}

// Discard deletes the filtered snapshot and restores the original table.
func (s *Session) Discard(ctx context.Context) error {
	h, ok := s.Handle()
	if !ok {
		return ErrNothingToDiscard
	}
	if err := s.store.Discard(ctx, h); err != nil && !errors.Is(err, store.ErrUnknownHandle) {
		return fmt.Errorf("discard snapshot: %w", err)
	}
	s.state.Handle = nil
	s.state.Filters = nil
	s.current = s.original
	logging.L().Info("filtered data discarded", zap.String("session", s.state.ID), zap.String("handle", h.String()))
	return nil
}

// Save writes session.json atomically.
func (s *Session) Save() error {
	if s.rootDir == "" {
		return errors.New("session directory not set")
	}
	s.state.UpdatedAt = time.Now()
	data, err := utils.PrettyJSON(s.state)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(s.rootDir, stateFileName), data)
}

// Load restores the session saved under dir: the source is reread and, when a
// filtered snapshot exists, it is reloaded from st as the current table.
func Load(ctx context.Context, st store.Store, dir string) (*Session, error) {
	path := filepath.Join(dir, stateFileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("read session: %w", err)
	}
	var state State
	if err := json.Unmarshal(b, &state); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	s := &Session{state: state, store: st, rootDir: dir}
	if strings.TrimSpace(state.Source) == "" {
		return s, nil
	}
	orig, err := loader.LoadFile(state.Source, state.Options.loaderOptions())
	if err != nil {
		return nil, fmt.Errorf("reopen %s: %w", state.Source, err)
	}
	s.original = orig
	s.current = orig
	if state.Handle != nil {
		cur, err := st.Load(ctx, *state.Handle)
		if err != nil {
			return nil, fmt.Errorf("reload filtered data: %w", err)
		}
		s.current = cur
	}
	return s, nil
}

// Clear removes the saved session state from dir.
func Clear(dir string) error {
	err := os.Remove(filepath.Join(dir, stateFileName))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
