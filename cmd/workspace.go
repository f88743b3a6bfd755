package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/KaramelBytes/tabsift/internal/session"
	"github.com/KaramelBytes/tabsift/internal/store"
	"github.com/KaramelBytes/tabsift/internal/utils"
)

// openStore builds the snapshot store selected by config. The returned
// closer must always be called.
func openStore(ctx context.Context) (store.Store, func(), error) {
	if err := utils.EnsureDir(cfg.WorkspaceDir); err != nil {
		return nil, nil, fmt.Errorf("ensure workspace: %w", err)
	}
	switch cfg.StoreBackend {
	case "sqlite":
		s, err := store.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	default:
		s, err := store.NewFileStore(cfg.WorkspaceDir, cfg.FilteredFormat, cfg.FilteredFile)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	}
}

// loadSession restores the session saved in the workspace. It fails with a
// hint when no dataset has been opened yet.
func loadSession(ctx context.Context) (*session.Session, func(), error) {
	st, closeStore, err := openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	s, err := session.Load(ctx, st, cfg.WorkspaceDir)
	if err != nil {
		closeStore()
		if errors.Is(err, session.ErrNoSession) {
			return nil, nil, fmt.Errorf("%w: run 'tabsift open <file>' first", session.ErrNoTable)
		}
		return nil, nil, err
	}
	if s.Current() == nil {
		closeStore()
		return nil, nil, fmt.Errorf("%w: run 'tabsift open <file>' first", session.ErrNoTable)
	}
	return s, closeStore, nil
}
