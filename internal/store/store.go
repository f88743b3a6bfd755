// Package store persists table snapshots so a filtered result can be reloaded
// as the current table and later discarded.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/KaramelBytes/tabsift/internal/table"
)

// ErrUnknownHandle is returned when a handle no longer refers to a snapshot.
var ErrUnknownHandle = errors.New("unknown snapshot handle")

// Handle is an opaque reference to a persisted snapshot. Rows is the row
// count at persist time; file snapshots use it to restore trailing rows whose
// cells are all missing.
type Handle struct {
	ID       string `json:"id"`
	Backend  string `json:"backend"`
	Location string `json:"location"`
	Rows     int    `json:"rows"`
}

func (h Handle) String() string { return fmt.Sprintf("%s:%s", h.Backend, h.Location) }

// IsZero reports whether h refers to nothing.
func (h Handle) IsZero() bool { return h.ID == "" && h.Location == "" }

// Store persists, reloads and discards table snapshots. Load(Persist(t)) must
// be equal to t, cell for cell.
type Store interface {
	Persist(ctx context.Context, t *table.Table) (Handle, error)
	Load(ctx context.Context, h Handle) (*table.Table, error)
	Discard(ctx context.Context, h Handle) error
}
