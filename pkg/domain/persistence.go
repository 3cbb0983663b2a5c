package domain

import (
	"context"
	"fmt"
	"time"
)

// Draft is a serializable snapshot of an in-progress annotation session:
// the flat upload records, the applied template, and the plate selection.
// It is plain data with no cycles so every store can round-trip it as JSON.
type Draft struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	SavedAt         time.Time      `json:"savedAt"`
	Records         []UploadRecord `json:"records"`
	Template        *Template      `json:"template,omitempty"`
	SelectedWellIDs []int          `json:"selectedWellIds,omitempty"`
}

// DraftInfo summarizes a stored draft for listing.
type DraftInfo struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	SavedAt time.Time `json:"savedAt"`
	Files   int       `json:"files"`
}

// DraftStore persists annotation session drafts.
type DraftStore interface {
	Put(ctx context.Context, draft Draft) error
	Get(ctx context.Context, id string) (Draft, error)
	List(ctx context.Context) ([]DraftInfo, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// ErrDraftNotFound is returned when a draft id does not exist in a store.
type ErrDraftNotFound struct {
	ID string
}

func (e ErrDraftNotFound) Error() string {
	return fmt.Sprintf("draft %s not found", e.ID)
}
