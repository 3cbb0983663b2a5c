// Package memory provides an in-memory draft store used for tests and
// ephemeral sessions, and as the transactional base the persistent stores
// wrap.
package memory

import (
	"context"
	"sort"
	"sync"

	"annotcore/pkg/domain"
)

// Compile-time contract assertion.
var _ domain.DraftStore = (*Store)(nil)

// Store keeps drafts in a map guarded by a mutex. Drafts are cloned on the
// way in and out so callers never share mutable state with the store.
type Store struct {
	mu     sync.RWMutex
	drafts map[string]domain.Draft
}

// NewStore constructs an empty in-memory draft store.
func NewStore() *Store {
	return &Store{drafts: make(map[string]domain.Draft)}
}

// Put stores or replaces a draft by id.
func (s *Store) Put(_ context.Context, draft domain.Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[draft.ID] = cloneDraft(draft)
	return nil
}

// Get retrieves a draft by id.
func (s *Store) Get(_ context.Context, id string) (domain.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	draft, ok := s.drafts[id]
	if !ok {
		return domain.Draft{}, domain.ErrDraftNotFound{ID: id}
	}
	return cloneDraft(draft), nil
}

// List summarizes all drafts, newest first.
func (s *Store) List(_ context.Context) ([]domain.DraftInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.DraftInfo, 0, len(s.drafts))
	for _, draft := range s.drafts {
		out = append(out, summarize(draft))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SavedAt.Equal(out[j].SavedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].SavedAt.After(out[j].SavedAt)
	})
	return out, nil
}

// Delete removes a draft by id.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.drafts[id]; !ok {
		return domain.ErrDraftNotFound{ID: id}
	}
	delete(s.drafts, id)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error { return nil }

// Export returns every stored draft, for persistent wrappers that snapshot
// the whole store.
func (s *Store) Export() []domain.Draft {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Draft, 0, len(s.drafts))
	for _, draft := range s.drafts {
		out = append(out, cloneDraft(draft))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Import replaces the store contents with the given drafts.
func (s *Store) Import(drafts []domain.Draft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts = make(map[string]domain.Draft, len(drafts))
	for _, draft := range drafts {
		s.drafts[draft.ID] = cloneDraft(draft)
	}
}

func summarize(draft domain.Draft) domain.DraftInfo {
	files := make(map[string]struct{})
	for _, r := range draft.Records {
		files[r.File] = struct{}{}
	}
	return domain.DraftInfo{
		ID:      draft.ID,
		Name:    draft.Name,
		SavedAt: draft.SavedAt,
		Files:   len(files),
	}
}

func cloneDraft(draft domain.Draft) domain.Draft {
	cp := draft
	cp.Records = make([]domain.UploadRecord, len(draft.Records))
	for i, r := range draft.Records {
		cp.Records[i] = r.Clone()
	}
	cp.SelectedWellIDs = append([]int(nil), draft.SelectedWellIDs...)
	if draft.Template != nil {
		t := draft.Template.Clone()
		cp.Template = &t
	}
	return cp
}
