// Package core implements the upload-state reconciliation engine: the flat
// record state and its snapshot history, the hierarchical row projection,
// template-driven validation, mass edit, well/workflow association, and the
// upload request payload builder. Everything here is synchronous and pure
// over cloned snapshots; all mutation funnels through the History.
package core

import (
	"sort"

	"annotcore/pkg/domain"
)

// UploadState is the single source of truth: every record keyed by its
// composite identity. Rows and validation results are pure projections.
type UploadState map[domain.RecordKey]domain.UploadRecord

// NewUploadState builds a state from records. Later records win on key
// collision, matching load-order semantics of draft restoration.
func NewUploadState(records ...domain.UploadRecord) UploadState {
	state := make(UploadState, len(records))
	for _, r := range records {
		state[r.Key()] = r
	}
	return state
}

// Clone deep-copies the state. History snapshots and transactional edits
// operate on clones so committed snapshots are never aliased.
func (s UploadState) Clone() UploadState {
	out := make(UploadState, len(s))
	for k, r := range s {
		out[k] = r.Clone()
	}
	return out
}

// SortedKeys returns all record keys ordered by their string form, giving
// deterministic iteration for payloads, drafts, and tests.
func (s UploadState) SortedKeys() []domain.RecordKey {
	keys := make([]domain.RecordKey, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

// Records returns all records in deterministic key order.
func (s UploadState) Records() []domain.UploadRecord {
	keys := s.SortedKeys()
	out := make([]domain.UploadRecord, len(keys))
	for i, k := range keys {
		out[i] = s[k]
	}
	return out
}

// Files returns the distinct owning file paths, sorted.
func (s UploadState) Files() []string {
	seen := make(map[string]struct{})
	for k := range s {
		seen[k.File] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for f := range seen {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// ForFile returns every dimension record belonging to a file, in
// deterministic key order.
func (s UploadState) ForFile(file string) []domain.UploadRecord {
	var out []domain.UploadRecord
	for _, k := range s.SortedKeys() {
		if k.File == file {
			out = append(out, s[k])
		}
	}
	return out
}

// RemoveFile deletes the file-level record and every descendant dimension
// record for the path, returning the number of records removed.
func (s UploadState) RemoveFile(file string) int {
	removed := 0
	for k := range s {
		if k.File == file {
			delete(s, k)
			removed++
		}
	}
	return removed
}
