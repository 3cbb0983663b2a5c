// Package memory provides an in-memory blob store for tests.
package memory

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	blobcore "annotcore/internal/infra/blob/core"
)

var _ blobcore.Store = (*Store)(nil)

type blob struct {
	info blobcore.Info
	data []byte
}

// Store keeps blobs in a mutex-guarded map.
type Store struct {
	mu    sync.RWMutex
	blobs map[string]blob
	nowFn func() time.Time
}

// NewStore constructs an empty in-memory blob store.
func NewStore() *Store {
	return &Store{
		blobs: make(map[string]blob),
		nowFn: func() time.Time { return time.Now().UTC() },
	}
}

// Driver identifies the backend.
func (s *Store) Driver() blobcore.Driver { return blobcore.DriverMemory }

// Put stores or replaces the blob at key.
func (s *Store) Put(_ context.Context, key string, r io.Reader, opts blobcore.PutOptions) (blobcore.Info, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return blobcore.Info{}, err
	}
	info := blobcore.Info{
		Key:          key,
		Size:         int64(len(data)),
		ContentType:  opts.ContentType,
		Metadata:     opts.Metadata,
		LastModified: s.nowFn(),
	}
	s.mu.Lock()
	s.blobs[key] = blob{info: info, data: data}
	s.mu.Unlock()
	return info, nil
}

// Get returns the blob at key.
func (s *Store) Get(_ context.Context, key string) (blobcore.Info, io.ReadCloser, error) {
	s.mu.RLock()
	b, ok := s.blobs[key]
	s.mu.RUnlock()
	if !ok {
		return blobcore.Info{}, nil, blobcore.ErrNotFound
	}
	return b.info, io.NopCloser(bytes.NewReader(b.data)), nil
}

// Head returns the blob metadata at key.
func (s *Store) Head(_ context.Context, key string) (blobcore.Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[key]
	if !ok {
		return blobcore.Info{}, blobcore.ErrNotFound
	}
	return b.info, nil
}

// Delete removes the blob at key, reporting whether it existed.
func (s *Store) Delete(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.blobs[key]
	delete(s.blobs, key)
	return ok, nil
}

// List returns metadata for every blob under prefix, sorted by key.
func (s *Store) List(_ context.Context, prefix string) ([]blobcore.Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var infos []blobcore.Info
	for key, b := range s.blobs {
		if strings.HasPrefix(key, prefix) {
			infos = append(infos, b.info)
		}
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}
