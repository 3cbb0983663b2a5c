// Package fs provides a filesystem-backed blob store rooted at a base
// directory. Keys map to relative paths; a sidecar file carries metadata.
package fs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	blobcore "annotcore/internal/infra/blob/core"
)

var _ blobcore.Store = (*Store)(nil)

const metaSuffix = ".meta.json"

// Store persists blobs under root, one file per blob plus a metadata
// sidecar.
type Store struct {
	root  string
	nowFn func() time.Time
}

// NewStore constructs a filesystem store rooted at root, creating it if
// needed.
func NewStore(root string) (*Store, error) {
	if root == "" {
		root = "annotcore-blobs"
	}
	if err := os.MkdirAll(root, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	return &Store{
		root:  root,
		nowFn: func() time.Time { return time.Now().UTC() },
	}, nil
}

// Driver identifies the backend.
func (s *Store) Driver() blobcore.Driver { return blobcore.DriverFilesystem }

// keyPath rejects path escapes before mapping a key under the root.
func (s *Store) keyPath(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	return filepath.Join(s.root, clean), nil
}

// Put writes the blob and its metadata sidecar.
func (s *Store) Put(_ context.Context, key string, r io.Reader, opts blobcore.PutOptions) (blobcore.Info, error) {
	path, err := s.keyPath(key)
	if err != nil {
		return blobcore.Info{}, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return blobcore.Info{}, fmt.Errorf("create blob dirs: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return blobcore.Info{}, err
	}
	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return blobcore.Info{}, err
	}
	info := blobcore.Info{
		Key:          key,
		Size:         size,
		ContentType:  opts.ContentType,
		Metadata:     opts.Metadata,
		LastModified: s.nowFn(),
	}
	meta, err := json.Marshal(info)
	if err != nil {
		return blobcore.Info{}, err
	}
	if err := os.WriteFile(path+metaSuffix, meta, 0o640); err != nil {
		return blobcore.Info{}, err
	}
	return info, nil
}

// Get opens the blob at key.
func (s *Store) Get(ctx context.Context, key string) (blobcore.Info, io.ReadCloser, error) {
	info, err := s.Head(ctx, key)
	if err != nil {
		return blobcore.Info{}, nil, err
	}
	path, err := s.keyPath(key)
	if err != nil {
		return blobcore.Info{}, nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return blobcore.Info{}, nil, err
	}
	return info, f, nil
}

// Head reads the blob metadata at key.
func (s *Store) Head(_ context.Context, key string) (blobcore.Info, error) {
	path, err := s.keyPath(key)
	if err != nil {
		return blobcore.Info{}, err
	}
	meta, err := os.ReadFile(path + metaSuffix)
	if errors.Is(err, os.ErrNotExist) {
		return blobcore.Info{}, blobcore.ErrNotFound
	}
	if err != nil {
		return blobcore.Info{}, err
	}
	var info blobcore.Info
	if err := json.Unmarshal(meta, &info); err != nil {
		return blobcore.Info{}, fmt.Errorf("decode blob metadata: %w", err)
	}
	return info, nil
}

// Delete removes the blob and sidecar, reporting whether the blob existed.
func (s *Store) Delete(_ context.Context, key string) (bool, error) {
	path, err := s.keyPath(key)
	if err != nil {
		return false, err
	}
	err = os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	_ = os.Remove(path + metaSuffix)
	return true, nil
}

// List walks the root for blobs under prefix, sorted by key.
func (s *Store) List(ctx context.Context, prefix string) ([]blobcore.Info, error) {
	var infos []blobcore.Info
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(path, metaSuffix) {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		info, err := s.Head(ctx, key)
		if err != nil {
			return err
		}
		infos = append(infos, info)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}
