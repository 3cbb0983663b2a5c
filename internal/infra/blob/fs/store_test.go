package fs

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	blobcore "annotcore/internal/infra/blob/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	put, err := store.Put(ctx, "drafts/d1.json", strings.NewReader("payload"),
		blobcore.PutOptions{ContentType: "application/json"})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if put.Size != int64(len("payload")) {
		t.Fatalf("size = %d", put.Size)
	}

	info, rc, err := store.Get(ctx, "drafts/d1.json")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(data) != "payload" || info.ContentType != "application/json" {
		t.Fatalf("got %q, %+v", data, info)
	}
}

func TestStoreRejectsEscapingKeys(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	for _, key := range []string{"../outside", "/abs/path", "."} {
		if _, err := store.Put(ctx, key, strings.NewReader("v"), blobcore.PutOptions{}); err == nil {
			t.Fatalf("key %q was accepted", key)
		}
	}
}

func TestStoreMissingKey(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Head(context.Background(), "nope"); !errors.Is(err, blobcore.ErrNotFound) {
		t.Fatalf("Head gave %v", err)
	}
}

func TestStoreDeleteAndList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	for _, key := range []string{"drafts/a", "drafts/b", "uploads/x"} {
		if _, err := store.Put(ctx, key, strings.NewReader("v"), blobcore.PutOptions{}); err != nil {
			t.Fatalf("Put %s: %v", key, err)
		}
	}

	infos, err := store.List(ctx, "drafts/")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != "drafts/a" {
		t.Fatalf("List = %+v", infos)
	}

	existed, err := store.Delete(ctx, "drafts/a")
	if err != nil || !existed {
		t.Fatalf("Delete = %v, %v", existed, err)
	}
	existed, err = store.Delete(ctx, "drafts/a")
	if err != nil || existed {
		t.Fatalf("second Delete = %v, %v", existed, err)
	}

	infos, _ = store.List(ctx, "drafts/")
	if len(infos) != 1 || infos[0].Key != "drafts/b" {
		t.Fatalf("List after delete = %+v", infos)
	}
}
