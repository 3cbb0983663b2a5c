package memory

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	blobcore "annotcore/internal/infra/blob/core"
)

func TestStorePutGetHead(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	info, err := store.Put(ctx, "drafts/d1.json", strings.NewReader(`{"id":"d1"}`),
		blobcore.PutOptions{ContentType: "application/json", Metadata: map[string]string{"kind": "draft"}})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if info.Size != int64(len(`{"id":"d1"}`)) || info.ContentType != "application/json" {
		t.Fatalf("info = %+v", info)
	}

	got, rc, err := store.Get(ctx, "drafts/d1.json")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(data) != `{"id":"d1"}` || got.Metadata["kind"] != "draft" {
		t.Fatalf("got %q, %+v", data, got)
	}

	head, err := store.Head(ctx, "drafts/d1.json")
	if err != nil || head.Key != "drafts/d1.json" {
		t.Fatalf("Head = %+v, %v", head, err)
	}
}

func TestStoreMissingKey(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	if _, _, err := store.Get(ctx, "nope"); !errors.Is(err, blobcore.ErrNotFound) {
		t.Fatalf("Get gave %v", err)
	}
	if _, err := store.Head(ctx, "nope"); !errors.Is(err, blobcore.ErrNotFound) {
		t.Fatalf("Head gave %v", err)
	}
}

func TestStoreDeleteReportsExistence(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	_, _ = store.Put(ctx, "k", strings.NewReader("v"), blobcore.PutOptions{})

	existed, err := store.Delete(ctx, "k")
	if err != nil || !existed {
		t.Fatalf("first delete = %v, %v", existed, err)
	}
	existed, err = store.Delete(ctx, "k")
	if err != nil || existed {
		t.Fatalf("second delete = %v, %v", existed, err)
	}
}

func TestStoreListByPrefix(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	for _, key := range []string{"drafts/b", "drafts/a", "uploads/x"} {
		_, _ = store.Put(ctx, key, strings.NewReader("v"), blobcore.PutOptions{})
	}
	infos, err := store.List(ctx, "drafts/")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != "drafts/a" || infos[1].Key != "drafts/b" {
		t.Fatalf("List = %+v", infos)
	}
}
