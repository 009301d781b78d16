package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/aidekit/aide/internal/storage"
)

func TestStoreCRUD(t *testing.T) {
	ctx := context.Background()
	store := New()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get missing = %v, want ErrNotFound", err)
	}

	if err := store.Put(ctx, "doc1", []byte("first")); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := store.Get(ctx, "doc1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "first" {
		t.Fatalf("got %q, want first", got)
	}

	if err := store.Put(ctx, "doc1", []byte("second")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, _ = store.Get(ctx, "doc1")
	if string(got) != "second" {
		t.Fatalf("got %q, want second", got)
	}

	if err := store.Delete(ctx, "doc1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "doc1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get after delete = %v, want ErrNotFound", err)
	}
	// Deleting a missing id is not an error.
	if err := store.Delete(ctx, "doc1"); err != nil {
		t.Fatalf("repeat delete: %v", err)
	}
}

func TestPublishedNamespaceIsSeparate(t *testing.T) {
	ctx := context.Background()
	store := New()

	if err := store.Put(ctx, "key", []byte("workspace")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.PutPublished(ctx, "key", []byte("published")); err != nil {
		t.Fatalf("put published: %v", err)
	}

	doc, _ := store.Get(ctx, "key")
	pub, err := store.GetPublished(ctx, "key")
	if err != nil {
		t.Fatalf("get published: %v", err)
	}
	if string(doc) != "workspace" || string(pub) != "published" {
		t.Fatalf("namespaces collided: doc=%q pub=%q", doc, pub)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := New()
	if err := store.Put(ctx, "doc", []byte("abc")); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, _ := store.Get(ctx, "doc")
	got[0] = 'x'
	again, _ := store.Get(ctx, "doc")
	if string(again) != "abc" {
		t.Fatal("mutating a returned blob must not affect the store")
	}
}
