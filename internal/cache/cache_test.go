package cache

import (
	"bytes"
	"database/sql"
	"path/filepath"
	"testing"
)

func setupTestCache(t *testing.T) *Cache {
	t.Helper()

	cache, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { cache.Close() })

	return cache
}

func TestCacheOpenClose(t *testing.T) {
	tmpDir := t.TempDir()

	cache, err := Open(tmpDir)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}

	expectedPath := filepath.Join(tmpDir, "cache.db")
	if cache.Path() != expectedPath {
		t.Errorf("path = %q, want %q", cache.Path(), expectedPath)
	}

	if cache.DB() == nil {
		t.Error("DB() returned nil")
	}

	if err := cache.PutModel(Key{"3:abc", "t=1"}, []byte(`{}`), 0.5); err != nil {
		t.Fatalf("put model: %v", err)
	}

	if err := cache.Close(); err != nil {
		t.Errorf("close: %v", err)
	}

	// Reopen keeps entries
	cache2, err := Open(tmpDir)
	if err != nil {
		t.Fatalf("reopen cache: %v", err)
	}
	defer cache2.Close()

	ok, err := cache2.HasModel(Key{"3:abc", "t=1"})
	if err != nil {
		t.Fatalf("has model: %v", err)
	}
	if !ok {
		t.Error("expected model to survive reopen")
	}
}

func TestModelPutAndGet(t *testing.T) {
	cache := setupTestCache(t)
	key := Key{Fingerprint: "800:0a1b2c", Params: "trees=100"}
	payload := []byte(`{"forest":{"trees":[]}}`)

	if err := cache.PutModel(key, payload, 0.82); err != nil {
		t.Fatalf("put model: %v", err)
	}

	got, err := cache.GetModel(key)
	if err != nil {
		t.Fatalf("get model: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("GetModel() = %s, want %s", got, payload)
	}
}

func TestModelNotFound(t *testing.T) {
	cache := setupTestCache(t)

	_, err := cache.GetModel(Key{"1:ff", "trees=100"})
	if err != sql.ErrNoRows {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestModelKeyIncludesParams(t *testing.T) {
	cache := setupTestCache(t)

	if err := cache.PutModel(Key{"5:aa", "trees=100"}, []byte("a"), 0.7); err != nil {
		t.Fatal(err)
	}

	ok, err := cache.HasModel(Key{"5:aa", "trees=50"})
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("model trained with other params must not match")
	}
}

func TestModelReplace(t *testing.T) {
	cache := setupTestCache(t)
	key := Key{"5:aa", "trees=100"}

	if err := cache.PutModel(key, []byte("old"), 0.6); err != nil {
		t.Fatal(err)
	}
	if err := cache.PutModel(key, []byte("new"), 0.9); err != nil {
		t.Fatal(err)
	}

	entries, err := cache.ListModels()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].AUC != 0.9 || entries[0].Size != 3 {
		t.Errorf("entry = %+v, want auc 0.9 size 3", entries[0])
	}
}

func TestPruneStale(t *testing.T) {
	cache := setupTestCache(t)

	for _, key := range []Key{
		{"1:keep", "a"},
		{"2:drop", "a"},
		{"2:drop", "b"},
		{"3:drop", "a"},
	} {
		if err := cache.PutModel(key, []byte("m"), 0.5); err != nil {
			t.Fatal(err)
		}
	}

	pruned, err := cache.PruneStale(map[string]bool{"1:keep": true})
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if pruned != 2 {
		t.Errorf("PruneStale() = %d, expected 2", pruned)
	}

	stats, err := cache.GetStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Models != 1 {
		t.Errorf("expected 1 model left, got %d", stats.Models)
	}
}

func TestClear(t *testing.T) {
	cache := setupTestCache(t)

	if err := cache.PutModel(Key{"1:a", "p"}, []byte("abcd"), 0.5); err != nil {
		t.Fatal(err)
	}

	stats, err := cache.GetStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Models != 1 || stats.Bytes != 4 {
		t.Errorf("stats = %+v, want 1 model of 4 bytes", stats)
	}

	if err := cache.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}

	stats, err = cache.GetStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Models != 0 || stats.Bytes != 0 {
		t.Errorf("stats after clear = %+v, want zero", stats)
	}
}

func TestDeleteModel(t *testing.T) {
	cache := setupTestCache(t)

	if err := cache.PutModel(Key{"1:a", "p"}, []byte("m"), 0.5); err != nil {
		t.Fatal(err)
	}
	if err := cache.DeleteModel("1:a"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := cache.GetModel(Key{"1:a", "p"}); err != sql.ErrNoRows {
		t.Errorf("expected sql.ErrNoRows after delete, got %v", err)
	}
}
