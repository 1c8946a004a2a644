package utils

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

// mapStore is an in-memory Store with switchable failures
type mapStore struct {
	data    map[string]json.RawMessage
	failGet bool
	failSet bool
	sets    int
}

func newMapStore() *mapStore {
	return &mapStore{data: make(map[string]json.RawMessage)}
}

func (m *mapStore) Get(_ context.Context, key string) (json.RawMessage, bool, error) {
	if m.failGet {
		return nil, false, errors.New("get failed")
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *mapStore) Set(_ context.Context, key string, value json.RawMessage) error {
	if m.failSet {
		return errors.New("set failed")
	}
	m.sets++
	m.data[key] = value
	return nil
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	if _, found, err := store.Get(ctx, "settings"); err != nil || found {
		t.Fatalf("Get on empty store = found %v, err %v", found, err)
	}

	type doc struct {
		Title   string   `json:"title"`
		Choices []string `json:"choices"`
	}
	in := doc{Title: "Roue", Choices: []string{"a", "b"}}
	if err := SetJSON(ctx, store, "settings", in); err != nil {
		t.Fatalf("SetJSON: %v", err)
	}

	var out doc
	if err := GetJSON(ctx, store, "settings", &out); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if out.Title != in.Title || len(out.Choices) != 2 {
		t.Errorf("GetJSON = %+v, want %+v", out, in)
	}
}

func TestGetJSONNotFound(t *testing.T) {
	var v map[string]any
	err := GetJSON(context.Background(), newMapStore(), "missing", &v)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetJSON error = %v, want ErrNotFound", err)
	}
}

func TestFileStoreSanitizesKeys(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if got := store.path("../etc/passwd"); got == "" || got[len(got)-len("___etc_passwd.json"):] != "___etc_passwd.json" {
		t.Errorf("path not sanitized: %s", got)
	}
}

func TestCachedStoreReadsThroughOnce(t *testing.T) {
	ctx := context.Background()
	inner := newMapStore()
	inner.data["k"] = json.RawMessage(`{"v":1}`)
	store := NewCachedStore(inner, time.Minute)

	if _, found, _ := store.Get(ctx, "k"); !found {
		t.Fatal("expected first read to hit inner store")
	}

	inner.data["k"] = json.RawMessage(`{"v":2}`)
	raw, _, _ := store.Get(ctx, "k")
	if string(raw) != `{"v":1}` {
		t.Errorf("second read = %s, want cached value", raw)
	}

	if err := store.Set(ctx, "k", json.RawMessage(`{"v":3}`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	raw, _, _ = store.Get(ctx, "k")
	if string(raw) != `{"v":3}` {
		t.Errorf("read after Set = %s, want overwritten value", raw)
	}
}

func TestCachedStoreSetFailureDropsEntry(t *testing.T) {
	ctx := context.Background()
	inner := newMapStore()
	store := NewCachedStore(inner, time.Minute)
	_ = store.Set(ctx, "k", json.RawMessage(`1`))

	inner.failSet = true
	if err := store.Set(ctx, "k", json.RawMessage(`2`)); err == nil {
		t.Fatal("expected error from failing inner store")
	}
	if _, ok := store.Cache().Get("k"); ok {
		t.Error("cache entry should be dropped after a failed write")
	}
}

func TestLayeredStoreMigratesFromSecondary(t *testing.T) {
	ctx := context.Background()
	primary, secondary := newMapStore(), newMapStore()
	secondary.data["dinos"] = json.RawMessage(`{"dinos":[]}`)
	store := NewLayeredStore(primary, secondary)

	raw, found, err := store.Get(ctx, "dinos")
	if err != nil || !found {
		t.Fatalf("Get = found %v, err %v", found, err)
	}
	if string(raw) != `{"dinos":[]}` {
		t.Errorf("Get = %s", raw)
	}
	if _, ok := primary.data["dinos"]; !ok {
		t.Error("key should be migrated into the primary store")
	}
}

func TestLayeredStoreFallsBackOnPrimaryError(t *testing.T) {
	ctx := context.Background()
	primary, secondary := newMapStore(), newMapStore()
	primary.failGet = true
	secondary.data["k"] = json.RawMessage(`true`)
	store := NewLayeredStore(primary, secondary)

	if _, found, err := store.Get(ctx, "k"); err != nil || !found {
		t.Errorf("Get = found %v, err %v; want fallback hit", found, err)
	}
	if primary.sets != 0 {
		t.Error("should not migrate while the primary is failing")
	}
}

func TestLayeredStoreSetWritesBoth(t *testing.T) {
	ctx := context.Background()
	primary, secondary := newMapStore(), newMapStore()
	store := NewLayeredStore(primary, secondary)

	if err := store.Set(ctx, "k", json.RawMessage(`1`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if primary.sets != 1 || secondary.sets != 1 {
		t.Errorf("sets = %d/%d, want 1/1", primary.sets, secondary.sets)
	}

	primary.failSet = true
	if err := store.Set(ctx, "k", json.RawMessage(`2`)); err == nil {
		t.Error("primary failure must be reported")
	}
}
