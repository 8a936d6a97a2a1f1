package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeStore struct {
	setNXResult bool
	setNXError  error
	lastKey     string
	lastTTL     time.Duration
	lastDeleted string
}

func (f *fakeStore) Get(context.Context, string) (string, error) {
	return "", nil
}

func (f *fakeStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	f.lastKey = key
	f.lastTTL = ttl
	return f.setNXResult, f.setNXError
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return "sf:idempotency:" + scope + ":" + id
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	if len(keys) > 0 {
		f.lastDeleted = keys[0]
	}
	return nil
}

func TestCheckAndMarkProcessed_FirstTime(t *testing.T) {
	store := &fakeStore{setNXResult: true}
	manager, err := NewManager(store, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	already, err := manager.CheckAndMarkProcessed(context.Background(), "square-webhook", "evt_123")
	if err != nil {
		t.Fatalf("CheckAndMarkProcessed: %v", err)
	}
	if already {
		t.Fatalf("expected first call to return false, got true")
	}

	expectedKey := "sf:idempotency:evt:processed:square-webhook:evt_123"
	if store.lastKey != expectedKey {
		t.Fatalf("unexpected key: %q", store.lastKey)
	}
	if store.lastTTL != 24*time.Hour {
		t.Fatalf("unexpected ttl: %v", store.lastTTL)
	}
}

func TestCheckAndMarkProcessed_AlreadyProcessed(t *testing.T) {
	store := &fakeStore{setNXResult: false}
	manager, err := NewManager(store, 12*time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	already, err := manager.CheckAndMarkProcessed(context.Background(), "square-webhook", "evt_123")
	if err != nil {
		t.Fatalf("CheckAndMarkProcessed: %v", err)
	}
	if !already {
		t.Fatalf("expected already processed, got false")
	}
}

func TestCheckAndMarkProcessed_Error(t *testing.T) {
	store := &fakeStore{setNXError: errors.New("boom")}
	manager, err := NewManager(store, time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	if _, err := manager.CheckAndMarkProcessed(context.Background(), "square-webhook", "evt_1"); err == nil {
		t.Fatal("expected error")
	}
}

func TestCheckAndMarkProcessed_RequiresIdentifiers(t *testing.T) {
	manager, err := NewManager(&fakeStore{setNXResult: true}, time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if _, err := manager.CheckAndMarkProcessed(context.Background(), "", "evt_1"); err == nil {
		t.Fatal("expected missing consumer error")
	}
	if _, err := manager.CheckAndMarkProcessed(context.Background(), "square-webhook", "  "); err == nil {
		t.Fatal("expected missing event id error")
	}
}

func TestDeleteProcessed(t *testing.T) {
	store := &fakeStore{}
	manager, err := NewManager(store, 1*time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	if err := manager.Delete(context.Background(), "square-webhook", "evt_9"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	expected := "sf:idempotency:evt:processed:square-webhook:evt_9"
	if store.lastDeleted != expected {
		t.Fatalf("unexpected deleted key %q", store.lastDeleted)
	}
}

type mapStore struct {
	fakeStore
	data map[string]string
}

func (m *mapStore) Get(_ context.Context, key string) (string, error) {
	return m.data[key], nil
}

func (m *mapStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = value.(string)
	return true, nil
}

func TestResponseCacheFirstWriteWins(t *testing.T) {
	store := &mapStore{data: map[string]string{}}
	cache := NewResponseCache(store, time.Hour)
	ctx := context.Background()

	missing, err := cache.Lookup(ctx, "user:1|POST|/api/v1/checkout", "k1")
	if err != nil || missing != nil {
		t.Fatalf("expected miss, got %+v (%v)", missing, err)
	}

	first := StoredResponse{Status: 201, ContentType: "application/json", Body: []byte(`{"ok":true}`), RequestHash: HashRequest([]byte("a"))}
	if err := cache.Save(ctx, "user:1|POST|/api/v1/checkout", "k1", first); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := cache.Save(ctx, "user:1|POST|/api/v1/checkout", "k1", StoredResponse{Status: 500}); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	got, err := cache.Lookup(ctx, "user:1|POST|/api/v1/checkout", "k1")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got.Status != 201 || string(got.Body) != `{"ok":true}` || got.RequestHash != first.RequestHash {
		t.Fatalf("unexpected stored response %+v", got)
	}
	if _, ok := store.data["sf:idempotency:resp:user:1|POST|/api/v1/checkout:k1"]; !ok {
		t.Fatalf("unexpected keys %v", store.data)
	}
}

func TestNilResponseCacheIsInert(t *testing.T) {
	var cache *ResponseCache
	if NewResponseCache(nil, time.Hour) != nil {
		t.Fatal("expected nil cache for nil store")
	}
	if got, err := cache.Lookup(context.Background(), "s", "k"); got != nil || err != nil {
		t.Fatalf("unexpected %v %v", got, err)
	}
	if err := cache.Save(context.Background(), "s", "k", StoredResponse{}); err != nil {
		t.Fatal(err)
	}
}
