package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return New(client), mr
}

func TestSetGetRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "order_state:abc", []byte(`{"status":"new"}`), time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := store.Get(ctx, "order_state:abc")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `{"status":"new"}` {
		t.Fatalf("unexpected value: %s", got)
	}
}

func TestGetMissingKeyReturnsErrMiss(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Get(context.Background(), "order_state:nope")
	if !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss, got %v", err)
	}
}

func TestExpiredKeyReturnsErrMiss(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "context:abc", []byte(`[]`), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, "context:abc")
	if !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss after expiry, got %v", err)
	}
}
