package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestHelper(t *testing.T) (*CacheHelper, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewCacheHelper(client, "exam:"), mr
}

func TestCacheHelper_SetAndGet(t *testing.T) {
	helper, _ := newTestHelper(t)
	ctx := context.Background()

	type payload struct {
		ID   uint   `json:"id"`
		Name string `json:"name"`
	}

	if err := helper.Set(ctx, "id:1", payload{ID: 1, Name: "Level I Mock"}, ExamCacheConfig.TTL); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	var got payload
	if err := helper.Get(ctx, "id:1", &got); err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if got.ID != 1 || got.Name != "Level I Mock" {
		t.Errorf("unexpected payload: %+v", got)
	}
}

func TestCacheHelper_GetMissing(t *testing.T) {
	helper, _ := newTestHelper(t)

	var dest map[string]any
	err := helper.Get(context.Background(), "id:404", &dest)
	if err != ErrCacheNotFound {
		t.Errorf("expected ErrCacheNotFound, got %v", err)
	}
}

func TestCacheHelper_Delete(t *testing.T) {
	helper, _ := newTestHelper(t)
	ctx := context.Background()

	if err := helper.Set(ctx, "id:2", "value", ExamCacheConfig.TTL); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if err := helper.Delete(ctx, "id:2"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	var dest string
	if err := helper.Get(ctx, "id:2", &dest); err != ErrCacheNotFound {
		t.Errorf("expected ErrCacheNotFound after delete, got %v", err)
	}
}

func TestCacheHelper_NilClientDegradesGracefully(t *testing.T) {
	helper := NewCacheHelper(nil, "exam:")
	ctx := context.Background()

	if err := helper.Set(ctx, "id:1", "value", ExamCacheConfig.TTL); err != nil {
		t.Errorf("Set with nil client should be a no-op, got %v", err)
	}

	var dest string
	if err := helper.Get(ctx, "id:1", &dest); err != ErrCacheNotAvailable {
		t.Errorf("expected ErrCacheNotAvailable, got %v", err)
	}

	if err := helper.Delete(ctx, "id:1"); err != nil {
		t.Errorf("Delete with nil client should be a no-op, got %v", err)
	}
}

func TestCacheHelper_InvalidatePattern(t *testing.T) {
	helper, _ := newTestHelper(t)
	ctx := context.Background()

	for _, key := range []string{"list:all", "list:level_1", "id:7"} {
		if err := helper.Set(ctx, key, "v", ExamCacheConfig.TTL); err != nil {
			t.Fatalf("Set %s failed: %v", key, err)
		}
	}

	if err := helper.InvalidatePattern(ctx, "list:*"); err != nil {
		t.Fatalf("InvalidatePattern failed: %v", err)
	}

	var dest string
	if err := helper.Get(ctx, "list:all", &dest); err != ErrCacheNotFound {
		t.Errorf("expected list keys invalidated, got %v", err)
	}
	if err := helper.Get(ctx, "id:7", &dest); err != nil {
		t.Errorf("id key should survive pattern invalidation, got %v", err)
	}
}

func TestCacheOrExecute_FetchesOnMiss(t *testing.T) {
	helper, _ := newTestHelper(t)
	ctx := context.Background()

	calls := 0
	var got string
	err := helper.CacheOrExecute(ctx, "id:9", &got, ExamCacheConfig.TTL, func() (interface{}, error) {
		calls++
		return "fetched", nil
	})
	if err != nil {
		t.Fatalf("CacheOrExecute failed: %v", err)
	}
	if got != "fetched" || calls != 1 {
		t.Errorf("expected one fetch returning value, got %q calls=%d", got, calls)
	}
}
