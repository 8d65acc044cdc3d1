package redisad_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	redisad "mcp_gateway/internal/adapters/redis"
)

func TestCache_SetGetDel(t *testing.T) {
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0, "mcpgw:")
	defer c.Close()
	ctx := context.Background()

	if err := c.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	var dst map[string]any
	ok, err := c.Get(ctx, "locations:par", &dst)
	if err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	in := map[string]any{"data": []any{map[string]any{"iataCode": "PAR"}}}
	if err := c.Set(ctx, "locations:par", in, 60); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !mr.Exists("mcpgw:locations:par") {
		t.Fatalf("expected prefixed key in redis")
	}

	ok, err = c.Get(ctx, "locations:par", &dst)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if len(dst["data"].([]any)) != 1 {
		t.Fatalf("unexpected payload: %+v", dst)
	}

	// TTL honored
	mr.FastForward(61 * time.Second)
	ok, _ = c.Get(ctx, "locations:par", &dst)
	if ok {
		t.Fatalf("expected expiry")
	}

	_ = c.Set(ctx, "k", 1, 60)
	if err := c.Del(ctx, "k"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if mr.Exists("mcpgw:k") {
		t.Fatalf("expected key deleted")
	}
}

func TestNoop_AlwaysMisses(t *testing.T) {
	var c redisad.Noop
	_ = c.Set(context.Background(), "k", 1, 60)
	var v int
	if ok, err := c.Get(context.Background(), "k", &v); ok || err != nil {
		t.Fatalf("noop should miss, got ok=%v err=%v", ok, err)
	}
}
