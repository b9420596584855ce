package middleware

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/google/uuid"

	"github.com/broadstream/qgem/pkg/common"
	"github.com/broadstream/qgem/pkg/config"
)

func TestRecovery(t *testing.T) {
	h := server.New()
	h.Use(Recovery())
	h.GET("/boom", func(ctx context.Context, c *app.RequestContext) {
		panic("kaboom")
	})

	resp := ut.PerformRequest(h.Engine, consts.MethodGet, "/boom", nil).Result()
	if resp.StatusCode() != consts.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode())
	}
	var body map[string]any
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["ok"] != false || body["error"] != "kaboom" {
		t.Fatalf("unexpected envelope %v", body)
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	h := server.New()
	h.Use(RequestID())
	h.GET("/id", func(ctx context.Context, c *app.RequestContext) {
		seen = common.GetRequestID(ctx)
		c.Status(consts.StatusNoContent)
	})

	resp := ut.PerformRequest(h.Engine, consts.MethodGet, "/id", nil).Result()
	generated := resp.Header.Get(common.RequestIDHeader)
	if _, err := uuid.Parse(generated); err != nil {
		t.Fatalf("expected generated uuid, got %q", generated)
	}
	if seen != generated {
		t.Fatalf("context id %q does not match header %q", seen, generated)
	}

	incoming := uuid.NewString()
	resp = ut.PerformRequest(h.Engine, consts.MethodGet, "/id", nil, ut.Header{Key: common.RequestIDHeader, Value: incoming}).Result()
	if got := resp.Header.Get(common.RequestIDHeader); got != incoming {
		t.Fatalf("expected incoming id to be reused, got %q", got)
	}

	resp = ut.PerformRequest(h.Engine, consts.MethodGet, "/id", nil, ut.Header{Key: common.RequestIDHeader, Value: "not-a-uuid"}).Result()
	if got := resp.Header.Get(common.RequestIDHeader); got == "not-a-uuid" {
		t.Fatal("expected malformed id to be replaced")
	}
}

func TestCORS(t *testing.T) {
	h := server.New()
	h.Use(CORS(&config.CORSConfig{AllowOrigin: "https://tvperu.example"}))
	h.GET("/x", func(ctx context.Context, c *app.RequestContext) {
		c.Status(consts.StatusOK)
	})

	resp := ut.PerformRequest(h.Engine, consts.MethodOptions, "/x", nil).Result()
	if resp.StatusCode() != consts.StatusNoContent {
		t.Fatalf("expected preflight 204, got %d", resp.StatusCode())
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://tvperu.example" {
		t.Fatalf("unexpected origin %q", got)
	}
	if got := resp.Header.Get("Access-Control-Allow-Methods"); got != "GET,POST,OPTIONS" {
		t.Fatalf("unexpected methods %q", got)
	}
}

func TestRateLimiter_Allow(t *testing.T) {
	l := NewRateLimiter(1, 2)
	clock := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return clock }

	if !l.Allow("10.0.0.1") || !l.Allow("10.0.0.1") {
		t.Fatal("burst of 2 should pass")
	}
	if l.Allow("10.0.0.1") {
		t.Fatal("third request within the same instant should be throttled")
	}
	if !l.Allow("10.0.0.2") {
		t.Fatal("other clients have their own bucket")
	}

	clock = clock.Add(time.Second)
	if !l.Allow("10.0.0.1") {
		t.Fatal("a token should refill after one second")
	}

	clock = clock.Add(2 * idleTTL)
	l.Allow("10.0.0.3")
	if _, ok := l.visitors["10.0.0.1"]; ok {
		t.Fatal("idle visitors should be swept")
	}
}
