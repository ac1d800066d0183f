package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get = %q, %v, %v; want miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()
	base := LaunchKeyOpts{Command: "gst-launch-1.0 -ev", ElementIndent: "  ", PropertyIndent: "    "}

	k1 := k.LaunchKey("abc", base)
	if k1 != k.LaunchKey("abc", base) {
		t.Error("LaunchKey should be deterministic")
	}

	variants := map[string]LaunchKeyOpts{
		"Command": {Command: "gst-launch-1.0", ElementIndent: "  ", PropertyIndent: "    "},
		"Indent":  {Command: base.Command, ElementIndent: "\t", PropertyIndent: "    "},
		"Level":   {Command: base.Command, ElementIndent: "  ", PropertyIndent: "    ", Level: 1},
		"Policy":  {Command: base.Command, ElementIndent: "  ", PropertyIndent: "    ", Policy: map[string][]string{"*": {"sync"}}},
	}
	for name, opts := range variants {
		if k.LaunchKey("abc", opts) == k1 {
			t.Errorf("%s change did not change the key", name)
		}
	}
	if k.LaunchKey("def", base) == k1 {
		t.Error("snapshot hash not part of the key")
	}
	if k.GraphKey("abc", "") == k.GraphKey("abc", "reg") {
		t.Error("registry not part of the graph key")
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	k := NewScopedKeyer(inner, "staging:")

	opts := LaunchKeyOpts{Command: "x"}
	if got, want := k.LaunchKey("h", opts), "staging:"+inner.LaunchKey("h", opts); got != want {
		t.Errorf("LaunchKey = %q, want %q", got, want)
	}
	if got, want := k.GraphKey("h", ""), "staging:"+inner.GraphKey("h", ""); got != want {
		t.Errorf("GraphKey = %q, want %q", got, want)
	}
	if NewScopedKeyer(nil, "p:").GraphKey("h", "") != "p:"+inner.GraphKey("h", "") {
		t.Error("nil inner keyer should fall back to the default")
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "cache")
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	if _, hit, _ := c.Get(ctx, "missing"); hit {
		t.Error("expected miss for unknown key")
	}
	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "v" {
		t.Errorf("Get = %q, %v, %v", data, hit, err)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("entry survived Delete")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete of missing key: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_ = c.Set(ctx, "short", []byte("a"), time.Minute)
	_ = c.Set(ctx, "long", []byte("b"), time.Hour)
	_ = c.Set(ctx, "forever", []byte("c"), 0)

	now = now.Add(10 * time.Minute)

	s, err := c.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if s.Entries != 3 || s.Expired != 1 || s.Bytes == 0 {
		t.Errorf("Stats = %+v, want 3 entries with 1 expired", s)
	}
	if _, hit, _ := c.Get(ctx, "short"); hit {
		t.Error("expired entry returned")
	}
	if _, hit, _ := c.Get(ctx, "long"); !hit {
		t.Error("live entry missed")
	}

	now = now.Add(2 * time.Hour)
	n, err := c.Prune()
	if err != nil || n != 1 {
		t.Errorf("Prune = %d, %v; want 1", n, err)
	}
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("entry without ttl pruned")
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if s, _ := c.Stats(); s.Entries != 0 {
		t.Errorf("Clear left %d entries", s.Entries)
	}
	if _, err := os.Stat(c.Dir()); err != nil {
		t.Errorf("Clear removed the root: %v", err)
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	_ = c.Set(ctx, "k", []byte("v"), 0)
	if err := os.WriteFile(c.path("k"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry: hit=%v err=%v", hit, err)
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("corrupt entry not removed")
	}
}

func setupRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewRedisCacheWithClient(client)
	t.Cleanup(func() { c.Close() })
	return c, mr
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	c, mr := setupRedis(t)

	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("Get on empty = %v, %v", hit, err)
	}
	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "v" {
		t.Errorf("Get = %q, %v, %v", data, hit, err)
	}

	mr.FastForward(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("entry survived its ttl")
	}

	_ = c.Set(ctx, "d", []byte("x"), 0)
	if err := c.Delete(ctx, "d"); err != nil {
		t.Errorf("Delete: %v", err)
	}
	if mr.Exists("d") {
		t.Error("Delete left the key behind")
	}
}

func TestNewRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	c, err := NewRedisCache(ctx, RedisConfig{Addr: mr.Addr(), Backoff: Backoff{Attempts: 1}})
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}
	c.Close()

	c, err = NewRedisCache(ctx, RedisConfig{URL: "redis://" + mr.Addr() + "/0"})
	if err != nil {
		t.Fatalf("NewRedisCache(url): %v", err)
	}
	c.Close()

	dead, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	addr := dead.Addr()
	dead.Close()
	_, err = NewRedisCache(ctx, RedisConfig{Addr: addr, Backoff: Backoff{Attempts: 2, Delay: time.Millisecond}})
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("closed server: %v, want ErrUnavailable", err)
	}

	if _, err := NewRedisCache(ctx, RedisConfig{URL: "http://nope"}); err == nil {
		t.Error("expected url parse error")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()
	b := Backoff{Attempts: 3, Delay: time.Millisecond}

	calls := 0
	err := RetryWithBackoff(ctx, b, func() error {
		calls++
		if calls < 3 {
			return Retryable(errors.New("transient"))
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Errorf("retry: err=%v calls=%d", err, calls)
	}

	calls = 0
	permanent := errors.New("permanent")
	err = RetryWithBackoff(ctx, b, func() error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) || calls != 1 {
		t.Errorf("non-retryable: err=%v calls=%d", err, calls)
	}

	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should be nil")
	}
	if !IsRetryable(Retryable(permanent)) || IsRetryable(permanent) {
		t.Error("IsRetryable mismatch")
	}
}
