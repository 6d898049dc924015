package service

import (
	"context"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisGuardForTest(t *testing.T, policy AuthAbusePolicy) (*RedisAuthAbuseGuard, *miniredis.Miniredis) {
	t.Helper()
	m := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisAuthAbuseGuard(client, "auth_abuse_test", policy), m
}

func TestRedisAuthAbuseGuardExponentialCooldown(t *testing.T) {
	guard, _ := newRedisGuardForTest(t, AuthAbusePolicy{
		FreeAttempts: 0,
		BaseDelay:    100 * time.Millisecond,
		Multiplier:   2,
		MaxDelay:     10 * time.Second,
		ResetWindow:  time.Minute,
	})
	ctx := context.Background()

	if retry, err := guard.Check(ctx, AuthAbuseScopeRefresh, "a@example.com", "10.0.0.1"); err != nil || retry != 0 {
		t.Fatalf("expected no cooldown initially, got retry=%v err=%v", retry, err)
	}
	r1, err := guard.RegisterFailure(ctx, AuthAbuseScopeRefresh, "a@example.com", "10.0.0.1")
	if err != nil {
		t.Fatalf("register failure #1: %v", err)
	}
	r2, err := guard.RegisterFailure(ctx, AuthAbuseScopeRefresh, "a@example.com", "10.0.0.1")
	if err != nil {
		t.Fatalf("register failure #2: %v", err)
	}
	if r2 <= r1 {
		t.Fatalf("expected increasing cooldown, got r1=%v r2=%v", r1, r2)
	}
	if retry, err := guard.Check(ctx, AuthAbuseScopeRefresh, "a@example.com", "10.0.0.1"); err != nil || retry <= 0 {
		t.Fatalf("expected active cooldown after failures, got retry=%v err=%v", retry, err)
	}
}

func TestRedisAuthAbuseGuardResetClearsCooldown(t *testing.T) {
	guard, _ := newRedisGuardForTest(t, AuthAbusePolicy{
		FreeAttempts: 0,
		BaseDelay:    time.Second,
		Multiplier:   2,
		MaxDelay:     10 * time.Second,
		ResetWindow:  time.Minute,
	})
	ctx := context.Background()
	if _, err := guard.RegisterFailure(ctx, AuthAbuseScopeCallback, "b@example.com", "10.0.0.2"); err != nil {
		t.Fatalf("register failure: %v", err)
	}
	if retry, _ := guard.Check(ctx, AuthAbuseScopeCallback, "b@example.com", "10.0.0.2"); retry <= 0 {
		t.Fatal("expected active cooldown before reset")
	}
	if err := guard.Reset(ctx, AuthAbuseScopeCallback, "b@example.com", "10.0.0.2"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if retry, _ := guard.Check(ctx, AuthAbuseScopeCallback, "b@example.com", "10.0.0.2"); retry != 0 {
		t.Fatalf("expected cooldown to be cleared, got %v", retry)
	}
}

func TestRedisAuthAbuseGuardKeysNeverContainIdentity(t *testing.T) {
	guard, m := newRedisGuardForTest(t, AuthAbusePolicy{
		FreeAttempts: 0,
		BaseDelay:    time.Second,
		Multiplier:   2,
		MaxDelay:     10 * time.Second,
		ResetWindow:  time.Minute,
	})
	ctx := context.Background()
	if _, err := guard.RegisterFailure(ctx, AuthAbuseScopeRefresh, "secret@example.com", "203.0.113.7"); err != nil {
		t.Fatalf("register failure: %v", err)
	}
	keys := m.Keys()
	if len(keys) == 0 {
		t.Fatal("expected guard state to be written")
	}
	for _, key := range keys {
		if strings.Contains(key, "secret@example.com") || strings.Contains(key, "203.0.113.7") {
			t.Fatalf("key %q leaks raw identity material", key)
		}
	}
}
