package observability

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Compute hooks
	c := NoopComputeHooks{}
	c.OnComputeStart(ctx, 10, 12)
	c.OnBlockComplete(ctx, 10, 3, 302400, time.Millisecond)
	c.OnComputeComplete(ctx, 10, time.Second, nil)
	c.OnComputeRejected(ctx, 16, errors.New("too large"))

	// Cache hooks
	h := NoopCacheHooks{}
	h.OnCacheHit(ctx, "result")
	h.OnCacheMiss(ctx, "result")
	h.OnCacheSet(ctx, "result", 64)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Compute().(NoopComputeHooks); !ok {
		t.Error("Compute() should return NoopComputeHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}

	// Set custom hooks
	customCompute := &testComputeHooks{}
	SetComputeHooks(customCompute)
	if Compute() != customCompute {
		t.Error("SetComputeHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Compute().(NoopComputeHooks); !ok {
		t.Error("Reset() should restore NoopComputeHooks")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Reset() should restore NoopCacheHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testComputeHooks{}
	SetComputeHooks(custom)

	// Setting nil should be ignored
	SetComputeHooks(nil)

	if Compute() != custom {
		t.Error("SetComputeHooks(nil) should be ignored")
	}

	Reset()
}

// Test implementations
type testComputeHooks struct{ NoopComputeHooks }
type testCacheHooks struct{ NoopCacheHooks }
