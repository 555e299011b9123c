package shutdown

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"syscall"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewHandler(t *testing.T) {
	h := NewHandler(5*time.Second, nil)
	if h == nil {
		t.Fatal("NewHandler returned nil")
	}
	if h.timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", h.timeout)
	}
	if h.logger == nil {
		t.Error("logger should default to slog.Default()")
	}

	select {
	case <-h.Done():
		t.Error("Done channel should not be closed initially")
	default:
	}
}

func TestHandler_Wait_WithSignal(t *testing.T) {
	h := NewHandler(5*time.Second, testLogger())

	callOrder := make([]int, 0)
	var mu sync.Mutex
	for i := 1; i <= 3; i++ {
		n := i
		h.OnShutdown("hook", func(ctx context.Context) error {
			mu.Lock()
			callOrder = append(callOrder, n)
			mu.Unlock()
			return nil
		})
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- h.Wait()
	}()

	// Give Wait time to set up signal handler
	time.Sleep(50 * time.Millisecond)
	syscall.Kill(syscall.Getpid(), syscall.SIGINT)

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Wait() returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait() did not complete in time")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(callOrder) != 3 || callOrder[0] != 3 || callOrder[1] != 2 || callOrder[2] != 1 {
		t.Errorf("hooks called in wrong order: %v, want [3 2 1]", callOrder)
	}

	select {
	case <-h.Done():
	default:
		t.Error("Done channel should be closed after Wait completes")
	}
}

func TestHandler_Trigger(t *testing.T) {
	h := NewHandler(time.Second, testLogger())

	closed := false
	h.OnClose("storage", func() error {
		closed = true
		return nil
	})

	cause := errors.New("listen tcp: address in use")
	h.Trigger(cause)
	h.Trigger(errors.New("ignored"))

	err := h.Wait()
	if !errors.Is(err, cause) {
		t.Errorf("Wait() = %v, want cause %v", err, cause)
	}
	if !closed {
		t.Error("hook should run on Trigger")
	}
}

func TestHandler_Abort(t *testing.T) {
	h := NewHandler(time.Second, testLogger())

	var order []string
	h.OnClose("tracer", func() error { order = append(order, "tracer"); return nil })
	h.OnClose("watcher", func() error { order = append(order, "watcher"); return nil })

	cause := errors.New("listen tcp: address in use")
	err := h.Abort(cause)
	if !errors.Is(err, cause) {
		t.Errorf("Abort() = %v, want cause %v", err, cause)
	}
	if len(order) != 2 || order[0] != "watcher" || order[1] != "tracer" {
		t.Errorf("hook order = %v, want [watcher tracer]", order)
	}

	select {
	case <-h.Done():
	default:
		t.Error("Done() should be closed after Abort")
	}

	// Hooks run once even if Wait follows.
	h.Trigger(nil)
	_ = h.Wait()
	if len(order) != 2 {
		t.Errorf("hooks ran again: %v", order)
	}
}

func TestHandler_HookErrorsJoined(t *testing.T) {
	h := NewHandler(time.Second, testLogger())

	errA := errors.New("a failed")
	errB := errors.New("b failed")
	ran := 0
	h.OnShutdown("a", func(ctx context.Context) error { ran++; return errA })
	h.OnShutdown("ok", func(ctx context.Context) error { ran++; return nil })
	h.OnShutdown("b", func(ctx context.Context) error { ran++; return errB })

	h.Trigger(nil)
	err := h.Wait()

	if ran != 3 {
		t.Errorf("ran %d hooks, want 3 (a failing hook must not stop the rest)", ran)
	}
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("Wait() = %v, want both hook errors", err)
	}
}

func TestHandler_TimeoutContext(t *testing.T) {
	h := NewHandler(20*time.Millisecond, testLogger())

	h.OnShutdown("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	h.Trigger(nil)
	start := time.Now()
	err := h.Wait()

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() = %v, want DeadlineExceeded", err)
	}
	if time.Since(start) > time.Second {
		t.Error("hook context should honour the timeout")
	}
}

func TestHandler_ConcurrentOnShutdown(t *testing.T) {
	h := NewHandler(5*time.Second, testLogger())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.OnShutdown("hook", func(ctx context.Context) error { return nil })
		}()
	}
	wg.Wait()

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.hooks) != 10 {
		t.Errorf("expected 10 hooks, got %d", len(h.hooks))
	}
}
