package shutdown

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTrigger_HooksRunInReverseOrder(t *testing.T) {
	h := NewHandler(time.Second)

	var order []int
	h.OnShutdown(func(context.Context) error {
		order = append(order, 1)
		return nil
	})
	h.OnShutdown(func(context.Context) error {
		order = append(order, 2)
		return nil
	})

	if err := h.Trigger(); err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	if len(order) != 2 || order[0] != 2 || order[1] != 1 {
		t.Fatalf("hook order = %v, want [2 1]", order)
	}

	select {
	case <-h.Done():
	default:
		t.Fatal("Done channel should be closed after Trigger")
	}
}

func TestTrigger_ReturnsLastError(t *testing.T) {
	h := NewHandler(time.Second)
	errBoom := errors.New("boom")

	h.OnShutdown(func(context.Context) error { return errBoom })
	h.OnShutdown(func(context.Context) error { return nil })

	if err := h.Trigger(); !errors.Is(err, errBoom) {
		t.Fatalf("Trigger = %v, want %v", err, errBoom)
	}
}

func TestTrigger_ContextDeadlinePassedToHooks(t *testing.T) {
	h := NewHandler(50 * time.Millisecond)

	h.OnShutdown(func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			t.Error("hook context should carry a deadline")
		}
		return nil
	})

	if err := h.Trigger(); err != nil {
		t.Fatalf("Trigger: %v", err)
	}
}
