package basic

import (
	"context"
	"testing"

	"github.com/kisun-bit/drcarve/util/logger"
)

func TestCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	if Cancelled(ctx) {
		t.Fatalf("fresh context reported cancelled")
	}
	cancel()
	if !Cancelled(ctx) {
		t.Fatalf("cancelled context not detected")
	}
}

func TestStartPProfServeInvalidPort(t *testing.T) {
	for _, p := range []int{0, -1, 70000} {
		if _, err := StartPProfServe(context.Background(), p, logger.Nop()); err == nil {
			t.Fatalf("port %d: expected error", p)
		}
	}
}
