package dpu_test

import (
	"testing"
	"time"

	"github.com/clktmr/exynos/dpu"
)

func TestCompletion(t *testing.T) {
	c := dpu.NewCompletion()
	if c.Wait(time.Millisecond) {
		t.Fatal("wait succeeded without completion")
	}

	c.Complete()
	c.Complete()
	if !c.Done() {
		t.Fatal("expected pending completion")
	}
	if !c.Wait(time.Millisecond) {
		t.Fatal("wait failed after completion")
	}
	if c.Wait(time.Millisecond) {
		t.Fatal("a second completion was queued")
	}
}

func TestCompletionReinit(t *testing.T) {
	c := dpu.NewCompletion()
	c.Complete()
	c.Reinit()
	if c.Done() {
		t.Fatal("stale completion survived Reinit")
	}

	go func() {
		time.Sleep(5 * time.Millisecond)
		c.Complete()
	}()
	start := time.Now()
	if !c.Wait(time.Second) {
		t.Fatal("wait timed out")
	}
	if time.Since(start) < 5*time.Millisecond {
		t.Error("wait returned before completion")
	}
}
