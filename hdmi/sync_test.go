package hdmi_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clktmr/hdmidev/hdmi"
)

func TestWaitVBlankImmediate(t *testing.T) {
	p, d := attach(t)
	defer d.Detach()

	// Already in vertical blank: must return without any interrupt.
	p.SetCoord(1, 20, 0)
	start := time.Now()
	if err := d.WaitVBlank(context.Background()); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Millisecond {
		t.Errorf("took %v, expected immediate return", elapsed)
	}
}

func TestWaitVBlankWakeup(t *testing.T) {
	p, d := attach(t)
	defer d.Detach()

	done := make(chan error, 1)
	go func() { done <- d.WaitVBlank(context.Background()) }()

	// Let the waiter block outside the blanking interval, then deliver
	// the next frame's interrupt with the beam inside it.
	time.Sleep(2 * time.Millisecond)
	p.SetCoord(2, 10, 0)
	if !p.FrameInterrupt() {
		t.Fatal("frame interrupt not handled")
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(time.Second):
		t.Fatal("waiter never woke up")
	}
}

func TestWaitVBlankSpuriousWakeup(t *testing.T) {
	p, d := attach(t)
	defer d.Detach()

	done := make(chan error, 1)
	go func() { done <- d.WaitVBlank(context.Background()) }()

	// A frame interrupt with the beam still outside the blanking
	// interval must put the waiter back to sleep.
	time.Sleep(2 * time.Millisecond)
	if !p.FrameInterrupt() {
		t.Fatal("frame interrupt not handled")
	}
	select {
	case err := <-done:
		t.Fatal("waiter returned without vblank:", err)
	case <-time.After(5 * time.Millisecond):
	}

	p.SetCoord(3, 0, 0)
	p.FrameInterrupt()
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(time.Second):
		t.Fatal("waiter never woke up")
	}
}

func TestWaitVBlankBroadcast(t *testing.T) {
	p, d := attach(t)
	defer d.Detach()

	const waiters = 4
	done := make(chan error, waiters)
	for i := 0; i < waiters; i++ {
		go func() { done <- d.WaitVBlank(context.Background()) }()
	}

	time.Sleep(2 * time.Millisecond)
	p.SetCoord(4, 30, 0)
	p.FrameInterrupt()

	for i := 0; i < waiters; i++ {
		select {
		case err := <-done:
			if err != nil {
				t.Fatal(err)
			}
		case <-time.After(time.Second):
			t.Fatal("not all waiters woke up")
		}
	}
}

func TestWaitVBlankTimeout(t *testing.T) {
	_, d := attach(t)
	defer d.Detach()

	// No interrupts ever delivered: the wait must end with the
	// malfunction outcome at roughly the configured margin, never hang.
	start := time.Now()
	err := d.WaitVBlank(context.Background())
	elapsed := time.Since(start)

	if !errors.Is(err, hdmi.ErrNoVBlank) {
		t.Fatalf("got %v, want ErrNoVBlank", err)
	}
	if elapsed < 15*time.Millisecond || elapsed > 200*time.Millisecond {
		t.Errorf("timed out after %v, want roughly 20ms", elapsed)
	}
}

func TestWaitVBlankInterrupted(t *testing.T) {
	_, d := attach(t)
	defer d.Detach()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.WaitVBlank(ctx) }()

	time.Sleep(2 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		// Interruption must be distinguishable from a timeout.
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("got %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("cancellation did not end the wait")
	}
}
