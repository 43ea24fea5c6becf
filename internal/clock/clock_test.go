package clock

import (
	"testing"
	"time"
)

func TestFakeAdvanceFiresInDeadlineOrder(t *testing.T) {
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	c := NewFake(start)

	var fired []string
	c.AfterFunc(3*time.Second, func() { fired = append(fired, "late") })
	c.AfterFunc(time.Second, func() { fired = append(fired, "early") })
	c.AfterFunc(time.Second, func() { fired = append(fired, "early-second") })

	c.Advance(2 * time.Second)
	if len(fired) != 2 || fired[0] != "early" || fired[1] != "early-second" {
		t.Fatalf("after 2s fired = %v", fired)
	}
	if c.Pending() != 1 {
		t.Fatalf("pending = %d, want 1", c.Pending())
	}

	c.Advance(time.Second)
	if len(fired) != 3 || fired[2] != "late" {
		t.Fatalf("after 3s fired = %v", fired)
	}
}

func TestFakeStop(t *testing.T) {
	c := NewFake(time.Unix(0, 0))
	called := false
	timer := c.AfterFunc(time.Second, func() { called = true })

	if !timer.Stop() {
		t.Fatal("expected first Stop to report true")
	}
	if timer.Stop() {
		t.Fatal("expected second Stop to report false")
	}

	c.Advance(time.Minute)
	if called {
		t.Fatal("stopped timer fired")
	}
}

func TestFakeBackwardsDoesNotFire(t *testing.T) {
	start := time.Unix(1000, 0)
	c := NewFake(start)
	called := false
	c.AfterFunc(time.Second, func() { called = true })

	c.Set(start.Add(-time.Hour))
	if called {
		t.Fatal("timer fired when clock moved backwards")
	}
	if got := Since(c, start); got != -time.Hour {
		t.Fatalf("Since = %v, want -1h", got)
	}
}
