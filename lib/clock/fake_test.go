// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 10, 18, 2, 0, 0, 0, time.UTC)

func TestFakeNowStandsStill(t *testing.T) {
	c := Fake(epoch)
	if !c.Now().Equal(epoch) {
		t.Fatalf("Now() = %v, want %v", c.Now(), epoch)
	}
	c.Advance(90 * time.Minute)
	if want := epoch.Add(90 * time.Minute); !c.Now().Equal(want) {
		t.Fatalf("after Advance, Now() = %v, want %v", c.Now(), want)
	}
}

func TestFakeAfterFiresAtDeadline(t *testing.T) {
	c := Fake(epoch)
	ch := c.After(time.Hour)

	c.Advance(59 * time.Minute)
	select {
	case <-ch:
		t.Fatal("After fired before its deadline")
	default:
	}

	c.Advance(time.Minute)
	select {
	case fired := <-ch:
		if want := epoch.Add(time.Hour); !fired.Equal(want) {
			t.Errorf("fired at %v, want %v", fired, want)
		}
	default:
		t.Fatal("After did not fire at its deadline")
	}
	if c.PendingCount() != 0 {
		t.Errorf("PendingCount() = %d after firing, want 0", c.PendingCount())
	}
}

func TestFakeAfterNonPositive(t *testing.T) {
	c := Fake(epoch)
	select {
	case <-c.After(0):
	default:
		t.Fatal("After(0) should be ready immediately")
	}
	if c.PendingCount() != 0 {
		t.Errorf("After(0) registered a waiter")
	}
}

func TestFakeSleepWithWaitForTimers(t *testing.T) {
	c := Fake(epoch)
	done := make(chan struct{})
	go func() {
		c.Sleep(5 * time.Second)
		close(done)
	}()

	c.WaitForTimers(1)
	c.Advance(5 * time.Second)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Sleep did not return after Advance")
	}
}

func TestFakeAdvanceTo(t *testing.T) {
	c := Fake(epoch)
	first := c.After(time.Hour)
	second := c.After(24 * time.Hour)

	c.AdvanceTo(epoch.Add(2 * time.Hour))
	select {
	case <-first:
	default:
		t.Fatal("first waiter did not fire")
	}
	select {
	case <-second:
		t.Fatal("second waiter fired early")
	default:
	}
	if c.PendingCount() != 1 {
		t.Errorf("PendingCount() = %d, want 1", c.PendingCount())
	}
}

func TestFakeAdvanceToBackwardsPanics(t *testing.T) {
	c := Fake(epoch)
	defer func() {
		if recover() == nil {
			t.Fatal("AdvanceTo into the past did not panic")
		}
	}()
	c.AdvanceTo(epoch.Add(-time.Second))
}
