package clock

import (
	"testing"
	"time"
)

func TestManual_AdvanceRunsDueTasksInOrder(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	var order []string

	m.AfterFunc(3*time.Second, func() { order = append(order, "c") })
	m.AfterFunc(time.Second, func() { order = append(order, "a") })
	m.AfterFunc(2*time.Second, func() { order = append(order, "b") })

	m.Advance(2 * time.Second)
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("after 2s order = %v", order)
	}
	if got := m.Pending(); len(got) != 1 || got[0] != 3*time.Second {
		t.Fatalf("Pending() = %v", got)
	}

	m.Advance(time.Second)
	if len(order) != 3 || order[2] != "c" {
		t.Fatalf("after 3s order = %v", order)
	}
	if !m.Now().Equal(time.Unix(3, 0)) {
		t.Errorf("Now() = %v", m.Now())
	}
}

func TestManual_Stop(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	fired := false
	timer := m.AfterFunc(time.Second, func() { fired = true })

	if !timer.Stop() {
		t.Fatal("first Stop should report pending")
	}
	if timer.Stop() {
		t.Fatal("second Stop should report not pending")
	}
	m.Advance(time.Minute)
	if fired {
		t.Fatal("stopped timer fired")
	}
}

func TestManual_TaskSchedulingTask(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	count := 0
	var reschedule func()
	reschedule = func() {
		count++
		if count < 3 {
			m.AfterFunc(time.Second, reschedule)
		}
	}
	m.AfterFunc(time.Second, reschedule)

	m.Advance(5 * time.Second)
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
}

func TestReal_AfterFunc(t *testing.T) {
	done := make(chan struct{})
	Real{}.AfterFunc(time.Millisecond, func() { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("real timer did not fire")
	}
}
