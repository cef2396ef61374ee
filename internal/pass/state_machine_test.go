package pass

import (
	"testing"
	"time"
)

func TestStatusOf(t *testing.T) {
	if got := StatusOf(nil); got != StatusCreated {
		t.Fatalf("nil pass: got %s, want %s", got, StatusCreated)
	}

	p := &Pass{StartDate: time.Now(), EndDate: EndDateSentinel}
	if got := StatusOf(p); got != StatusDeparted {
		t.Fatalf("sentinel end date: got %s, want %s", got, StatusDeparted)
	}

	p.EndDate = time.Now()
	if got := StatusOf(p); got != StatusReturned {
		t.Fatalf("real end date: got %s, want %s", got, StatusReturned)
	}
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusCreated, StatusDeparted, true},
		{StatusDeparted, StatusReturned, true},
		{StatusCreated, StatusReturned, false},
		{StatusReturned, StatusDeparted, false},
		{StatusDeparted, StatusCreated, false},
		// 同态重复提交即改单
		{StatusDeparted, StatusDeparted, true},
		{StatusReturned, StatusReturned, true},
	}
	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.want {
			t.Fatalf("CanTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestIsArrived(t *testing.T) {
	var p *Pass
	if p.IsArrived() {
		t.Fatalf("nil pass should not be arrived")
	}
	p = &Pass{EndDate: EndDateSentinel}
	if p.IsArrived() {
		t.Fatalf("sentinel end date should not count as arrived")
	}
	p.EndDate = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if !p.IsArrived() {
		t.Fatalf("expected arrived")
	}
}
