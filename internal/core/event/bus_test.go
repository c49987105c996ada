package event

import (
	"testing"
)

type ping struct{ n int }
type pong struct{ n int }

func TestBusDeliversNextTick(t *testing.T) {
	b := NewBus()
	var got []int
	Subscribe(b, func(p ping) { got = append(got, p.n) })

	Emit(b, ping{n: 1})
	b.DispatchAll()
	if len(got) != 0 {
		t.Fatalf("event delivered before swap: %v", got)
	}
	if b.Pending() != 1 {
		t.Fatalf("Pending() = %d, want 1", b.Pending())
	}

	b.Flush()
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("got %v, want [1]", got)
	}

	b.Flush()
	if len(got) != 1 {
		t.Fatalf("event delivered twice: %v", got)
	}
}

func TestBusPreservesOrderAcrossTypes(t *testing.T) {
	b := NewBus()
	var order []string
	Subscribe(b, func(p ping) { order = append(order, "ping") })
	Subscribe(b, func(p pong) { order = append(order, "pong") })

	Emit(b, pong{})
	Emit(b, ping{})
	Emit(b, pong{})
	b.Flush()

	want := []string{"pong", "ping", "pong"}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("got %v, want %v", order, want)
		}
	}
}

func TestBusHandlerEmitsLandInNextTick(t *testing.T) {
	b := NewBus()
	pongs := 0
	Subscribe(b, func(p ping) { Emit(b, pong{n: p.n}) })
	Subscribe(b, func(p pong) { pongs++ })

	Emit(b, ping{n: 3})
	b.Flush()
	if pongs != 0 {
		t.Fatal("pong delivered in the same dispatch as ping")
	}
	b.Flush()
	if pongs != 1 {
		t.Fatalf("pongs = %d, want 1", pongs)
	}
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	b := NewBus()
	calls := 0
	sub := Subscribe(b, func(p ping) { calls++ })

	if !b.Unsubscribe(sub) {
		t.Fatal("first Unsubscribe reported nothing removed")
	}
	if b.Unsubscribe(sub) {
		t.Fatal("second Unsubscribe reported a removal")
	}
	if b.Unsubscribe(Subscription{}) {
		t.Fatal("zero Subscription reported a removal")
	}

	Emit(b, ping{})
	b.Flush()
	if calls != 0 {
		t.Fatalf("unsubscribed handler called %d times", calls)
	}
}

func TestUnsubscribeDuringDispatch(t *testing.T) {
	b := NewBus()
	var second Subscription
	calls := 0
	Subscribe(b, func(p ping) { b.Unsubscribe(second) })
	second = Subscribe(b, func(p ping) { calls++ })

	Emit(b, ping{})
	Emit(b, ping{})
	b.Flush()
	// The first event's snapshot still includes the second handler.
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestStopReasonString(t *testing.T) {
	cases := map[StopReason]string{
		StopExplicit: "explicit",
		StopWin:      "win",
		StopLose:     "lose",
	}
	for r, want := range cases {
		if r.String() != want {
			t.Errorf("%d.String() = %q, want %q", r, r.String(), want)
		}
	}
}
