package memdriver

import (
	"context"
	"testing"
	"time"

	"github.com/keestucker-fork/diagkit/canbus"
)

func TestSendFrameFansOutToOtherDrivers(t *testing.T) {
	bus := NewBus()
	a := bus.NewDriver()
	b := bus.NewDriver()
	c := bus.NewDriver()

	chB := make(chan canbus.Frame, 1)
	chC := make(chan canbus.Frame, 1)
	b.RegisterListener("b", chB)
	c.RegisterListener("c", chC)

	frame := canbus.NewFrame("can0", 0x7E0, false, []byte{0x01, 0x02})
	if err := a.SendFrame(context.Background(), frame); err != nil {
		t.Fatalf("SendFrame: %v", err)
	}

	select {
	case got := <-chB:
		if got.ID != 0x7E0 {
			t.Fatalf("ID = 0x%X, want 0x7E0", got.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for frame on driver b")
	}
	select {
	case <-chC:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for frame on driver c")
	}
}

func TestSendFrameDoesNotLoopBackToSender(t *testing.T) {
	bus := NewBus()
	a := bus.NewDriver()
	chA := make(chan canbus.Frame, 1)
	a.RegisterListener("a", chA)

	if err := a.SendFrame(context.Background(), canbus.NewFrame("can0", 0x123, false, nil)); err != nil {
		t.Fatalf("SendFrame: %v", err)
	}
	select {
	case got := <-chA:
		t.Fatalf("sender should not receive its own frame, got %+v", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnregisterListenerStopsDelivery(t *testing.T) {
	bus := NewBus()
	a := bus.NewDriver()
	b := bus.NewDriver()
	ch := make(chan canbus.Frame, 1)
	b.RegisterListener("b", ch)
	b.UnregisterListener("b")

	if err := a.SendFrame(context.Background(), canbus.NewFrame("can0", 0x123, false, nil)); err != nil {
		t.Fatalf("SendFrame: %v", err)
	}
	select {
	case got := <-ch:
		t.Fatalf("unregistered listener should not receive frames, got %+v", got)
	case <-time.After(50 * time.Millisecond):
	}
}
