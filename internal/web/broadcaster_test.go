package web

import (
	"encoding/json"
	"testing"
	"time"
)

func receive(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for broadcast")
	}
	return ""
}

func TestBroadcaster_MultipleSubscribers(t *testing.T) {
	b := NewBroadcaster()
	ch1, unsub1 := b.Subscribe()
	defer unsub1()
	ch2, unsub2 := b.Subscribe()
	defer unsub2()

	b.Send("multi")

	for i, ch := range []<-chan string{ch1, ch2} {
		if msg := receive(t, ch); msg != "multi" {
			t.Errorf("subscriber %d: msg = %q, want \"multi\"", i, msg)
		}
	}
	if b.Subscribers() != 2 {
		t.Errorf("Subscribers = %d, want 2", b.Subscribers())
	}
}

func TestBroadcaster_UnsubscribeClosesChannel(t *testing.T) {
	b := NewBroadcaster()
	ch, unsub := b.Subscribe()
	unsub()
	unsub() // second call is a no-op

	if _, ok := <-ch; ok {
		t.Error("expected channel to be closed after unsubscribe")
	}
	if b.Subscribers() != 0 {
		t.Errorf("Subscribers = %d, want 0", b.Subscribers())
	}
	b.Send("after unsub") // must not panic
}

func TestBroadcaster_FullChannelDropsMessage(t *testing.T) {
	b := NewBroadcaster()
	ch, unsub := b.Subscribe()
	defer unsub()

	for i := 0; i < 64; i++ {
		b.Send("fill")
	}
	b.Send("overflow") // dropped, never blocks

	count := 0
	for len(ch) > 0 {
		if msg := <-ch; msg != "fill" {
			t.Errorf("unexpected payload %q", msg)
		}
		count++
	}
	if count != 64 {
		t.Errorf("expected 64 buffered messages, got %d", count)
	}
}

func TestBroadcaster_Log(t *testing.T) {
	b := NewBroadcaster()
	ch, unsub := b.Subscribe()
	defer unsub()

	b.Log("error", "boom")

	var evt LogEvent
	if err := json.Unmarshal([]byte(receive(t, ch)), &evt); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if evt.Level != "error" || evt.Msg != "boom" {
		t.Errorf("event = %+v", evt)
	}
	if evt.Time == "" {
		t.Error("event should have a timestamp")
	}
}

func TestLogWriter_Write(t *testing.T) {
	b := NewBroadcaster()
	ch, unsub := b.Subscribe()
	defer unsub()

	w := LogWriter(b)
	in := "  [RoboGo] trimmed message  \n"
	n, err := w.Write([]byte(in))
	if err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if n != len(in) {
		t.Errorf("n = %d, want %d", n, len(in))
	}

	var evt LogEvent
	if err := json.Unmarshal([]byte(receive(t, ch)), &evt); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if evt.Msg != "[RoboGo] trimmed message" || evt.Level != "info" {
		t.Errorf("event = %+v", evt)
	}
}

func TestLogWriter_EmptyWriteIgnored(t *testing.T) {
	b := NewBroadcaster()
	ch, unsub := b.Subscribe()
	defer unsub()

	LogWriter(b).Write([]byte("   \n"))

	select {
	case <-ch:
		t.Error("expected no message for whitespace-only write")
	case <-time.After(50 * time.Millisecond):
	}
}
