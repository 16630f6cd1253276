package notify

import (
	"testing"
	"time"
)

func TestSendReachesAllSubscribers(t *testing.T) {
	s, m := NewMux[int]("test")
	a := make(chan int, 1)
	b := make(chan int, 1)
	m.Subscribe("a", a)
	m.Subscribe("b", b)
	s.Send(7)
	for _, ch := range []chan int{a, b} {
		select {
		case got := <-ch:
			if got != 7 {
				t.Fatalf("expected 7, got %d", got)
			}
		case <-time.After(time.Second):
			t.Fatal("subscriber never received")
		}
	}
}

func TestUnsubscribe(t *testing.T) {
	s, m := NewMux[string]("test")
	ch := make(chan string, 1)
	m.Subscribe("x", ch)
	m.Unsubscribe(ch)
	s.Send("gone")
	select {
	case v := <-ch:
		t.Fatalf("received after unsubscribe: %q", v)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSlowSubscriberIsDropped(t *testing.T) {
	s, m := NewMux[int]("test")
	ch := make(chan int) // unbuffered, never read
	m.Subscribe("slow", ch)
	s.Send(1)
	deadline := time.Now().Add(2 * time.Second)
	for m.Dropped() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("drop never recorded")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
