// Package notify fans simulation events out to any number of subscribers.
package notify

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/exp/slices"
)

const sendTimeout = 200 * time.Millisecond

type subscriber[E any] struct {
	ch      chan E
	comment string
}

// Mux delivers values to subscribed channels. Publish is reserved to the
// paired Sender so subscribers cannot inject events.
type Mux[E any] struct {
	comment string
	mu      sync.Mutex
	subs    []subscriber[E]
	dropped int
}

// Sender is the write half of a Mux.
type Sender[E any] struct {
	m *Mux[E]
}

func NewMux[E any](comment string) (*Sender[E], *Mux[E]) {
	m := &Mux[E]{comment: comment}
	return &Sender[E]{m: m}, m
}

func (m *Mux[E]) Subscribe(comment string, ch chan E) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, subscriber[E]{ch: ch, comment: comment})
}

func (m *Mux[E]) Unsubscribe(ch chan E) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := slices.IndexFunc(m.subs, func(s subscriber[E]) bool { return s.ch == ch })
	if i == -1 {
		panic("unsubscribe of channel that was never subscribed")
	}
	m.subs = slices.Delete(m.subs, i, i+1)
}

// Dropped reports how many deliveries timed out so far.
func (m *Mux[E]) Dropped() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dropped
}

// Send delivers e to every subscriber, asynchronously. A subscriber that
// doesn't take the value within sendTimeout misses it.
func (s *Sender[E]) Send(e E) {
	go s.m.send(e)
}

func (m *Mux[E]) send(e E) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sub := range m.subs {
		select {
		case sub.ch <- e:
		case <-time.After(sendTimeout):
			m.dropped++
			zap.S().Warnw("notify: subscriber timed out",
				"mux", m.comment,
				"subscriber", sub.comment)
		}
	}
}
