package stream

import (
	"context"
	"sync"

	"github.com/switchyard-systems/switchyard/pkg/types"
)

const defaultChannelBuffer = 64

// ChannelSink delivers events to in-process subscribers over buffered
// channels. A subscriber that falls behind loses events rather than
// blocking the publisher.
type ChannelSink struct {
	mu      sync.Mutex
	buffer  int
	nextID  int
	subs    map[int]chan types.RouteChangeEvent
	dropped int
	closed  bool
}

// NewChannelSink creates a sink with the given per-subscriber buffer size.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = defaultChannelBuffer
	}
	return &ChannelSink{
		buffer: buffer,
		subs:   make(map[int]chan types.RouteChangeEvent),
	}
}

// Name returns the sink identifier.
func (s *ChannelSink) Name() string { return "channel" }

// Subscribe registers a new subscriber. The returned cancel function
// unregisters it and closes its channel.
func (s *ChannelSink) Subscribe() (<-chan types.RouteChangeEvent, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan types.RouteChangeEvent, s.buffer)
	if s.closed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextID
	s.nextID++
	s.subs[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber without blocking.
func (s *ChannelSink) Publish(_ context.Context, event types.RouteChangeEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ch := range s.subs {
		select {
		case ch <- event:
		default:
			s.dropped++
		}
	}
	return nil
}

// Dropped reports how many events were discarded due to full subscriber
// buffers.
func (s *ChannelSink) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Close unregisters all subscribers and closes their channels.
func (s *ChannelSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	return nil
}
