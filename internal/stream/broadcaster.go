// Package stream plays a finalized podcast to any number of live
// listeners: a real-time PCM player, a fan-out broadcaster, and HTTP
// and WebRTC front-ends.
package stream

import (
	"context"
	"sync"
)

// listenerBuffer is ~3 seconds of 20ms frames per listener.
const listenerBuffer = 150

// Listener receives PCM frames from a Broadcaster until unsubscribed.
type Listener struct {
	C    chan []int16
	done chan struct{}
}

// Broadcaster fans out PCM frames from one source to every subscribed
// listener. A listener that falls behind loses frames instead of
// stalling the others.
type Broadcaster struct {
	mu        sync.RWMutex
	listeners map[*Listener]struct{}
	dropped   uint64
}

// NewBroadcaster creates a broadcaster with no listeners.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{listeners: make(map[*Listener]struct{})}
}

// Subscribe registers a new listener.
func (b *Broadcaster) Subscribe() *Listener {
	l := &Listener{
		C:    make(chan []int16, listenerBuffer),
		done: make(chan struct{}),
	}
	b.mu.Lock()
	b.listeners[l] = struct{}{}
	b.mu.Unlock()
	return l
}

// Unsubscribe removes a listener and signals it to stop.
func (b *Broadcaster) Unsubscribe(l *Listener) {
	b.mu.Lock()
	delete(b.listeners, l)
	b.mu.Unlock()
	close(l.done)
}

// ListenerCount returns the number of active listeners.
func (b *Broadcaster) ListenerCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}

// DroppedFrames returns how many frames were discarded for slow listeners.
func (b *Broadcaster) DroppedFrames() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dropped
}

func (b *Broadcaster) publish(frame []int16) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for l := range b.listeners {
		select {
		case l.C <- frame:
		default:
			// listener too slow, keep the broadcast moving
			b.dropped++
		}
	}
}

// Run reads frames from source and fans them out until the context is
// cancelled or the source closes.
func (b *Broadcaster) Run(ctx context.Context, source <-chan []int16) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-source:
			if !ok {
				return
			}
			b.publish(frame)
		}
	}
}
