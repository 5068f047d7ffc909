package notifier

import (
	"context"
	"sync"

	registrar "github.com/campus-sense/registrar-go"
)

const defaultBufferSize = 64

var _ registrar.Publisher = (*Broker)(nil)

// Broker is an in-process fan-out of seat events. Clients of the surrounding
// layer (an SSE handler, a websocket bridge) subscribe and receive every
// event published by the core. Publishing never blocks: events are dropped
// for subscribers that fall behind.
type Broker struct {
	subs       map[chan registrar.SeatEvent]struct{}
	mu         sync.RWMutex
	done       chan struct{}
	bufferSize int
}

func NewBroker() *Broker {
	return NewBrokerWithBuffer(defaultBufferSize)
}

func NewBrokerWithBuffer(size int) *Broker {
	return &Broker{
		subs:       make(map[chan registrar.SeatEvent]struct{}),
		done:       make(chan struct{}),
		bufferSize: size,
	}
}

// Subscribe creates a new subscription channel. The channel is closed when
// ctx is cancelled or the broker shuts down.
func (b *Broker) Subscribe(ctx context.Context) <-chan registrar.SeatEvent {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.done:
		ch := make(chan registrar.SeatEvent)
		close(ch)
		return ch
	default:
	}

	sub := make(chan registrar.SeatEvent, b.bufferSize)
	b.subs[sub] = struct{}{}

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()

		select {
		case <-b.done:
			return
		default:
		}

		delete(b.subs, sub)
		close(sub)
	}()

	return sub
}

func (b *Broker) Publish(ctx context.Context, event registrar.SeatEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	select {
	case <-b.done:
		return nil
	default:
	}

	for sub := range b.subs {
		select {
		case sub <- event:
		default:
			// subscriber is full, drop rather than block the registration
		}
	}
	return nil
}

// Close shuts down the broker and all subscriber channels.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.done:
		return
	default:
	}

	close(b.done)
	for sub := range b.subs {
		close(sub)
	}
	b.subs = nil
}

// SubscriberCount returns the number of active subscribers.
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
