// broker/broker.go
package broker

import (
	"sync"
)

// Event is delivered to subscribers of a topic.
type Event struct {
	Topic   string      `json:"topic"`
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type Broker struct {
	subscribers map[string][]chan Event
	mu          sync.RWMutex
	buffer      int
}

func NewBroker() *Broker {
	return NewBrokerWithBuffer(16)
}

func NewBrokerWithBuffer(buffer int) *Broker {
	if buffer < 1 {
		buffer = 1
	}
	return &Broker{
		subscribers: make(map[string][]chan Event),
		buffer:      buffer,
	}
}

func (b *Broker) Subscribe(topic string) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Event, b.buffer)
	b.subscribers[topic] = append(b.subscribers[topic], ch)
	return ch
}

func (b *Broker) Unsubscribe(topic string, ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if chans, ok := b.subscribers[topic]; ok {
		for i, c := range chans {
			if c == ch {
				b.subscribers[topic] = append(chans[:i], chans[i+1:]...)
				close(c)
				break
			}
		}
		if len(b.subscribers[topic]) == 0 {
			delete(b.subscribers, topic)
		}
	}
}

// Publish delivers ev to every subscriber of topic and returns how many
// received it. Subscribers whose buffer is full miss the event.
func (b *Broker) Publish(topic string, ev Event) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	ev.Topic = topic
	delivered := 0
	for _, ch := range b.subscribers[topic] {
		select {
		case ch <- ev:
			delivered++
		default:
		}
	}
	return delivered
}

func (b *Broker) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[topic])
}
