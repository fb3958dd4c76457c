package broker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishSubscribe(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("conversation:1")

	n := b.Publish("conversation:1", Event{Type: "message", Payload: "hei"})
	assert.Equal(t, 1, n)

	ev := <-ch
	assert.Equal(t, "conversation:1", ev.Topic)
	assert.Equal(t, "message", ev.Type)
	assert.Equal(t, "hei", ev.Payload)
}

func TestPublishWithoutSubscribers(t *testing.T) {
	b := NewBroker()
	assert.Equal(t, 0, b.Publish("nobody", Event{Type: "message"}))
}

func TestPublishDropsWhenBufferFull(t *testing.T) {
	b := NewBrokerWithBuffer(1)
	ch := b.Subscribe("t")

	assert.Equal(t, 1, b.Publish("t", Event{Type: "first"}))
	assert.Equal(t, 0, b.Publish("t", Event{Type: "second"}))
	assert.Equal(t, "first", (<-ch).Type)
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("t")
	assert.Equal(t, 1, b.Subscribers("t"))

	b.Unsubscribe("t", ch)
	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, b.Subscribers("t"))
}
