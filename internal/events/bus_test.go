package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBusDeliversInSubscriptionOrder(t *testing.T) {
	bus := NewBus[ProfileChanged]()
	var got []string

	bus.Subscribe(func(e ProfileChanged) { got = append(got, "header:"+e.AvatarURL) })
	bus.Subscribe(func(e ProfileChanged) { got = append(got, "session:"+e.AvatarURL) })

	bus.Publish(ProfileChanged{UserID: 7, AvatarURL: "/uploads/a.png"})

	assert.Equal(t, []string{"header:/uploads/a.png", "session:/uploads/a.png"}, got)
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus[int]()
	calls := 0
	unsubscribe := bus.Subscribe(func(int) { calls++ })

	bus.Publish(1)
	unsubscribe()
	unsubscribe()
	bus.Publish(2)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, bus.Len())
}

func TestBusPublishWithoutSubscribers(t *testing.T) {
	bus := NewBus[string]()
	assert.NotPanics(t, func() { bus.Publish("noop") })
}
