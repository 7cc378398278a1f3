package app

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bhanuudhay/baat-cheet-backend/internal/chat/domain"
)

func TestPresenceRegistry_TransitionsOnFirstAndLastHandle(t *testing.T) {
	p := NewPresenceRegistry()
	h1 := &fakePusher{}
	h2 := &fakePusher{}

	assert.True(t, p.Register("user-1", h1))
	assert.False(t, p.Register("user-1", h2))
	assert.True(t, p.IsReachable("user-1"))

	assert.False(t, p.Unregister("user-1", h1))
	assert.True(t, p.IsReachable("user-1"))

	assert.True(t, p.Unregister("user-1", h2))
	assert.False(t, p.IsReachable("user-1"))
}

func TestPresenceRegistry_UnregisterUnknownHandle(t *testing.T) {
	p := NewPresenceRegistry()
	h := &fakePusher{}

	assert.False(t, p.Unregister("user-1", h))

	p.Register("user-1", h)
	assert.False(t, p.Unregister("user-1", &fakePusher{}))
	assert.True(t, p.IsReachable("user-1"))
}

func TestPresenceRegistry_PushToAllHandles(t *testing.T) {
	p := NewPresenceRegistry()
	h1 := &fakePusher{}
	h2 := &fakePusher{}
	p.Register("user-1", h1)
	p.Register("user-1", h2)

	resp := domain.WSResponse{Action: "receive_message", Success: true}
	delivered := p.PushTo("user-1", resp)

	assert.Equal(t, 2, delivered)
	assert.Len(t, h1.responses(), 1)
	assert.Len(t, h2.responses(), 1)
}

func TestPresenceRegistry_PushSkipsDeadHandle(t *testing.T) {
	p := NewPresenceRegistry()
	dead := &fakePusher{fail: true}
	live := &fakePusher{}
	p.Register("user-1", dead)
	p.Register("user-1", live)

	delivered := p.PushTo("user-1", domain.WSResponse{Action: "receive_message"})

	assert.Equal(t, 1, delivered)
	assert.Len(t, live.responses(), 1)
}

func TestPresenceRegistry_PushToUnknownUser(t *testing.T) {
	p := NewPresenceRegistry()
	assert.Equal(t, 0, p.PushTo("ghost", domain.WSResponse{Action: "receive_message"}))
}

func TestPresenceRegistry_Broadcast(t *testing.T) {
	p := NewPresenceRegistry()
	h1 := &fakePusher{}
	h2 := &fakePusher{}
	p.Register("user-1", h1)
	p.Register("user-2", h2)

	p.Broadcast(domain.WSResponse{Action: "presence"})

	assert.Len(t, h1.responses(), 1)
	assert.Len(t, h2.responses(), 1)
}
