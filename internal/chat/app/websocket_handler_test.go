package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/bhanuudhay/baat-cheet-backend/internal/chat/domain"
)

func TestLogout_AckArrivesBeforeClose(t *testing.T) {
	f := newSessionFixture()
	f.validator.On("Validate", mock.Anything, "token-a").Return("alice", nil)
	f.knowsUser("alice")
	f.userRepo.On("UpdateStatus", mock.Anything, "alice", mock.Anything, mock.Anything).Return(nil)

	h := NewChatWebsocketHandler(f.mgr, nil, nil, nil, nil)

	sink := &fakePusher{}
	s := collectorSession(f, sink)
	_, err := f.mgr.Authenticate(context.Background(), s, "token-a")
	assert.NoError(t, err)

	h.textMessageAction(context.Background(), s, []byte(`{"action":"logout"}`))

	responses := sink.responses()
	assert.NotEmpty(t, responses)
	last := responses[len(responses)-1]
	assert.Equal(t, "logout", last.Action)
	assert.True(t, last.Success)

	// the session is closed after the ack went out
	assert.False(t, f.presence.IsReachable("alice"))
	assert.Error(t, s.Push(domain.WSResponse{Action: "receive_message"}))
}
