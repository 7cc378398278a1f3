package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/bhanuudhay/baat-cheet-backend/internal/chat/domain"
)

func newRoomFixture() (*MockRoomRepository, *RoomUseCase) {
	repo := new(MockRoomRepository)
	return repo, NewRoomUseCase(repo, time.Second)
}

func TestRoomCreate(t *testing.T) {
	repo, uc := newRoomFixture()
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	room, err := uc.Create(context.Background(), "creator", "Go Club", "gophers", []string{"m1"})

	assert.NoError(t, err)
	assert.True(t, room.IsAdmin("creator"))
	assert.True(t, room.IsMember("m1"))
	repo.AssertExpectations(t)
}

func TestRoomAddMembers_AdminOnly(t *testing.T) {
	repo, uc := newRoomFixture()
	room := domain.NewRoom("creator", "Go Club", "", []string{"m1"})
	repo.On("FindByID", mock.Anything, room.ID).Return(room, nil)

	_, err := uc.AddMembers(context.Background(), "m1", room.ID, []string{"m2"})

	assert.True(t, errors.Is(err, domain.ErrForbidden))
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestRoomAddMembers(t *testing.T) {
	repo, uc := newRoomFixture()
	room := domain.NewRoom("creator", "Go Club", "", nil)
	repo.On("FindByID", mock.Anything, room.ID).Return(room, nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	updated, err := uc.AddMembers(context.Background(), "creator", room.ID, []string{"m1", "m1", "m2"})

	assert.NoError(t, err)
	assert.Equal(t, []string{"creator", "m1", "m2"}, updated.MemberIDs())
}

func TestRoomRemoveMember_UnknownMember(t *testing.T) {
	repo, uc := newRoomFixture()
	room := domain.NewRoom("creator", "Go Club", "", nil)
	repo.On("FindByID", mock.Anything, room.ID).Return(room, nil)

	_, err := uc.RemoveMember(context.Background(), "creator", room.ID, "ghost")

	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestRoomLeave_LastAdminPromotesFirstMember(t *testing.T) {
	repo, uc := newRoomFixture()
	room := domain.NewRoom("creator", "Go Club", "", []string{"m1", "m2"})
	repo.On("FindByID", mock.Anything, room.ID).Return(room, nil)

	var saved *domain.Room
	repo.On("Update", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*domain.Room)
	}).Return(nil)

	updated, err := uc.Leave(context.Background(), "creator", room.ID)

	assert.NoError(t, err)
	assert.Equal(t, []string{"m1"}, updated.Admins)
	assert.True(t, updated.IsActive)
	// the promotion and the removal land in one update
	assert.Same(t, updated, saved)
}

func TestRoomLeave_LastMemberDeactivates(t *testing.T) {
	repo, uc := newRoomFixture()
	room := domain.NewRoom("creator", "Go Club", "", nil)
	repo.On("FindByID", mock.Anything, room.ID).Return(room, nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	updated, err := uc.Leave(context.Background(), "creator", room.ID)

	assert.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.Empty(t, updated.Members)
}

func TestRoomLeave_NonMemberForbidden(t *testing.T) {
	repo, uc := newRoomFixture()
	room := domain.NewRoom("creator", "Go Club", "", nil)
	repo.On("FindByID", mock.Anything, room.ID).Return(room, nil)

	_, err := uc.Leave(context.Background(), "stranger", room.ID)

	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestRoomFetch_InactiveLooksDeleted(t *testing.T) {
	repo, uc := newRoomFixture()
	room := domain.NewRoom("creator", "Go Club", "", nil)
	room.IsActive = false
	repo.On("FindByID", mock.Anything, room.ID).Return(room, nil)

	_, err := uc.AddMembers(context.Background(), "creator", room.ID, []string{"m1"})

	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
