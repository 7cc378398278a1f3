package app

import (
	"context"
	"time"

	"github.com/bhanuudhay/baat-cheet-backend/internal/chat/domain"
	"github.com/bhanuudhay/baat-cheet-backend/internal/chat/repository"
	errprocess "github.com/bhanuudhay/baat-cheet-backend/pkg/err"
)

// RoomUseCase room lifecycle and membership. Membership changes are
// written as one full-document update so the member set, the admin set and
// the active flag always change together.
type RoomUseCase struct {
	rooms   repository.RoomRepository
	timeout time.Duration
}

func NewRoomUseCase(rooms repository.RoomRepository, timeout time.Duration) *RoomUseCase {
	return &RoomUseCase{rooms: rooms, timeout: timeout}
}

// Create makes a room with the caller as its first admin.
func (uc *RoomUseCase) Create(ctx context.Context, creatorID, name, description string, memberIDs []string) (*domain.Room, error) {
	opCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	room := domain.NewRoom(creatorID, name, description, memberIDs)
	if err := uc.rooms.Create(opCtx, room); err != nil {
		return nil, errprocess.Wrap(domain.ErrExternalUnavailable, "create room", err)
	}
	return room, nil
}

// AddMembers adds users as regular members. Admins only. Users already in
// the room are skipped.
func (uc *RoomUseCase) AddMembers(ctx context.Context, callerID, roomID string, memberIDs []string) (*domain.Room, error) {
	opCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	room, err := uc.fetchRoom(opCtx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.IsAdmin(callerID) {
		return nil, errprocess.Wrap(domain.ErrForbidden, "only admins may add members", nil)
	}

	for _, id := range memberIDs {
		room.AddMember(id)
	}
	if err := uc.rooms.Update(opCtx, room); err != nil {
		return nil, errprocess.Wrap(domain.ErrExternalUnavailable, "update room", err)
	}
	return room, nil
}

// RemoveMember kicks a member out of the room. Admins only.
func (uc *RoomUseCase) RemoveMember(ctx context.Context, callerID, roomID, memberID string) (*domain.Room, error) {
	opCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	room, err := uc.fetchRoom(opCtx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.IsAdmin(callerID) {
		return nil, errprocess.Wrap(domain.ErrForbidden, "only admins may remove members", nil)
	}
	if !room.IsMember(memberID) {
		return nil, errprocess.Wrap(domain.ErrNotFound, "member "+memberID, nil)
	}

	room.RemoveMember(memberID)
	if err := uc.rooms.Update(opCtx, room); err != nil {
		return nil, errprocess.Wrap(domain.ErrExternalUnavailable, "update room", err)
	}
	return room, nil
}

// Leave takes the caller out of the room. The last member leaving
// deactivates the room, and a departing last admin hands the room to the
// longest-standing remaining member.
func (uc *RoomUseCase) Leave(ctx context.Context, callerID, roomID string) (*domain.Room, error) {
	opCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	room, err := uc.fetchRoom(opCtx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.IsMember(callerID) {
		return nil, errprocess.Wrap(domain.ErrForbidden, "not a room member", nil)
	}

	room.RemoveMember(callerID)
	if err := uc.rooms.Update(opCtx, room); err != nil {
		return nil, errprocess.Wrap(domain.ErrExternalUnavailable, "update room", err)
	}
	return room, nil
}

// ListForUser returns the active rooms the user belongs to.
func (uc *RoomUseCase) ListForUser(ctx context.Context, userID string) ([]domain.Room, error) {
	opCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	rooms, err := uc.rooms.FindByMember(opCtx, userID)
	if err != nil {
		return nil, errprocess.Wrap(domain.ErrExternalUnavailable, "list rooms", err)
	}
	return rooms, nil
}

func (uc *RoomUseCase) fetchRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	room, err := uc.rooms.FindByID(ctx, roomID)
	if err != nil {
		return nil, errprocess.Wrap(domain.ErrExternalUnavailable, "find room", err)
	}
	if room == nil || !room.IsActive {
		return nil, errprocess.Wrap(domain.ErrNotFound, "room "+roomID, nil)
	}
	return room, nil
}
