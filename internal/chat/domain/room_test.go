package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRoom_CreatorIsAdmin(t *testing.T) {
	room := NewRoom("creator", "Go Club", "a room", []string{"m1", "m2"})

	assert.True(t, room.IsActive)
	assert.True(t, room.IsAdmin("creator"))
	assert.True(t, room.IsMember("creator"))
	assert.True(t, room.IsMember("m1"))
	assert.False(t, room.IsAdmin("m1"))
	assert.Equal(t, []string{"creator", "m1", "m2"}, room.MemberIDs())
}

func TestRoom_AddMemberIdempotent(t *testing.T) {
	room := NewRoom("creator", "Go Club", "", nil)
	room.AddMember("m1")
	room.AddMember("m1")
	room.AddMember("creator")

	assert.Len(t, room.Members, 2)
	assert.Equal(t, RoleMember, room.Members[1].Role)
}

func TestRoom_RemoveMember_PromotesWhenAdminless(t *testing.T) {
	room := NewRoom("creator", "Go Club", "", []string{"m1", "m2"})

	room.RemoveMember("creator")

	assert.True(t, room.IsActive)
	assert.False(t, room.IsMember("creator"))
	assert.Equal(t, []string{"m1"}, room.Admins)
	assert.Equal(t, RoleAdmin, room.Members[0].Role)
}

func TestRoom_RemoveMember_KeepsOtherAdmins(t *testing.T) {
	room := NewRoom("creator", "Go Club", "", []string{"m1"})
	room.Admins = append(room.Admins, "m1")
	room.Members[1].Role = RoleAdmin

	room.RemoveMember("creator")

	assert.Equal(t, []string{"m1"}, room.Admins)
	assert.True(t, room.IsActive)
}

func TestRoom_RemoveMember_LastMemberDeactivates(t *testing.T) {
	room := NewRoom("creator", "Go Club", "", nil)

	room.RemoveMember("creator")

	assert.False(t, room.IsActive)
	assert.Empty(t, room.Members)
	assert.Empty(t, room.Admins)
}

func TestRoom_RemoveMember_RegularMemberKeepsAdmins(t *testing.T) {
	room := NewRoom("creator", "Go Club", "", []string{"m1", "m2"})

	room.RemoveMember("m1")

	assert.True(t, room.IsActive)
	assert.Equal(t, []string{"creator"}, room.Admins)
	assert.Equal(t, []string{"creator", "m2"}, room.MemberIDs())
}
