package domain

import (
	"time"

	"github.com/google/uuid"
)

// RoomRole member role inside a room
type RoomRole string

const (
	// RoleAdmin room administrator
	RoleAdmin RoomRole = "admin"
	// RoleMember regular room member
	RoleMember RoomRole = "member"
)

// RoomMember one (member, role) pair
type RoomMember struct {
	UserID string   `bson:"user_id" json:"user_id"`
	Role   RoomRole `bson:"role" json:"role"`
}

// Room a group conversation. Invariants: every admin is a member; a room
// with members is never adminless; a room with no members is inactive.
type Room struct {
	ID          string       `bson:"_id" json:"id"`
	Name        string       `bson:"name" json:"name"`
	Description string       `bson:"description,omitempty" json:"description,omitempty"`
	CreatorID   string       `bson:"creator_id" json:"creator_id"`
	Admins      []string     `bson:"admins" json:"admins"`
	Members     []RoomMember `bson:"members" json:"members"`
	IsActive    bool         `bson:"is_active" json:"is_active"`
	CreatedAt   int64        `bson:"created_at" json:"created_at"`
}

// NewRoom creates a room with the creator as first admin and the given
// users as regular members
func NewRoom(creatorID, name, description string, memberIDs []string) *Room {
	r := &Room{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		CreatorID:   creatorID,
		Admins:      []string{creatorID},
		Members:     []RoomMember{{UserID: creatorID, Role: RoleAdmin}},
		IsActive:    true,
		CreatedAt:   time.Now().Unix(),
	}
	for _, id := range memberIDs {
		r.AddMember(id)
	}
	return r
}

// IsMember reports whether userID is in the member set
func (r *Room) IsMember(userID string) bool {
	for _, m := range r.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// IsAdmin reports whether userID is in the admin set
func (r *Room) IsAdmin(userID string) bool {
	for _, a := range r.Admins {
		if a == userID {
			return true
		}
	}
	return false
}

// MemberIDs returns the member user ids in membership order
func (r *Room) MemberIDs() []string {
	ids := make([]string, 0, len(r.Members))
	for _, m := range r.Members {
		ids = append(ids, m.UserID)
	}
	return ids
}

// AddMember adds userID as a regular member, no-op if already present
func (r *Room) AddMember(userID string) {
	if r.IsMember(userID) {
		return
	}
	r.Members = append(r.Members, RoomMember{UserID: userID, Role: RoleMember})
}

// RemoveMember takes userID out of the member and admin sets and restores
// the room invariants in the same transition: an empty member set
// deactivates the room; a non-empty member set with no admins promotes the
// first remaining member.
func (r *Room) RemoveMember(userID string) {
	members := make([]RoomMember, 0, len(r.Members))
	for _, m := range r.Members {
		if m.UserID != userID {
			members = append(members, m)
		}
	}
	r.Members = members

	admins := make([]string, 0, len(r.Admins))
	for _, a := range r.Admins {
		if a != userID {
			admins = append(admins, a)
		}
	}
	r.Admins = admins

	if len(r.Members) == 0 {
		r.IsActive = false
		return
	}
	if len(r.Admins) == 0 {
		r.Members[0].Role = RoleAdmin
		r.Admins = append(r.Admins, r.Members[0].UserID)
	}
}
