package domain

// UserStatus user reachability status persisted on the user record
type UserStatus string

const (
	// StatusOnline user has at least one live connection
	StatusOnline UserStatus = "online"
	// StatusOffline user has no live connection
	StatusOffline UserStatus = "offline"
	// StatusAway user marked themselves away
	StatusAway UserStatus = "away"
)

// User the external user record consulted by the core: identity, presence
// status mirror and block list. Credentials live with the auth service.
type User struct {
	ID       string     `json:"id"`
	Username string     `json:"username"`
	Email    string     `json:"email"`
	Status   UserStatus `json:"status"`
	LastSeen int64      `json:"last_seen"`
	Blocked  []string   `json:"blocked,omitempty"`
}

// HasBlocked reports whether this user blocked userID
func (u *User) HasBlocked(userID string) bool {
	for _, b := range u.Blocked {
		if b == userID {
			return true
		}
	}
	return false
}

// Session a live auth session looked up in redis during authenticate
type Session struct {
	UserID    string `json:"user_id"`
	CreatedAt int64  `json:"created_at"`
	ExpiredAt int64  `json:"expired_at"`
}
