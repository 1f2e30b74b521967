package domain

import "time"

// User is a reader account. Identity is issued elsewhere; shelfwise only
// keeps what it needs for addressing (username) and visibility (IsPrivate).
type User struct {
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	IsPrivate   bool      `json:"is_private"`
}

// FollowStatus is the state of a follow edge.
type FollowStatus string

const (
	// FollowPending is a request awaiting the followee's approval.
	FollowPending FollowStatus = "pending"
	// FollowAccepted grants the follower visibility into a private profile.
	FollowAccepted FollowStatus = "accepted"
)

// Valid reports whether s is a known follow status.
func (s FollowStatus) Valid() bool {
	return s == FollowPending || s == FollowAccepted
}

// Follow is a directed edge from FollowerID to FolloweeID.
type Follow struct {
	CreatedAt  time.Time    `json:"created_at"`
	FollowerID string       `json:"follower_id"`
	FolloweeID string       `json:"followee_id"`
	Status     FollowStatus `json:"status"`
}

// Block is a directed edge; either direction hides both users from each other.
type Block struct {
	CreatedAt time.Time `json:"created_at"`
	BlockerID string    `json:"blocker_id"`
	BlockedID string    `json:"blocked_id"`
}
