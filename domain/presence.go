package domain

import "time"

// PresenceEntry is a point-in-time view of one online user, derived
// from the connection registry. A user is online while at least one
// connection is open for them.
type PresenceEntry struct {
	UserID      string    `json:"userId"`
	Connections int       `json:"connections"`
	Rooms       int       `json:"rooms"`
	Since       time.Time `json:"since"`
}
