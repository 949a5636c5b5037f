package models

import "time"

// ClientIdentity is the server-side record of a minted client identifier
type ClientIdentity struct {
	ClientID    string    `json:"client_id" db:"client_id"`
	DeviceType  string    `json:"device_type" db:"device_type"` // mobile, tablet, desktop
	OS          string    `json:"os" db:"os"`
	Browser     string    `json:"browser" db:"browser"`
	Platform    string    `json:"platform" db:"platform"`
	IsBot       bool      `json:"is_bot" db:"is_bot"`
	IPHash      string    `json:"ip_hash,omitempty" db:"ip_hash"`
	FirstSeenAt time.Time `json:"first_seen_at" db:"first_seen_at"`
	LastSeenAt  time.Time `json:"last_seen_at" db:"last_seen_at"`
}
