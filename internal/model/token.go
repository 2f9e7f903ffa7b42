package model

import "time"

// SessionData contains the data stored with a session token.
type SessionData struct {
	UserID       string    `json:"userId" msgpack:"user_id"`
	Username     string    `json:"username" msgpack:"username"`
	DisplayName  string    `json:"displayName" msgpack:"display_name"`
	HomeCurrency string    `json:"homeCurrency,omitempty" msgpack:"home_currency"`
	CreatedAt    time.Time `json:"createdAt" msgpack:"created_at"`
	ExpiresAt    time.Time `json:"expiresAt" msgpack:"expires_at"`
}
