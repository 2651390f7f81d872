// Package models defines server-side records persisted in the identity store.
package models

import "time"

// User is one account of the sync service. Email is the identity; the API
// token itself is never stored, only its keyed hash.
type User struct {
	Email     string
	Name      string
	Image     string
	TokenHash string
	CreatedAt time.Time
	// LastSync is set after every accepted upload; nil until the first one.
	LastSync *time.Time
}
