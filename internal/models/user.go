// Package models contains the domain structures shared between the business
// services and the storage layer.
package models

import "time"

// User represents a registered principal.
//
// IsSubscribed together with SubscriptionExpiry drives entitlement: the flag
// alone is not enough, because a past expiry means the subscription has
// lapsed. A nil expiry with the flag set is a non-expiring (grandfathered)
// subscription.
type User struct {
	ID                 string     // Opaque unique identifier (uuid)
	FirstName          string
	LastName           string
	Username           string // Globally unique
	PhoneNumber        string
	Email              string // Globally unique
	IsAdmin            bool
	PasswordHash       string
	ResetToken         *string // Single-use password-reset token, nil when none pending
	AvatarURL          *string
	IsSubscribed       bool
	SubscriptionExpiry *time.Time
	CreatedAt          time.Time
}
