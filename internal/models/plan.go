package models

import "time"

// SubscriptionPlan describes a purchasable subscription tier.
// DurationDays must be positive and Price non-negative; once a completed
// payment references a plan only its metadata and active flag change.
type SubscriptionPlan struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Price        float64    `json:"price"`
	Currency     string     `json:"currency"`
	DurationDays int        `json:"duration_days"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at"`
}

// SubscriptionStatus is the computed entitlement view returned to the
// calling principal. IsActive is derived at request time from IsSubscribed
// and SubscriptionExpiry; a lapsed state is never stored.
type SubscriptionStatus struct {
	IsSubscribed       bool              `json:"is_subscribed"`
	SubscriptionExpiry *time.Time        `json:"subscription_expiry"`
	IsActive           bool              `json:"is_active"`
	CurrentPlan        *SubscriptionPlan `json:"current_plan"`
}
