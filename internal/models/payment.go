package models

import "time"

// Payment lifecycle states. A payment row is created pending at initiation
// and flipped to applied exactly once by the activation transaction.
const (
	PaymentStatusPending = "pending"
	PaymentStatusApplied = "applied"
)

// SubscriptionPayment records one payment attempt keyed by the provider
// transaction reference. The unique TxRef is what makes webhook replays
// idempotent.
type SubscriptionPayment struct {
	TxRef     string
	UserID    string
	PlanID    string
	Amount    float64
	Currency  string
	Status    string
	CreatedAt time.Time
	AppliedAt *time.Time
}

// PaymentVerification is the result of a successful verify-and-activate.
type PaymentVerification struct {
	Status               string     `json:"status"`
	Amount               float64    `json:"amount"`
	Currency             string     `json:"currency"`
	TransactionReference string     `json:"transaction_reference"`
	PlanID               string     `json:"plan_id"`
	ExpiryDate           *time.Time `json:"expiry_date"`
}

// ResetEmail is the message published to the mail queue when a user asks
// for a password reset.
type ResetEmail struct {
	Email string `json:"email"`
	Token string `json:"token"`
}
