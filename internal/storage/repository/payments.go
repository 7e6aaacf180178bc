package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kwachatech/streamgate/internal/models"
)

// CreatePendingPayment records a payment attempt before the provider is
// asked to charge. The tx_ref primary key is what later activation and
// webhook replays are keyed on.
func (s *Storage) CreatePendingPayment(ctx context.Context, p models.SubscriptionPayment) error {
	const op = "storage.CreatePendingPayment"

	query := `INSERT INTO subscription_payments (tx_ref, user_id, plan_id, amount,
			      currency, status)
			  VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := s.DB.ExecContext(ctx, query, p.TxRef, p.UserID, p.PlanID,
		p.Amount, p.Currency, models.PaymentStatusPending); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s: %w", op, ErrDuplicate)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetPayment returns the payment row for a transaction reference.
func (s *Storage) GetPayment(ctx context.Context, txRef string) (*models.SubscriptionPayment, error) {
	const op = "storage.GetPayment"

	query := `SELECT tx_ref, user_id, plan_id, amount, currency, status,
			      created_at, applied_at
			  FROM subscription_payments
			  WHERE tx_ref = $1`
	p := &models.SubscriptionPayment{}
	var appliedAt sql.NullTime
	if err := s.DB.QueryRowContext(ctx, query, txRef).Scan(&p.TxRef, &p.UserID,
		&p.PlanID, &p.Amount, &p.Currency, &p.Status, &p.CreatedAt,
		&appliedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if appliedAt.Valid {
		p.AppliedAt = &appliedAt.Time
	}
	return p, nil
}

// ApplyPayment performs the activation transition in a single transaction:
// the pending payment row is flipped to applied with a conditional update
// keyed on (tx_ref, status), and in the same transaction the principal's
// subscription is extended from max(now, current expiry) by durationDays.
//
// The conditional update is the store-level check-and-set closing the race
// between concurrent replays of the same transaction reference: the second
// caller matches zero rows and gets applied=false with the current expiry,
// so paid-for time is never granted twice. Flag and expiry change together
// or not at all.
func (s *Storage) ApplyPayment(ctx context.Context, txRef string, durationDays int) (*time.Time, bool, error) {
	const op = "storage.ApplyPayment"

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var userID string
	claim := `UPDATE subscription_payments
			  SET status = $1,
			      applied_at = now()
			  WHERE tx_ref = $2 AND status = $3
			  RETURNING user_id`
	err = tx.QueryRowContext(ctx, claim, models.PaymentStatusApplied, txRef,
		models.PaymentStatusPending).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		// Either already applied or unknown reference.
		expiry, lookupErr := s.expiryForAppliedPayment(ctx, txRef)
		if lookupErr != nil {
			return nil, false, fmt.Errorf("%s: %w", op, lookupErr)
		}
		return expiry, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	var newExpiry time.Time
	extend := `UPDATE users
			   SET is_subscribed = TRUE,
			       subscription_expiry = GREATEST(COALESCE(subscription_expiry, now()), now())
			           + make_interval(days => $1)
			   WHERE id = $2
			   RETURNING subscription_expiry`
	if err = tx.QueryRowContext(ctx, extend, durationDays, userID).Scan(&newExpiry); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	return &newExpiry, true, nil
}

// expiryForAppliedPayment returns the current expiry of the principal that
// owns an already-applied payment, or ErrNotFound for an unknown reference.
func (s *Storage) expiryForAppliedPayment(ctx context.Context, txRef string) (*time.Time, error) {
	query := `SELECT u.subscription_expiry
			  FROM subscription_payments p
			  JOIN users u ON u.id = p.user_id
			  WHERE p.tx_ref = $1 AND p.status = $2`
	var expiry sql.NullTime
	err := s.DB.QueryRowContext(ctx, query, txRef, models.PaymentStatusApplied).Scan(&expiry)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !expiry.Valid {
		return nil, nil
	}
	return &expiry.Time, nil
}

// GetLatestAppliedPlan returns the plan of the principal's most recently
// applied payment, or ErrNotFound when none has ever been applied.
func (s *Storage) GetLatestAppliedPlan(ctx context.Context, userID string) (*models.SubscriptionPlan, error) {
	const op = "storage.GetLatestAppliedPlan"

	query := `SELECT pl.id, pl.name, pl.description, pl.price, pl.currency,
			      pl.duration_days, pl.is_active, pl.created_at, pl.updated_at
			  FROM subscription_payments p
			  JOIN subscription_plans pl ON pl.id = p.plan_id
			  WHERE p.user_id = $1 AND p.status = $2
			  ORDER BY p.applied_at DESC
			  LIMIT 1`
	pl := &models.SubscriptionPlan{}
	var updatedAt sql.NullTime
	if err := s.DB.QueryRowContext(ctx, query, userID, models.PaymentStatusApplied).Scan(
		&pl.ID, &pl.Name, &pl.Description, &pl.Price, &pl.Currency,
		&pl.DurationDays, &pl.IsActive, &pl.CreatedAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if updatedAt.Valid {
		pl.UpdatedAt = &updatedAt.Time
	}
	return pl, nil
}
