package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kwachatech/streamgate/internal/models"
)

// CreatePlan saves a new subscription plan and returns its generated id.
func (s *Storage) CreatePlan(ctx context.Context, plan models.SubscriptionPlan) (string, error) {
	const op = "storage.CreatePlan"

	var newID string
	query := `INSERT INTO subscription_plans (name, description, price, currency,
			      duration_days, is_active)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING id;`
	if err := s.DB.QueryRowContext(ctx, query,
		plan.Name, plan.Description, plan.Price, plan.Currency,
		plan.DurationDays, plan.IsActive).Scan(&newID); err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("%s: %w", op, ErrDuplicate)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetPlan returns the plan with the given id.
func (s *Storage) GetPlan(ctx context.Context, id string) (*models.SubscriptionPlan, error) {
	const op = "storage.GetPlan"

	query := `SELECT id, name, description, price, currency, duration_days,
			      is_active, created_at, updated_at
			  FROM subscription_plans
			  WHERE id = $1`
	p := &models.SubscriptionPlan{}
	var updatedAt sql.NullTime
	if err := s.DB.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Name,
		&p.Description, &p.Price, &p.Currency, &p.DurationDays, &p.IsActive,
		&p.CreatedAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if updatedAt.Valid {
		p.UpdatedAt = &updatedAt.Time
	}
	return p, nil
}

// ListPlans returns plans ordered by price, optionally restricted to
// active ones.
func (s *Storage) ListPlans(ctx context.Context, activeOnly bool) ([]*models.SubscriptionPlan, error) {
	const op = "storage.ListPlans"

	query := `SELECT id, name, description, price, currency, duration_days,
			      is_active, created_at, updated_at
			  FROM subscription_plans`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY price`

	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.SubscriptionPlan
	for rows.Next() {
		p := &models.SubscriptionPlan{}
		var updatedAt sql.NullTime
		if err = rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price,
			&p.Currency, &p.DurationDays, &p.IsActive, &p.CreatedAt,
			&updatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if updatedAt.Valid {
			p.UpdatedAt = &updatedAt.Time
		}
		result = append(result, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdatePlan rewrites the mutable plan fields (metadata, price, active flag).
func (s *Storage) UpdatePlan(ctx context.Context, plan models.SubscriptionPlan) error {
	const op = "storage.UpdatePlan"

	query := `UPDATE subscription_plans
			  SET name = $1,
			      description = $2,
			      price = $3,
			      currency = $4,
			      duration_days = $5,
			      is_active = $6,
			      updated_at = now()
			  WHERE id = $7`
	res, err := s.DB.ExecContext(ctx, query, plan.Name, plan.Description,
		plan.Price, plan.Currency, plan.DurationDays, plan.IsActive, plan.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}
