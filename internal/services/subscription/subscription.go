// Package subscription contains the entitlement guard, the subscription
// plan catalog and the payment-driven activation state machine.
//
// A principal moves between unsubscribed, active and lapsed. Only the
// activation transition writes state; lapse is observed, never stored: the
// guard recomputes entitlement from the live flag and expiry on every check.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kwachatech/streamgate/internal/lib/sl"
	"github.com/kwachatech/streamgate/internal/models"
	"github.com/kwachatech/streamgate/internal/paymentprovider"
	"github.com/kwachatech/streamgate/internal/storage/repository"
)

// Domain failures produced by this service.
var (
	// ErrSubscriptionRequired is returned for an authenticated principal
	// without a currently active subscription. Distinct from an
	// authentication failure: the remedy is to subscribe, not to log in.
	ErrSubscriptionRequired = errors.New("active subscription required")
	// ErrPlanNotFound is returned for an unknown or inactive plan.
	ErrPlanNotFound = errors.New("subscription plan not found")
	// ErrPlanInvalid is returned when plan fields violate the invariants.
	ErrPlanInvalid = errors.New("invalid subscription plan")
	// ErrPaymentNotCompleted is returned when the provider reports the
	// charge as anything but successful.
	ErrPaymentNotCompleted = errors.New("payment not completed")
	// ErrInvalidTransactionReference is returned for an unknown reference.
	ErrInvalidTransactionReference = errors.New("invalid transaction reference")
	// ErrPaymentUnavailable is returned when the provider cannot be reached;
	// the client may retry.
	ErrPaymentUnavailable = errors.New("payment verification unavailable")
)

// Repository is the store contract this service needs.
type Repository interface {
	CreatePlan(ctx context.Context, plan models.SubscriptionPlan) (string, error)
	GetPlan(ctx context.Context, id string) (*models.SubscriptionPlan, error)
	ListPlans(ctx context.Context, activeOnly bool) ([]*models.SubscriptionPlan, error)
	UpdatePlan(ctx context.Context, plan models.SubscriptionPlan) error
	CreatePendingPayment(ctx context.Context, p models.SubscriptionPayment) error
	GetPayment(ctx context.Context, txRef string) (*models.SubscriptionPayment, error)
	ApplyPayment(ctx context.Context, txRef string, durationDays int) (*time.Time, bool, error)
	GetLatestAppliedPlan(ctx context.Context, userID string) (*models.SubscriptionPlan, error)
}

// Provider is the payment-provider contract this service needs.
type Provider interface {
	InitializePayment(ctx context.Context, req paymentprovider.InitializeRequest) (*paymentprovider.InitializeResponse, error)
	VerifyCharge(ctx context.Context, txRef string) (*paymentprovider.VerifyResponse, error)
}

// Cache caches the read-mostly plan catalog. Entitlement itself is never
// cached.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

const (
	planCacheKeyActive = "plans:active"
	planCacheKeyAll    = "plans:all"
	planCacheTTL       = time.Hour
)

// PaymentInitiation is handed back to the client after a charge is started.
type PaymentInitiation struct {
	PaymentURL           string `json:"payment_url"`
	TransactionReference string `json:"transaction_reference"`
	VerificationURL      string `json:"verification_url"`
	PlanID               string `json:"plan_id"`
}

// InitiateParams carries the client's payment request fields.
type InitiateParams struct {
	PlanID      string
	PhoneNumber string
	Network     string
	Email       string
	CallbackURL string
	ReturnURL   string
}

// Service implements the subscription guard and activation logic.
type Service struct {
	repo     Repository
	provider Provider
	cache    Cache
	log      *slog.Logger
}

// New creates a new subscription Service.
func New(repo Repository, provider Provider, cache Cache, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		provider: provider,
		cache:    cache,
		log:      log,
	}
}

// IsEntitled is the entitlement predicate: the subscription flag must be set
// and the expiry, when present, must lie in the future. A nil expiry with
// the flag set is a non-expiring (grandfathered) subscription and counts as
// entitled. Pure function over the already-resolved principal.
func IsEntitled(user *models.User, now time.Time) bool {
	if user == nil || !user.IsSubscribed {
		return false
	}
	return user.SubscriptionExpiry == nil || user.SubscriptionExpiry.After(now)
}

// RequireActive gates subscription-only resources.
func (s *Service) RequireActive(user *models.User) error {
	if !IsEntitled(user, time.Now().UTC()) {
		return ErrSubscriptionRequired
	}
	return nil
}

// Status returns the computed subscription view for the calling principal,
// including the plan of the most recently applied payment.
func (s *Service) Status(ctx context.Context, user *models.User) (*models.SubscriptionStatus, error) {
	const op = "subscription.Status"

	status := &models.SubscriptionStatus{
		IsSubscribed:       user.IsSubscribed,
		SubscriptionExpiry: user.SubscriptionExpiry,
		IsActive:           IsEntitled(user, time.Now().UTC()),
	}

	plan, err := s.repo.GetLatestAppliedPlan(ctx, user.ID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	} else {
		status.CurrentPlan = plan
	}
	return status, nil
}

// CreatePlan saves a new plan after checking the plan invariants.
func (s *Service) CreatePlan(ctx context.Context, plan models.SubscriptionPlan) (string, error) {
	const op = "subscription.CreatePlan"

	if plan.DurationDays <= 0 || plan.Price < 0 {
		return "", ErrPlanInvalid
	}
	id, err := s.repo.CreatePlan(ctx, plan)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	s.invalidatePlanCache(ctx)
	return id, nil
}

// GetPlan returns one plan by id.
func (s *Service) GetPlan(ctx context.Context, id string) (*models.SubscriptionPlan, error) {
	plan, err := s.repo.GetPlan(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return plan, nil
}

// ListPlans returns the plan catalog through the cache.
func (s *Service) ListPlans(ctx context.Context, activeOnly bool) ([]*models.SubscriptionPlan, error) {
	const op = "subscription.ListPlans"

	cacheKey := planCacheKeyAll
	if activeOnly {
		cacheKey = planCacheKeyActive
	}
	var cached []*models.SubscriptionPlan
	found, err := s.cache.Get(ctx, cacheKey, &cached)
	if err != nil {
		s.log.Warn("plan cache read failed", slog.String("key", cacheKey), sl.Err(err))
	}
	if found {
		return cached, nil
	}

	plans, err := s.repo.ListPlans(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Set(ctx, cacheKey, plans, planCacheTTL); err != nil {
		s.log.Warn("failed to cache plans", slog.String("key", cacheKey), sl.Err(err))
	}
	return plans, nil
}

// UpdatePlan rewrites the mutable plan fields going forward; completed
// payments keep the terms they were bought under.
func (s *Service) UpdatePlan(ctx context.Context, plan models.SubscriptionPlan) error {
	const op = "subscription.UpdatePlan"

	if plan.DurationDays <= 0 || plan.Price < 0 {
		return ErrPlanInvalid
	}
	if err := s.repo.UpdatePlan(ctx, plan); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPlanNotFound
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidatePlanCache(ctx)
	return nil
}

func (s *Service) invalidatePlanCache(ctx context.Context) {
	for _, key := range []string{planCacheKeyActive, planCacheKeyAll} {
		if err := s.cache.Invalidate(ctx, key); err != nil {
			s.log.Warn("failed to invalidate plan cache", slog.String("key", key), sl.Err(err))
		}
	}
}

// InitiatePayment starts a charge for a plan. The pending payment row is
// persisted before the provider is called, so verification and webhooks can
// always resolve the reference back to a principal and plan.
func (s *Service) InitiatePayment(ctx context.Context, user *models.User, params InitiateParams) (*PaymentInitiation, error) {
	const op = "subscription.InitiatePayment"

	plan, err := s.repo.GetPlan(ctx, params.PlanID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !plan.IsActive {
		return nil, ErrPlanNotFound
	}

	txRef := "sub-" + uuid.New().String()
	payment := models.SubscriptionPayment{
		TxRef:    txRef,
		UserID:   user.ID,
		PlanID:   plan.ID,
		Amount:   plan.Price,
		Currency: plan.Currency,
	}
	if err := s.repo.CreatePendingPayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	email := params.Email
	if email == "" {
		email = user.Email
	}
	resp, err := s.provider.InitializePayment(ctx, paymentprovider.InitializeRequest{
		Amount:       plan.Price,
		Currency:     plan.Currency,
		MobileNumber: params.PhoneNumber,
		Network:      params.Network,
		Email:        email,
		Reference:    txRef,
		CallbackURL:  params.CallbackURL,
		ReturnURL:    params.ReturnURL,
	})
	if err != nil {
		if errors.Is(err, paymentprovider.ErrUnavailable) {
			return nil, ErrPaymentUnavailable
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("payment initiated",
		slog.String("tx_ref", txRef),
		slog.String("plan_id", plan.ID),
		slog.String("user_id", user.ID))

	return &PaymentInitiation{
		PaymentURL:           resp.PaymentURL,
		TransactionReference: txRef,
		VerificationURL:      "/api/v1/subscriptions/verify-payment/" + txRef,
		PlanID:               plan.ID,
	}, nil
}

// VerifyPayment confirms a charge with the provider and, on success, runs
// the activation transition. Replaying an already-applied reference is not
// an error and does not extend the expiry again.
func (s *Service) VerifyPayment(ctx context.Context, txRef string) (*models.PaymentVerification, error) {
	const op = "subscription.VerifyPayment"

	payment, err := s.repo.GetPayment(ctx, txRef)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidTransactionReference
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	verification, err := s.provider.VerifyCharge(ctx, txRef)
	if err != nil {
		if errors.Is(err, paymentprovider.ErrUnavailable) {
			return nil, ErrPaymentUnavailable
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if verification.Status != paymentprovider.ChargeStatusSuccessful {
		return nil, ErrPaymentNotCompleted
	}

	plan, err := s.repo.GetPlan(ctx, payment.PlanID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	expiry, applied, err := s.repo.ApplyPayment(ctx, txRef, plan.DurationDays)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if applied {
		s.log.Info("subscription activated",
			slog.String("tx_ref", txRef),
			slog.String("user_id", payment.UserID),
			slog.Int("duration_days", plan.DurationDays))
	} else {
		s.log.Info("payment already applied, skipping",
			slog.String("tx_ref", txRef))
	}

	return &models.PaymentVerification{
		Status:               "success",
		Amount:               verification.Amount,
		Currency:             verification.Currency,
		TransactionReference: txRef,
		PlanID:               plan.ID,
		ExpiryDate:           expiry,
	}, nil
}

// ProcessWebhook handles a provider notification for txRef. Non-success
// statuses are logged and dropped without touching state. Success runs the
// same verify-and-activate path as VerifyPayment, so a webhook and a client
// verification racing over one reference still apply it exactly once.
func (s *Service) ProcessWebhook(ctx context.Context, txRef, status string) error {
	const op = "subscription.ProcessWebhook"

	if status != paymentprovider.ChargeStatusSuccessful {
		s.log.Info("ignoring non-success webhook",
			slog.String("tx_ref", txRef),
			slog.String("status", status))
		return nil
	}

	if _, err := s.VerifyPayment(ctx, txRef); err != nil {
		if errors.Is(err, ErrPaymentNotCompleted) {
			// Provider said successful in the webhook but not on verify;
			// trust the verify call and drop the event.
			s.log.Warn("webhook status contradicted by verification",
				slog.String("tx_ref", txRef))
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
