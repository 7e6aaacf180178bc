package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verification failures, distinguishable by errors.Is. HTTP-facing code may
// collapse all of them to 401, but callers that need to tell an expired
// token from a forged one can.
var (
	// ErrTokenInvalid is returned when the signature does not verify or the
	// payload is malformed.
	ErrTokenInvalid = errors.New("token is invalid")
	// ErrTokenExpired is returned for a well-formed, correctly signed token
	// whose exp has passed.
	ErrTokenExpired = errors.New("token has expired")
	// ErrTokenKindMismatch is returned when token_kind differs from the kind
	// the caller expects.
	ErrTokenKindMismatch = errors.New("unexpected token kind")
	// ErrMissingClaims is returned when a required claim is absent.
	ErrMissingClaims = errors.New("required claims are missing")
)

// Maker issues and verifies the platform's bearer tokens.
type Maker interface {
	GenerateAccessToken(username, userID, email, phone string) (string, error)
	GenerateRefreshToken(username string) (string, error)
	GenerateResetToken(email string) (string, error)
	ParseAccessToken(tokenStr string) (*AccessClaims, error)
	ParseRefreshToken(tokenStr string) (*RefreshClaims, error)
	ParseResetToken(tokenStr string) (*ResetClaims, error)
}

// MakerImpl implements Maker with an HMAC-SHA256 signature over a
// process-wide secret loaded once at startup.
type MakerImpl struct {
	secretKey  string
	accessTTL  time.Duration
	refreshTTL time.Duration
	resetTTL   time.Duration
}

// NewMaker creates a MakerImpl with the given secret and per-kind lifetimes.
func NewMaker(secretKey string, accessTTL, refreshTTL, resetTTL time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey:  secretKey,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		resetTTL:   resetTTL,
	}
}

// GenerateAccessToken mints an access token carrying the principal's
// identity claims, expiring after the access TTL.
func (m *MakerImpl) GenerateAccessToken(username, userID, email, phone string) (string, error) {
	claims := AccessClaims{
		UserID:    userID,
		Email:     email,
		Phone:     phone,
		TokenKind: KindAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.accessTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.secretKey))
}

// GenerateRefreshToken mints a refresh token for the subject only.
func (m *MakerImpl) GenerateRefreshToken(username string) (string, error) {
	claims := RefreshClaims{
		TokenKind: KindRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.refreshTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.secretKey))
}

// GenerateResetToken mints a password-reset token for the given email.
func (m *MakerImpl) GenerateResetToken(email string) (string, error) {
	claims := ResetClaims{
		TokenKind: KindReset,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.resetTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.secretKey))
}

// ParseAccessToken verifies signature, expiry, kind and claim completeness
// of an access token.
func (m *MakerImpl) ParseAccessToken(tokenStr string) (*AccessClaims, error) {
	const op = "jwt.ParseAccessToken"
	claims := &AccessClaims{}
	if err := m.parse(tokenStr, claims); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if claims.TokenKind != KindAccess {
		return nil, fmt.Errorf("%s: %w", op, ErrTokenKindMismatch)
	}
	if claims.Subject == "" || claims.UserID == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrMissingClaims)
	}
	return claims, nil
}

// ParseRefreshToken verifies signature, expiry, kind and claim completeness
// of a refresh token.
func (m *MakerImpl) ParseRefreshToken(tokenStr string) (*RefreshClaims, error) {
	const op = "jwt.ParseRefreshToken"
	claims := &RefreshClaims{}
	if err := m.parse(tokenStr, claims); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if claims.TokenKind != KindRefresh {
		return nil, fmt.Errorf("%s: %w", op, ErrTokenKindMismatch)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrMissingClaims)
	}
	return claims, nil
}

// ParseResetToken verifies signature, expiry, kind and claim completeness
// of a password-reset token.
func (m *MakerImpl) ParseResetToken(tokenStr string) (*ResetClaims, error) {
	const op = "jwt.ParseResetToken"
	claims := &ResetClaims{}
	if err := m.parse(tokenStr, claims); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if claims.TokenKind != KindReset {
		return nil, fmt.Errorf("%s: %w", op, ErrTokenKindMismatch)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrMissingClaims)
	}
	return claims, nil
}

func (m *MakerImpl) parse(tokenStr string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(_ *jwt.Token) (any, error) {
		return []byte(m.secretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrTokenInvalid
	}
	if !token.Valid {
		return ErrTokenInvalid
	}
	return nil
}
