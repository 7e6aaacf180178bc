// Package jwt implements issuing and verification of the signed bearer
// tokens used by the platform.
//
// Every token carries a token_kind discriminator so that a refresh or
// password-reset token can never be presented as an access token. Claims are
// typed per kind; completeness is validated once, at parse time.
package jwt

import (
	"github.com/golang-jwt/jwt/v5"
)

// Kind discriminates the token families minted by the Maker.
type Kind string

const (
	// KindAccess marks short-lived tokens presented on every request.
	KindAccess Kind = "access"
	// KindRefresh marks long-lived tokens used only to mint new access tokens.
	KindRefresh Kind = "refresh"
	// KindReset marks single-purpose password-reset tokens.
	KindReset Kind = "reset"
)

// AccessClaims is the claim set of an access token. Subject holds the
// username; the remaining identity fields mirror the stored principal at
// issuance time. Authorization decisions always re-read the live record,
// never these claims.
type AccessClaims struct {
	UserID               string `json:"user_id"`
	Email                string `json:"email"`
	Phone                string `json:"phone"`
	TokenKind            Kind   `json:"token_kind"`
	jwt.RegisteredClaims        // ExpiresAt, IssuedAt, Subject
}

// RefreshClaims is the deliberately minimal claim set of a refresh token:
// subject (username) only, so a leaked refresh token carries no profile data
// and cannot pass for an access token.
type RefreshClaims struct {
	TokenKind Kind `json:"token_kind"`
	jwt.RegisteredClaims
}

// ResetClaims is the claim set of a password-reset token. Subject holds the
// account email.
type ResetClaims struct {
	TokenKind Kind `json:"token_kind"`
	jwt.RegisteredClaims
}
