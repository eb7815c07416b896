// Package auth provides the password hashing and bearer token
// primitives behind the catalog's authorization gate. The signing
// secret is injected once at construction; nothing here reads the
// environment.
package auth

import (
	"fmt"
	"time"

	"github.com/go-chi/jwtauth"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/henriquecmelo1/library-app/pkg/catalog"
)

// DefaultTokenTTL is the token lifetime used when none is configured.
const DefaultTokenTTL = time.Hour

// BcryptHasher implements catalog.PasswordHasher with bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a hasher with the default bcrypt cost.
func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{cost: bcrypt.DefaultCost}
}

var _ catalog.PasswordHasher = (*BcryptHasher)(nil)

func (h *BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(hash), nil
}

func (h *BcryptHasher) Compare(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// TokenService issues and verifies the bearer tokens carried by
// authenticated requests. Claims are {user_id, iat, exp}; verification
// (signature plus expiry) is done by the jwtauth verifier middleware
// built from JWTAuth().
type TokenService struct {
	ja  *jwtauth.JWTAuth
	ttl time.Duration
}

// NewTokenService creates a token service signing with HS256.
func NewTokenService(secret []byte, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{
		ja:  jwtauth.New("HS256", secret, nil),
		ttl: ttl,
	}
}

// JWTAuth exposes the underlying verifier for the HTTP middleware.
func (s *TokenService) JWTAuth() *jwtauth.JWTAuth {
	return s.ja
}

// IssueToken signs a token for the given user.
func (s *TokenService) IssueToken(userID uuid.UUID) (string, error) {
	claims := map[string]interface{}{
		"user_id": userID.String(),
	}
	jwtauth.SetIssuedNow(claims)
	jwtauth.SetExpiryIn(claims, s.ttl)

	_, token, err := s.ja.Encode(claims)
	if err != nil {
		return "", fmt.Errorf("encode token: %w", err)
	}
	return token, nil
}

// UserIDFromClaims extracts the token subject. A missing or malformed
// user_id claim fails authentication.
func UserIDFromClaims(claims map[string]interface{}) (uuid.UUID, error) {
	raw, ok := claims["user_id"].(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("%w: token has no user_id claim", catalog.ErrAuthenticationFailed)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: malformed user_id claim", catalog.ErrAuthenticationFailed)
	}
	return id, nil
}
