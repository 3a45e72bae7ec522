package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers every verification failure: bad signature,
// malformed token, or expiry. Callers must treat all three identically and
// reject without partial trust.
var ErrInvalidToken = errors.New("invalid or missing token")

// Identity is the request-scoped outcome of verifying a bearer token. It is
// derived entirely from the token's claims; no store lookup is involved.
type Identity struct {
	AccountID int64
	Email     string
	Role      string
	Username  string
}

// TokenConfig holds the signing parameters, fixed at startup and injected
// into the TokenService at construction. Rotating the secret invalidates all
// outstanding tokens.
type TokenConfig struct {
	Secret string
	TTL    time.Duration
	Issuer string
}

// TokenService issues and verifies signed, time-limited session tokens.
// Tokens are self-contained: verification needs only the signature and
// expiry checks, so a logged-out token stays valid until it expires.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

// NewTokenService creates a TokenService from cfg, applying a one-hour TTL
// when none is configured.
func NewTokenService(cfg TokenConfig) *TokenService {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	issuer := cfg.Issuer
	if issuer == "" {
		issuer = "cinevault"
	}
	return &TokenService{
		secret: []byte(cfg.Secret),
		ttl:    ttl,
		issuer: issuer,
	}
}

// TTL returns the configured token lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue creates a signed token embedding the identity's claims plus an
// absolute expiration of now + TTL.
func (s *TokenService) Issue(id Identity) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.ttl)
	claims := tokenClaims{
		AccountID: id.AccountID,
		Email:     id.Email,
		Role:      id.Role,
		Username:  id.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Issuer:    s.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify checks the token's signature and expiry and returns the embedded
// identity. All failures collapse into ErrInvalidToken.
func (s *TokenService) Verify(tokenStr string) (*Identity, error) {
	claims := &tokenClaims{}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	return &Identity{
		AccountID: claims.AccountID,
		Email:     claims.Email,
		Role:      claims.Role,
		Username:  claims.Username,
	}, nil
}

type tokenClaims struct {
	AccountID int64  `json:"account_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Username  string `json:"username"`
	jwt.RegisteredClaims
}
