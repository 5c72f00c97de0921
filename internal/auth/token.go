package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	// TokenTTL is the fixed lifetime of an issued token.
	TokenTTL = 24 * time.Hour
)

// ErrInvalidToken is returned for every validation failure: bad signature,
// wrong algorithm, malformed input, expired, or foreign issuer/audience.
var ErrInvalidToken = errors.New("invalid or expired token")

// Identity is the set of user claims carried inside a token.
type Identity struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// Claims are the JWT claims issued by TokenService.
type Claims struct {
	Data Identity `json:"data"`
	jwt.RegisteredClaims
}

// TokenService issues and validates HS256 identity tokens.
type TokenService struct {
	secret   []byte
	issuer   string
	audience string
	now      func() time.Time
}

func NewTokenService(secret, issuer, audience string) *TokenService {
	return &TokenService{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		now:      time.Now,
	}
}

// WithClock returns a copy of the service that reads time from now.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	cp := *s
	cp.now = now
	return &cp
}

// Issue signs a token for the given identity, valid for TokenTTL.
func (s *TokenService) Issue(identity Identity) (string, error) {
	issuedAt := s.now()
	claims := &Claims{
		Data: identity,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(TokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Validate verifies signature, issuer, audience and expiry and returns the
// embedded identity. It never panics; every failure is ErrInvalidToken.
func (s *TokenService) Validate(tokenString string) (*Identity, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	now := s.now()
	if !claims.VerifyExpiresAt(now, true) ||
		!claims.VerifyIssuer(s.issuer, true) ||
		!claims.VerifyAudience(s.audience, true) {
		return nil, ErrInvalidToken
	}
	if claims.Data.ID == 0 {
		return nil, ErrInvalidToken
	}

	identity := claims.Data
	return &identity, nil
}
