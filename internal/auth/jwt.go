package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// RoleOperator is the only role allowed to regenerate the dataset.
const RoleOperator = "operator"

var ErrNotOperator = errors.New("token does not carry the operator role")

// Claims defines the structured data we store in the JWT
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type TokenManager struct {
	secretKey []byte
	ttl       time.Duration
	now       func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secretKey: []byte(secret), ttl: ttl, now: time.Now}
}

// GenerateToken creates an operator token for the given subject, usually an
// e-mail address or a service account name.
func (tm *TokenManager) GenerateToken(subject string) (string, error) {
	if subject == "" {
		return "", errors.New("token subject is required")
	}

	now := tm.now()
	claims := &Claims{
		Role: RoleOperator,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secretKey)
}

// ValidateToken parses the token string and checks that it is an unexpired
// operator token signed with our key.
func (tm *TokenManager) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return tm.secretKey, nil
	}, jwt.WithTimeFunc(tm.now), jwt.WithExpirationRequired())

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	if claims.Role != RoleOperator {
		return nil, ErrNotOperator
	}

	return claims, nil
}
