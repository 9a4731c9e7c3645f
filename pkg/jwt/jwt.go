package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Claims is the payload of a bearer token.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// GenerateToken signs a token for userID that expires after expiry.
func GenerateToken(userID, secret string, expiry time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("user id is required")
	}
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateToken parses tokenString and returns its claims if the signature and expiry are valid.
func ValidateToken(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// Provider issues and verifies tokens with a fixed secret and lifetime.
type Provider struct {
	secret string
	expiry time.Duration
}

func NewProvider(secret string, expiry time.Duration) *Provider {
	return &Provider{secret: secret, expiry: expiry}
}

func (p *Provider) Issue(userID string) (string, error) {
	return GenerateToken(userID, p.secret, p.expiry)
}

// Verify returns the user id carried by a valid token.
func (p *Provider) Verify(token string) (string, error) {
	claims, err := ValidateToken(token, p.secret)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}
