package service

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const accessTokenType = "access"

// Claims is the payload of an access token
type Claims struct {
	UserID int    `json:"user_id"`
	Role   int    `json:"role"`
	Type   string `json:"type"`
	jwt.RegisteredClaims
}

// TokenGenerator issues and validates HS256 access tokens
type TokenGenerator struct {
	secret            []byte
	accessTokenExpiry time.Duration
	now               func() time.Time
}

// NewTokenGenerator creates a new token generator
func NewTokenGenerator(secret string, accessExpiry time.Duration) *TokenGenerator {
	return &TokenGenerator{
		secret:            []byte(secret),
		accessTokenExpiry: accessExpiry,
		now:               time.Now,
	}
}

// GenerateAccessToken creates an access token carrying userID and role
func (tg *TokenGenerator) GenerateAccessToken(userID, role int) (string, error) {
	now := tg.now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		Type:   accessTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tg.accessTokenExpiry)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tg.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return token, nil
}

// ValidateAccessToken validates an access token and returns the userID and role
func (tg *TokenGenerator) ValidateAccessToken(tokenString string) (int, int, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tg.secret, nil
	}, jwt.WithTimeFunc(tg.now))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return 0, 0, errors.New("token is invalid")
	}
	if claims.Type != accessTokenType {
		return 0, 0, errors.New("token is not an access token")
	}
	if claims.UserID == 0 {
		return 0, 0, errors.New("user_id not found in token")
	}

	return claims.UserID, claims.Role, nil
}
