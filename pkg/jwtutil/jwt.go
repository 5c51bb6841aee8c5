package jwtutil

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"storefront-service/pkg/config"
)

var jwtConfig *config.JWTConfig

// AdminClaims represents the JWT claims of a catalog operator
type AdminClaims struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Initialize sets the JWT configuration used by GenerateToken and ValidateToken
func Initialize(cfg *config.JWTConfig) {
	jwtConfig = cfg
}

// GenerateToken creates a signed HS256 token for the given operator
func GenerateToken(email, role string) (string, error) {
	if jwtConfig == nil || jwtConfig.SigningKey == "" {
		return "", errors.New("JWT configuration not provided")
	}

	now := time.Now()
	claims := AdminClaims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(jwtConfig.ExpirationHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtConfig.SigningKey))
}

// ValidateToken validates and parses the JWT token
func ValidateToken(tokenString string) (*AdminClaims, error) {
	if jwtConfig == nil || jwtConfig.SigningKey == "" {
		return nil, errors.New("JWT configuration not provided")
	}

	token, err := jwt.ParseWithClaims(tokenString, &AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(jwtConfig.SigningKey), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*AdminClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrSignatureInvalid
}
