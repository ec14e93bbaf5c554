package utils

import (
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
)

// TokenTTL is how long an admin token stays valid.
const TokenTTL = 72 * time.Hour

// GenerateAdminToken signs an HS256 token naming the admin user.
func GenerateAdminToken(secret, username string, now time.Time) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("JWT secret is not set")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": username,
		"iat":      now.Unix(),
		"exp":      now.Add(TokenTTL).Unix(),
	})

	return token.SignedString([]byte(secret))
}

// ParseAdminToken validates tokenString at now and returns the admin
// username.
func ParseAdminToken(secret, tokenString string, now time.Time) (string, error) {
	parser := jwt.Parser{SkipClaimsValidation: true}
	token, err := parser.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token claims")
	}
	if !claims.VerifyExpiresAt(now.Unix(), true) {
		return "", fmt.Errorf("token is expired")
	}
	username, ok := claims["username"].(string)
	if !ok || username == "" {
		return "", fmt.Errorf("token has no username")
	}
	return username, nil
}
