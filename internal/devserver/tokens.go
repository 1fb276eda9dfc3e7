package devserver

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenService issues and validates the dev backend's HS256 bearer tokens.
type TokenService struct {
	secret          string
	expirationHours int
}

func NewTokenService(secret string, expirationHours int) *TokenService {
	return &TokenService{
		secret:          secret,
		expirationHours: expirationHours,
	}
}

// Generate signs a token carrying the user id.
func (s *TokenService) Generate(userID string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"iat":     now.Unix(),
		"exp":     now.Add(time.Duration(s.expirationHours) * time.Hour).Unix(),
	})
	return token.SignedString([]byte(s.secret))
}

// Validate checks signature and expiry and returns the user id.
func (s *TokenService) Validate(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil {
		return "", fmt.Errorf("token parse failed: %w", err)
	}
	if !token.Valid {
		return "", fmt.Errorf("token invalid")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("claims parse failed")
	}
	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return "", fmt.Errorf("token missing user_id")
	}
	return userID, nil
}
