package controllers

import (
	"errors"
	"time"

	"isce/config"
	"isce/models"

	"github.com/golang-jwt/jwt/v5"
)

// AccessClaims é o payload do access token:
// { "sub": <userId>, "email": ..., "user_type": ..., "iat": ..., "exp": ... }
type AccessClaims struct {
	Email    string `json:"email"`
	UserType string `json:"user_type"`
	jwt.RegisteredClaims
}

func signAccessToken(cfg config.Configuration, user models.User, now time.Time) (string, time.Time, error) {
	ttl := time.Duration(cfg.Security.AccessTTLMinutes) * time.Minute
	exp := now.Add(ttl)

	claims := AccessClaims{
		Email:    user.Email,
		UserType: user.UserType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.Security.JwtSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func parseAccessToken(cfg config.Configuration, tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(cfg.Security.JwtSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
