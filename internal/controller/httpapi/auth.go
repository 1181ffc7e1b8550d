package httpapi

import (
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/school_scheduler/internal/model"
	"github.com/golang-jwt/jwt/v5"
)

// Claims содержимое токена: sub идентификатор пользователя, name имя учителя в расписании
type Claims struct {
	Name string `json:"name"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

var ErrTokenIdentity = errors.New("token has neither subject nor name")

// SignToken выпускает HS256 токен для пользователя
func SignToken(secret string, r model.Requester, ttl time.Duration, now time.Time) (string, error) {
	claims := Claims{
		Name: r.Name,
		Role: string(r.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   r.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken валидирует токен и возвращает пользователя
func ParseToken(secret, raw string) (model.Requester, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return model.Requester{}, fmt.Errorf("invalid token: %w", err)
	}

	if claims.Subject == "" && claims.Name == "" {
		return model.Requester{}, ErrTokenIdentity
	}

	return model.Requester{
		ID:   claims.Subject,
		Name: claims.Name,
		Role: model.ParseRole(claims.Role),
	}, nil
}
