// Package auth проверяет access токены, выпущенные сервисом пользователей.
package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ignatzorin/freelance-orders/internal/domain/entity"
)

var ErrInvalidToken = errors.New("auth: невалидный токен")

// TokenManager проверяет и (для тестов и локальной разработки) выпускает access токены.
type TokenManager struct {
	secret    []byte
	accessTTL time.Duration
}

func NewTokenManager(secret string, accessTTL time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), accessTTL: accessTTL}
}

// Issue выпускает токен для пользователя.
func (m *TokenManager) Issue(actor entity.ActorIdentity) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  strconv.FormatInt(actor.UserID, 10),
		"role": actor.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(m.accessTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// ParseAccess извлекает пользователя из access токена.
func (m *TokenManager) ParseAccess(token string) (entity.ActorIdentity, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return entity.ActorIdentity{}, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return entity.ActorIdentity{}, ErrInvalidToken
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return entity.ActorIdentity{}, ErrInvalidToken
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || userID <= 0 {
		return entity.ActorIdentity{}, ErrInvalidToken
	}

	role, _ := claims["role"].(string)
	return entity.NewActorIdentity(userID, role), nil
}
