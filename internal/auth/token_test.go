package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/freelance-orders/internal/domain/entity"
)

func TestIssueAndParse(t *testing.T) {
	m := NewTokenManager("secret-for-tests", time.Minute)

	token, err := m.Issue(entity.NewActorIdentity(42, "seller"))
	require.NoError(t, err)

	actor, err := m.ParseAccess(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), actor.UserID)
	assert.Equal(t, "seller", actor.Role)
}

func TestParseAccess_Rejects(t *testing.T) {
	m := NewTokenManager("secret-for-tests", time.Minute)

	expired, err := NewTokenManager("secret-for-tests", -time.Minute).Issue(entity.NewActorIdentity(1, ""))
	require.NoError(t, err)
	foreign, err := NewTokenManager("другой секрет", time.Minute).Issue(entity.NewActorIdentity(1, ""))
	require.NoError(t, err)
	badSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "abc"}).SignedString([]byte("secret-for-tests"))
	require.NoError(t, err)

	cases := map[string]string{
		"мусор":          "not-a-token",
		"истёк":          expired,
		"чужая подпись":  foreign,
		"нечисловой sub": badSub,
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := m.ParseAccess(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
