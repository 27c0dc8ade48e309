package session_test

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-admin-console/session"
	"github.com/stretchr/testify/require"
)

func TestNewToken(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		require.Nil(t, session.NewToken(""))
	})

	t.Run("opaque token", func(t *testing.T) {
		tok := session.NewToken("opaque-123")
		require.Equal(t, "opaque-123", tok.AccessToken)
		require.Equal(t, "Bearer", tok.Type())
		require.True(t, tok.Expiry.IsZero())
	})

	t.Run("jwt expiry", func(t *testing.T) {
		exp := time.Now().Add(15 * time.Minute).Truncate(time.Second)
		raw, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
			"sub": "user-1",
			"exp": exp.Unix(),
		}).SignedString([]byte("secret"))
		require.NoError(t, err)

		tok := session.NewToken(raw)
		require.Equal(t, raw, tok.AccessToken)
		require.True(t, exp.Equal(tok.Expiry))
	})
}
