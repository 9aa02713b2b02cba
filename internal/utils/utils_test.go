package utils

import (
    "testing"
    "time"

    "github.com/golang-jwt/jwt/v5"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "golang.org/x/crypto/bcrypt"
)

func TestAccessTokenRoundTrip(t *testing.T) {
    at, err := NewAccessToken("secret", "uid-1", "w@example.com", 15)
    require.NoError(t, err)
    assert.WithinDuration(t, time.Now().Add(15*time.Minute), at.Exp, 5*time.Second)

    claims, err := ParseAccessToken("secret", at.Token)
    require.NoError(t, err)
    assert.Equal(t, "uid-1", claims.Subject)
    assert.Equal(t, "w@example.com", claims.Email)
}

func TestParseAccessTokenRejects(t *testing.T) {
    good, _ := NewAccessToken("secret", "uid-1", "w@example.com", 15)
    expired, _ := NewAccessToken("secret", "uid-1", "w@example.com", -1)
    noSub, _ := NewAccessToken("secret", "", "w@example.com", 15)
    none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "uid-1"}).
        SignedString(jwt.UnsafeAllowNoneSignatureType)

    for name, raw := range map[string]string{
        "wrong secret": good.Token,
        "expired":      expired.Token,
        "no subject":   noSub.Token,
        "alg none":     none,
        "garbage":      "not.a.jwt",
    } {
        secret := "secret"
        if name == "wrong secret" {
            secret = "other"
        }
        _, err := ParseAccessToken(secret, raw)
        assert.ErrorIs(t, err, ErrInvalidToken, name)
    }
}

func TestRefreshToken(t *testing.T) {
    a, err := NewRefreshToken(7)
    require.NoError(t, err)
    b, _ := NewRefreshToken(7)
    assert.Len(t, a.Raw, 96)
    assert.NotEqual(t, a.Raw, b.Raw)
    assert.Len(t, HashRefreshRaw(a.Raw), 64)
    assert.Equal(t, HashRefreshRaw(a.Raw), HashRefreshRaw(a.Raw))
}

func TestPassword(t *testing.T) {
    h, err := HashPassword("hunter22", bcrypt.MinCost)
    require.NoError(t, err)
    assert.True(t, VerifyPassword(h, "hunter22"))
    assert.False(t, VerifyPassword(h, "hunter23"))
}
