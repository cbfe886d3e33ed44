package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKeyPair(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err)
	return priv, string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}

func sign(t *testing.T, priv *rsa.PrivateKey, claims SessionClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(priv)
	require.NoError(t, err)
	return s
}

func validClaims() SessionClaims {
	now := time.Now()
	return SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user_123",
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
		SessionID:       "sess_1",
		AuthorizedParty: "http://localhost:5173",
	}
}

func TestClerkVerifier_Valid(t *testing.T) {
	priv, pub := newKeyPair(t)
	v, err := NewClerkVerifier(pub, nil)
	require.NoError(t, err)

	id, err := v.Verify(context.Background(), sign(t, priv, validClaims()))
	require.NoError(t, err)
	assert.Equal(t, "user_123", id.UserID)
	assert.Equal(t, "sess_1", id.SessionID)
}

func TestClerkVerifier_Rejects(t *testing.T) {
	priv, pub := newKeyPair(t)
	other, _ := newKeyPair(t)
	v, err := NewClerkVerifier(pub, []string{"https://app.example.com"})
	require.NoError(t, err)

	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	noSubject := validClaims()
	noSubject.Subject = ""

	hs, err := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims()).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", ErrMissingToken},
		{"garbage", "abc.def.ghi", ErrInvalidToken},
		{"wrong key", sign(t, other, validClaims()), ErrInvalidToken},
		{"expired", sign(t, priv, expired), ErrExpiredToken},
		{"no subject", sign(t, priv, noSubject), ErrInvalidToken},
		{"hmac", hs, ErrInvalidToken},
		{"unauthorized party", sign(t, priv, validClaims()), ErrInvalidToken},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), tc.token)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestClerkVerifier_AuthorizedPartyAccepted(t *testing.T) {
	priv, pub := newKeyPair(t)
	v, err := NewClerkVerifier(pub, []string{"http://localhost:5173"})
	require.NoError(t, err)

	_, err = v.Verify(context.Background(), sign(t, priv, validClaims()))
	assert.NoError(t, err)
}

func TestNewClerkVerifier_BadKey(t *testing.T) {
	_, err := NewClerkVerifier("not a pem", nil)
	assert.Error(t, err)
}

func TestTokenFromRequest(t *testing.T) {
	bearer := httptest.NewRequest(http.MethodGet, "/", nil)
	bearer.Header.Set("Authorization", "Bearer tok-1")
	assert.Equal(t, "tok-1", TokenFromRequest(bearer))

	basic := httptest.NewRequest(http.MethodGet, "/", nil)
	basic.Header.Set("Authorization", "Basic abc")
	assert.Empty(t, TokenFromRequest(basic))

	cookie := httptest.NewRequest(http.MethodGet, "/", nil)
	cookie.AddCookie(&http.Cookie{Name: SessionCookie, Value: "tok-2"})
	assert.Equal(t, "tok-2", TokenFromRequest(cookie))

	query := httptest.NewRequest(http.MethodGet, "/?token=tok-3", nil)
	assert.Empty(t, TokenFromRequest(query), "query token only for websocket handshakes")

	ws := httptest.NewRequest(http.MethodGet, "/?token=tok-3", nil)
	ws.Header.Set("Connection", "Upgrade")
	ws.Header.Set("Upgrade", "websocket")
	assert.Equal(t, "tok-3", TokenFromRequest(ws))
}

func TestIdentityContext(t *testing.T) {
	_, ok := IdentityFrom(context.Background())
	assert.False(t, ok)

	ctx := WithIdentity(context.Background(), &Identity{UserID: "u"})
	id, ok := IdentityFrom(ctx)
	require.True(t, ok)
	assert.Equal(t, "u", id.UserID)
}
