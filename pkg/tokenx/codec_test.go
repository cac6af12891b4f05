package tokenx_test

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/quillworks/pressgate/pkg/tokenx"
	"github.com/stretchr/testify/require"
)

func newTestCodec(t *testing.T) *tokenx.Codec {
	t.Helper()

	codec, err := tokenx.NewCodec(tokenx.Config{
		AccessSecret:  []byte("access-secret-for-tests"),
		RefreshSecret: []byte("refresh-secret-for-tests"),
		Issuer:        "pressgate-test",
	})
	require.NoError(t, err)
	return codec
}

func TestNewCodec(t *testing.T) {
	t.Parallel()

	t.Run("rejects missing access secret", func(t *testing.T) {
		_, err := tokenx.NewCodec(tokenx.Config{RefreshSecret: []byte("x")})
		require.ErrorIs(t, err, tokenx.ErrNoSecret)
	})

	t.Run("rejects missing refresh secret", func(t *testing.T) {
		_, err := tokenx.NewCodec(tokenx.Config{AccessSecret: []byte("x")})
		require.ErrorIs(t, err, tokenx.ErrNoSecret)
	})
}

func TestIssueAndVerifyAccess(t *testing.T) {
	t.Parallel()
	codec := newTestCodec(t)

	token, err := codec.IssueAccess(tokenx.Principal{
		SubjectID:   "01ARZ3NDEKTSV4RRFFQ69G5FAV",
		DisplayName: "Alice Author",
		Email:       "alice@example.com",
		Role:        tokenx.RoleUser,
	})
	require.NoError(t, err)

	p, err := codec.VerifyAccess(token)
	require.NoError(t, err)
	require.Equal(t, "01ARZ3NDEKTSV4RRFFQ69G5FAV", p.SubjectID)
	require.Equal(t, "Alice Author", p.DisplayName)
	require.Equal(t, "alice@example.com", p.Email)
	require.Equal(t, tokenx.RoleUser, p.Role)
	require.False(t, p.ExpiresAt.IsZero())
}

func TestVerifyRejectsCrossSecretTokens(t *testing.T) {
	t.Parallel()
	codec := newTestCodec(t)

	refresh, err := codec.IssueRefresh(tokenx.Principal{SubjectID: "u1", Role: tokenx.RoleUser})
	require.NoError(t, err)

	// A refresh token must never pass as an access token.
	_, err = codec.VerifyAccess(refresh)
	require.ErrorIs(t, err, tokenx.ErrSignature)

	access, err := codec.IssueAccess(tokenx.Principal{SubjectID: "u1", Role: tokenx.RoleUser})
	require.NoError(t, err)

	_, err = codec.VerifyRefresh(access)
	require.ErrorIs(t, err, tokenx.ErrSignature)
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	t.Parallel()
	codec := newTestCodec(t)

	token, err := codec.IssueAccess(tokenx.Principal{SubjectID: "u1", Role: tokenx.RoleUser})
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)

	// Escalate the role claim inside the payload segment without re-signing.
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)

	var claims map[string]any
	require.NoError(t, json.Unmarshal(payload, &claims))
	claims["role"] = "admin"

	forged, err := json.Marshal(claims)
	require.NoError(t, err)
	parts[1] = base64.RawURLEncoding.EncodeToString(forged)

	_, err = codec.VerifyAccess(strings.Join(parts, "."))
	require.ErrorIs(t, err, tokenx.ErrSignature)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	t.Parallel()
	codec := newTestCodec(t)

	// Sign a token whose exp is already in the past with the correct secret.
	claims := jwt.MapClaims{
		"sub":  "u1",
		"role": "user",
		"iat":  time.Now().Add(-2 * time.Hour).Unix(),
		"exp":  time.Now().Add(-time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte("access-secret-for-tests"))
	require.NoError(t, err)

	_, err = codec.VerifyAccess(token)
	require.ErrorIs(t, err, tokenx.ErrExpired)
}

func TestVerifyRejectsMissingSubject(t *testing.T) {
	t.Parallel()
	codec := newTestCodec(t)

	// Validly signed token that lacks any subject identity claim.
	claims := jwt.MapClaims{
		"role": "admin",
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte("access-secret-for-tests"))
	require.NoError(t, err)

	_, err = codec.VerifyAccess(token)
	require.ErrorIs(t, err, tokenx.ErrNoSubject)
	require.ErrorIs(t, err, tokenx.ErrMalformed)
}

func TestVerifyNormalizesLegacyUserIDClaim(t *testing.T) {
	t.Parallel()
	codec := newTestCodec(t)

	claims := jwt.MapClaims{
		"userId": "legacy-user-7",
		"role":   "user",
		"iat":    time.Now().Unix(),
		"exp":    time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte("access-secret-for-tests"))
	require.NoError(t, err)

	p, err := codec.VerifyAccess(token)
	require.NoError(t, err)
	require.Equal(t, "legacy-user-7", p.SubjectID)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	t.Parallel()
	codec := newTestCodec(t)

	for _, token := range []string{"", "not-a-token", "a.b", "a.b.c.d"} {
		_, err := codec.VerifyAccess(token)
		require.ErrorIs(t, err, tokenx.ErrMalformed, "token %q", token)
	}
}

func TestVerifyCollapsesUnknownRoles(t *testing.T) {
	t.Parallel()
	codec := newTestCodec(t)

	token, err := codec.IssueAccess(tokenx.Principal{SubjectID: "u1", Role: tokenx.Role("editor")})
	require.NoError(t, err)

	p, err := codec.VerifyAccess(token)
	require.NoError(t, err)
	require.Equal(t, tokenx.RoleAnonymous, p.Role)
}
