package service

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenServiceIssueAndValidate(t *testing.T) {
	svc := NewTokenService("secret")
	token, expiresAt, err := svc.Issue("coach-1", "Koç Ahmet", time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "coach-1", claims.Subject)
	assert.Equal(t, "Koç Ahmet", claims.Name)
	assert.Equal(t, TokenIssuer, claims.Issuer)
}

func TestTokenServiceRejectsForeignAndExpiredTokens(t *testing.T) {
	svc := NewTokenService("secret")

	foreign, _, err := NewTokenService("other").Issue("coach-1", "", time.Hour)
	require.NoError(t, err)
	_, err = svc.Validate(foreign)
	requireStatus(t, err, http.StatusUnauthorized)

	expired, _, err := svc.Issue("coach-1", "", time.Minute)
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.Validate(expired)
	requireStatus(t, err, http.StatusUnauthorized)

	_, err = svc.Validate("not-a-token")
	requireStatus(t, err, http.StatusUnauthorized)

	_, _, err = svc.Issue("", "", time.Hour)
	assert.Error(t, err)
}
