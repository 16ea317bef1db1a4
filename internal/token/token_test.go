package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trailhead/tours-server-go/internal/config"
	apperrors "github.com/trailhead/tours-server-go/internal/errors"
	"github.com/trailhead/tours-server-go/internal/util"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func serviceAt(at time.Time, ttl time.Duration) *Service {
	s := NewService(testSecret, ttl)
	s.now = func() time.Time { return at }
	return s
}

func TestIssueVerify(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("round trip preserves the principal id", func(t *testing.T) {
		svc := serviceAt(issued, time.Hour)

		tok, err := svc.Issue("user-123")
		require.NoError(t, err)

		claims, err := svc.Verify(tok)
		require.NoError(t, err)
		assert.Equal(t, "user-123", claims.UserID)
		assert.Equal(t, issued.Unix(), claims.IssuedAt.Unix())
	})

	t.Run("accepted just inside the ttl", func(t *testing.T) {
		tok, err := serviceAt(issued, time.Hour).Issue("user-123")
		require.NoError(t, err)

		late := serviceAt(issued.Add(59*time.Minute), time.Hour)
		_, err = late.Verify(tok)
		assert.NoError(t, err)
	})

	t.Run("rejected past the ttl", func(t *testing.T) {
		tok, err := serviceAt(issued, time.Hour).Issue("user-123")
		require.NoError(t, err)

		expired := serviceAt(issued.Add(61*time.Minute), time.Hour)
		_, err = expired.Verify(tok)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeTokenExpired, apperrors.GetCode(err))
	})

	t.Run("rejects a token signed with another secret", func(t *testing.T) {
		other := NewService("another-secret-another-secret-00", time.Hour)
		other.now = func() time.Time { return issued }

		tok, err := other.Issue("user-123")
		require.NoError(t, err)

		_, err = serviceAt(issued, time.Hour).Verify(tok)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeInvalidToken, apperrors.GetCode(err))
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := serviceAt(issued, time.Hour).Verify("not-a-token")
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeInvalidToken, apperrors.GetCode(err))
	})
}

func TestIssueResetToken(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := serviceAt(at, time.Hour)

	rt, err := svc.IssueResetToken()
	require.NoError(t, err)

	assert.Len(t, rt.Plain, 64)
	assert.Equal(t, util.HashToken(rt.Plain), rt.Hash)
	assert.NotEqual(t, rt.Plain, rt.Hash)
	assert.Equal(t, at.Add(config.ResetTokenTTL), rt.ExpiresAt)

	second, err := svc.IssueResetToken()
	require.NoError(t, err)
	assert.NotEqual(t, rt.Plain, second.Plain)
}
