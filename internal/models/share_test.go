package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func TestNewSharePolicy_Validation(t *testing.T) {
	_, err := NewSharePolicy(nil, intPtr(0), "", false)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NewSharePolicy(nil, intPtr(-1), "", false)
	assert.ErrorIs(t, err, ErrValidation)

	p, err := NewSharePolicy(nil, intPtr(3), "hash", true)
	require.NoError(t, err)
	assert.True(t, p.RequiresPassword())
	assert.True(t, p.RequireAuthentication)
}

func TestSharePolicy_Predicates(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name    string
		policy  SharePolicy
		count   int
		expired bool
		maxed   bool
	}{
		{"unconstrained", SharePolicy{}, 100, false, false},
		{"future expiry", SharePolicy{ExpirationDate: &future}, 0, false, false},
		{"past expiry", SharePolicy{ExpirationDate: &past}, 0, true, false},
		{"under limit", SharePolicy{MaxAccessCount: intPtr(5)}, 4, false, false},
		{"at limit", SharePolicy{MaxAccessCount: intPtr(5)}, 5, false, true},
		{"over limit", SharePolicy{MaxAccessCount: intPtr(5)}, 6, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expired, tt.policy.IsExpired(now))
			assert.Equal(t, tt.maxed, tt.policy.ReachedMaxAccess(tt.count))
		})
	}
}

func TestShareLink_CanAccess(t *testing.T) {
	now := time.Now().UTC()

	link := NewShareLink("file-1", SharePolicy{MaxAccessCount: intPtr(1)}, "tok")
	assert.True(t, link.CanAccess(now))

	link.Deactivate()
	assert.False(t, link.CanAccess(now))
	link.Activate()
	assert.True(t, link.CanAccess(now))

	link.AccessCount = 1
	assert.False(t, link.CanAccess(now))
}

func TestShareLink_RecordAccess(t *testing.T) {
	userID := "user-1"
	link := NewShareLink("file-1", SharePolicy{MaxAccessCount: intPtr(2)}, "tok")

	access, err := link.RecordAccess("203.0.113.9", "curl/8.0", &userID)
	require.NoError(t, err)
	assert.Equal(t, link.ID, access.ShareID)
	assert.Equal(t, "203.0.113.9", access.IPAddress)

	_, err = link.RecordAccess("203.0.113.9", "curl/8.0", nil)
	require.NoError(t, err)

	// third access fails closed
	_, err = link.RecordAccess("203.0.113.9", "curl/8.0", nil)
	assert.ErrorIs(t, err, ErrShareExhausted)

	// counter always equals trail length
	assert.Equal(t, link.AccessCount, len(link.AccessHistory))
	assert.Equal(t, 2, link.AccessCount)
}

func TestShareLink_RecordAccess_Expired(t *testing.T) {
	past := time.Now().UTC().Add(-time.Minute)
	link := NewShareLink("file-1", SharePolicy{ExpirationDate: &past}, "tok")

	_, err := link.RecordAccess("", "", nil)
	assert.ErrorIs(t, err, ErrShareExhausted)
	assert.Empty(t, link.AccessHistory)
}
