package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SharePolicy is the set of constraints gating use of a share link.
// PasswordHash holds a bcrypt hash; the plaintext password never reaches the
// domain layer.
type SharePolicy struct {
	ExpirationDate        *time.Time `json:"expiration_date,omitempty"`
	MaxAccessCount        *int       `json:"max_access_count,omitempty"`
	PasswordHash          string     `json:"-"`
	RequireAuthentication bool       `json:"require_authentication"`
}

// NewSharePolicy validates the constraint values.
func NewSharePolicy(expiration *time.Time, maxAccessCount *int, passwordHash string, requireAuth bool) (SharePolicy, error) {
	if maxAccessCount != nil && *maxAccessCount <= 0 {
		return SharePolicy{}, fmt.Errorf("%w: max access count must be positive", ErrValidation)
	}
	return SharePolicy{
		ExpirationDate:        expiration,
		MaxAccessCount:        maxAccessCount,
		PasswordHash:          passwordHash,
		RequireAuthentication: requireAuth,
	}, nil
}

func (p SharePolicy) IsExpired(now time.Time) bool {
	return p.ExpirationDate != nil && p.ExpirationDate.Before(now)
}

func (p SharePolicy) ReachedMaxAccess(currentCount int) bool {
	return p.MaxAccessCount != nil && currentCount >= *p.MaxAccessCount
}

func (p SharePolicy) RequiresPassword() bool {
	return p.PasswordHash != ""
}

// ShareAccess is one immutable entry in a link's access trail.
type ShareAccess struct {
	ID        string    `json:"id"`
	ShareID   string    `json:"share_id"`
	UserID    *string   `json:"user_id,omitempty"`
	IPAddress string    `json:"ip_address,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	Location  string    `json:"location,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ShareLink is a tokenized grant of access to a single file. The access
// counter always equals the length of the recorded trail.
type ShareLink struct {
	ID            string        `json:"id"`
	FileID        string        `json:"file_id"`
	Token         string        `json:"token"`
	Policy        SharePolicy   `json:"policy"`
	AccessCount   int           `json:"access_count"`
	IsActive      bool          `json:"is_active"`
	AccessHistory []ShareAccess `json:"-"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

func NewShareLink(fileID string, policy SharePolicy, token string) *ShareLink {
	now := time.Now().UTC()
	return &ShareLink{
		ID:        uuid.New().String(),
		FileID:    fileID,
		Token:     token,
		Policy:    policy,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CanAccess is the access predicate: active, not expired, under the limit.
func (s *ShareLink) CanAccess(now time.Time) bool {
	if !s.IsActive {
		return false
	}
	if s.Policy.IsExpired(now) {
		return false
	}
	if s.Policy.ReachedMaxAccess(s.AccessCount) {
		return false
	}
	return true
}

// RecordAccess appends an entry to the trail and bumps the counter. It
// re-evaluates the predicate and fails closed so a check/append race cannot
// exceed the access limit.
func (s *ShareLink) RecordAccess(ipAddress, userAgent string, userID *string) (*ShareAccess, error) {
	now := time.Now().UTC()
	if !s.CanAccess(now) {
		return nil, ErrShareExhausted
	}
	access := ShareAccess{
		ID:        uuid.New().String(),
		ShareID:   s.ID,
		UserID:    userID,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		CreatedAt: now,
	}
	s.AccessHistory = append(s.AccessHistory, access)
	s.AccessCount++
	s.UpdatedAt = now
	return &access, nil
}

func (s *ShareLink) Deactivate() {
	s.IsActive = false
	s.UpdatedAt = time.Now().UTC()
}

func (s *ShareLink) Activate() {
	s.IsActive = true
	s.UpdatedAt = time.Now().UTC()
}
