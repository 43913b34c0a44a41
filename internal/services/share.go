package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/File-Sharing-BondBridg/Vault-Service/internal/models"
)

// ShareRequest carries the caller-supplied policy for a new link. Password is
// plaintext here and bcrypt-hashed before it reaches the domain.
type ShareRequest struct {
	ExpirationDate        *time.Time
	MaxAccessCount        *int
	Password              string
	RequireAuthentication bool
}

// DownloadResult is a decrypted file ready for delivery.
type DownloadResult struct {
	Reader      io.Reader
	FileName    string
	ContentType string
	FileSize    int64
}

// ShareService issues tokenized share links and resolves accesses against
// their policies, recording an immutable trail per link.
type ShareService struct {
	files  FileStore
	shares ShareStore
	blobs  BlobStore
	enc    *AESEncryptor
	events EventPublisher
}

func NewShareService(files FileStore, shares ShareStore, blobs BlobStore, enc *AESEncryptor, events EventPublisher) *ShareService {
	return &ShareService{files: files, shares: shares, blobs: blobs, enc: enc, events: events}
}

// Issue creates a share link for a ready file. The requester must be the
// owner or hold the Share capability.
func (s *ShareService) Issue(ctx context.Context, fileID, requesterID string, req ShareRequest) (*models.ShareLink, error) {
	file, err := s.files.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if !file.HasPermission(requesterID, models.PermissionShare) {
		return nil, fmt.Errorf("%w: user %s cannot share file %s", models.ErrForbidden, requesterID, fileID)
	}

	var passwordHash string
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash share password: %w", err)
		}
		passwordHash = string(hash)
	}

	policy, err := models.NewSharePolicy(req.ExpirationDate, req.MaxAccessCount, passwordHash, req.RequireAuthentication)
	if err != nil {
		return nil, err
	}

	// Tokens are unique across all links; on the unlikely collision,
	// regenerate and retry.
	var share *models.ShareLink
	for attempt := 0; attempt < 3; attempt++ {
		token, err := GenerateShareToken()
		if err != nil {
			return nil, err
		}
		share, err = file.CreateShare(policy, token)
		if err != nil {
			return nil, err
		}
		err = s.shares.SaveShare(ctx, share)
		if err == nil {
			break
		}
		if !errors.Is(err, models.ErrDuplicateToken) {
			return nil, err
		}
		share = nil
	}
	if share == nil {
		return nil, fmt.Errorf("failed to generate a unique share token")
	}

	if err := s.events.Publish(SubjectFileShared, map[string]interface{}{
		"file_id":  file.ID,
		"share_id": share.ID,
		"owner_id": file.OwnerID,
		"token":    share.Token,
	}); err != nil {
		log.Printf("[SHARE] warning: failed to publish %s event: %v", SubjectFileShared, err)
	}

	log.Printf("[SHARE] link %s issued for file %s by user %s", share.ID, file.ID, requesterID)
	return share, nil
}

// ResolveAccess consumes a share token: policy check, password verification,
// file readiness, atomic trail append, decryption. requesterID is empty for
// anonymous callers.
func (s *ShareService) ResolveAccess(ctx context.Context, token, suppliedPassword, requesterID, ipAddress, userAgent string) (*DownloadResult, error) {
	share, err := s.shares.GetShareByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if !share.CanAccess(time.Now().UTC()) {
		return nil, models.ErrShareExhausted
	}

	if share.Policy.RequiresPassword() {
		if suppliedPassword == "" {
			return nil, models.ErrSharePassword
		}
		if err := bcrypt.CompareHashAndPassword([]byte(share.Policy.PasswordHash), []byte(suppliedPassword)); err != nil {
			return nil, models.ErrSharePassword
		}
	}

	if share.Policy.RequireAuthentication && requesterID == "" {
		return nil, models.ErrAuthRequired
	}

	file, err := s.files.GetFile(ctx, share.FileID)
	if err != nil {
		return nil, err
	}
	if file.Status != models.StatusReady || file.Encryption == nil {
		return nil, fmt.Errorf("%w: status is %q", models.ErrFileNotReady, file.Status)
	}

	var userID *string
	if requesterID != "" {
		userID = &requesterID
	}
	// The store re-checks the policy while incrementing, so concurrent
	// resolves cannot over-admit past the access limit.
	if _, err := s.shares.RecordShareAccess(ctx, share, ipAddress, userAgent, userID); err != nil {
		return nil, err
	}

	plaintext, err := s.decrypt(ctx, file)
	if err != nil {
		return nil, err
	}

	if err := s.events.Publish(SubjectFileAccessed, map[string]interface{}{
		"file_id": file.ID,
		"action":  "SharedAccess",
		"user_id": requesterID,
		"ip":      ipAddress,
	}); err != nil {
		log.Printf("[SHARE] warning: failed to publish %s event: %v", SubjectFileAccessed, err)
	}

	return &DownloadResult{
		Reader:      plaintext,
		FileName:    file.Metadata.Name,
		ContentType: file.Metadata.ContentType,
		FileSize:    file.Metadata.Size,
	}, nil
}

// AccessHistory returns the file's combined access trail, newest first.
// Owner only.
func (s *ShareService) AccessHistory(ctx context.Context, fileID, requesterID string) ([]models.ShareAccess, error) {
	file, err := s.files.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if file.OwnerID != requesterID {
		return nil, fmt.Errorf("%w: only the owner may view access history", models.ErrForbidden)
	}
	return s.shares.ListFileAccesses(ctx, fileID)
}

func (s *ShareService) decrypt(ctx context.Context, file *models.FileRecord) (io.Reader, error) {
	blob, err := s.blobs.Fetch(ctx, file.Encryption.EncryptedPath)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch encrypted blob: %w", err)
	}
	defer blob.Close()

	data, err := io.ReadAll(blob)
	if err != nil {
		return nil, err
	}
	plaintext, err := s.enc.Decrypt(data)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(plaintext), nil
}
