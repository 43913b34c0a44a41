package models

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FileStatus is the file's current stage in the ingestion pipeline.
type FileStatus string

const (
	StatusUploading   FileStatus = "uploading"
	StatusScanning    FileStatus = "scanning"
	StatusEncrypting  FileStatus = "encrypting"
	StatusReady       FileStatus = "ready"
	StatusQuarantined FileStatus = "quarantined"
	StatusFailed      FileStatus = "failed"
)

// threatMarker quarantines any scan verdict that carries it, case-insensitive.
const threatMarker = "threat"

// FileMetadata describes the uploaded content. Hash is the SHA-256 digest of
// the plaintext, computed before any other processing.
type FileMetadata struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	Extension   string `json:"extension"`
	Hash        string `json:"hash"`
}

// NewFileMetadata validates name and size and derives the extension.
func NewFileMetadata(name, contentType string, size int64, hash string) (FileMetadata, error) {
	if strings.TrimSpace(name) == "" {
		return FileMetadata{}, fmt.Errorf("%w: file name cannot be empty", ErrValidation)
	}
	if size <= 0 {
		return FileMetadata{}, fmt.Errorf("%w: file size must be positive", ErrValidation)
	}
	return FileMetadata{
		Name:        name,
		ContentType: contentType,
		Size:        size,
		Extension:   strings.ToLower(filepath.Ext(name)),
		Hash:        hash,
	}, nil
}

// EncryptionInfo is the at-rest encryption descriptor. It locates the
// encrypted blob and names the key; the raw key is never persisted.
type EncryptionInfo struct {
	Algorithm     string    `json:"algorithm"`
	EncryptedPath string    `json:"encrypted_path"`
	KeyIdentifier string    `json:"key_identifier"`
	EncryptedAt   time.Time `json:"encrypted_at"`
}

func NewEncryptionInfo(algorithm, encryptedPath, keyIdentifier string) (EncryptionInfo, error) {
	if strings.TrimSpace(algorithm) == "" {
		return EncryptionInfo{}, fmt.Errorf("%w: algorithm cannot be empty", ErrValidation)
	}
	if strings.TrimSpace(encryptedPath) == "" {
		return EncryptionInfo{}, fmt.Errorf("%w: encrypted path cannot be empty", ErrValidation)
	}
	return EncryptionInfo{
		Algorithm:     algorithm,
		EncryptedPath: encryptedPath,
		KeyIdentifier: keyIdentifier,
		EncryptedAt:   time.Now().UTC(),
	}, nil
}

// FileRecord is the file aggregate: metadata, lifecycle status, permission
// grants and share links. All state changes go through its methods so the
// lifecycle guards cannot be bypassed.
//
// Version is an optimistic-concurrency token; the store rejects updates made
// against a stale version so owner actions cannot interleave with the
// background pipeline.
type FileRecord struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"owner_id"`
	FolderID    *string         `json:"folder_id,omitempty"`
	Metadata    FileMetadata    `json:"metadata"`
	Encryption  *EncryptionInfo `json:"encryption,omitempty"`
	Status      FileStatus      `json:"status"`
	ScanResult  string          `json:"scan_result,omitempty"`
	ScannedAt   *time.Time      `json:"scanned_at,omitempty"`
	Permissions []FilePermission
	Shares      []*ShareLink
	Version     int64      `json:"-"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"-"`
}

func NewFileRecord(ownerID string, metadata FileMetadata, folderID *string) *FileRecord {
	now := time.Now().UTC()
	return &FileRecord{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		FolderID:  folderID,
		Metadata:  metadata,
		Status:    StatusUploading,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (f *FileRecord) touch() {
	f.UpdatedAt = time.Now().UTC()
}

// StartScanning moves uploading → scanning.
func (f *FileRecord) StartScanning() error {
	if f.Status != StatusUploading {
		return fmt.Errorf("%w: cannot start scanning from %q", ErrInvalidTransition, f.Status)
	}
	f.Status = StatusScanning
	f.touch()
	return nil
}

// CompleteScan records the scanner verdict and moves scanning → encrypting,
// or scanning → quarantined when the verdict carries the threat marker.
func (f *FileRecord) CompleteScan(result string) error {
	if f.Status != StatusScanning {
		return fmt.Errorf("%w: cannot complete scan from %q", ErrInvalidTransition, f.Status)
	}
	now := time.Now().UTC()
	f.ScanResult = result
	f.ScannedAt = &now
	if strings.Contains(strings.ToLower(result), threatMarker) {
		f.Status = StatusQuarantined
	} else {
		f.Status = StatusEncrypting
	}
	f.touch()
	return nil
}

// CompleteEncryption attaches the descriptor and moves encrypting → ready.
func (f *FileRecord) CompleteEncryption(info EncryptionInfo) error {
	if f.Status != StatusEncrypting {
		return fmt.Errorf("%w: cannot complete encryption from %q", ErrInvalidTransition, f.Status)
	}
	f.Encryption = &info
	f.Status = StatusReady
	f.touch()
	return nil
}

// MarkFailed is the unconditional escape hatch for pipeline errors. Terminal
// states stay terminal.
func (f *FileRecord) MarkFailed() {
	switch f.Status {
	case StatusReady, StatusQuarantined, StatusFailed:
		return
	}
	f.Status = StatusFailed
	f.touch()
}

// CreateShare attaches a new share link. Only ready files can be shared.
func (f *FileRecord) CreateShare(policy SharePolicy, token string) (*ShareLink, error) {
	if f.Status != StatusReady {
		return nil, fmt.Errorf("%w: status is %q", ErrFileNotReady, f.Status)
	}
	share := NewShareLink(f.ID, policy, token)
	f.Shares = append(f.Shares, share)
	f.touch()
	return share, nil
}

// GrantPermission upserts the grant for userID. An existing grant's mask is
// replaced, not merged.
func (f *FileRecord) GrantPermission(userID string, permissions Permission) *FilePermission {
	for i := range f.Permissions {
		if f.Permissions[i].UserID == userID {
			f.Permissions[i].Update(permissions)
			f.touch()
			return &f.Permissions[i]
		}
	}
	now := time.Now().UTC()
	f.Permissions = append(f.Permissions, FilePermission{
		ID:          uuid.New().String(),
		FileID:      f.ID,
		UserID:      userID,
		Permissions: permissions,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	f.touch()
	return &f.Permissions[len(f.Permissions)-1]
}

func (f *FileRecord) RevokePermission(userID string) {
	for i := range f.Permissions {
		if f.Permissions[i].UserID == userID {
			f.Permissions = append(f.Permissions[:i], f.Permissions[i+1:]...)
			f.touch()
			return
		}
	}
}

// HasPermission reports whether userID holds every bit of required. The owner
// implicitly holds all capabilities; for anyone else, no grant means no access.
func (f *FileRecord) HasPermission(userID string, required Permission) bool {
	if userID == f.OwnerID {
		return true
	}
	for i := range f.Permissions {
		if f.Permissions[i].UserID == userID {
			return f.Permissions[i].Permissions.Has(required)
		}
	}
	return false
}

// MoveTo reparents the file; folders do not own files, so no folder lifecycle
// is involved.
func (f *FileRecord) MoveTo(folderID *string) {
	f.FolderID = folderID
	f.touch()
}

// MarkDeleted tombstones the record. Nothing is physically erased.
func (f *FileRecord) MarkDeleted() {
	now := time.Now().UTC()
	f.DeletedAt = &now
	f.touch()
}
