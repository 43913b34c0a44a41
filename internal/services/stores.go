package services

import (
	"context"
	"io"

	"github.com/File-Sharing-BondBridg/Vault-Service/internal/models"
)

// Store and collaborator contracts consumed by the core services. The
// Postgres, MinIO, ClamAV and NATS types implement them; tests substitute
// in-memory fakes.

type FileStore interface {
	SaveFile(ctx context.Context, f *models.FileRecord) error
	// UpdateFile persists f and bumps its version. It returns
	// models.ErrConflict when f.Version is stale.
	UpdateFile(ctx context.Context, f *models.FileRecord) error
	// GetFile loads a live (non-tombstoned) file with its permission grants.
	GetFile(ctx context.Context, id string) (*models.FileRecord, error)
	ListFiles(ctx context.Context, ownerID string, folderID *string) ([]*models.FileRecord, error)
	UpsertPermission(ctx context.Context, perm *models.FilePermission) error
	DeletePermission(ctx context.Context, fileID, userID string) error
}

type ShareStore interface {
	// SaveShare persists a new link; returns models.ErrDuplicateToken on a
	// token collision.
	SaveShare(ctx context.Context, share *models.ShareLink) error
	GetShareByToken(ctx context.Context, token string) (*models.ShareLink, error)
	// RecordShareAccess appends an access entry and increments the counter
	// atomically, re-checking the policy so concurrent callers cannot exceed
	// the access limit. Returns models.ErrShareExhausted when the predicate
	// no longer holds.
	RecordShareAccess(ctx context.Context, share *models.ShareLink, ipAddress, userAgent string, userID *string) (*models.ShareAccess, error)
	// ListFileAccesses returns the combined trail of all of a file's links,
	// newest first.
	ListFileAccesses(ctx context.Context, fileID string) ([]models.ShareAccess, error)
}

type FolderStore interface {
	SaveFolder(ctx context.Context, folder *models.Folder) error
	GetFolder(ctx context.Context, id string) (*models.Folder, error)
	ListFolders(ctx context.Context, ownerID string) ([]*models.Folder, error)
	// FolderChildCounts reports how many files and subfolders reference the
	// folder, gating non-cascading deletes.
	FolderChildCounts(ctx context.Context, folderID string) (files int, subfolders int, err error)
	DeleteFolder(ctx context.Context, id string) error
}

type BlobStore interface {
	Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error
	Fetch(ctx context.Context, objectName string) (io.ReadCloser, error)
	Remove(ctx context.Context, objectName string) error
}

// Scanner submits content to the malware scanner and returns its verdict,
// e.g. "clean" or "threat detected: Eicar-Test-Signature".
type Scanner interface {
	Scan(ctx context.Context, reader io.Reader) (string, error)
}

// EventPublisher fans events out to interested collaborators (audit service
// et al). Publishing is best-effort from the caller's point of view.
type EventPublisher interface {
	Publish(subject string, payload interface{}) error
}
