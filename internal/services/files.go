package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/File-Sharing-BondBridg/Vault-Service/internal/models"
)

// FileListItem is the cached projection returned by list queries.
type FileListItem struct {
	ID          string    `json:"id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	FileSize    int64     `json:"file_size"`
	Extension   string    `json:"extension"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	FolderID    *string   `json:"folder_id,omitempty"`
}

// FileService covers owner-facing file operations outside the ingestion
// pipeline: cached listing, download with decryption, tombstone delete,
// moves and permission grants.
type FileService struct {
	files   FileStore
	folders FolderStore
	blobs   BlobStore
	enc     *AESEncryptor
	cache   *TieredCache
	events  EventPublisher
	locks   *Processor
}

func NewFileService(files FileStore, folders FolderStore, blobs BlobStore, enc *AESEncryptor, cache *TieredCache, events EventPublisher, proc *Processor) *FileService {
	return &FileService{
		files:   files,
		folders: folders,
		blobs:   blobs,
		enc:     enc,
		cache:   cache,
		events:  events,
		locks:   proc,
	}
}

func userCachePrefix(userID string) string {
	return "files:" + userID
}

func listCacheKey(userID string, folderID *string) string {
	key := userCachePrefix(userID) + ":root"
	if folderID != nil {
		key = userCachePrefix(userID) + ":" + *folderID
	}
	return key
}

// List returns the user's files in a folder (nil folderID = root), through
// the tiered cache.
func (s *FileService) List(ctx context.Context, userID string, folderID *string) ([]FileListItem, error) {
	val, err := s.cache.GetOrSet(listCacheKey(userID, folderID), func() (interface{}, error) {
		files, err := s.files.ListFiles(ctx, userID, folderID)
		if err != nil {
			return nil, err
		}
		items := make([]FileListItem, 0, len(files))
		for _, f := range files {
			items = append(items, FileListItem{
				ID:          f.ID,
				FileName:    f.Metadata.Name,
				ContentType: f.Metadata.ContentType,
				FileSize:    f.Metadata.Size,
				Extension:   f.Metadata.Extension,
				Status:      string(f.Status),
				CreatedAt:   f.CreatedAt,
				FolderID:    f.FolderID,
			})
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return val.([]FileListItem), nil
}

// InvalidateListCache drops the user's cached listings after any mutation of
// their file set.
func (s *FileService) InvalidateListCache(userID string) {
	s.cache.InvalidatePrefix(userCachePrefix(userID))
}

// Download decrypts a ready file for its owner or a holder of the Download
// capability.
func (s *FileService) Download(ctx context.Context, fileID, requesterID string) (*DownloadResult, error) {
	file, err := s.files.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if !file.HasPermission(requesterID, models.PermissionDownload) {
		return nil, fmt.Errorf("%w: user %s cannot download file %s", models.ErrForbidden, requesterID, fileID)
	}
	if file.Status != models.StatusReady || file.Encryption == nil {
		return nil, fmt.Errorf("%w: status is %q", models.ErrFileNotReady, file.Status)
	}

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

	return &DownloadResult{
		Reader:      bytes.NewReader(plaintext),
		FileName:    file.Metadata.Name,
		ContentType: file.Metadata.ContentType,
		FileSize:    file.Metadata.Size,
	}, nil
}

// Delete tombstones the record and removes the encrypted blob. Requires the
// owner or the Delete capability. Takes the per-file lock so it cannot race
// an in-flight pipeline write.
func (s *FileService) Delete(ctx context.Context, fileID, requesterID string) error {
	unlock := s.locks.LockFile(fileID)
	defer unlock()

	file, err := s.files.GetFile(ctx, fileID)
	if err != nil {
		return err
	}
	if !file.HasPermission(requesterID, models.PermissionDelete) {
		return fmt.Errorf("%w: user %s cannot delete file %s", models.ErrForbidden, requesterID, fileID)
	}

	file.MarkDeleted()
	if err := s.files.UpdateFile(ctx, file); err != nil {
		return err
	}

	if file.Encryption != nil {
		if err := s.blobs.Remove(ctx, file.Encryption.EncryptedPath); err != nil {
			log.Printf("[FILES] warning: failed to remove blob %s: %v", file.Encryption.EncryptedPath, err)
		}
	}

	s.InvalidateListCache(file.OwnerID)

	if err := s.events.Publish(SubjectFileDeleted, map[string]interface{}{
		"file_id":  file.ID,
		"owner_id": file.OwnerID,
		"user_id":  requesterID,
	}); err != nil {
		log.Printf("[FILES] warning: failed to publish %s event: %v", SubjectFileDeleted, err)
	}
	return nil
}

// Move reparents a file into another folder (nil = root). The target folder
// must exist and belong to the same owner.
func (s *FileService) Move(ctx context.Context, fileID, requesterID string, folderID *string) error {
	file, err := s.files.GetFile(ctx, fileID)
	if err != nil {
		return err
	}
	if !file.HasPermission(requesterID, models.PermissionWrite) {
		return fmt.Errorf("%w: user %s cannot move file %s", models.ErrForbidden, requesterID, fileID)
	}

	if folderID != nil {
		folder, err := s.folders.GetFolder(ctx, *folderID)
		if err != nil {
			return err
		}
		if folder.OwnerID != file.OwnerID {
			return fmt.Errorf("%w: folder belongs to another user", models.ErrForbidden)
		}
	}

	file.MoveTo(folderID)
	if err := s.files.UpdateFile(ctx, file); err != nil {
		return err
	}
	s.InvalidateListCache(file.OwnerID)
	return nil
}

// Grant upserts a capability grant. Owner only; the mask replaces any
// existing grant outright.
func (s *FileService) Grant(ctx context.Context, fileID, ownerID, userID string, permissions models.Permission) error {
	file, err := s.files.GetFile(ctx, fileID)
	if err != nil {
		return err
	}
	if file.OwnerID != ownerID {
		return fmt.Errorf("%w: only the owner may grant permissions", models.ErrForbidden)
	}
	if userID == "" {
		return fmt.Errorf("%w: user id is required", models.ErrValidation)
	}

	perm := file.GrantPermission(userID, permissions)
	return s.files.UpsertPermission(ctx, perm)
}

// Revoke removes a user's grant. Owner only.
func (s *FileService) Revoke(ctx context.Context, fileID, ownerID, userID string) error {
	file, err := s.files.GetFile(ctx, fileID)
	if err != nil {
		return err
	}
	if file.OwnerID != ownerID {
		return fmt.Errorf("%w: only the owner may revoke permissions", models.ErrForbidden)
	}
	file.RevokePermission(userID)
	return s.files.DeletePermission(ctx, fileID, userID)
}
