package services

import (
	"context"
	"fmt"
	"log"

	"github.com/File-Sharing-BondBridg/Vault-Service/internal/models"
)

// FolderService manages the owner-scoped folder tree.
type FolderService struct {
	folders FolderStore
}

func NewFolderService(folders FolderStore) *FolderService {
	return &FolderService{folders: folders}
}

// Create adds a folder, optionally under a parent owned by the same user.
func (s *FolderService) Create(ctx context.Context, name, ownerID string, parentID *string) (*models.Folder, error) {
	parentPath := ""
	if parentID != nil {
		parent, err := s.folders.GetFolder(ctx, *parentID)
		if err != nil {
			return nil, err
		}
		if parent.OwnerID != ownerID {
			return nil, fmt.Errorf("%w: cannot create folder in another user's folder", models.ErrForbidden)
		}
		parentPath = parent.Path
	}

	folder, err := models.NewFolder(name, ownerID, parentID, parentPath)
	if err != nil {
		return nil, err
	}
	if err := s.folders.SaveFolder(ctx, folder); err != nil {
		return nil, err
	}
	log.Printf("[FOLDERS] folder %q created by user %s", folder.Path, ownerID)
	return folder, nil
}

func (s *FolderService) List(ctx context.Context, ownerID string) ([]*models.Folder, error) {
	return s.folders.ListFolders(ctx, ownerID)
}

// Delete removes an empty folder. Deletion is blocked, never cascading: a
// folder holding any file or subfolder stays put.
func (s *FolderService) Delete(ctx context.Context, folderID, requesterID string) error {
	folder, err := s.folders.GetFolder(ctx, folderID)
	if err != nil {
		return err
	}
	if folder.OwnerID != requesterID {
		return fmt.Errorf("%w: user %s cannot delete folder %s", models.ErrForbidden, requesterID, folderID)
	}

	files, subfolders, err := s.folders.FolderChildCounts(ctx, folderID)
	if err != nil {
		return err
	}
	if files > 0 || subfolders > 0 {
		return fmt.Errorf("%w: %d files, %d subfolders", models.ErrFolderNotEmpty, files, subfolders)
	}

	return s.folders.DeleteFolder(ctx, folderID)
}
