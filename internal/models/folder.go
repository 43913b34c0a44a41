package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Folder is an owner-scoped tree node. Path is the materialized ancestry
// string, recomputed on every rename or move.
type Folder struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	OwnerID        string    `json:"owner_id"`
	ParentFolderID *string   `json:"parent_folder_id,omitempty"`
	Path           string    `json:"path"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewFolder builds a folder under parentPath ("" for a root folder).
func NewFolder(name, ownerID string, parentFolderID *string, parentPath string) (*Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: folder name cannot be empty", ErrValidation)
	}
	now := time.Now().UTC()
	return &Folder{
		ID:             uuid.New().String(),
		Name:           name,
		OwnerID:        ownerID,
		ParentFolderID: parentFolderID,
		Path:           joinFolderPath(parentPath, name),
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Rename changes the display name and recomputes the path from parentPath.
func (fo *Folder) Rename(newName, parentPath string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return fmt.Errorf("%w: folder name cannot be empty", ErrValidation)
	}
	fo.Name = newName
	fo.Path = joinFolderPath(parentPath, newName)
	fo.UpdatedAt = time.Now().UTC()
	return nil
}

// MoveTo reparents the folder and recomputes the path.
func (fo *Folder) MoveTo(parentID *string, parentPath string) {
	fo.ParentFolderID = parentID
	fo.Path = joinFolderPath(parentPath, fo.Name)
	fo.UpdatedAt = time.Now().UTC()
}

func joinFolderPath(parentPath, name string) string {
	if parentPath == "" {
		return "/" + name
	}
	return parentPath + "/" + name
}
