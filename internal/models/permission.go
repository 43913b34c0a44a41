package models

import (
	"fmt"
	"strings"
	"time"
)

// Permission is a bitmask of independent capabilities a grant may confer.
type Permission int

const (
	PermissionNone     Permission = 0
	PermissionRead     Permission = 1 << 0
	PermissionWrite    Permission = 1 << 1
	PermissionDelete   Permission = 1 << 2
	PermissionShare    Permission = 1 << 3
	PermissionDownload Permission = 1 << 4

	PermissionFullControl = PermissionRead | PermissionWrite | PermissionDelete | PermissionShare | PermissionDownload
)

var permissionNames = map[string]Permission{
	"read":         PermissionRead,
	"write":        PermissionWrite,
	"delete":       PermissionDelete,
	"share":        PermissionShare,
	"download":     PermissionDownload,
	"full_control": PermissionFullControl,
}

// ParsePermissions builds a mask from capability names, case-insensitive.
func ParsePermissions(names []string) (Permission, error) {
	mask := PermissionNone
	for _, name := range names {
		p, ok := permissionNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return PermissionNone, fmt.Errorf("%w: unknown permission %q", ErrValidation, name)
		}
		mask |= p
	}
	if mask == PermissionNone {
		return PermissionNone, fmt.Errorf("%w: at least one permission is required", ErrValidation)
	}
	return mask, nil
}

// Names lists the capability names set in the mask.
func (p Permission) Names() []string {
	var out []string
	for _, name := range []string{"read", "write", "delete", "share", "download"} {
		if p.Has(permissionNames[name]) {
			out = append(out, name)
		}
	}
	return out
}

// Has reports whether every bit of required is set.
func (p Permission) Has(required Permission) bool {
	return p&required == required
}

// FilePermission is a capability grant for one (file, user) pair. At most one
// grant exists per pair; regranting replaces the mask outright.
type FilePermission struct {
	ID          string     `json:"id"`
	FileID      string     `json:"file_id"`
	UserID      string     `json:"user_id"`
	Permissions Permission `json:"permissions"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Update replaces the grant's mask. Last write wins; bits omitted from the
// new mask are revoked.
func (fp *FilePermission) Update(permissions Permission) {
	fp.Permissions = permissions
	fp.UpdatedAt = time.Now().UTC()
}
