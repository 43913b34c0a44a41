package services

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/File-Sharing-BondBridg/Vault-Service/internal/models"
)

// In-memory fakes for the store and collaborator contracts.

type memFileStore struct {
	mu    sync.Mutex
	files map[string]*models.FileRecord
}

func newMemFileStore() *memFileStore {
	return &memFileStore{files: make(map[string]*models.FileRecord)}
}

func (m *memFileStore) SaveFile(_ context.Context, f *models.FileRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *f
	m.files[f.ID] = &clone
	return nil
}

func (m *memFileStore) UpdateFile(_ context.Context, f *models.FileRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.files[f.ID]
	if !ok {
		return models.ErrFileNotFound
	}
	if stored.Version != f.Version {
		return models.ErrConflict
	}
	f.Version++
	clone := *f
	m.files[f.ID] = &clone
	return nil
}

func (m *memFileStore) GetFile(_ context.Context, id string) (*models.FileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.files[id]
	if !ok || stored.DeletedAt != nil {
		return nil, models.ErrFileNotFound
	}
	clone := *stored
	clone.Permissions = append([]models.FilePermission(nil), stored.Permissions...)
	return &clone, nil
}

func (m *memFileStore) ListFiles(_ context.Context, ownerID string, folderID *string) ([]*models.FileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.FileRecord
	for _, f := range m.files {
		if f.OwnerID != ownerID || f.DeletedAt != nil {
			continue
		}
		if !folderIDEqual(f.FolderID, folderID) {
			continue
		}
		clone := *f
		out = append(out, &clone)
	}
	return out, nil
}

func folderIDEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (m *memFileStore) UpsertPermission(_ context.Context, perm *models.FilePermission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.files[perm.FileID]
	if !ok {
		return models.ErrFileNotFound
	}
	for i := range stored.Permissions {
		if stored.Permissions[i].UserID == perm.UserID {
			stored.Permissions[i] = *perm
			return nil
		}
	}
	stored.Permissions = append(stored.Permissions, *perm)
	return nil
}

func (m *memFileStore) DeletePermission(_ context.Context, fileID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.files[fileID]
	if !ok {
		return models.ErrFileNotFound
	}
	for i := range stored.Permissions {
		if stored.Permissions[i].UserID == userID {
			stored.Permissions = append(stored.Permissions[:i], stored.Permissions[i+1:]...)
			return nil
		}
	}
	return nil
}

type memShareStore struct {
	mu       sync.Mutex
	byToken  map[string]*models.ShareLink
	accesses map[string][]models.ShareAccess // fileID → newest first
}

func newMemShareStore() *memShareStore {
	return &memShareStore{
		byToken:  make(map[string]*models.ShareLink),
		accesses: make(map[string][]models.ShareAccess),
	}
}

func (m *memShareStore) SaveShare(_ context.Context, share *models.ShareLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byToken[share.Token]; exists {
		return models.ErrDuplicateToken
	}
	clone := *share
	m.byToken[share.Token] = &clone
	return nil
}

func (m *memShareStore) GetShareByToken(_ context.Context, token string) (*models.ShareLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.byToken[token]
	if !ok {
		return nil, models.ErrShareNotFound
	}
	clone := *stored
	return &clone, nil
}

// RecordShareAccess mirrors the Postgres implementation: the predicate is
// re-checked under the store lock so concurrent callers cannot over-admit.
func (m *memShareStore) RecordShareAccess(_ context.Context, share *models.ShareLink, ipAddress, userAgent string, userID *string) (*models.ShareAccess, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.byToken[share.Token]
	if !ok {
		return nil, models.ErrShareNotFound
	}
	access, err := stored.RecordAccess(ipAddress, userAgent, userID)
	if err != nil {
		return nil, err
	}
	m.accesses[stored.FileID] = append([]models.ShareAccess{*access}, m.accesses[stored.FileID]...)
	share.AccessCount = stored.AccessCount
	return access, nil
}

func (m *memShareStore) ListFileAccesses(_ context.Context, fileID string) ([]models.ShareAccess, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.ShareAccess(nil), m.accesses[fileID]...), nil
}

type memFolderStore struct {
	mu      sync.Mutex
	folders map[string]*models.Folder
	fileRef func(folderID string) int // optional hook for child file counts
}

func newMemFolderStore() *memFolderStore {
	return &memFolderStore{folders: make(map[string]*models.Folder)}
}

func (m *memFolderStore) SaveFolder(_ context.Context, folder *models.Folder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *folder
	m.folders[folder.ID] = &clone
	return nil
}

func (m *memFolderStore) GetFolder(_ context.Context, id string) (*models.Folder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.folders[id]
	if !ok {
		return nil, models.ErrFolderNotFound
	}
	clone := *stored
	return &clone, nil
}

func (m *memFolderStore) ListFolders(_ context.Context, ownerID string) ([]*models.Folder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Folder
	for _, fo := range m.folders {
		if fo.OwnerID == ownerID {
			clone := *fo
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (m *memFolderStore) FolderChildCounts(_ context.Context, folderID string) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	files := 0
	if m.fileRef != nil {
		files = m.fileRef(folderID)
	}
	subfolders := 0
	for _, fo := range m.folders {
		if fo.ParentFolderID != nil && *fo.ParentFolderID == folderID {
			subfolders++
		}
	}
	return files, subfolders, nil
}

func (m *memFolderStore) DeleteFolder(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.folders[id]; !ok {
		return models.ErrFolderNotFound
	}
	delete(m.folders, id)
	return nil
}

type memBlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{blobs: make(map[string][]byte)}
}

func (m *memBlobStore) Upload(_ context.Context, objectName string, reader io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[objectName] = data
	return nil
}

func (m *memBlobStore) Fetch(_ context.Context, objectName string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[objectName]
	if !ok {
		return nil, models.ErrFileNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memBlobStore) Remove(_ context.Context, objectName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, objectName)
	return nil
}

func (m *memBlobStore) has(objectName string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.blobs[objectName]
	return ok
}

type fakeScanner struct {
	verdict string
	err     error
}

func (f *fakeScanner) Scan(_ context.Context, reader io.Reader) (string, error) {
	_, _ = io.Copy(io.Discard, reader)
	if f.err != nil {
		return "", f.err
	}
	return f.verdict, nil
}

type captureEvents struct {
	mu       sync.Mutex
	subjects []string
}

func (c *captureEvents) Publish(subject string, _ interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subjects = append(c.subjects, subject)
	return nil
}

func (c *captureEvents) published(subject string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range c.subjects {
		if s == subject {
			return true
		}
	}
	return false
}

func testEncryptor() *AESEncryptor {
	// base64 of 32 bytes
	enc, err := NewAESEncryptor("MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY=")
	if err != nil {
		panic(err)
	}
	return enc
}
