package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMetadata(t *testing.T) FileMetadata {
	t.Helper()
	md, err := NewFileMetadata("report.pdf", "application/pdf", 1024, "deadbeef")
	require.NoError(t, err)
	return md
}

func testEncryptionInfo(t *testing.T) EncryptionInfo {
	t.Helper()
	info, err := NewEncryptionInfo("AES-256-GCM", "vault/abc.enc", "k1")
	require.NoError(t, err)
	return info
}

func TestNewFileMetadata_Validation(t *testing.T) {
	_, err := NewFileMetadata("  ", "text/plain", 10, "h")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NewFileMetadata("a.txt", "text/plain", 0, "h")
	assert.ErrorIs(t, err, ErrValidation)

	md, err := NewFileMetadata("Photo.JPG", "image/jpeg", 10, "h")
	require.NoError(t, err)
	assert.Equal(t, ".jpg", md.Extension)
}

func TestLifecycle_HappyPath(t *testing.T) {
	f := NewFileRecord("owner", testMetadata(t), nil)
	assert.Equal(t, StatusUploading, f.Status)

	require.NoError(t, f.StartScanning())
	assert.Equal(t, StatusScanning, f.Status)

	require.NoError(t, f.CompleteScan("clean"))
	assert.Equal(t, StatusEncrypting, f.Status)
	require.NotNil(t, f.ScannedAt)
	assert.Equal(t, "clean", f.ScanResult)

	require.NoError(t, f.CompleteEncryption(testEncryptionInfo(t)))
	assert.Equal(t, StatusReady, f.Status)
	require.NotNil(t, f.Encryption)
	assert.Equal(t, "AES-256-GCM", f.Encryption.Algorithm)
}

func TestLifecycle_NeverSkipsStates(t *testing.T) {
	f := NewFileRecord("owner", testMetadata(t), nil)

	// uploading cannot jump to encrypting or ready
	assert.ErrorIs(t, f.CompleteScan("clean"), ErrInvalidTransition)
	assert.ErrorIs(t, f.CompleteEncryption(testEncryptionInfo(t)), ErrInvalidTransition)

	require.NoError(t, f.StartScanning())
	assert.ErrorIs(t, f.StartScanning(), ErrInvalidTransition)
	assert.ErrorIs(t, f.CompleteEncryption(testEncryptionInfo(t)), ErrInvalidTransition)
}

func TestLifecycle_ThreatQuarantines(t *testing.T) {
	f := NewFileRecord("owner", testMetadata(t), nil)
	require.NoError(t, f.StartScanning())
	require.NoError(t, f.CompleteScan("Threat detected: Eicar-Test-Signature"))
	assert.Equal(t, StatusQuarantined, f.Status)

	// quarantine is terminal regardless of subsequent calls
	assert.ErrorIs(t, f.CompleteEncryption(testEncryptionInfo(t)), ErrInvalidTransition)
	f.MarkFailed()
	assert.Equal(t, StatusQuarantined, f.Status)

	_, err := f.CreateShare(SharePolicy{}, "tok")
	assert.ErrorIs(t, err, ErrFileNotReady)
}

func TestMarkFailed(t *testing.T) {
	f := NewFileRecord("owner", testMetadata(t), nil)
	require.NoError(t, f.StartScanning())
	f.MarkFailed()
	assert.Equal(t, StatusFailed, f.Status)

	// terminal states are not overwritten
	r := NewFileRecord("owner", testMetadata(t), nil)
	require.NoError(t, r.StartScanning())
	require.NoError(t, r.CompleteScan("clean"))
	require.NoError(t, r.CompleteEncryption(testEncryptionInfo(t)))
	r.MarkFailed()
	assert.Equal(t, StatusReady, r.Status)
}

func TestCreateShare_RequiresReady(t *testing.T) {
	f := NewFileRecord("owner", testMetadata(t), nil)
	_, err := f.CreateShare(SharePolicy{}, "tok")
	assert.ErrorIs(t, err, ErrFileNotReady)

	require.NoError(t, f.StartScanning())
	require.NoError(t, f.CompleteScan("clean"))
	require.NoError(t, f.CompleteEncryption(testEncryptionInfo(t)))

	share, err := f.CreateShare(SharePolicy{}, "tok")
	require.NoError(t, err)
	assert.Equal(t, f.ID, share.FileID)
	assert.Len(t, f.Shares, 1)
}

func TestHasPermission(t *testing.T) {
	f := NewFileRecord("owner", testMetadata(t), nil)

	// owner passes regardless of grants
	assert.True(t, f.HasPermission("owner", PermissionFullControl))

	// absence of a grant denies
	assert.False(t, f.HasPermission("alice", PermissionRead))

	f.GrantPermission("alice", PermissionRead|PermissionDownload)
	assert.True(t, f.HasPermission("alice", PermissionRead))
	assert.True(t, f.HasPermission("alice", PermissionDownload))
	assert.False(t, f.HasPermission("alice", PermissionDelete))
	assert.False(t, f.HasPermission("alice", PermissionRead|PermissionDelete))
}

func TestGrantPermission_LastWriteWins(t *testing.T) {
	f := NewFileRecord("owner", testMetadata(t), nil)
	f.GrantPermission("alice", PermissionRead|PermissionWrite)
	f.GrantPermission("alice", PermissionDownload)

	require.Len(t, f.Permissions, 1)
	assert.False(t, f.HasPermission("alice", PermissionRead), "old bits are replaced, not merged")
	assert.True(t, f.HasPermission("alice", PermissionDownload))
}

func TestRevokePermission(t *testing.T) {
	f := NewFileRecord("owner", testMetadata(t), nil)
	f.GrantPermission("alice", PermissionRead)
	f.RevokePermission("alice")
	assert.False(t, f.HasPermission("alice", PermissionRead))
	assert.Empty(t, f.Permissions)
}

func TestMarkDeleted(t *testing.T) {
	f := NewFileRecord("owner", testMetadata(t), nil)
	require.Nil(t, f.DeletedAt)
	f.MarkDeleted()
	assert.NotNil(t, f.DeletedAt)
}
