package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFolder_Paths(t *testing.T) {
	root, err := NewFolder("docs", "owner", nil, "")
	require.NoError(t, err)
	assert.Equal(t, "/docs", root.Path)

	child, err := NewFolder("reports", "owner", &root.ID, root.Path)
	require.NoError(t, err)
	assert.Equal(t, "/docs/reports", child.Path)
}

func TestNewFolder_EmptyName(t *testing.T) {
	_, err := NewFolder("   ", "owner", nil, "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestNewFolder_TrimsName(t *testing.T) {
	fo, err := NewFolder("  photos  ", "owner", nil, "")
	require.NoError(t, err)
	assert.Equal(t, "photos", fo.Name)
	assert.Equal(t, "/photos", fo.Path)
}

func TestFolder_Rename(t *testing.T) {
	fo, err := NewFolder("reports", "owner", nil, "/docs")
	require.NoError(t, err)
	require.NoError(t, fo.Rename("archive", "/docs"))
	assert.Equal(t, "/docs/archive", fo.Path)

	assert.ErrorIs(t, fo.Rename(" ", "/docs"), ErrValidation)
}

func TestFolder_MoveTo(t *testing.T) {
	fo, err := NewFolder("reports", "owner", nil, "")
	require.NoError(t, err)
	parentID := "parent-1"
	fo.MoveTo(&parentID, "/docs/2026")
	assert.Equal(t, "/docs/2026/reports", fo.Path)

	fo.MoveTo(nil, "")
	assert.Equal(t, "/reports", fo.Path)
}
