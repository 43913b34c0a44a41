package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/File-Sharing-BondBridg/Vault-Service/internal/models"
	"github.com/File-Sharing-BondBridg/Vault-Service/internal/services"
)

const maxUploadBytes = 200 << 20 // 200 MB

// UploadFile accepts a multipart upload, persists the uploading record, spools
// the content to a temp file while hashing it, commits the scanning checkpoint
// and hands the rest to the background pipeline. The response reports the
// state at acceptance; processing continues after the request returns.
func UploadFile(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided"})
		return
	}
	if fh.Size > maxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file too large: " + fh.Filename})
		return
	}

	var folderID *string
	if v := c.PostForm("folder_id"); v != "" {
		folder, err := services.GetPostgres().GetFolder(c.Request.Context(), v)
		if err != nil {
			respondError(c, err)
			return
		}
		if folder.OwnerID != userID {
			respondError(c, fmt.Errorf("%w: folder belongs to another user", models.ErrForbidden))
			return
		}
		folderID = &v
	}

	src, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read upload"})
		return
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "vault-upload-*")
	if err != nil {
		respondError(c, err)
		return
	}
	tempPath := tmp.Name()

	hasher := sha256.New()
	size, err := io.Copy(tmp, io.TeeReader(src, hasher))
	tmp.Close()
	if err != nil {
		os.Remove(tempPath)
		respondError(c, err)
		return
	}

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	meta, err := models.NewFileMetadata(fh.Filename, contentType, size, hex.EncodeToString(hasher.Sum(nil)))
	if err != nil {
		os.Remove(tempPath)
		respondError(c, err)
		return
	}

	record := models.NewFileRecord(userID, meta, folderID)
	ctx := c.Request.Context()
	if err := services.GetPostgres().SaveFile(ctx, record); err != nil {
		os.Remove(tempPath)
		respondError(c, err)
		return
	}

	// Durable checkpoint: once scanning is persisted the pipeline owns the
	// file, regardless of what happens to this request.
	if err := record.StartScanning(); err != nil {
		os.Remove(tempPath)
		respondError(c, err)
		return
	}
	if err := services.GetPostgres().UpdateFile(ctx, record); err != nil {
		os.Remove(tempPath)
		respondError(c, err)
		return
	}

	services.GetFileService().InvalidateListCache(userID)
	services.GetProcessor().Ingest(record, tempPath)

	c.JSON(http.StatusOK, gin.H{
		"file_id":     record.ID,
		"file_name":   record.Metadata.Name,
		"file_size":   record.Metadata.Size,
		"status":      string(models.StatusUploading),
		"uploaded_at": record.CreatedAt,
	})
}

// ListFiles returns the caller's files, root level or one folder.
func ListFiles(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	var folderID *string
	if v := c.Query("folder_id"); v != "" {
		folderID = &v
	}

	items, err := services.GetFileService().List(c.Request.Context(), userID, folderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": items})
}

// DownloadFile streams the decrypted content to the owner or a holder of the
// Download capability.
func DownloadFile(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	res, err := services.GetFileService().Download(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	serveDownload(c, res)
}

func DeleteFile(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	if err := services.GetFileService().Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "file deleted"})
}

// MoveFile reparents a file; a null or absent folder_id moves it to root.
func MoveFile(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	var req struct {
		FolderID *string `json:"folder_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := services.GetFileService().Move(c.Request.Context(), c.Param("id"), userID, req.FolderID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "file moved"})
}

func serveDownload(c *gin.Context, res *services.DownloadResult) {
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.FileName))
	c.DataFromReader(http.StatusOK, res.FileSize, res.ContentType, res.Reader, nil)
}
