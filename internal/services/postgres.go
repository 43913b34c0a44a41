package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/File-Sharing-BondBridg/Vault-Service/internal/models"
)

// PostgresStorage persists file records, permission grants, share links,
// access trails and folders. It implements FileStore, ShareStore and
// FolderStore.
type PostgresStorage struct {
	db *sql.DB
}

// NewPostgresStorage connects, configures the pool and bootstraps the schema.
func NewPostgresStorage(connectionString string) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	p := &PostgresStorage{db: db}
	if err := p.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Println("Connected to PostgreSQL successfully")
	return p, nil
}

// CheckConnection is used by health checks.
func (p *PostgresStorage) CheckConnection() error {
	if p == nil || p.db == nil {
		return fmt.Errorf("postgres storage not initialized")
	}
	return p.db.Ping()
}

func (p *PostgresStorage) Close() error {
	return p.db.Close()
}

func (p *PostgresStorage) createTables() error {
	query := `
    CREATE TABLE IF NOT EXISTS files (
        id UUID PRIMARY KEY,
        owner_id UUID NOT NULL,
        folder_id UUID,
        name VARCHAR(255) NOT NULL,
        content_type VARCHAR(100) NOT NULL,
        size BIGINT NOT NULL,
        extension VARCHAR(20) NOT NULL,
        hash VARCHAR(64) NOT NULL,
        status VARCHAR(20) NOT NULL,
        scan_result TEXT,
        scanned_at TIMESTAMPTZ,
        enc_algorithm VARCHAR(50),
        enc_path VARCHAR(500),
        enc_key_id VARCHAR(64),
        encrypted_at TIMESTAMPTZ,
        version BIGINT NOT NULL DEFAULT 1,
        created_at TIMESTAMPTZ NOT NULL,
        updated_at TIMESTAMPTZ NOT NULL,
        deleted_at TIMESTAMPTZ
    );
    CREATE INDEX IF NOT EXISTS idx_files_owner ON files (owner_id) WHERE deleted_at IS NULL;

    CREATE TABLE IF NOT EXISTS file_permissions (
        id UUID PRIMARY KEY,
        file_id UUID NOT NULL REFERENCES files(id) ON DELETE CASCADE,
        user_id UUID NOT NULL,
        permissions INTEGER NOT NULL,
        created_at TIMESTAMPTZ NOT NULL,
        updated_at TIMESTAMPTZ NOT NULL,
        UNIQUE (file_id, user_id)
    );

    CREATE TABLE IF NOT EXISTS file_shares (
        id UUID PRIMARY KEY,
        file_id UUID NOT NULL REFERENCES files(id) ON DELETE CASCADE,
        token VARCHAR(64) NOT NULL UNIQUE,
        expires_at TIMESTAMPTZ,
        max_access_count INTEGER,
        password_hash VARCHAR(100),
        require_auth BOOLEAN NOT NULL DEFAULT false,
        access_count INTEGER NOT NULL DEFAULT 0,
        is_active BOOLEAN NOT NULL DEFAULT true,
        created_at TIMESTAMPTZ NOT NULL,
        updated_at TIMESTAMPTZ NOT NULL
    );

    CREATE TABLE IF NOT EXISTS share_accesses (
        id UUID PRIMARY KEY,
        share_id UUID NOT NULL REFERENCES file_shares(id) ON DELETE CASCADE,
        user_id UUID,
        ip_address VARCHAR(45),
        user_agent TEXT,
        location VARCHAR(255),
        created_at TIMESTAMPTZ NOT NULL
    );

    CREATE TABLE IF NOT EXISTS folders (
        id UUID PRIMARY KEY,
        owner_id UUID NOT NULL,
        name VARCHAR(255) NOT NULL,
        parent_id UUID REFERENCES folders(id),
        path VARCHAR(1000) NOT NULL,
        created_at TIMESTAMPTZ NOT NULL,
        updated_at TIMESTAMPTZ NOT NULL
    );
    `
	_, err := p.db.Exec(query)
	return err
}

// --- FileStore ---

func (p *PostgresStorage) SaveFile(ctx context.Context, f *models.FileRecord) error {
	query := `
    INSERT INTO files (id, owner_id, folder_id, name, content_type, size, extension, hash,
                       status, scan_result, scanned_at, enc_algorithm, enc_path, enc_key_id, encrypted_at,
                       version, created_at, updated_at, deleted_at)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
    `
	_, err := p.db.ExecContext(ctx, query,
		f.ID, f.OwnerID, f.FolderID,
		f.Metadata.Name, f.Metadata.ContentType, f.Metadata.Size, f.Metadata.Extension, f.Metadata.Hash,
		string(f.Status), nullString(f.ScanResult), f.ScannedAt,
		encField(f, func(e *models.EncryptionInfo) interface{} { return e.Algorithm }),
		encField(f, func(e *models.EncryptionInfo) interface{} { return e.EncryptedPath }),
		encField(f, func(e *models.EncryptionInfo) interface{} { return e.KeyIdentifier }),
		encField(f, func(e *models.EncryptionInfo) interface{} { return e.EncryptedAt }),
		f.Version, f.CreatedAt, f.UpdatedAt, f.DeletedAt,
	)
	return err
}

// UpdateFile persists the record and bumps its version. The version check
// serializes owner actions against the background pipeline: whoever loaded a
// stale copy gets models.ErrConflict instead of clobbering the row.
func (p *PostgresStorage) UpdateFile(ctx context.Context, f *models.FileRecord) error {
	query := `
    UPDATE files SET folder_id = $2, status = $3, scan_result = $4, scanned_at = $5,
                     enc_algorithm = $6, enc_path = $7, enc_key_id = $8, encrypted_at = $9,
                     version = version + 1, updated_at = $10, deleted_at = $11
    WHERE id = $1 AND version = $12
    `
	res, err := p.db.ExecContext(ctx, query,
		f.ID, f.FolderID, string(f.Status), nullString(f.ScanResult), f.ScannedAt,
		encField(f, func(e *models.EncryptionInfo) interface{} { return e.Algorithm }),
		encField(f, func(e *models.EncryptionInfo) interface{} { return e.EncryptedPath }),
		encField(f, func(e *models.EncryptionInfo) interface{} { return e.KeyIdentifier }),
		encField(f, func(e *models.EncryptionInfo) interface{} { return e.EncryptedAt }),
		f.UpdatedAt, f.DeletedAt, f.Version,
	)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		var exists bool
		if err := p.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM files WHERE id = $1)`, f.ID).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return models.ErrConflict
		}
		return models.ErrFileNotFound
	}
	f.Version++
	return nil
}

const fileColumns = `id, owner_id, folder_id, name, content_type, size, extension, hash,
    status, scan_result, scanned_at, enc_algorithm, enc_path, enc_key_id, encrypted_at,
    version, created_at, updated_at`

func (p *PostgresStorage) GetFile(ctx context.Context, id string) (*models.FileRecord, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT `+fileColumns+` FROM files WHERE id = $1 AND deleted_at IS NULL`, id)
	f, err := scanFile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrFileNotFound
		}
		return nil, err
	}
	perms, err := p.loadPermissions(ctx, f.ID)
	if err != nil {
		return nil, err
	}
	f.Permissions = perms
	return f, nil
}

func (p *PostgresStorage) ListFiles(ctx context.Context, ownerID string, folderID *string) ([]*models.FileRecord, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE owner_id = $1 AND deleted_at IS NULL`
	args := []interface{}{ownerID}
	if folderID != nil {
		query += ` AND folder_id = $2`
		args = append(args, *folderID)
	} else {
		query += ` AND folder_id IS NULL`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []*models.FileRecord
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			log.Printf("[DB] error scanning file row: %v", err)
			continue
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanFile(row rowScanner) (*models.FileRecord, error) {
	var (
		f           models.FileRecord
		folderID    sql.NullString
		scanResult  sql.NullString
		scannedAt   sql.NullTime
		encAlgo     sql.NullString
		encPath     sql.NullString
		encKeyID    sql.NullString
		encryptedAt sql.NullTime
		status      string
	)
	err := row.Scan(
		&f.ID, &f.OwnerID, &folderID,
		&f.Metadata.Name, &f.Metadata.ContentType, &f.Metadata.Size, &f.Metadata.Extension, &f.Metadata.Hash,
		&status, &scanResult, &scannedAt, &encAlgo, &encPath, &encKeyID, &encryptedAt,
		&f.Version, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	f.Status = models.FileStatus(status)
	if folderID.Valid {
		f.FolderID = &folderID.String
	}
	f.ScanResult = scanResult.String
	if scannedAt.Valid {
		f.ScannedAt = &scannedAt.Time
	}
	if encAlgo.Valid {
		f.Encryption = &models.EncryptionInfo{
			Algorithm:     encAlgo.String,
			EncryptedPath: encPath.String,
			KeyIdentifier: encKeyID.String,
			EncryptedAt:   encryptedAt.Time,
		}
	}
	return &f, nil
}

func (p *PostgresStorage) loadPermissions(ctx context.Context, fileID string) ([]models.FilePermission, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, file_id, user_id, permissions, created_at, updated_at
         FROM file_permissions WHERE file_id = $1`, fileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []models.FilePermission
	for rows.Next() {
		var perm models.FilePermission
		var mask int
		if err := rows.Scan(&perm.ID, &perm.FileID, &perm.UserID, &mask, &perm.CreatedAt, &perm.UpdatedAt); err != nil {
			return nil, err
		}
		perm.Permissions = models.Permission(mask)
		perms = append(perms, perm)
	}
	return perms, rows.Err()
}

func (p *PostgresStorage) UpsertPermission(ctx context.Context, perm *models.FilePermission) error {
	query := `
    INSERT INTO file_permissions (id, file_id, user_id, permissions, created_at, updated_at)
    VALUES ($1, $2, $3, $4, $5, $6)
    ON CONFLICT (file_id, user_id)
    DO UPDATE SET permissions = EXCLUDED.permissions, updated_at = EXCLUDED.updated_at
    `
	_, err := p.db.ExecContext(ctx, query,
		perm.ID, perm.FileID, perm.UserID, int(perm.Permissions), perm.CreatedAt, perm.UpdatedAt)
	return err
}

func (p *PostgresStorage) DeletePermission(ctx context.Context, fileID, userID string) error {
	_, err := p.db.ExecContext(ctx,
		`DELETE FROM file_permissions WHERE file_id = $1 AND user_id = $2`, fileID, userID)
	return err
}

// --- ShareStore ---

func (p *PostgresStorage) SaveShare(ctx context.Context, share *models.ShareLink) error {
	query := `
    INSERT INTO file_shares (id, file_id, token, expires_at, max_access_count, password_hash,
                             require_auth, access_count, is_active, created_at, updated_at)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `
	_, err := p.db.ExecContext(ctx, query,
		share.ID, share.FileID, share.Token,
		share.Policy.ExpirationDate, share.Policy.MaxAccessCount, nullString(share.Policy.PasswordHash),
		share.Policy.RequireAuthentication, share.AccessCount, share.IsActive,
		share.CreatedAt, share.UpdatedAt)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return models.ErrDuplicateToken
	}
	return err
}

func (p *PostgresStorage) GetShareByToken(ctx context.Context, token string) (*models.ShareLink, error) {
	var (
		share    models.ShareLink
		expires  sql.NullTime
		maxCount sql.NullInt64
		pwHash   sql.NullString
	)
	err := p.db.QueryRowContext(ctx,
		`SELECT id, file_id, token, expires_at, max_access_count, password_hash,
                require_auth, access_count, is_active, created_at, updated_at
         FROM file_shares WHERE token = $1`, token).Scan(
		&share.ID, &share.FileID, &share.Token, &expires, &maxCount, &pwHash,
		&share.Policy.RequireAuthentication, &share.AccessCount, &share.IsActive,
		&share.CreatedAt, &share.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrShareNotFound
		}
		return nil, err
	}
	if expires.Valid {
		share.Policy.ExpirationDate = &expires.Time
	}
	if maxCount.Valid {
		n := int(maxCount.Int64)
		share.Policy.MaxAccessCount = &n
	}
	share.Policy.PasswordHash = pwHash.String
	return &share, nil
}

// RecordShareAccess re-checks the policy inside a conditional UPDATE so that
// concurrent callers cannot push access_count past the limit, then appends
// the trail entry in the same transaction.
func (p *PostgresStorage) RecordShareAccess(ctx context.Context, share *models.ShareLink, ipAddress, userAgent string, userID *string) (*models.ShareAccess, error) {
	now := time.Now().UTC()

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
        UPDATE file_shares SET access_count = access_count + 1, updated_at = $2
        WHERE id = $1
          AND is_active
          AND (expires_at IS NULL OR expires_at > $2)
          AND (max_access_count IS NULL OR access_count < max_access_count)`,
		share.ID, now)
	if err != nil {
		return nil, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, models.ErrShareExhausted
	}

	access := &models.ShareAccess{
		ID:        uuid.New().String(),
		ShareID:   share.ID,
		UserID:    userID,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		CreatedAt: now,
	}
	_, err = tx.ExecContext(ctx, `
        INSERT INTO share_accesses (id, share_id, user_id, ip_address, user_agent, location, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		access.ID, access.ShareID, access.UserID,
		nullString(access.IPAddress), nullString(access.UserAgent), nullString(access.Location),
		access.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	share.AccessCount++
	share.UpdatedAt = now
	return access, nil
}

func (p *PostgresStorage) ListFileAccesses(ctx context.Context, fileID string) ([]models.ShareAccess, error) {
	rows, err := p.db.QueryContext(ctx, `
        SELECT a.id, a.share_id, a.user_id, a.ip_address, a.user_agent, a.location, a.created_at
        FROM share_accesses a
        JOIN file_shares s ON s.id = a.share_id
        WHERE s.file_id = $1
        ORDER BY a.created_at DESC`, fileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accesses []models.ShareAccess
	for rows.Next() {
		var (
			a      models.ShareAccess
			user   sql.NullString
			ip     sql.NullString
			agent  sql.NullString
			locStr sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.ShareID, &user, &ip, &agent, &locStr, &a.CreatedAt); err != nil {
			return nil, err
		}
		if user.Valid {
			a.UserID = &user.String
		}
		a.IPAddress = ip.String
		a.UserAgent = agent.String
		a.Location = locStr.String
		accesses = append(accesses, a)
	}
	return accesses, rows.Err()
}

// --- FolderStore ---

func (p *PostgresStorage) SaveFolder(ctx context.Context, folder *models.Folder) error {
	query := `
    INSERT INTO folders (id, owner_id, name, parent_id, path, created_at, updated_at)
    VALUES ($1, $2, $3, $4, $5, $6, $7)
    ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, parent_id = EXCLUDED.parent_id,
        path = EXCLUDED.path, updated_at = EXCLUDED.updated_at
    `
	_, err := p.db.ExecContext(ctx, query,
		folder.ID, folder.OwnerID, folder.Name, folder.ParentFolderID, folder.Path,
		folder.CreatedAt, folder.UpdatedAt)
	return err
}

func (p *PostgresStorage) GetFolder(ctx context.Context, id string) (*models.Folder, error) {
	var (
		folder models.Folder
		parent sql.NullString
	)
	err := p.db.QueryRowContext(ctx,
		`SELECT id, owner_id, name, parent_id, path, created_at, updated_at
         FROM folders WHERE id = $1`, id).Scan(
		&folder.ID, &folder.OwnerID, &folder.Name, &parent, &folder.Path,
		&folder.CreatedAt, &folder.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrFolderNotFound
		}
		return nil, err
	}
	if parent.Valid {
		folder.ParentFolderID = &parent.String
	}
	return &folder, nil
}

func (p *PostgresStorage) ListFolders(ctx context.Context, ownerID string) ([]*models.Folder, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, owner_id, name, parent_id, path, created_at, updated_at
         FROM folders WHERE owner_id = $1 ORDER BY path`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var folders []*models.Folder
	for rows.Next() {
		var (
			folder models.Folder
			parent sql.NullString
		)
		if err := rows.Scan(&folder.ID, &folder.OwnerID, &folder.Name, &parent, &folder.Path,
			&folder.CreatedAt, &folder.UpdatedAt); err != nil {
			return nil, err
		}
		if parent.Valid {
			folder.ParentFolderID = &parent.String
		}
		folders = append(folders, &folder)
	}
	return folders, rows.Err()
}

func (p *PostgresStorage) FolderChildCounts(ctx context.Context, folderID string) (int, int, error) {
	var files, subfolders int
	err := p.db.QueryRowContext(ctx, `
        SELECT
            (SELECT COUNT(*) FROM files WHERE folder_id = $1 AND deleted_at IS NULL),
            (SELECT COUNT(*) FROM folders WHERE parent_id = $1)`,
		folderID).Scan(&files, &subfolders)
	return files, subfolders, err
}

func (p *PostgresStorage) DeleteFolder(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM folders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.ErrFolderNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func encField(f *models.FileRecord, pick func(*models.EncryptionInfo) interface{}) interface{} {
	if f.Encryption == nil {
		return nil
	}
	return pick(f.Encryption)
}
