package services

// Package-level service instances, wired once at startup and read by the
// HTTP handlers.

var (
	postgresInstance  *PostgresStorage
	minioInstance     *MinioService
	scannerInstance   *ClamScanner
	processorInstance *Processor
	fileSvcInstance   *FileService
	shareSvcInstance  *ShareService
	folderSvcInstance *FolderService
)

func SetPostgres(p *PostgresStorage)    { postgresInstance = p }
func GetPostgres() *PostgresStorage     { return postgresInstance }
func SetMinioService(m *MinioService)   { minioInstance = m }
func GetMinioService() *MinioService    { return minioInstance }
func SetScanner(s *ClamScanner)         { scannerInstance = s }
func GetScanner() *ClamScanner          { return scannerInstance }
func SetProcessor(p *Processor)         { processorInstance = p }
func GetProcessor() *Processor          { return processorInstance }
func SetFileService(s *FileService)     { fileSvcInstance = s }
func GetFileService() *FileService      { return fileSvcInstance }
func SetShareService(s *ShareService)   { shareSvcInstance = s }
func GetShareService() *ShareService    { return shareSvcInstance }
func SetFolderService(s *FolderService) { folderSvcInstance = s }
func GetFolderService() *FolderService  { return folderSvcInstance }
