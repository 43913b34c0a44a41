package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/File-Sharing-BondBridg/Vault-Service/cmd/middleware"
	"github.com/File-Sharing-BondBridg/Vault-Service/internal/api"
	"github.com/File-Sharing-BondBridg/Vault-Service/internal/api/handlers"
	"github.com/File-Sharing-BondBridg/Vault-Service/internal/configuration"
	"github.com/File-Sharing-BondBridg/Vault-Service/internal/services"
)

func main() {
	cfg := configuration.Load()

	tracer.Start(tracer.WithService("vault-service"))
	defer tracer.Stop()

	if err := middleware.InitAuth(cfg.KeycloakUrl); err != nil {
		log.Fatalf("Failed to initialize auth: %v", err)
	}

	pg, err := services.NewPostgresStorage(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pg.Close()
	services.SetPostgres(pg)

	minioSvc, err := services.NewMinioService(cfg.MinIO.Endpoint, cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, cfg.MinIO.BucketName, cfg.MinIO.UseSSL)
	if err != nil {
		log.Fatalf("Failed to connect to MinIO: %v", err)
	}
	services.SetMinioService(minioSvc)

	scanner := services.NewClamScanner(cfg.CLAMAVURL)
	if err := scanner.CheckConnection(); err != nil {
		// Uploads will land in failed until clamd comes back; the service
		// itself can still serve reads.
		log.Printf("[CLAMAV] warning: scanner unreachable at startup: %v", err)
	}
	services.SetScanner(scanner)

	var events services.EventPublisher
	natsPub, err := services.ConnectNATS(cfg.NATSURL)
	if err != nil {
		log.Printf("[NATS] unavailable, events disabled: %v", err)
		events = services.NoopPublisher{}
	} else {
		defer natsPub.Close()
		events = natsPub
	}

	enc, err := services.NewAESEncryptor(cfg.EncryptionKey)
	if err != nil {
		log.Fatalf("Invalid encryption key (set ENCRYPTION_KEY to a base64 32-byte key): %v", err)
	}

	cache := services.NewTieredCache(cfg.Cache.L1Size, cfg.Cache.L1TTL, cfg.Cache.L2Size, cfg.Cache.L2TTL)

	// The pipeline runs on a process-lifetime context, never a request's.
	pipelineCtx, stopPipeline := context.WithCancel(context.Background())
	defer stopPipeline()
	processor := services.NewProcessor(pipelineCtx, pg, scanner, minioSvc, enc, events)
	services.SetProcessor(processor)

	services.SetFileService(services.NewFileService(pg, pg, minioSvc, enc, cache, events, processor))
	services.SetShareService(services.NewShareService(pg, pg, minioSvc, enc, events))
	services.SetFolderService(services.NewFolderService(pg))

	handlers.Configure(cfg.PublicBaseURL)

	r := gin.Default()
	api.RegisterRoutes(r)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}
	go func() {
		log.Printf("Server starting on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	// Let in-flight uploads reach a terminal state before exiting.
	processor.Wait()
	log.Println("Shutdown complete")
}
