package services

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/File-Sharing-BondBridg/Vault-Service/internal/models"
)

// Processor drives a file from the scanning checkpoint to a terminal state:
// malware scan, at-rest encryption, blob upload, completion event. Everything
// after the checkpoint runs detached from the originating request on a
// process-lifetime context, so a client disconnect cannot strand a file in
// scanning or encrypting.
type Processor struct {
	files   FileStore
	scanner Scanner
	blobs   BlobStore
	enc     *AESEncryptor
	events  EventPublisher

	baseCtx context.Context
	wg      sync.WaitGroup
	locks   keyedMutex
}

func NewProcessor(baseCtx context.Context, files FileStore, scanner Scanner, blobs BlobStore, enc *AESEncryptor, events EventPublisher) *Processor {
	return &Processor{
		files:   files,
		scanner: scanner,
		blobs:   blobs,
		enc:     enc,
		events:  events,
		baseCtx: baseCtx,
	}
}

// Ingest schedules the detached stages for a file whose scanning checkpoint
// has already been persisted. tempPath holds the raw upload; the processor
// owns it from here and removes it when done.
func (p *Processor) Ingest(f *models.FileRecord, tempPath string) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.run(f, tempPath)
	}()
}

// Wait blocks until all in-flight pipelines finish, for graceful shutdown.
func (p *Processor) Wait() {
	p.wg.Wait()
}

// LockFile serializes operations on a single file id. Owner-initiated delete
// takes the same lock so it cannot interleave with an in-flight encryption
// write; the store's version check backstops anything that slips through.
func (p *Processor) LockFile(id string) func() {
	return p.locks.lock(id)
}

func (p *Processor) run(f *models.FileRecord, tempPath string) {
	ctx := p.baseCtx
	defer os.Remove(tempPath)

	unlock := p.locks.lock(f.ID)
	defer unlock()

	if err := p.process(ctx, f, tempPath); err != nil {
		p.fail(ctx, f, err)
	}
}

func (p *Processor) process(ctx context.Context, f *models.FileRecord, tempPath string) error {
	raw, err := os.Open(tempPath)
	if err != nil {
		return fmt.Errorf("failed to open upload: %w", err)
	}
	verdict, err := p.scanner.Scan(ctx, raw)
	raw.Close()
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if err := f.CompleteScan(verdict); err != nil {
		return err
	}
	if err := p.files.UpdateFile(ctx, f); err != nil {
		return err
	}
	if f.Status == models.StatusQuarantined {
		// Terminal and user-visible; the raw upload is discarded, nothing is
		// encrypted or stored.
		log.Printf("[PIPELINE] file %s quarantined: %s", f.ID, verdict)
		return nil
	}

	plaintext, err := os.ReadFile(tempPath)
	if err != nil {
		return fmt.Errorf("failed to read upload: %w", err)
	}
	blob, err := p.enc.Encrypt(plaintext)
	if err != nil {
		return fmt.Errorf("encryption failed: %w", err)
	}

	objectName := "vault/" + f.ID + ".enc"
	if err := p.blobs.Upload(ctx, objectName, bytes.NewReader(blob), int64(len(blob)), "application/octet-stream"); err != nil {
		return fmt.Errorf("failed to upload encrypted blob: %w", err)
	}

	info, err := models.NewEncryptionInfo(EncryptionAlgorithm, objectName, p.enc.KeyID())
	if err != nil {
		return err
	}
	if err := f.CompleteEncryption(info); err != nil {
		return err
	}
	if err := p.files.UpdateFile(ctx, f); err != nil {
		// The record could not be finalized; don't leave an orphaned blob.
		if rmErr := p.blobs.Remove(ctx, objectName); rmErr != nil {
			log.Printf("[PIPELINE] failed to remove orphaned blob %s: %v", objectName, rmErr)
		}
		return err
	}

	if err := p.events.Publish(SubjectFileUploaded, map[string]interface{}{
		"file_id":  f.ID,
		"owner_id": f.OwnerID,
		"name":     f.Metadata.Name,
		"size":     f.Metadata.Size,
	}); err != nil {
		log.Printf("[PIPELINE] warning: failed to publish %s event: %v", SubjectFileUploaded, err)
	}

	log.Printf("[PIPELINE] file %s processed, status=%s", f.ID, f.Status)
	return nil
}

// fail converts any pipeline error into a terminal failed status. Errors stop
// here: they are logged, never propagated to the request that started the
// upload.
func (p *Processor) fail(ctx context.Context, f *models.FileRecord, cause error) {
	log.Printf("[PIPELINE] file %s failed: %v", f.ID, cause)
	f.MarkFailed()
	if err := p.files.UpdateFile(ctx, f); err != nil {
		log.Printf("[PIPELINE] failed to persist failed status for %s: %v", f.ID, err)
	}
}

// keyedMutex hands out one mutex per key, dropped again once released.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*keyedLock)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
