package storage

import (
	"context"
	"fmt"

	"github.com/charismabi/handson/internal/config"
)

// UploadInput representa uma operação de upload simples.
type UploadInput struct {
	Key          string
	Body         []byte
	ContentType  string
	CacheControl string
}

// UploadResult descreve o artefato persistido.
type UploadResult struct {
	URL  string
	ETag string
}

// Uploader define comportamento básico para armazenar blobs.
type Uploader interface {
	Upload(ctx context.Context, input UploadInput) (*UploadResult, error)
}

// New escolhe o backend conforme STORAGE_PROVIDER. "noop" (ou vazio) devolve
// Uploader nil, que desliga o arquivamento das exportações.
func New(cfg config.StorageConfig) (Uploader, error) {
	switch cfg.Provider {
	case "", "noop":
		return nil, nil
	case "s3", "r2":
		return NewS3Uploader(S3Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	}
	return nil, fmt.Errorf("storage: provider %q desconhecido", cfg.Provider)
}
