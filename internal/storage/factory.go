package storage

import (
	"context"
	"fmt"

	"cedra_admin/internal/config"
)

type FactoryResult struct {
	Driver  string
	Storage Storage
}

// FromSettings choisit le stockage d'après STORAGE_DRIVER.
func FromSettings(ctx context.Context, s config.Settings) (FactoryResult, error) {
	switch s.StorageDriver {
	case "local":
		return FactoryResult{Driver: "local", Storage: NewLocal(s.LocalUploadDir, s.LocalUploadURL)}, nil

	case "minio":
		if s.MinioEndpoint == "" {
			return FactoryResult{}, fmt.Errorf("MINIO_ENDPOINT manquant")
		}
		m, err := NewMinio(ctx, MinioConfig{
			Endpoint:  s.MinioEndpoint,
			AccessKey: s.MinioAccessKey,
			SecretKey: s.MinioSecretKey,
			Bucket:    s.MinioBucket,
			UseSSL:    s.MinioUseSSL,
			PublicURL: s.MinioPublicURL,
		})
		if err != nil {
			return FactoryResult{}, err
		}
		return FactoryResult{Driver: "minio", Storage: m}, nil

	case "s3":
		if s.S3Bucket == "" || s.S3PublicURL == "" {
			return FactoryResult{}, fmt.Errorf("configuration S3 incomplète : S3_BUCKET et S3_PUBLIC_URL requis")
		}
		st, err := NewS3(ctx, S3Config{
			Region:        s.S3Region,
			Bucket:        s.S3Bucket,
			Prefix:        "products",
			Endpoint:      s.S3Endpoint,
			PublicBaseURL: s.S3PublicURL,
		})
		if err != nil {
			return FactoryResult{}, err
		}
		return FactoryResult{Driver: "s3", Storage: st}, nil

	default:
		return FactoryResult{}, fmt.Errorf("STORAGE_DRIVER inconnu: %s", s.StorageDriver)
	}
}
