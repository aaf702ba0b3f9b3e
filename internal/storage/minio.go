package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string // ex. https://cdn.cedra.fr ; vide = http(s)://endpoint/bucket
}

type Minio struct {
	Client    *minio.Client
	Bucket    string
	PublicURL string
}

// NewMinio se connecte et crée le bucket s'il n'existe pas encore.
func NewMinio(ctx context.Context, cfg MinioConfig) (*Minio, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connexion MinIO: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("vérification bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("création bucket %s: %w", cfg.Bucket, err)
		}
		log.Println("🪣 Bucket créé :", cfg.Bucket)
	} else {
		log.Println("🪣 Bucket MinIO déjà présent :", cfg.Bucket)
	}

	public := strings.TrimRight(cfg.PublicURL, "/")
	if public == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		public = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
	}

	log.Println("✅ Connecté à MinIO :", cfg.Endpoint)
	return &Minio{Client: client, Bucket: cfg.Bucket, PublicURL: public}, nil
}

func (m *Minio) Put(ctx context.Context, r io.Reader, in PutInput) (PutResult, error) {
	key := objectKey("products", in.Filename)

	size := in.Size
	if size <= 0 {
		size = -1
	}
	_, err := m.Client.PutObject(ctx, m.Bucket, key, r, size,
		minio.PutObjectOptions{ContentType: in.ContentType})
	if err != nil {
		return PutResult{}, fmt.Errorf("upload MinIO %s: %w", key, err)
	}
	return PutResult{Key: key, URL: m.PublicURL + "/" + key}, nil
}

func (m *Minio) Delete(ctx context.Context, key string) error {
	return m.Client.RemoveObject(ctx, m.Bucket, key, minio.RemoveObjectOptions{})
}

func (m *Minio) String() string { return fmt.Sprintf("minio(%s)", m.Bucket) }
