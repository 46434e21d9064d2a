// blob.go - Blob storage for uploaded scans and merged artifacts (MinIO)

package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// BlobObject is one stored object: Name is the bare file name, Ref the full
// object key used for download/merge.
type BlobObject struct {
	Name string
	Ref  string
}

// BlobStore is the blob storage capability the pipeline depends on
type BlobStore interface {
	Upload(ctx context.Context, ref string, data []byte, contentType string) (string, error)
	Download(ctx context.Context, ref string) ([]byte, error)
	List(ctx context.Context, batchID string) ([]BlobObject, error)
}

// BlobConfig holds explicit connection settings for the blob backend.
// The backend choice is made once at startup, never inside business logic.
type BlobConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// MinioBlobStore implements BlobStore against a MinIO (S3-compatible) server
type MinioBlobStore struct {
	client *minio.Client
	bucket string
}

// NewMinioBlobStore connects to MinIO and ensures the bucket exists
func NewMinioBlobStore(ctx context.Context, cfg BlobConfig) (*MinioBlobStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.Bucket, err)
		}
		log.Printf("Created bucket %s", cfg.Bucket)
	}

	log.Println("✅ Connected to MinIO successfully!")
	return &MinioBlobStore{client: client, bucket: cfg.Bucket}, nil
}

// BatchObjectRef builds the object key for a file inside an upload batch
func BatchObjectRef(batchID, filename string) string {
	return path.Join("batches", batchID, filename)
}

// Upload stores data under ref and returns the ref
func (m *MinioBlobStore) Upload(ctx context.Context, ref string, data []byte, contentType string) (string, error) {
	_, err := m.client.PutObject(ctx, m.bucket, ref, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", ref, err)
	}
	return ref, nil
}

// Download retrieves the object bytes for ref
func (m *MinioBlobStore) Download(ctx context.Context, ref string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, ref, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", ref, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", ref, err)
	}
	return data, nil
}

// List returns the objects belonging to one upload batch
func (m *MinioBlobStore) List(ctx context.Context, batchID string) ([]BlobObject, error) {
	prefix := path.Join("batches", batchID) + "/"

	var objects []BlobObject
	for info := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: false}) {
		if info.Err != nil {
			return nil, fmt.Errorf("failed to list batch %s: %w", batchID, info.Err)
		}
		objects = append(objects, BlobObject{
			Name: path.Base(info.Key),
			Ref:  info.Key,
		})
	}
	return objects, nil
}
