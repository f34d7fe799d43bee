package media

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStore keeps uploads as objects in a MinIO (or any S3) bucket. The
// public path stays /uploads/<name>; the API proxies reads.
type MinioStore struct {
	client *minio.Client
	bucket string
}

// MinioConfig holds the connection settings for NewMinioStore.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Secure    bool
}

// NewMinioStore connects to the endpoint and creates the bucket if it is
// missing.
func NewMinioStore(ctx context.Context, cfg MinioConfig) (*MinioStore, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
	}
	return &MinioStore{client: client, bucket: cfg.Bucket}, nil
}

func (s *MinioStore) Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) error {
	if err := validName(name); err != nil {
		return err
	}
	_, err := s.client.PutObject(ctx, s.bucket, name, r, size, minio.PutObjectOptions{ContentType: contentType})
	return err
}

func (s *MinioStore) Open(ctx context.Context, name string) (io.ReadSeekCloser, time.Time, error) {
	if err := validName(name); err != nil {
		return nil, time.Time{}, err
	}
	obj, err := s.client.GetObject(ctx, s.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, time.Time{}, mapMinioErr(err)
	}
	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, time.Time{}, mapMinioErr(err)
	}
	return obj, info.LastModified, nil
}

func (s *MinioStore) Remove(ctx context.Context, name string) error {
	if err := validName(name); err != nil {
		return err
	}
	return mapMinioErr(s.client.RemoveObject(ctx, s.bucket, name, minio.RemoveObjectOptions{}))
}

func mapMinioErr(err error) error {
	if err == nil {
		return nil
	}
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return fmt.Errorf("%w: %v", fs.ErrNotExist, err)
	}
	return err
}
