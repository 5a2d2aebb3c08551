// Package objstore archives raw uploaded file bytes in S3-compatible
// storage. The searchable copy lives in the retrieval provider; this bucket
// keeps the originals for re-indexing and download.
package objstore

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Store struct {
	client *minio.Client
	bucket string
}

func New(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*Store, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("object store client: %w", err)
	}
	return &Store{client: client, bucket: bucket}, nil
}

// EnsureBucket creates the archive bucket if it does not exist yet.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	return nil
}

// Put archives one uploaded file under its provider file id.
func (s *Store) Put(ctx context.Context, fileID, filename, contentType string, content []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, fileID, bytes.NewReader(content), int64(len(content)),
		minio.PutObjectOptions{
			ContentType:  contentType,
			UserMetadata: map[string]string{"original-filename": filename},
		})
	if err != nil {
		return fmt.Errorf("archive %s: %w", fileID, err)
	}
	return nil
}

// Get returns the archived bytes for a file id.
func (s *Store) Get(ctx context.Context, fileID string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, fileID, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("load archive %s: %w", fileID, err)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read archive %s: %w", fileID, err)
	}
	return data, nil
}

// Remove deletes the archived copy of a file.
func (s *Store) Remove(ctx context.Context, fileID string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, fileID, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove archive %s: %w", fileID, err)
	}
	return nil
}
