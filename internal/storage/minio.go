package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/vcpkg-harbor/vcpkg-harbor/internal/cachekey"
)

// errWriteAborted closes the upload pipe when a store is abandoned.
var errWriteAborted = errors.New("write aborted")

// MinIOBackend implements Backend using MinIO or any S3-compatible object
// store. Stores stream through the server's multipart upload, so an object
// only becomes visible once the upload completes; there is no staging key.
type MinIOBackend struct {
	client *minio.Client
	bucket string
	prefix string
}

// MinIOConfig holds the connection settings for the object store.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	Region    string
	UseSSL    bool
}

// NewMinIOBackend creates an object store backend.
func NewMinIOBackend(cfg MinIOConfig) (*MinIOBackend, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &MinIOBackend{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist.
func (b *MinIOBackend) EnsureBucket(ctx context.Context) error {
	exists, err := b.client.BucketExists(ctx, b.bucket)
	if err != nil {
		return unavailable("check bucket existence", err)
	}

	if !exists {
		if err := b.client.MakeBucket(ctx, b.bucket, minio.MakeBucketOptions{}); err != nil {
			return unavailable("create bucket", err)
		}
	}

	return nil
}

func (b *MinIOBackend) objectName(key cachekey.Key) string {
	if b.prefix == "" {
		return key.Path()
	}
	return path.Join(b.prefix, key.Path())
}

// Exists reports whether the object is present.
func (b *MinIOBackend) Exists(ctx context.Context, key cachekey.Key) (bool, error) {
	_, err := b.client.StatObject(ctx, b.bucket, b.objectName(key), minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, unavailable("stat object", err)
	}
	return true, nil
}

// Size returns the object size.
func (b *MinIOBackend) Size(ctx context.Context, key cachekey.Key) (int64, error) {
	info, err := b.client.StatObject(ctx, b.bucket, b.objectName(key), minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return 0, ErrNotFound
		}
		return 0, unavailable("stat object", err)
	}
	return info.Size, nil
}

// Open returns a stream over the object content.
func (b *MinIOBackend) Open(ctx context.Context, key cachekey.Key) (io.ReadCloser, int64, error) {
	obj, err := b.client.GetObject(ctx, b.bucket, b.objectName(key), minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, unavailable("get object", err)
	}

	// GetObject is lazy; the first Stat surfaces a missing key.
	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, 0, ErrNotFound
		}
		return nil, 0, unavailable("stat object", err)
	}

	return obj, info.Size, nil
}

// BeginWrite starts a streaming upload for the given key. Chunks written to
// the handle flow through a pipe into PutObject with unknown length, which
// uploads multipart and only completes (making the object visible) once the
// write side of the pipe is closed cleanly by Commit.
func (b *MinIOBackend) BeginWrite(ctx context.Context, key cachekey.Key) (WriteHandle, error) {
	pr, pw := io.Pipe()
	result := make(chan error, 1)

	go func() {
		_, err := b.client.PutObject(ctx, b.bucket, b.objectName(key), pr, -1, minio.PutObjectOptions{
			ContentType: "application/octet-stream",
		})
		// Unblocks a writer stuck in Write if the upload fails midway.
		pr.CloseWithError(err)
		result <- err
	}()

	return &minioWriteHandle{pw: pw, result: result}, nil
}

// Ping checks if the object store is reachable.
func (b *MinIOBackend) Ping(ctx context.Context) error {
	if _, err := b.client.BucketExists(ctx, b.bucket); err != nil {
		return unavailable("ping object store", err)
	}
	return nil
}

type minioWriteHandle struct {
	pw     *io.PipeWriter
	result chan error
	done   bool
}

func (h *minioWriteHandle) Write(p []byte) (int, error) {
	n, err := h.pw.Write(p)
	if err != nil {
		return n, unavailable("upload chunk", err)
	}
	return n, nil
}

func (h *minioWriteHandle) Commit() error {
	if h.done {
		return errors.New("write handle already finished")
	}
	h.done = true

	h.pw.Close()
	if err := <-h.result; err != nil {
		return unavailable("complete upload", err)
	}
	return nil
}

func (h *minioWriteHandle) Abort() error {
	if h.done {
		return nil
	}
	h.done = true

	h.pw.CloseWithError(errWriteAborted)
	<-h.result
	return nil
}
