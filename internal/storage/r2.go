// Package storage uploads build artifacts to an S3-compatible content store
// (Cloudflare R2 in production) and hands back a pack identifier. It
// implements the orchestrator's transfer function; authentication material
// comes from the caller.
package storage

import (
	"context"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/packforge/packforge/internal/manifest"
	"github.com/packforge/packforge/internal/publish"
)

type Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// BasePath is the remote prefix under which artifacts are published; it
	// must match the storage base path embedded in the import map.
	BasePath string
}

type Uploader struct {
	client   *minio.Client
	bucket   string
	region   string
	basePath string
	initOnce sync.Once
	initErr  error
}

func NewUploader(cfg Config) (*Uploader, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("storage endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("storage access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "auto"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init storage client: %w", err)
	}

	return &Uploader{
		client:   client,
		bucket:   bucket,
		region:   region,
		basePath: strings.Trim(cfg.BasePath, "/"),
	}, nil
}

func (u *Uploader) ensureBucket(ctx context.Context) error {
	u.initOnce.Do(func() {
		exists, err := u.client.BucketExists(ctx, u.bucket)
		if err != nil {
			u.initErr = err
			return
		}
		if exists {
			return
		}
		u.initErr = u.client.MakeBucket(ctx, u.bucket, minio.MakeBucketOptions{Region: u.region})
	})
	return u.initErr
}

// object pairs a local artifact with the remote key it publishes under.
type object struct {
	key  string
	path string
}

// collectObjects walks localDir and derives the remote key for every
// artifact: the local layout mirrored under basePath, with forward slashes,
// so the URLs embedded in the import map resolve.
func collectObjects(localDir, basePath string) ([]object, error) {
	var objs []object
	err := filepath.WalkDir(localDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(localDir, p)
		if err != nil {
			return err
		}
		objs = append(objs, object{
			key:  path.Join(basePath, filepath.ToSlash(rel)),
			path: p,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return objs, nil
}

// Transfer uploads every artifact under localDir to the configured base
// path. Returns the new pack identifier. Failures are surfaced with the
// upstream message and are not retried here.
func (u *Uploader) Transfer(ctx context.Context, localDir string, _ *manifest.Manifest) (string, error) {
	if err := u.ensureBucket(ctx); err != nil {
		return "", fmt.Errorf("ensure bucket: %w", err)
	}

	objs, err := collectObjects(localDir, u.basePath)
	if err != nil {
		return "", err
	}

	for _, obj := range objs {
		file, err := os.Open(obj.path)
		if err != nil {
			return "", err
		}

		info, err := file.Stat()
		if err != nil {
			file.Close()
			return "", err
		}

		_, err = u.client.PutObject(ctx, u.bucket, obj.key, file, info.Size(), minio.PutObjectOptions{
			ContentType: contentType(obj.path),
		})
		file.Close()
		if err != nil {
			return "", fmt.Errorf("upload %s: %w", obj.key, err)
		}
	}

	return uuid.NewString(), nil
}

// Func adapts the uploader to the orchestrator's transfer function type.
func (u *Uploader) Func() publish.TransferFunc {
	return u.Transfer
}

func contentType(p string) string {
	if ct := mime.TypeByExtension(filepath.Ext(p)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
