package cloud

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/mlopsbox/dmpipe/pkg/errors"
	"github.com/mlopsbox/dmpipe/pkg/log"
)

// uploaderAPI and downloaderAPI cover the transfer-manager calls Storage
// uses, so tests can substitute fakes.
type uploaderAPI interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type downloaderAPI interface {
	Download(ctx context.Context, w io.WriterAt, input *s3.GetObjectInput, opts ...func(*manager.Downloader)) (int64, error)
}

// Storage addresses a bucket+prefix namespace in object storage.
type Storage struct {
	bucket     string
	prefix     string
	uploader   uploaderAPI
	downloader downloaderAPI
	logger     *slog.Logger
}

// NewStorage creates a Storage over the given S3 client.
func NewStorage(client *s3.Client, bucket, prefix string) *Storage {
	return &Storage{
		bucket:     bucket,
		prefix:     prefix,
		uploader:   manager.NewUploader(client),
		downloader: manager.NewDownloader(client),
		logger:     slog.Default().With(log.BucketKey, bucket),
	}
}

// URI returns the s3:// URI for a key under this storage's prefix.
func (s *Storage) URI(key string) string {
	return "s3://" + s.bucket + "/" + s.key(key)
}

func (s *Storage) key(key string) string {
	if s.prefix == "" {
		return key
	}
	return path.Join(s.prefix, key)
}

// UploadFile streams a local file to the given key and returns its URI.
func (s *Storage) UploadFile(ctx context.Context, localPath, key string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", errors.Wrapf(err, "cloud: open %s", localPath)
	}
	defer file.Close()

	fullKey := s.key(key)
	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(fullKey),
		Body:        file,
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return "", errors.Wrapf(err, "cloud: upload %s", fullKey)
	}
	s.logger.Info("uploaded object", log.KeyKey, fullKey, "source", localPath)
	return s.URI(key), nil
}

// Download fetches a key to a local file, creating parent directories.
func (s *Storage) Download(ctx context.Context, key, localPath string) error {
	if dir := filepath.Dir(localPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "cloud: create directory %s", dir)
		}
	}
	file, err := os.Create(localPath)
	if err != nil {
		return errors.Wrapf(err, "cloud: create %s", localPath)
	}
	defer file.Close()

	fullKey := s.key(key)
	_, err = s.downloader.Download(ctx, file, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(fullKey),
	})
	if err != nil {
		return errors.Wrapf(err, "cloud: download %s", fullKey)
	}
	s.logger.Info("downloaded object", log.KeyKey, fullKey, "target", localPath)
	return nil
}
