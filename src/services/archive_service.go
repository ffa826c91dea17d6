package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
)

// Archiver keeps a copy of every routed file outside the drop directory.
type Archiver interface {
	Archive(ctx context.Context, filePath, destination string) error
}

// S3Archiver uploads routed files to <prefix><ok|error>/<name>.
type S3Archiver struct {
	uploader s3manageriface.UploaderAPI
	bucket   string
	prefix   string
	log      *slog.Logger
}

// NewS3Archiver returns nil when no bucket is configured.
func NewS3Archiver(bucket, region, prefix string, log *slog.Logger) (*S3Archiver, error) {
	if bucket == "" {
		return nil, nil
	}
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	log.Info("S3 archive enabled", "bucket", bucket, "region", region, "prefix", prefix)
	return NewS3ArchiverWithUploader(s3manager.NewUploader(sess), bucket, prefix, log), nil
}

func NewS3ArchiverWithUploader(u s3manageriface.UploaderAPI, bucket, prefix string, log *slog.Logger) *S3Archiver {
	return &S3Archiver{uploader: u, bucket: bucket, prefix: prefix, log: log}
}

// ObjectKey is the S3 key a routed file is archived under.
func (a *S3Archiver) ObjectKey(filePath, destination string) string {
	return path.Join(a.prefix, strings.ToLower(destination), filepath.Base(filePath))
}

func (a *S3Archiver) Archive(ctx context.Context, filePath, destination string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open %s for archiving: %w", filePath, err)
	}
	defer f.Close()

	key := a.ObjectKey(filePath, destination)
	out, err := a.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		a.log.Error("S3 archive upload failed", "error", err, "bucket", a.bucket, "key", key)
		return fmt.Errorf("failed to archive %s to s3://%s/%s: %w", filePath, a.bucket, key, err)
	}
	a.log.Info("File archived", "location", out.Location)
	return nil
}
