package services

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"github.com/username/stationetl/src/logger"
)

type fakeUploader struct {
	bucket, key, body string
	err               error
}

func (f *fakeUploader) Upload(in *s3manager.UploadInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	return f.UploadWithContext(context.Background(), in, opts...)
}

func (f *fakeUploader) UploadWithContext(_ aws.Context, in *s3manager.UploadInput, _ ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.bucket, f.key, f.body = aws.StringValue(in.Bucket), aws.StringValue(in.Key), string(b)
	return &s3manager.UploadOutput{Location: "s3://" + f.bucket + "/" + f.key}, nil
}

func TestS3ArchiverUploadsUnderDestination(t *testing.T) {
	p := filepath.Join(t.TempDir(), "LISTINO_x_listino.csv")
	if err := os.WriteFile(p, []byte("PV;PRODOTTO\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	up := &fakeUploader{}
	a := NewS3ArchiverWithUploader(up, "bucket", "processed/", logger.Discard())
	if err := a.Archive(context.Background(), p, DestinationOK); err != nil {
		t.Fatal(err)
	}
	if up.bucket != "bucket" || up.key != "processed/ok/LISTINO_x_listino.csv" || up.body != "PV;PRODOTTO\n" {
		t.Fatalf("upload = %+v", up)
	}
}

func TestS3ArchiverReportsFailure(t *testing.T) {
	p := filepath.Join(t.TempDir(), "a.csv")
	os.WriteFile(p, []byte("x"), 0o644)
	a := NewS3ArchiverWithUploader(&fakeUploader{err: errors.New("denied")}, "b", "", logger.Discard())
	if err := a.Archive(context.Background(), p, DestinationError); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewS3ArchiverDisabledWithoutBucket(t *testing.T) {
	a, err := NewS3Archiver("", "eu-south-1", "p/", logger.Discard())
	if err != nil || a != nil {
		t.Fatalf("got %v, %v", a, err)
	}
}
