package backup

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectStore is the slice of the S3 API the sync uses.
type ObjectStore interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Sync pushes snapshots to a bucket and pulls them back.
type S3Sync struct {
	client ObjectStore
	bucket string
}

// NewS3Sync builds a sync against the given bucket using the ambient
// AWS credential chain. A non-empty endpoint overrides the AWS one,
// which covers MinIO style deployments.
func NewS3Sync(ctx context.Context, bucket, region, endpoint string) (*S3Sync, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Sync{client: client, bucket: bucket}, nil
}

// NewS3SyncWithClient wires an existing client, used by tests.
func NewS3SyncWithClient(client ObjectStore, bucket string) *S3Sync {
	return &S3Sync{client: client, bucket: bucket}
}

// Upload exports the local store and puts the snapshot at key. An
// empty key derives one from the export timestamp.
func (s *S3Sync) Upload(ctx context.Context, svc *Service, key string) (string, error) {
	var buf bytes.Buffer
	snapshot, err := svc.ExportToWriter(&buf)
	if err != nil {
		return "", err
	}
	if key == "" {
		key = fmt.Sprintf("snapshots/backup_%s.json", snapshot.ExportedAt.Format("20060102_150405"))
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload snapshot: %w", err)
	}
	return key, nil
}

// Download fetches the snapshot at key and restores it.
func (s *S3Sync) Download(ctx context.Context, svc *Service, key string, clear bool) (*Snapshot, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download snapshot: %w", err)
	}
	defer out.Body.Close()

	return svc.ImportFromReader(out.Body, clear)
}
