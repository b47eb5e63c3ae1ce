package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yanqian/survey-dashboard/internal/domain/survey"
)

const maxObjectSize = 64 << 20

// ObjectSource reads survey exports from an S3-compatible bucket. The
// location is the object key; "bucket/key" is accepted when no default
// bucket is configured.
type ObjectSource struct {
	client *minio.Client
	bucket string
	logger *slog.Logger
}

// NewObjectSource constructs the S3 adapter.
func NewObjectSource(endpoint, accessKey, secretKey, bucket, region string, logger *slog.Logger) (*ObjectSource, error) {
	if logger == nil {
		logger = slog.Default()
	}
	useSSL := !strings.HasPrefix(strings.ToLower(strings.TrimSpace(endpoint)), "http://")
	client, err := minio.New(sanitizeEndpoint(endpoint), &minio.Options{
		Creds:        credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure:       useSSL,
		Region:       region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("init object store client: %w", err)
	}
	return &ObjectSource{client: client, bucket: bucket, logger: logger.With("component", "source.s3")}, nil
}

// Fetch implements survey.Source.
func (s *ObjectSource) Fetch(ctx context.Context, ref survey.SourceRef) ([]byte, error) {
	bucket, key, err := s.locate(ref.Location)
	if err != nil {
		return nil, err
	}
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s/%s: %w", bucket, key, err)
	}
	defer obj.Close()

	info, err := obj.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat object %s/%s: %w", bucket, key, err)
	}
	if info.Size > maxObjectSize {
		return nil, fmt.Errorf("object %s/%s is %d bytes, limit is %d", bucket, key, info.Size, maxObjectSize)
	}
	data, err := io.ReadAll(io.LimitReader(obj, maxObjectSize))
	if err != nil {
		return nil, fmt.Errorf("read object %s/%s: %w", bucket, key, err)
	}
	s.logger.Debug("survey object fetched", "bucket", bucket, "key", key, "etag", info.ETag, "size", info.Size)
	return data, nil
}

func (s *ObjectSource) locate(location string) (string, string, error) {
	return splitObjectLocation(s.bucket, location)
}

func splitObjectLocation(defaultBucket, location string) (string, string, error) {
	location = strings.TrimPrefix(strings.TrimSpace(location), "s3://")
	location = strings.TrimPrefix(location, "/")
	if defaultBucket != "" {
		if location == "" {
			return "", "", fmt.Errorf("object key cannot be empty")
		}
		return defaultBucket, location, nil
	}
	bucket, key, ok := strings.Cut(location, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("object location %q must be bucket/key when no bucket is configured", location)
	}
	return bucket, key, nil
}

// sanitizeEndpoint removes schemes and paths to satisfy minio.New expectations.
func sanitizeEndpoint(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "https://"), "http://")
	host, _, _ := strings.Cut(raw, "/")
	return host
}

var _ survey.Source = (*ObjectSource)(nil)
