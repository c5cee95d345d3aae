package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

// S3Store implements providers.ObjectStore against an S3 (or S3-compatible)
// bucket. KeyPrefix namespaces every object under a cluster-scoped prefix so
// a bucket can be shared across clusters without cross-talk.
type S3Store struct {
	client    *s3.Client
	Bucket    string
	KeyPrefix string
}

// NewS3Store loads the default AWS SDK credential chain and region
// resolution and returns a store bound to bucket.
func NewS3Store(ctx context.Context, bucket, keyPrefix string) (*S3Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &S3Store{
		client:    s3.NewFromConfig(cfg),
		Bucket:    bucket,
		KeyPrefix: keyPrefix,
	}, nil
}

func (s *S3Store) objectKey(key string) string {
	if s.KeyPrefix == "" {
		return key
	}
	return strings.TrimSuffix(s.KeyPrefix, "/") + "/" + key
}

// Head reports whether key exists. Both 404 (NotFound) and 403 (Forbidden,
// which S3 returns for a missing key under deny-by-default bucket policies
// as often as for a real permissions gap) are treated as "does not exist" —
// see SPEC_FULL.md's resolved open question on storage-head 403 handling.
func (s *S3Store) Head(ctx context.Context, key string) (bool, time.Time, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		if isNotFoundOrForbidden(err) {
			return false, time.Time{}, nil
		}
		return false, time.Time{}, fmt.Errorf("head %s: %w", key, err)
	}
	if out.LastModified == nil {
		return true, time.Time{}, nil
	}
	return true, *out.LastModified, nil
}

// PutMarkdown writes a Markdown report to key.
func (s *S3Store) PutMarkdown(ctx context.Context, key, body string) error {
	return s.put(ctx, key, []byte(body), "text/markdown; charset=utf-8")
}

// PutJSON writes a JSON analysis dump to key.
func (s *S3Store) PutJSON(ctx context.Context, key string, body []byte) error {
	return s.put(ctx, key, body, "application/json")
}

func (s *S3Store) put(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(s.objectKey(key)),
		Body:        strings.NewReader(string(body)),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func isNotFoundOrForbidden(err error) bool {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return true
	}
	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		code := respErr.HTTPStatusCode()
		return code == 404 || code == 403
	}
	return false
}
