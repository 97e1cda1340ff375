// Package media wraps the hosted-media subsystem: an external object-store
// host plus the guard that gates every mutation behind admin credentials and
// file policy. Records live in the content store; assets live on the host.
package media

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// Host is the contract the guard expects from the external media host.
// Upload returns the public URL for the stored object. Delete is treated as
// idempotent-ish and best-effort by callers: a failed delete is logged, not
// fatal.
type Host interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (url string, err error)
	Delete(ctx context.Context, key string) error
}

// S3Host implements Host over an S3 bucket.
type S3Host struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

// NewS3Host creates an S3Host. baseURL is the public URL prefix for objects;
// when empty, the standard virtual-hosted bucket URL is used.
func NewS3Host(client *s3.Client, bucket, baseURL string) *S3Host {
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.amazonaws.com", bucket)
	}
	return &S3Host{client: client, bucket: bucket, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// Upload stores the object and returns its public URL.
func (h *S3Host) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	_, err := h.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(h.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s to media host: %w", key, err)
	}

	log.Info().Str("key", key).Str("bucket", h.bucket).Msg("Asset uploaded to media host")
	return h.baseURL + "/" + key, nil
}

// Delete removes the object. S3 DeleteObject succeeds for absent keys, which
// matches the idempotent-ish contract.
func (h *S3Host) Delete(ctx context.Context, key string) error {
	_, err := h.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(h.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete %s from media host: %w", key, err)
	}
	return nil
}
