// Package storage issues presigned upload URLs for S3-compatible object
// stores (AWS S3, MinIO).
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/learnflex/learnflex-api/internal/config"
)

// ErrDisabled is returned when no bucket is configured.
var ErrDisabled = errors.New("object storage is not configured")

// PresignedUpload is a URL the client can PUT an object to.
type PresignedUpload struct {
	Key       string    `json:"key"`
	UploadURL string    `json:"upload_url"`
	PublicURL string    `json:"public_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// presignPutObject is a seam for tests.
var presignPutObject = func(
	pc *s3.PresignClient,
	ctx context.Context,
	in *s3.PutObjectInput,
	optFns ...func(*s3.PresignOptions),
) (*v4.PresignedHTTPRequest, error) {
	return pc.PresignPutObject(ctx, in, optFns...)
}

// headObject is a seam for tests.
var headObject = func(c *s3.Client, ctx context.Context, in *s3.HeadObjectInput) (*s3.HeadObjectOutput, error) {
	return c.HeadObject(ctx, in)
}

// S3Presigner signs PUT requests against one bucket and checks that the
// uploads arrived.
type S3Presigner struct {
	objects *s3.Client
	client  *s3.PresignClient
	cfg     config.StorageConfig
	expires time.Duration
	now     func() time.Time
}

// NewS3Presigner builds a presigner from cfg. Static credentials are used
// when both keys are set; otherwise the default AWS credential chain applies.
func NewS3Presigner(ctx context.Context, cfg config.StorageConfig) (*S3Presigner, error) {
	if !cfg.Enabled() {
		return nil, ErrDisabled
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Presigner{
		objects: client,
		client:  s3.NewPresignClient(client),
		cfg:     cfg,
		expires: time.Duration(cfg.PresignMinutes) * time.Minute,
		now:     time.Now,
	}, nil
}

// PresignPut returns a presigned PUT URL for key restricted to contentType.
func (p *S3Presigner) PresignPut(ctx context.Context, key, contentType string) (*PresignedUpload, error) {
	req, err := presignPutObject(p.client, ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.cfg.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(p.expires))
	if err != nil {
		return nil, fmt.Errorf("presign put %s: %w", key, err)
	}

	return &PresignedUpload{
		Key:       key,
		UploadURL: req.URL,
		PublicURL: p.PublicURL(key),
		ExpiresAt: p.now().UTC().Add(p.expires),
	}, nil
}

// ObjectExists reports whether key has been uploaded to the bucket.
func (p *S3Presigner) ObjectExists(ctx context.Context, key string) (bool, error) {
	_, err := headObject(p.objects, ctx, &s3.HeadObjectInput{
		Bucket: aws.String(p.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("head object %s: %w", key, err)
	}
	return true, nil
}

// PublicURL is where an uploaded object can be read. It uses
// public_base_url when set, else the endpoint or the AWS virtual host.
func (p *S3Presigner) PublicURL(key string) string {
	escaped := (&url.URL{Path: key}).EscapedPath()
	switch {
	case p.cfg.PublicBaseURL != "":
		return strings.TrimRight(p.cfg.PublicBaseURL, "/") + "/" + escaped
	case p.cfg.Endpoint != "":
		return strings.TrimRight(p.cfg.Endpoint, "/") + "/" + p.cfg.Bucket + "/" + escaped
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", p.cfg.Bucket, p.cfg.Region, escaped)
	}
}

// OwnsKey reports whether key lies under prefix, guarding confirmations of
// uploads made for another user.
func OwnsKey(key, prefix string) bool {
	return strings.HasPrefix(key, prefix) && !strings.Contains(key, "..")
}
