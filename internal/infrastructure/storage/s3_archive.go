package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	"github.com/invoicing/backend/internal/infrastructure/config"
)

const (
	defaultS3Region       = "us-east-1"
	defaultPresignExpires = 15 * time.Minute
)

var _ PDFArchive = (*S3PDFArchive)(nil)

// objectAPI is the part of *s3.Client the archive calls
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, in *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

// S3PDFArchive keeps invoice PDFs in an S3-compatible bucket (AWS, MinIO,
// RustFS) and serves them through presigned GET URLs
type S3PDFArchive struct {
	objects objectAPI
	presign func(ctx context.Context, in *s3.GetObjectInput, expires time.Duration) (string, error)
	bucket  string
	expires time.Duration
	log     *zap.Logger
}

// NewS3PDFArchive builds the archive from the storage section of the config
func NewS3PDFArchive(ctx context.Context, cfg *config.StorageConfig, log *zap.Logger) (*S3PDFArchive, error) {
	if cfg == nil || cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, errors.New("storage credentials are required")
	}
	endpoint, err := resolveEndpoint(cfg.Endpoint, cfg.UseSSL)
	if err != nil {
		return nil, err
	}

	region := cfg.Region
	if region == "" {
		region = defaultS3Region
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load S3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = cfg.UsePathStyle
	})
	presigner := s3.NewPresignClient(client)

	return newS3PDFArchive(client, func(ctx context.Context, in *s3.GetObjectInput, expires time.Duration) (string, error) {
		req, err := presigner.PresignGetObject(ctx, in, s3.WithPresignExpires(expires))
		if err != nil {
			return "", err
		}
		return req.URL, nil
	}, cfg.Bucket, cfg.PresignExpiration, log), nil
}

func newS3PDFArchive(
	objects objectAPI,
	presign func(context.Context, *s3.GetObjectInput, time.Duration) (string, error),
	bucket string,
	expires time.Duration,
	log *zap.Logger,
) *S3PDFArchive {
	if log == nil {
		log = zap.NewNop()
	}
	if expires <= 0 {
		expires = defaultPresignExpires
	}
	return &S3PDFArchive{
		objects: objects,
		presign: presign,
		bucket:  bucket,
		expires: expires,
		log:     log.Named("s3-archive"),
	}
}

// resolveEndpoint adds a scheme to bare host:port endpoints. An empty
// endpoint means a local MinIO.
func resolveEndpoint(endpoint string, useSSL bool) (string, error) {
	if endpoint == "" {
		endpoint = "localhost:9000"
	}
	if !strings.Contains(endpoint, "://") {
		scheme := "http://"
		if useSSL {
			scheme = "https://"
		}
		endpoint = scheme + endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid storage endpoint %q", endpoint)
	}
	return endpoint, nil
}

// EnsureBucket creates the bucket when it does not exist yet
func (a *S3PDFArchive) EnsureBucket(ctx context.Context) error {
	_, err := a.objects.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(a.bucket)})
	if err == nil {
		return nil
	}
	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket %s: %w", a.bucket, err)
	}

	a.log.Info("Creating archive bucket", zap.String("bucket", a.bucket))
	_, err = a.objects.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(a.bucket)})
	var owned *types.BucketAlreadyOwnedByYou
	if err != nil && !errors.As(err, &owned) {
		return fmt.Errorf("failed to create bucket %s: %w", a.bucket, err)
	}
	return nil
}

// Store uploads pdf under key
func (a *S3PDFArchive) Store(ctx context.Context, key string, pdf []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	_, err := a.objects.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(pdf),
		ContentLength: aws.Int64(int64(len(pdf))),
		ContentType:   aws.String(PDFContentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	a.log.Debug("Archived invoice PDF", zap.String("key", key), zap.Int("bytes", len(pdf)))
	return nil
}

// DownloadURL presigns a GET for key that expires after the configured
// presign window
func (a *S3PDFArchive) DownloadURL(ctx context.Context, key string) (string, time.Time, error) {
	if err := validateKey(key); err != nil {
		return "", time.Time{}, err
	}
	expiresAt := time.Now().Add(a.expires)
	u, err := a.presign(ctx, &s3.GetObjectInput{
		Bucket:                     aws.String(a.bucket),
		Key:                        aws.String(key),
		ResponseContentType:        aws.String(PDFContentType),
		ResponseContentDisposition: aws.String("attachment"),
	}, a.expires)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to presign %s: %w", key, err)
	}
	return u, expiresAt, nil
}

// Exists issues a HEAD for key. Some S3-compatible stores answer a missing
// object with a bare 404 instead of NotFound.
func (a *S3PDFArchive) Exists(ctx context.Context, key string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}
	_, err := a.objects.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return false, nil
	}
	var status interface{ HTTPStatusCode() int }
	if errors.As(err, &status) && status.HTTPStatusCode() == http.StatusNotFound {
		return false, nil
	}
	return false, fmt.Errorf("failed to check %s: %w", key, err)
}
