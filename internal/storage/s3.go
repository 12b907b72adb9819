package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
)

// S3Config holds settings for the S3 blob backend.
type S3Config struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// S3Storage implements BlobStorage on an S3-compatible object store.
type S3Storage struct {
	client *s3.Client
	bucket string
	logger zerolog.Logger
}

// NewS3Storage creates an S3 blob store.
func NewS3Storage(ctx context.Context, cfg S3Config, logger zerolog.Logger) (*S3Storage, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}

	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load S3 configuration: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &S3Storage{
		client: client,
		bucket: cfg.Bucket,
		logger: logger.With().Str("component", "s3-storage").Logger(),
	}, nil
}

// Store uploads blob content. Existing objects are overwritten with
// identical content, which is harmless.
func (s *S3Storage) Store(ctx context.Context, contentHash string, r io.Reader, size int64) error {
	key, err := blobKey(contentHash)
	if err != nil {
		return err
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   r,
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("failed to store blob: %w", err)
	}

	s.logger.Debug().
		Str("content_hash", contentHash).
		Int64("size", size).
		Msg("Blob stored")

	return nil
}

// Open returns a reader for the blob content.
func (s *S3Storage) Open(ctx context.Context, contentHash string) (io.ReadCloser, error) {
	key, err := blobKey(contentHash)
	if err != nil {
		return nil, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, ErrBlobNotFound
		}
		return nil, fmt.Errorf("failed to open blob: %w", err)
	}

	return out.Body, nil
}

// Exists checks whether a blob exists.
func (s *S3Storage) Exists(ctx context.Context, contentHash string) (bool, error) {
	key, err := blobKey(contentHash)
	if err != nil {
		return false, err
	}

	_, err = s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat blob: %w", err)
	}

	return true, nil
}

// Delete removes a blob. S3 DeleteObject is a no-op for missing keys.
func (s *S3Storage) Delete(ctx context.Context, contentHash string) error {
	key, err := blobKey(contentHash)
	if err != nil {
		return err
	}

	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("failed to delete blob: %w", err)
	}

	return nil
}

// List walks all stored blobs using paginated listing.
func (s *S3Storage) List(ctx context.Context, fn func(info BlobInfo) error) error {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String("blobs/"),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("failed to list blobs: %w", err)
		}

		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			hash := hashFromKey(key)
			if hash == "" {
				continue
			}

			var modTime time.Time
			if obj.LastModified != nil {
				modTime = *obj.LastModified
			}

			if err := fn(BlobInfo{
				ContentHash: hash,
				Size:        aws.ToInt64(obj.Size),
				ModTime:     modTime,
			}); err != nil {
				return err
			}
		}
	}

	return nil
}

// hashFromKey extracts the content hash from a blob object key.
// Returns "" for keys that are not blob objects.
func hashFromKey(key string) string {
	// Key layout: blobs/ab/cd/<hash>
	if len(key) < len("blobs/ab/cd/")+64 {
		return ""
	}
	hash := key[len(key)-64:]
	expected, err := blobKey(hash)
	if err != nil || expected != key {
		return ""
	}
	return hash
}

func isNoSuchKey(err error) bool {
	var noSuchKey *types.NoSuchKey
	return errors.As(err, &noSuchKey)
}

func isNotFound(err error) bool {
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	return isNoSuchKey(err)
}

// Ensure S3Storage implements BlobStorage.
var _ BlobStorage = (*S3Storage)(nil)
