// Package s3 implements a blob store on S3-compatible object storage using
// the AWS SDK v2. Path-style addressing and a custom endpoint make it work
// against MinIO, Hetzner and similar providers.
package s3

import (
	"bytes"
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

	"csvdataset/internal/blobstore"
)

func init() {
	blobstore.Register("s3", func(ctx context.Context, cfg blobstore.Config) (blobstore.Store, error) {
		return New(ctx, cfg, nil)
	})
}

// Store keeps blobs as objects in a single bucket.
type Store struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	prefix  string
	baseURL string
	expiry  time.Duration
}

// New builds a Store from cfg. httpClient may be nil to use the SDK default.
//
// Ref.URL is BaseURL joined with the key when BaseURL is set, a presigned GET
// URL when PresignExpiry is positive, and an s3:// URI otherwise.
//
// Without static keys, credentials come from the SDK default chain
// (environment, shared config files, then the instance or task role).
func New(ctx context.Context, cfg blobstore.Config, httpClient s3.HTTPClient) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 blobstore: bucket is required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	opts := s3.Options{
		Region:       region,
		UsePathStyle: true,
		// S3-compatible providers often reject the newer default checksums.
		RequestChecksumCalculation: aws.RequestChecksumCalculationWhenRequired,
		ResponseChecksumValidation: aws.ResponseChecksumValidationWhenRequired,
	}
	if cfg.AccessKeyID != "" {
		opts.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	} else {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
		if err != nil {
			return nil, fmt.Errorf("s3 blobstore: load default credentials: %w", err)
		}
		opts.Credentials = awsCfg.Credentials
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	if httpClient != nil {
		opts.HTTPClient = httpClient
	}
	client := s3.New(opts)
	return &Store{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
		prefix:  cfg.Prefix,
		baseURL: cfg.BaseURL,
		expiry:  cfg.PresignExpiry,
	}, nil
}

// Put uploads obj under a fresh key.
func (s *Store) Put(ctx context.Context, obj blobstore.Object) (blobstore.Ref, error) {
	key := blobstore.NewKey(s.prefix, obj.Name)
	in := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(obj.Data),
		ContentLength: aws.Int64(int64(len(obj.Data))),
	}
	if obj.ContentType != "" {
		in.ContentType = aws.String(obj.ContentType)
	}
	if _, err := s.client.PutObject(ctx, in); err != nil {
		return blobstore.Ref{}, fmt.Errorf("s3 put %s/%s: %w", s.bucket, key, err)
	}
	u, err := s.url(ctx, key)
	if err != nil {
		return blobstore.Ref{}, err
	}
	return blobstore.Ref{ID: key, URL: u}, nil
}

// Get downloads the object stored under id.
func (s *Store) Get(ctx context.Context, id string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(id),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, blobstore.ErrNotFound
		}
		return nil, fmt.Errorf("s3 get %s/%s: %w", s.bucket, id, err)
	}
	defer out.Body.Close()
	b, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("s3 read %s/%s: %w", s.bucket, id, err)
	}
	return b, nil
}

// Delete removes the object. S3 reports success for missing keys.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(id),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s/%s: %w", s.bucket, id, err)
	}
	return nil
}

func (s *Store) url(ctx context.Context, key string) (string, error) {
	switch {
	case s.baseURL != "":
		return blobstore.JoinURL(s.baseURL, key), nil
	case s.expiry > 0:
		req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		}, s3.WithPresignExpires(s.expiry))
		if err != nil {
			return "", fmt.Errorf("presign GetObject for %q: %w", key, err)
		}
		return req.URL, nil
	default:
		return "s3://" + s.bucket + "/" + key, nil
	}
}
