package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// s3DeleteBatch is the most keys one DeleteObjects call accepts.
const s3DeleteBatch = 1000

// S3Storage keeps every path as an object under prefix in one bucket.
type S3Storage struct {
	client *s3.Client
	bucket string
	prefix string
}

type S3Option func(*s3.Options)

// WithS3Endpoint points the client at an S3-compatible service such as
// MinIO, which needs path-style addressing.
func WithS3Endpoint(endpoint string) S3Option {
	return func(o *s3.Options) {
		if endpoint == "" {
			return
		}
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	}
}

func NewS3Storage(ctx context.Context, bucket, prefix, region string, opts ...S3Option) (*S3Storage, error) {
	if bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	clientOpts := make([]func(*s3.Options), len(opts))
	for i, o := range opts {
		clientOpts[i] = o
	}
	return &S3Storage{
		client: s3.NewFromConfig(cfg, clientOpts...),
		bucket: bucket,
		prefix: strings.TrimSuffix(prefix, "/") + "/",
	}, nil
}

func (s *S3Storage) key(path string) string {
	return s.prefix + strings.TrimPrefix(path, "/")
}

func (s *S3Storage) url(path string) string {
	return "s3://" + s.bucket + "/" + s.key(path)
}

func (s *S3Storage) Read(ctx context.Context, path string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(path)),
	})
	if isNotFound(err) {
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.url(path), err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body of %s: %w", s.url(path), err)
	}
	return data, nil
}

func (s *S3Storage) Write(ctx context.Context, path string, data []byte) error {
	if _, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(path)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/yaml"),
	}); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.url(path), err)
	}
	return nil
}

// Delete reports ErrNotFound like the other backends, which costs a HEAD
// because S3 deletes of missing keys succeed.
func (s *S3Storage) Delete(ctx context.Context, path string) error {
	ok, err := s.Exists(ctx, path)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(path)),
	}); err != nil {
		return fmt.Errorf("failed to delete %s: %w", s.url(path), err)
	}
	return nil
}

// List returns the objects directly under prefix; the "/" delimiter keeps
// deeper keys out.
func (s *S3Storage) List(ctx context.Context, prefix string) ([]string, error) {
	dir := strings.TrimSuffix(s.key(prefix), "/") + "/"
	var paths []string
	pages := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(dir),
		Delimiter: aws.String("/"),
	})
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list s3://%s/%s: %w", s.bucket, dir, err)
		}
		for _, obj := range page.Contents {
			paths = append(paths, strings.TrimPrefix(aws.ToString(obj.Key), s.prefix))
		}
	}
	return paths, nil
}

func (s *S3Storage) Exists(ctx context.Context, path string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(path)),
	})
	switch {
	case isNotFound(err):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("failed to check existence of %s: %w", s.url(path), err)
	}
	return true, nil
}

// Apply writes first, then removes the deleted keys in DeleteObjects
// batches. S3 has no multi-object transaction, so a failure part-way leaves
// the earlier ops applied.
func (s *S3Storage) Apply(ctx context.Context, ops []Op) error {
	var deletes []types.ObjectIdentifier
	for _, op := range ops {
		switch op.Kind {
		case OpWrite:
			if err := s.Write(ctx, op.Path, op.Data); err != nil {
				return err
			}
		case OpDelete:
			deletes = append(deletes, types.ObjectIdentifier{Key: aws.String(s.key(op.Path))})
		}
	}
	for len(deletes) > 0 {
		n := min(len(deletes), s3DeleteBatch)
		out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{Objects: deletes[:n], Quiet: aws.Bool(true)},
		})
		if err != nil {
			return fmt.Errorf("failed to delete %d objects from s3://%s: %w", n, s.bucket, err)
		}
		if len(out.Errors) > 0 {
			e := out.Errors[0]
			return fmt.Errorf("failed to delete s3://%s/%s: %s", s.bucket, aws.ToString(e.Key), aws.ToString(e.Message))
		}
		deletes = deletes[n:]
	}
	return nil
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var nsk *types.NoSuchKey
	var nf *types.NotFound
	return errors.As(err, &nsk) || errors.As(err, &nf)
}
