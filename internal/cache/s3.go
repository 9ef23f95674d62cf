package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// renderedAtMeta holds the snapshot's render time with sub-second precision;
// purge requests compare against it.
const renderedAtMeta = "rendered-at"

// S3Store keeps page snapshots as objects under an optional key prefix so
// several portal deployments can share one bucket.
type S3Store struct {
	bucket   string
	prefix   string
	client   *s3.Client
	uploader *manager.Uploader
}

func NewS3Store(bucket, prefix string, client *s3.Client) *S3Store {
	return &S3Store{
		bucket:   bucket,
		prefix:   prefix,
		client:   client,
		uploader: manager.NewUploader(client),
	}
}

func (s *S3Store) location(key string) (*string, *string) {
	if s.prefix != "" {
		key = path.Join(s.prefix, key)
	}
	return aws.String(s.bucket), aws.String(key)
}

func (s *S3Store) Get(ctx context.Context, key string) (Object, error) {
	bucket, objKey := s.location(key)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: bucket, Key: objKey})
	if err != nil {
		return Object{}, s.wrap(key, err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return Object{}, fmt.Errorf("read snapshot %s: %w", key, err)
	}
	return Object{
		Body:        body,
		ContentType: aws.ToString(out.ContentType),
		Encoding:    aws.ToString(out.ContentEncoding),
		UpdatedAt:   renderedAt(out.Metadata, out.LastModified),
	}, nil
}

func (s *S3Store) UpdatedAt(ctx context.Context, key string) (time.Time, error) {
	bucket, objKey := s.location(key)
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: bucket, Key: objKey})
	if err != nil {
		return time.Time{}, s.wrap(key, err)
	}
	return renderedAt(out.Metadata, out.LastModified), nil
}

func (s *S3Store) Put(ctx context.Context, key string, obj Object) error {
	bucket, objKey := s.location(key)
	input := &s3.PutObjectInput{
		Bucket:       bucket,
		Key:          objKey,
		Body:         bytes.NewReader(obj.Body),
		ContentType:  aws.String(obj.ContentType),
		CacheControl: aws.String("no-cache"),
		Metadata:     map[string]string{},
	}
	if obj.Encoding != "" {
		input.ContentEncoding = aws.String(obj.Encoding)
	}
	if !obj.UpdatedAt.IsZero() {
		input.Metadata[renderedAtMeta] = obj.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}
	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return fmt.Errorf("upload snapshot %s: %w", key, err)
	}
	return nil
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	bucket, objKey := s.location(key)
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: bucket, Key: objKey})
	return err
}

func (s *S3Store) wrap(key string, err error) error {
	var noKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noKey) || errors.As(err, &notFound) {
		return ErrNotFound
	}
	return fmt.Errorf("snapshot %s: %w", key, err)
}

// renderedAt reads the render time from object metadata, falling back to
// the object's modification time for snapshots written without it.
func renderedAt(meta map[string]string, modified *time.Time) time.Time {
	if v, ok := meta[renderedAtMeta]; ok {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t
		}
	}
	return aws.ToTime(modified)
}
