// Package blob stages oversized call segments in object storage.
// Segments above the frame size a deployment is willing to ship inline
// are uploaded to S3 and referenced from the call header by key; the
// platform fetches them from the bucket.
package blob

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// Store errors.
var (
	ErrTooLarge = errors.New("blob: segment exceeds maximum size")
	ErrNotFound = errors.New("blob: no such segment")
)

// api is the slice of the S3 client the store uses. The concrete
// *s3.Client satisfies it; tests substitute a fake.
type api interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Store persists segments in one bucket under a key prefix.
type Store struct {
	client  api
	bucket  string
	prefix  string
	maxSize int64
}

// NewStore creates a segment store.
//
//	s3Client := s3.New(s3.Options{Region: "us-east-1"})
//	store := blob.NewStore(s3Client, "tensorgrid-segments", "staging/", 1<<30)
//
// maxSize of 0 means no limit.
func NewStore(client *s3.Client, bucket, prefix string, maxSize int64) *Store {
	return newStore(client, bucket, prefix, maxSize)
}

func newStore(client api, bucket, prefix string, maxSize int64) *Store {
	return &Store{
		client:  client,
		bucket:  bucket,
		prefix:  prefix,
		maxSize: maxSize,
	}
}

// Put stages a segment and returns its key. The key is random; staging
// the same bytes twice yields two objects.
func (s *Store) Put(ctx context.Context, r io.Reader) (string, error) {
	var buf bytes.Buffer
	if s.maxSize > 0 {
		n, err := io.Copy(&buf, io.LimitReader(r, s.maxSize+1))
		if err != nil {
			return "", fmt.Errorf("blob: read segment: %w", err)
		}
		if n > s.maxSize {
			return "", ErrTooLarge
		}
	} else {
		if _, err := io.Copy(&buf, r); err != nil {
			return "", fmt.Errorf("blob: read segment: %w", err)
		}
	}

	key := s.newKey()
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.prefix + key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/octet-stream"),
		Metadata: map[string]string{
			"staged-at": time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return "", fmt.Errorf("blob: put: %w", err)
	}
	return key, nil
}

// Get fetches a staged segment.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.prefix + key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("blob: get: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("blob: read body: %w", err)
	}
	return data, nil
}

// Delete removes a staged segment. Deleting an absent key is not an
// error.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.prefix + key),
	})
	if err != nil {
		return fmt.Errorf("blob: delete: %w", err)
	}
	return nil
}

// newKey generates a random hex segment key.
func (s *Store) newKey() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("blob: rand failed: %v", err))
	}
	return hex.EncodeToString(b)
}
