// internal/common/storage/s3.go
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"advisor-workers/internal/common/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the subset of the S3 client the store needs, defined for mocking.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ObjectStore reads and writes session blobs (chat transcripts, consultation
// results) in a single bucket. Keys follow the original layout:
// chats/<sessionId>.json and results/<sessionId>.json.
type ObjectStore struct {
	client S3API
	bucket string
}

func NewObjectStore(ctx context.Context, cfg config.S3Config) (*ObjectStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &ObjectStore{client: client, bucket: cfg.Bucket}, nil
}

// NewObjectStoreWithClient wires an explicit client, used by tests.
func NewObjectStoreWithClient(client S3API, bucket string) *ObjectStore {
	return &ObjectStore{client: client, bucket: bucket}
}

func (s *ObjectStore) chatKey(sessionID string) string {
	return fmt.Sprintf("chats/%s.json", sessionID)
}

func (s *ObjectStore) resultKey(sessionID string) string {
	return fmt.Sprintf("results/%s.json", sessionID)
}

// GetChat fetches the raw chat transcript for a session.
func (s *ObjectStore) GetChat(ctx context.Context, sessionID string) ([]byte, error) {
	return s.get(ctx, s.chatKey(sessionID))
}

// PutChat stores the serialized chat transcript for a session.
func (s *ObjectStore) PutChat(ctx context.Context, sessionID string, body []byte) error {
	return s.put(ctx, s.chatKey(sessionID), body)
}

// GetResult fetches the stored consultation result for a session.
func (s *ObjectStore) GetResult(ctx context.Context, sessionID string) ([]byte, error) {
	return s.get(ctx, s.resultKey(sessionID))
}

// PutResult stores the serialized consultation result for a session.
func (s *ObjectStore) PutResult(ctx context.Context, sessionID string, body []byte) error {
	return s.put(ctx, s.resultKey(sessionID), body)
}

func (s *ObjectStore) get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	return data, nil
}

func (s *ObjectStore) put(ctx context.Context, key string, body []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}
