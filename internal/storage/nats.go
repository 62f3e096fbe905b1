package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/dooshek/honey/internal/logger"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NATSStore keeps clips in a NATS JetStream object store bucket. The storage
// reference is the object name.
type NATSStore struct {
	conn   *nats.Conn
	bucket string
	store  nats.ObjectStore
}

// DialNATSStore connects to url and binds the bucket. The store owns the
// connection.
func DialNATSStore(url, bucket string) (*NATSStore, error) {
	if url == "" {
		url = nats.DefaultURL
	}

	conn, err := nats.Connect(url, nats.Name("honey"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to get JetStream context: %w", err)
	}

	s, err := NewNATSStore(js, bucket)
	if err != nil {
		conn.Close()
		return nil, err
	}
	s.conn = conn
	return s, nil
}

// NewNATSStore creates the bucket, or binds to it when it already exists.
func NewNATSStore(js nats.JetStreamContext, bucket string) (*NATSStore, error) {
	store, err := js.CreateObjectStore(&nats.ObjectStoreConfig{
		Bucket:      bucket,
		Description: "honey audio clips",
		Storage:     nats.FileStorage,
		Replicas:    1,
	})
	if err != nil {
		if !errors.Is(err, jetstream.ErrBucketExists) && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
			return nil, fmt.Errorf("failed to create object store bucket '%s': %w", bucket, err)
		}
		store, err = js.ObjectStore(bucket)
		if err != nil {
			return nil, fmt.Errorf("failed to bind to existing object store bucket '%s': %w", bucket, err)
		}
	}

	return &NATSStore{bucket: bucket, store: store}, nil
}

func (s *NATSStore) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := s.store.Put(&nats.ObjectMeta{
		Name:    key,
		Headers: nats.Header{"Content-Type": []string{contentType}},
	}, bytes.NewReader(data), nats.Context(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to put object '%s' to bucket '%s': %w", key, s.bucket, err)
	}

	logger.Debugf("Stored %d bytes as %s in NATS bucket %s", len(data), key, s.bucket)
	return key, nil
}

// Download returns the stored clip
func (s *NATSStore) Download(ctx context.Context, key string) ([]byte, error) {
	data, err := s.store.GetBytes(key, nats.Context(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to get object '%s' from bucket '%s': %w", key, s.bucket, err)
	}
	return data, nil
}

// Close drains the connection opened by DialNATSStore
func (s *NATSStore) Close() {
	if s.conn != nil {
		s.conn.Close()
	}
}
