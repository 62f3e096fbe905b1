// Package storage uploads synthesized clips and returns the reference that
// is recorded in the generation log.
package storage

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/dooshek/honey/internal/types"
	"github.com/google/uuid"
)

// AudioStore stores one clip under key and returns its storage reference
type AudioStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// ObjectKey returns "<prefix>/<uuid><ext>"
func ObjectKey(prefix, ext string) string {
	name := uuid.NewString() + ext
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

// New builds the audio store named in config. The returned close function
// releases connections and is never nil.
func New(ctx context.Context, config types.StorageConfig, creds types.Credentials, localDir string) (AudioStore, func(), error) {
	switch types.StorageBackend(config.Backend) {
	case types.StorageS3:
		s, err := NewS3Store(creds.AWSAccessKeyID, creds.AWSSecretAccessKey, creds.AWSRegion, creds.S3Bucket)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil

	case types.StorageNATS:
		s, err := DialNATSStore(creds.NATSURL, config.NATSBucket)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil

	case types.StorageLocal:
		dir := config.LocalDir
		if dir == "" {
			dir = localDir
		}
		return NewLocalStore(dir), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unsupported storage backend: %s (supported: s3, nats, local)", config.Backend)
	}
}
