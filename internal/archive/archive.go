// Package archive persists qualified lead packets to S3-compatible
// object storage for audit and CRM import.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"leadtriage_backend/platform/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// DownloadURLTTL is the expiration time for presigned packet links.
const DownloadURLTTL = 15 * time.Minute

// Store writes lead packets to a MinIO bucket.
type Store struct {
	client *minio.Client
	bucket string
}

// NewStore creates a MinIO-backed packet store.
func NewStore(cfg config.MinIOConfig) (*Store, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, fmt.Errorf("MinIO is not configured")
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &Store{
		client: client,
		bucket: cfg.GetMinioBucketLeadArchives(),
	}, nil
}

// EnsureBucketExists creates the archive bucket if it doesn't exist.
func (s *Store) EnsureBucketExists(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
		}
	}

	return nil
}

// StorePacket serializes the packet as JSON and uploads it. The object
// key groups packets by session so repeated handoffs stay adjacent.
func (s *Store) StorePacket(ctx context.Context, sessionID, leadID string, packet any) (string, error) {
	data, err := json.MarshalIndent(packet, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize lead packet: %w", err)
	}

	objectKey := fmt.Sprintf("sessions/%s/%s.json", sessionID, leadID)
	_, err = s.client.PutObject(ctx, s.bucket, objectKey, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload lead packet %s: %w", objectKey, err)
	}

	return objectKey, nil
}

// DownloadURL creates a presigned link to a stored packet.
func (s *Store) DownloadURL(ctx context.Context, objectKey string) (string, error) {
	reqParams := make(url.Values)
	presignedURL, err := s.client.PresignedGetObject(ctx, s.bucket, objectKey, DownloadURLTTL, reqParams)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned download URL: %w", err)
	}
	return presignedURL.String(), nil
}
