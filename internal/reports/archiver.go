// Package reports archives batch run summaries to object storage so the
// scheduled runs leave a durable audit trail.
package reports

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"labequip_backend/internal/events"
	"labequip_backend/platform/config"
	"labequip_backend/platform/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Archiver writes one JSON object per completed batch run.
type Archiver struct {
	client *minio.Client
	bucket string
	log    *logger.Logger
}

// NewArchiver creates an archiver from the MinIO configuration.
func NewArchiver(cfg config.ReportConfig, log *logger.Logger) (*Archiver, error) {
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

	return &Archiver{
		client: client,
		bucket: cfg.GetMinioBucketRunReports(),
		log:    log,
	}, nil
}

// EnsureBucketExists creates the report bucket if it doesn't exist.
func (a *Archiver) EnsureBucketExists(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", a.bucket, err)
		}
	}

	return nil
}

// RegisterHandlers subscribes the archiver to completed batch runs.
func (a *Archiver) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.BatchRunCompleted{}.EventName(), events.HandlerFunc(
		func(ctx context.Context, event events.Event) error {
			completed, ok := event.(events.BatchRunCompleted)
			if !ok {
				return nil
			}
			if err := a.Archive(ctx, completed); err != nil {
				a.log.Error("failed to archive run report", "error", err,
					"run_id", completed.RunID, "family", completed.Family)
				return err
			}
			return nil
		}))
}

// Archive writes the run summary under runs/<family>/<runID>.json.
func (a *Archiver) Archive(ctx context.Context, completed events.BatchRunCompleted) error {
	data, err := json.MarshalIndent(completed, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run report: %w", err)
	}

	key := fmt.Sprintf("runs/%s/%s.json", completed.Family, completed.RunID)
	_, err = a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("failed to upload run report %s: %w", key, err)
	}

	a.log.Info("run report archived", "bucket", a.bucket, "key", key)
	return nil
}
