package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/bkjournal/internal/logging"
	sc "github.com/dmitrijs2005/bkjournal/internal/server/config"
	"github.com/dmitrijs2005/bkjournal/internal/server/models"
	"github.com/dmitrijs2005/bkjournal/internal/server/repositories/repomanager"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// objectPutter is the part of *s3.Client the backup needs.
type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) objectPutter {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// BackupService exports journal envelopes, soft-deleted ones included, to an
// S3-compatible bucket. The export is ciphertext only; it never holds a key.
type BackupService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
	logger      logging.Logger

	now func() time.Time
}

func NewBackupService(db *sql.DB, repomanager repomanager.RepositoryManager, config *sc.Config, logger logging.Logger) *BackupService {
	return &BackupService{
		db:          db,
		repomanager: repomanager,
		config:      config,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// GetBackupStorageKey returns backups/YYYY/MM/DD/<uuid>.json for t.
func GetBackupStorageKey(t time.Time) string {
	return fmt.Sprintf("backups/%04d/%02d/%02d/%v.json", t.Year(), t.Month(), t.Day(), uuid.New())
}

func (s *BackupService) getClient(ctx context.Context) (objectPutter, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}

// Export uploads a manifest of every stored envelope and returns its object
// key and the number of journals it holds.
func (s *BackupService) Export(ctx context.Context) (string, int, error) {
	recs, err := s.repomanager.Journals(s.db).SelectAllEnvelopes(ctx)
	if err != nil {
		return "", 0, fmt.Errorf("error reading envelopes: %w", err)
	}

	now := s.now()
	manifest := models.BackupManifest{
		GeneratedAt: now,
		Count:       len(recs),
		Journals:    make([]models.EnvelopeSnapshot, 0, len(recs)),
	}
	for _, r := range recs {
		manifest.Journals = append(manifest.Journals, models.EnvelopeSnapshot{
			ID:               r.ID,
			StudentID:        r.StudentID,
			CounselorID:      r.CounselorID,
			SessionDate:      r.SessionDate.Format(time.DateOnly),
			EncryptedContent: r.Envelope.Ciphertext,
			EncryptionIV:     r.Envelope.IV,
			EncryptionTag:    r.Envelope.Tag,
			CreatedAt:        r.CreatedAt,
			UpdatedAt:        r.UpdatedAt,
			DeletedAt:        r.DeletedAt,
		})
	}

	body, err := json.Marshal(manifest)
	if err != nil {
		return "", 0, fmt.Errorf("error encoding manifest: %w", err)
	}

	client, err := s.getClient(ctx)
	if err != nil {
		return "", 0, fmt.Errorf("error creating s3 client: %w", err)
	}

	bucket := s.config.S3Bucket
	key := GetBackupStorageKey(now)

	if _, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	}); err != nil {
		return "", 0, fmt.Errorf("error uploading backup: %w", err)
	}

	s.logger.Info(ctx, "journal backup uploaded", "bucket", bucket, "key", key, "count", len(recs))

	return key, len(recs), nil
}
