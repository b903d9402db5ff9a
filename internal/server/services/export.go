package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/afterlog/internal/clockx"
	"github.com/dmitrijs2005/afterlog/internal/models"
	sc "github.com/dmitrijs2005/afterlog/internal/server/config"
	"github.com/dmitrijs2005/afterlog/internal/server/repositories/repomanager"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// Archive is the JSON document uploaded by Export.
type Archive struct {
	ExportedAt     string          `json:"exported_at"`
	UserID         string          `json:"user_id"`
	JournalEntries []models.Record `json:"journal_entries"`
	Todos          []models.Record `json:"todos"`
}

// ExportResult points at an uploaded archive.
type ExportResult struct {
	URL       string
	Key       string
	Entries   int
	Todos     int
	ExpiresAt time.Time
}

// ExportService snapshots a user's journal and todos into S3-compatible
// object storage and hands out a presigned download link.
type ExportService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
	clock       clockx.Clock
}

func NewExportService(db *sql.DB, repomanager repomanager.RepositoryManager, config *sc.Config) *ExportService {
	return &ExportService{
		db:          db,
		repomanager: repomanager,
		config:      config,
		clock:       clockx.Real{},
	}
}

// ExportStorageKey returns a fresh object key under the user's prefix.
func ExportStorageKey(userID string, d time.Time) string {
	return fmt.Sprintf("exports/%s/%d/%02d/%02d/%v.json", userID, d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *ExportService) getS3Client() (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
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

// BuildArchive collects every journal entry and todo of userID.
func (s *ExportService) BuildArchive(ctx context.Context, userID string) (*Archive, error) {
	repo := s.repomanager.Records(s.db)

	entries, err := repo.Query(ctx, models.From(models.CollectionJournal).
		Where(models.Eq(models.ColOwnerID, userID)).
		OrderBy(models.ColEntryDate, false).
		OrderBy(models.ColCreatedAt, false))
	if err != nil {
		return nil, fmt.Errorf("error reading journal: %w", err)
	}

	todos, err := repo.Query(ctx, models.From(models.CollectionTodos).
		Where(models.Eq(models.ColOwnerID, userID)).
		OrderBy(models.ColCreatedAt, false))
	if err != nil {
		return nil, fmt.Errorf("error reading todos: %w", err)
	}

	return &Archive{
		ExportedAt:     models.FormatTime(s.clock.Now()),
		UserID:         userID,
		JournalEntries: entries,
		Todos:          todos,
	}, nil
}

// Export uploads the archive of userID and returns a presigned GET URL.
func (s *ExportService) Export(ctx context.Context, userID string) (*ExportResult, error) {
	archive, err := s.BuildArchive(ctx, userID)
	if err != nil {
		return nil, err
	}
	body, err := json.MarshalIndent(archive, "", "  ")
	if err != nil {
		return nil, err
	}

	client, err := s.getS3Client()
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	bucket := s.config.S3Bucket
	key := ExportStorageKey(userID, now)

	if _, err := putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	}); err != nil {
		return nil, fmt.Errorf("error uploading export: %w", err)
	}

	validity := s.config.ExportLinkValidityDuration
	req, err := presignGetObject(newS3PresignClient(client), ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(validity))
	if err != nil {
		return nil, fmt.Errorf("error signing export link: %w", err)
	}

	return &ExportResult{
		URL:       req.URL,
		Key:       key,
		Entries:   len(archive.JournalEntries),
		Todos:     len(archive.Todos),
		ExpiresAt: now.Add(validity),
	}, nil
}
