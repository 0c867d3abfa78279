package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/fundconnector/internal/common"
	"github.com/dmitrijs2005/fundconnector/internal/logging"
	"github.com/dmitrijs2005/fundconnector/internal/server/config"
	"github.com/dmitrijs2005/fundconnector/internal/server/models"
	"github.com/dmitrijs2005/fundconnector/internal/server/repositories/repomanager"
)

const presignExpiry = 15 * time.Minute

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// DocumentService hands out presigned object storage URLs for fund pitch
// decks. Files never pass through the server.
type DocumentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *config.Config
	logger      logging.Logger
	now         func() time.Time
}

func NewDocumentService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger) *DocumentService {
	return &DocumentService{
		db:          db,
		repomanager: m,
		config:      cfg,
		logger:      logger.With("module", "documents"),
		now:         time.Now,
	}
}

// DeckKey returns a fresh storage key for a fund's deck.
func DeckKey(accountID string) string {
	return fmt.Sprintf("decks/%s/%s.pdf", accountID, uuid.New())
}

func (s *DocumentService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(s.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return newS3PresignClient(client), nil
}

// DeckUploadURL records a new deck key on the caller's fund profile and
// returns it with a presigned PUT URL.
func (s *DocumentService) DeckUploadURL(ctx context.Context, account *models.Account) (string, string, error) {
	if account.Status != models.StatusApproved {
		return "", "", common.ErrNotApproved
	}
	if account.Role != models.RoleFund {
		return "", "", common.ErrForbidden
	}

	pc, err := s.getPresignClient(ctx)
	if err != nil {
		return "", "", fmt.Errorf("error creating presign client: %w", err)
	}

	bucket := s.config.S3Bucket
	key := DeckKey(account.ID)
	contentType := "application/pdf"

	req, err := presignPutObject(pc, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		ContentType: &contentType,
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", "", fmt.Errorf("error presigning upload: %w", err)
	}

	now := s.now()
	repo := s.repomanager.Profiles(s.db)
	if err := repo.SetDeckKey(ctx, account.ID, key, now); err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			return "", "", fmt.Errorf("error saving deck key: %w", err)
		}
		p := models.NewFundProfile(account.ID)
		p.ContactEmail = account.Email
		if err := repo.EnsureFund(ctx, p, now); err != nil {
			return "", "", fmt.Errorf("error provisioning profile: %w", err)
		}
		if err := repo.SetDeckKey(ctx, account.ID, key, now); err != nil {
			return "", "", fmt.Errorf("error saving deck key: %w", err)
		}
	}

	s.logger.Info(ctx, "deck upload url issued", "account_id", account.ID, "key", key)
	return key, req.URL, nil
}

// DeckDownloadURL returns a presigned GET URL for the deck of a listed fund.
// Funds that are not in the directory, or have no deck, are not found.
func (s *DocumentService) DeckDownloadURL(ctx context.Context, fundProfileID string) (string, error) {
	if _, err := uuid.Parse(fundProfileID); err != nil {
		return "", common.ErrorNotFound
	}

	fund, err := s.repomanager.Profiles(s.db).FindListedFund(ctx, fundProfileID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", err
		}
		return "", fmt.Errorf("error loading fund: %w", err)
	}
	if fund.DeckKey == "" {
		return "", common.ErrorNotFound
	}

	pc, err := s.getPresignClient(ctx)
	if err != nil {
		return "", fmt.Errorf("error creating presign client: %w", err)
	}

	bucket := s.config.S3Bucket
	key := fund.DeckKey
	req, err := presignGetObject(pc, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", fmt.Errorf("error presigning download: %w", err)
	}

	return req.URL, nil
}
