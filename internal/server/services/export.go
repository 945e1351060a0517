package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	sc "github.com/dmitrijs2005/passvault/internal/server/config"
	"github.com/google/uuid"
)

// ExportURLValidity is how long an export download link stays valid.
const ExportURLValidity = 15 * time.Minute

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

	exportNow = time.Now
)

// ExportResult points at an uploaded export.
type ExportResult struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Exporter uploads an export payload for an owner.
type Exporter interface {
	Export(ctx context.Context, ownerID string, payload []byte) (*ExportResult, error)
}

// S3Exporter stores exports in an S3-compatible bucket.
type S3Exporter struct {
	config *sc.Config
}

// NewS3Exporter returns nil when no bucket is configured.
func NewS3Exporter(cfg *sc.Config) *S3Exporter {
	if cfg.S3Bucket == "" {
		return nil
	}
	return &S3Exporter{config: cfg}
}

// ExportKey is the object key for an export taken at t.
func ExportKey(ownerID string, t time.Time) string {
	return fmt.Sprintf("exports/%s/%s-%v.json", ownerID, t.UTC().Format("20060102T150405Z"), uuid.New())
}

func (e *S3Exporter) getClients(ctx context.Context) (*s3.Client, *s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(e.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			e.config.S3RootUser,
			e.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if e.config.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(e.config.S3BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return client, newS3PresignClient(client), nil
}

func (e *S3Exporter) Export(ctx context.Context, ownerID string, payload []byte) (*ExportResult, error) {
	client, presignClient, err := e.getClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("s3 config: %w", err)
	}

	now := exportNow()
	bucket := e.config.S3Bucket
	key := ExportKey(ownerID, now)

	if _, err := putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
	}); err != nil {
		return nil, fmt.Errorf("s3 upload: %w", err)
	}

	// Presigned GET
	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(ExportURLValidity))
	if err != nil {
		return nil, fmt.Errorf("s3 presign: %w", err)
	}

	return &ExportResult{URL: req.URL, ExpiresAt: now.Add(ExportURLValidity)}, nil
}
