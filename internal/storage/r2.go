package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Youmto/SHAREMONEY/internal/config"
)

// Kind prefixes object keys so proofs, videos and tutorials land in separate
// folders.
type Kind string

const (
	KindProof     Kind = "proofs"
	KindVideo     Kind = "videos"
	KindHelpVideo Kind = "help"
)

// Upload is the stored-object handle. PublicID is what Delete wants back.
type Upload struct {
	URL      string
	PublicID string
}

// Client wraps Cloudflare R2 through the S3 API. A client built without R2
// credentials reports Configured() == false and the callers fall back to
// telegram file ids.
type Client struct {
	s3         *s3.Client
	bucket     string
	cdnBaseURL string
	log        *zap.SugaredLogger
}

func NewClient(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (*Client, error) {
	if cfg.R2AccountID == "" {
		log.Warn("R2 not configured, media uploads disabled")
		return &Client{log: log}, nil
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2AccountID)
	cdn := cfg.CDNBaseURL
	if cdn == "" {
		cdn = endpoint
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.R2AccessKeyID, cfg.R2AccessSecret, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("load R2 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})

	return &Client{
		s3:         client,
		bucket:     cfg.R2Bucket,
		cdnBaseURL: cdn,
		log:        log,
	}, nil
}

// Configured reports whether uploads are possible.
func (c *Client) Configured() bool {
	return c.s3 != nil
}

// Upload stores the object under a generated key and returns its public URL.
func (c *Client) Upload(ctx context.Context, data []byte, contentType string, kind Kind) (*Upload, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("media storage not configured")
	}

	key := fmt.Sprintf("%s/%s/%s", kind, time.Now().Format("2006-01"), uuid.NewString())

	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("upload to R2: %w", err)
	}

	c.log.Debugw("media uploaded", "key", key, "size", len(data))
	return &Upload{
		URL:      fmt.Sprintf("%s/%s", c.cdnBaseURL, key),
		PublicID: key,
	}, nil
}

// Delete removes a stored object by its public id.
func (c *Client) Delete(ctx context.Context, publicID string) error {
	if !c.Configured() {
		return nil
	}
	_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(publicID),
	})
	if err != nil {
		return fmt.Errorf("delete from R2: %w", err)
	}
	return nil
}
