package s3

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/storiqateam/stq-orders/pkg/config"
	"github.com/storiqateam/stq-orders/pkg/errors"
	"github.com/storiqateam/stq-orders/pkg/logger"
)

const pingTimeout = 5 * time.Second

// Uploader stores report artifacts in object storage.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, body []byte) (string, error)
}

// objectAPI is the slice of the AWS S3 client the uploader needs.
type objectAPI interface {
	PutObject(ctx context.Context, in *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, in *awss3.HeadBucketInput, optFns ...func(*awss3.Options)) (*awss3.HeadBucketOutput, error)
}

// Client uploads objects to a single configured bucket.
type Client struct {
	api    objectAPI
	bucket string
	region string
	acl    string
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// NewClient builds an uploader for cfg's bucket using static credentials.
func NewClient(ctx context.Context, cfg config.S3Config, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	if strings.TrimSpace(cfg.Region) == "" {
		return nil, fmt.Errorf("s3 region is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.Key != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.Key, cfg.Secret, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := &Client{
		api:    awss3.NewFromConfig(awsCfg),
		bucket: cfg.Bucket,
		region: cfg.Region,
		acl:    cfg.ACL,
	}

	if logg != nil {
		logg.Info(ctx, "s3 client initialized")
	}

	return client, nil
}

// Upload writes body under key and returns the object URL.
func (c *Client) Upload(ctx context.Context, key, contentType string, body []byte) (string, error) {
	if c == nil || c.api == nil {
		return "", errors.New(errors.CodeInternal, "s3 client not initialized")
	}
	if strings.TrimSpace(key) == "" {
		return "", errors.New(errors.CodeValidation, "object key is required")
	}

	input := &awss3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	}
	if c.acl != "" {
		input.ACL = s3types.ObjectCannedACL(c.acl)
	}

	if _, err := c.api.PutObject(ctx, input); err != nil {
		return "", errors.Wrap(errors.CodeExternal, err, "upload object").WithDetails(map[string]any{
			"bucket": c.bucket,
			"key":    key,
		})
	}
	return c.ObjectURL(key), nil
}

// ObjectURL returns the public https URL for key in the configured bucket.
func (c *Client) ObjectURL(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.bucket, c.region, key)
}

// Ping verifies the bucket is reachable with the configured credentials.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.api == nil {
		return errors.New(errors.CodeInternal, "s3 client not initialized")
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if _, err := c.api.HeadBucket(ctx, &awss3.HeadBucketInput{Bucket: aws.String(c.bucket)}); err != nil {
		return errors.Wrap(errors.CodeConnection, err, "s3 bucket unreachable")
	}
	return nil
}
