package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/m1stadev/ios-beta-api/internal/model"
	"github.com/m1stadev/ios-beta-api/internal/utils"
)

// S3Client is the subset of the AWS S3 client used by the store,
// mockable for testing.
type S3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Config struct {
	Bucket          string
	Key             string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// S3Store publishes the catalog document as a single S3 object. Object
// puts are atomic on S3, so readers get the replace-on-write guarantee
// for free.
type S3Store struct {
	bucket string
	key    string
	client S3Client
}

func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("cannot create S3 catalog store: bucket is not configured")
	}
	if (cfg.AccessKeyID == "") != (cfg.SecretAccessKey == "") {
		return nil, errors.New("cannot create S3 catalog store: access key id and secret access key must be set together")
	}

	optFns := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		optFns = append(optFns, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		optFns = append(optFns, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("error loading S3 configuration: %w", err)
	}
	if cfg.Endpoint != "" {
		awsCfg.BaseEndpoint = aws.String(cfg.Endpoint)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})
	return NewS3StoreWithClient(client, cfg.Bucket, cfg.Key), nil
}

func NewS3StoreWithClient(client S3Client, bucket, key string) *S3Store {
	if key == "" {
		key = "betas.json"
	}
	return &S3Store{bucket: bucket, key: key, client: client}
}

func (s *S3Store) Write(ctx context.Context, cat *model.Catalog) error {
	data, err := utils.EncodeJSONWithoutEscapeHTML(cat)
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("could not write catalog to s3://%s/%s: %w", s.bucket, s.key, err)
	}
	slog.Default().Info("saved catalog object", "bucket", s.bucket, "key", s.key, "devices", len(cat.Devices), "records", cat.Size())
	return nil
}

func (s *S3Store) Read(ctx context.Context) (*model.Catalog, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, ErrNotExists
		}
		return nil, fmt.Errorf("error reading catalog from s3://%s/%s: %w", s.bucket, s.key, err)
	}
	defer out.Body.Close()
	raw, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading catalog from s3://%s/%s: %w", s.bucket, s.key, err)
	}
	var cat model.Catalog
	if err := json.Unmarshal(raw, &cat); err != nil {
		return nil, fmt.Errorf("catalog object s3://%s/%s is not valid JSON: %w", s.bucket, s.key, err)
	}
	if cat.Devices == nil {
		cat.Devices = map[string][]model.FirmwareRecord{}
	}
	return &cat, nil
}

func isS3NotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "NoSuchBucket":
			return true
		}
	}
	var respErr interface{ HTTPStatusCode() int }
	if errors.As(err, &respErr) {
		return respErr.HTTPStatusCode() == http.StatusNotFound
	}
	return false
}
