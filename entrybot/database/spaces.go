package database

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type SpacesConfig struct {
	Key      string `toml:"key"`
	Secret   string `toml:"secret"`
	Region   string `toml:"region"`
	Bucket   string `toml:"bucket"`
	Prefix   string `toml:"prefix"`
	Endpoint string `toml:"endpoint"`
}

func (c SpacesConfig) endpoint() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return fmt.Sprintf("https://%s.digitaloceanspaces.com", c.Region)
}

// NewSpacesClient builds an S3 client for a DigitalOcean Spaces (or any
// S3-compatible) endpoint.
func NewSpacesClient(ctx context.Context, cfg SpacesConfig) (*s3.Client, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, errors.New("spaces bucket and region are required")
	}

	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{URL: cfg.endpoint()}, nil
	})

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithEndpointResolverWithOptions(resolver),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.Key, cfg.Secret, "")),
		config.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load spaces config: %w", err)
	}
	return s3.NewFromConfig(awsCfg), nil
}

// SpacesBackend keeps each collection as <prefix>/<name>.json in a bucket.
type SpacesBackend struct {
	client *s3.Client
	bucket string
	prefix string
}

func NewSpaces(ctx context.Context, cfg SpacesConfig) (*SpacesBackend, error) {
	client, err := NewSpacesClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &SpacesBackend{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

func (s *SpacesBackend) Name() string { return "spaces" }

func (s *SpacesBackend) key(collection string) string {
	return path.Join(s.prefix, collection+".json")
}

func (s *SpacesBackend) Read(ctx context.Context, collection string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(collection)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, nil
		}
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func (s *SpacesBackend) Write(ctx context.Context, collection string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(collection)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
		ACL:         types.ObjectCannedACLPrivate,
	})
	return err
}

func (s *SpacesBackend) Close(context.Context) error { return nil }
