package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ObjectPutter is the part of the S3 client the archiver writes through.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ExportArchiver copies rendered exports into object storage under
// <prefix>/YYYY/MM/<file name>.
type ExportArchiver struct {
	client ObjectPutter
	bucket string
	prefix string
}

func NewExportArchiver(client ObjectPutter, bucket, prefix string) *ExportArchiver {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = "exports"
	}
	return &ExportArchiver{client: client, bucket: bucket, prefix: prefix}
}

func (a *ExportArchiver) Key(file *ExportFile, at time.Time) string {
	return path.Join(a.prefix, at.Format("2006"), at.Format("01"), file.Name)
}

func (a *ExportArchiver) Archive(ctx context.Context, file *ExportFile, at time.Time) (string, error) {
	key := a.Key(file, at)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(file.Data),
		ContentType: aws.String(file.ContentType),
		ACL:         types.ObjectCannedACLPrivate,
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive %s: %w", file.Name, err)
	}

	slog.Info("Export archived",
		slog.String("type", "sys"),
		slog.String("bucket", a.bucket),
		slog.String("key", key),
		slog.Int("rows", file.Rows))
	return key, nil
}
