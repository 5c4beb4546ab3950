package services

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (r *recordingPutter) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.input = params
	r.body, _ = io.ReadAll(params.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestExportArchiverArchive(t *testing.T) {
	putter := &recordingPutter{}
	archiver := NewExportArchiver(putter, "entry", "/backups/")
	file := &ExportFile{Name: "visits_20240105_120000.csv", ContentType: FormatCSV.ContentType(), Data: []byte("a,b"), Rows: 1}

	key, err := archiver.Archive(context.Background(), file, time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "backups/2024/01/visits_20240105_120000.csv", key)
	assert.Equal(t, "entry", aws.ToString(putter.input.Bucket))
	assert.Equal(t, []byte("a,b"), putter.body)
}

func TestExportArchiverDefaultPrefixAndError(t *testing.T) {
	putter := &recordingPutter{err: errors.New("denied")}
	archiver := NewExportArchiver(putter, "entry", "")
	file := &ExportFile{Name: "x.pdf"}

	assert.Equal(t, "exports/2024/02/x.pdf", archiver.Key(file, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)))

	_, err := archiver.Archive(context.Background(), file, time.Now())
	assert.ErrorContains(t, err, "denied")
}
