package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Writer persists a finished audit record.
type Writer interface {
	Write(ctx context.Context, rec *Record) error
}

// S3Writer stores audit records as JSON objects under a bucket prefix,
// keyed by request ID.
type S3Writer struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Writer creates an S3-backed audit writer.
func NewS3Writer(client *s3.Client, bucket, prefix string) *S3Writer {
	return &S3Writer{client: client, bucket: bucket, prefix: prefix}
}

// Write puts the record at <prefix>/<requestID>.json.
func (w *S3Writer) Write(ctx context.Context, rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling audit record: %w", err)
	}
	key := path.Join(w.prefix, rec.RequestID+".json")
	_, err = w.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(w.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("putting audit record %s: %w", key, err)
	}
	return nil
}

// LogWriter writes audit records to the process log. Used when no S3 bucket
// is configured.
type LogWriter struct{}

// Write logs a one-line summary per campaign entry.
func (LogWriter) Write(_ context.Context, rec *Record) error {
	for _, c := range rec.Campaigns {
		log.Printf("[audit] request=%s campaign=%s status=%s rules=%d actions=%d",
			rec.RequestID, c.CampaignID, c.Status, len(c.Rules), len(c.Actions))
	}
	return nil
}
