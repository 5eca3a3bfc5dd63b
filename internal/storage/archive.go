package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3PutAPI is the subset of the S3 client used by ReportArchive.
type S3PutAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// ReportArchive stores run results as JSON objects.
type ReportArchive struct {
	client S3PutAPI
	bucket string
	prefix string
}

// NewReportArchive writes under "reports/" in bucket.
func NewReportArchive(client S3PutAPI, bucket string) *ReportArchive {
	return &ReportArchive{client: client, bucket: bucket, prefix: "reports"}
}

// Bucket returns the destination bucket.
func (a *ReportArchive) Bucket() string { return a.bucket }

// Check verifies the bucket is reachable.
func (a *ReportArchive) Check(ctx context.Context) error {
	if _, err := a.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(a.bucket)}); err != nil {
		return fmt.Errorf("HeadBucket %s: %w", a.bucket, err)
	}
	return nil
}

// Key returns the object key for a run: reports/<kind>/YYYY/MM/DD/<run-id>.json.
func (a *ReportArchive) Key(kind, runID string, day time.Time) string {
	return path.Join(a.prefix, kind, day.Format("2006/01/02"), runID+".json")
}

// Save marshals v and uploads it, returning the key written.
func (a *ReportArchive) Save(ctx context.Context, kind, runID string, day time.Time, v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling report: %w", err)
	}

	key := a.Key(kind, runID, day)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("putting report to S3: %w", err)
	}
	return key, nil
}
