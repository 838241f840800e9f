// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package storage provides an S3-compatible object store for site export
// archives. It wraps the AWS SDK v2 and is configured for path-style
// access (required by CEPH/Hetzner).
package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// DefaultExportExpiry is how long a presigned export download stays valid.
const DefaultExportExpiry = 24 * time.Hour

// presignMax is the S3 protocol ceiling for presigned URL lifetimes.
const presignMax = 7 * 24 * time.Hour

// Client wraps an S3 client for export archive operations on one bucket.
type Client struct {
	s3        *s3.Client
	presigner *s3.PresignClient
	bucket    string
}

// New creates an S3 storage client with path-style addressing. Returns
// (nil, nil) if the endpoint, credentials, or bucket are empty, allowing
// the app to start without object storage.
func New(endpoint, region, accessKey, secretKey, bucket string) (*Client, error) {
	if endpoint == "" || accessKey == "" || secretKey == "" || bucket == "" {
		return nil, nil
	}

	endpoint = strings.TrimRight(endpoint, "/")

	s3Client := s3.New(s3.Options{
		Region:       region,
		BaseEndpoint: aws.String(endpoint),
		Credentials:  credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		UsePathStyle: true,
	})

	return &Client{
		s3:        s3Client,
		presigner: s3.NewPresignClient(s3Client),
		bucket:    bucket,
	}, nil
}

// UploadExport stores a zip archive of a user's site and returns the
// object key. Exports are never public; downloads go through PresignedURL.
func (c *Client) UploadExport(ctx context.Context, userID string, archive []byte) (string, error) {
	key := fmt.Sprintf("exports/%s/%s.zip", userID, time.Now().UTC().Format("20060102T150405"))

	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(archive),
		ContentLength: aws.Int64(int64(len(archive))),
		ContentType:   aws.String("application/zip"),
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload %s/%s: %w", c.bucket, key, err)
	}
	return key, nil
}

// PresignedURL generates a pre-signed GET URL for a stored export.
func (c *Client) PresignedURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	if expires <= 0 {
		expires = DefaultExportExpiry
	}
	if expires > presignMax {
		expires = presignMax
	}

	req, err := c.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", fmt.Errorf("s3 presign %s/%s: %w", c.bucket, key, err)
	}
	return req.URL, nil
}

// DeleteExport removes a stored export archive.
func (c *Client) DeleteExport(ctx context.Context, key string) error {
	_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s/%s: %w", c.bucket, key, err)
	}
	return nil
}

// Bucket returns the configured bucket name.
func (c *Client) Bucket() string {
	return c.bucket
}
