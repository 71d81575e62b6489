// Copyright (c) 2025 The Rusted Workshop Project and its Contributors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package blobstore moves whole archives between the local filesystem and an
// S3-compatible object store, and mints the pre-signed URLs through which
// submitters upload sources and download results.
package blobstore

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Store is the capability the pipeline needs from the object store.
type Store interface {
	// Download fetches the object at an s3://bucket/key URL into localPath.
	Download(ctx context.Context, s3URL, localPath string) error
	// Upload stores the file at localPath under bucket/key, returning its
	// s3:// URL.
	Upload(ctx context.Context, localPath, bucket, key string) (string, error)
	// PresignPut mints a URL through which a client may PUT an object.
	PresignPut(ctx context.Context, bucket, key string, ttl time.Duration, contentType string) (string, error)
	// PresignGet mints a URL through which a client may GET an object.
	PresignGet(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
}

// connection parameters for the object store
type Options struct {
	// host:port of the S3-compatible endpoint
	Endpoint string
	Region   string
	// static credentials; when empty, the standard AWS environment and IAM
	// credential chain is consulted instead
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// New connects to the object store described by the given options.
func New(options Options) (Store, error) {
	var creds *credentials.Credentials
	if options.AccessKey != "" {
		creds = credentials.NewStaticV4(options.AccessKey, options.SecretKey, "")
	} else {
		creds = credentials.NewChainCredentials([]credentials.Provider{
			&credentials.EnvAWS{},
			&credentials.FileAWSCredentials{},
			&credentials.IAM{Client: &http.Client{Transport: http.DefaultTransport}},
		})
	}
	client, err := minio.New(options.Endpoint, &minio.Options{
		Creds:  creds,
		Secure: options.UseSSL,
		Region: options.Region,
	})
	if err != nil {
		return nil, err
	}
	return &minioStore{client: client}, nil
}

// ParseURL splits an s3://bucket/key URL into its bucket and key, splitting
// once on the first slash after the bucket.
func ParseURL(s3URL string) (bucket, key string, err error) {
	const scheme = "s3://"
	if !strings.HasPrefix(s3URL, scheme) {
		return "", "", &InvalidURLError{URL: s3URL}
	}
	rest := s3URL[len(scheme):]
	bucket, key, found := strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", &InvalidURLError{URL: s3URL}
	}
	return bucket, key, nil
}

// URL renders a bucket and key as an s3:// URL.
func URL(bucket, key string) string {
	return fmt.Sprintf("s3://%s/%s", bucket, key)
}

type minioStore struct {
	client *minio.Client
}

func (s *minioStore) Download(ctx context.Context, s3URL, localPath string) error {
	bucket, key, err := ParseURL(s3URL)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return err
	}
	return s.client.FGetObject(ctx, bucket, key, localPath, minio.GetObjectOptions{})
}

func (s *minioStore) Upload(ctx context.Context, localPath, bucket, key string) (string, error) {
	_, err := s.client.FPutObject(ctx, bucket, key, localPath, minio.PutObjectOptions{
		ContentType: "application/zip",
	})
	if err != nil {
		return "", err
	}
	return URL(bucket, key), nil
}

func (s *minioStore) PresignPut(ctx context.Context, bucket, key string,
	ttl time.Duration, contentType string) (string, error) {
	if contentType != "" {
		presigned, err := s.client.PresignHeader(ctx, http.MethodPut, bucket, key,
			ttl, url.Values{}, http.Header{"Content-Type": {contentType}})
		if err != nil {
			return "", err
		}
		return presigned.String(), nil
	}
	presigned, err := s.client.PresignedPutObject(ctx, bucket, key, ttl)
	if err != nil {
		return "", err
	}
	return presigned.String(), nil
}

func (s *minioStore) PresignGet(ctx context.Context, bucket, key string,
	ttl time.Duration) (string, error) {
	presigned, err := s.client.PresignedGetObject(ctx, bucket, key, ttl, url.Values{})
	if err != nil {
		return "", err
	}
	return presigned.String(), nil
}
