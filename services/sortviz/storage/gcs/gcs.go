// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package gcs copies trace documents to and from Google Cloud Storage.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/AleutianAI/sortviz/pkg/validation"
	"github.com/AleutianAI/sortviz/services/sortviz/traceio"
)

// ErrInvalidURI is returned for object URIs that are not gs://bucket/object.
var ErrInvalidURI = errors.New("invalid gcs uri")

// Config configures an Uploader.
type Config struct {
	// Bucket is the destination bucket. Required.
	Bucket string

	// Prefix is prepended to object names.
	Prefix string

	// CredentialsFile is a service account key. Empty uses application
	// default credentials.
	CredentialsFile string
}

// bucket is the slice of *storage.BucketHandle the Uploader needs.
type bucket interface {
	newWriter(ctx context.Context, object string) io.WriteCloser
	newReader(ctx context.Context, object string) (io.ReadCloser, error)
}

type gcsBucket struct {
	handle *storage.BucketHandle
}

func (b gcsBucket) newWriter(ctx context.Context, object string) io.WriteCloser {
	w := b.handle.Object(object).NewWriter(ctx)
	w.ContentType = "application/json"
	w.CacheControl = "no-cache, no-store, must-revalidate"
	return w
}

func (b gcsBucket) newReader(ctx context.Context, object string) (io.ReadCloser, error) {
	return b.handle.Object(object).NewReader(ctx)
}

// Uploader writes trace documents as JSON objects.
//
// Thread Safety: Safe for concurrent use.
type Uploader struct {
	bucket     bucket
	bucketName string
	prefix     string
	client     *storage.Client
	logger     *slog.Logger
}

// NewUploader creates a storage client for cfg.Bucket.
//
// Inputs:
//
//	ctx - Context for client creation.
//	cfg - Bucket, prefix and credentials.
//
// Outputs:
//
//	*Uploader - The uploader. Call Close when done.
//	error - Non-nil if the bucket is missing, the key file does not exist,
//	        or the client cannot be created.
func NewUploader(ctx context.Context, cfg Config) (*Uploader, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("gcs bucket is required")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		if _, err := os.Stat(cfg.CredentialsFile); err != nil {
			return nil, fmt.Errorf("service account key %s: %w", cfg.CredentialsFile, err)
		}
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create GCS storage client: %w", err)
	}

	u := newUploader(gcsBucket{handle: client.Bucket(cfg.Bucket)}, cfg.Bucket, cfg.Prefix)
	u.client = client
	return u, nil
}

func newUploader(b bucket, bucketName, prefix string) *Uploader {
	return &Uploader{
		bucket:     b,
		bucketName: bucketName,
		prefix:     strings.Trim(prefix, "/"),
		logger:     slog.Default().With(slog.String("component", "gcs")),
	}
}

// ObjectName returns the object a trace named name is stored under.
func (u *Uploader) ObjectName(name string) string {
	name = strings.TrimSuffix(name, ".json") + ".json"
	if u.prefix == "" {
		return name
	}
	return path.Join(u.prefix, name)
}

// Upload writes doc as the object for name and returns its gs:// URI.
func (u *Uploader) Upload(ctx context.Context, name string, doc traceio.Document) (string, error) {
	name, err := validation.SanitizeObjectName(name)
	if err != nil {
		return "", fmt.Errorf("upload trace: %w", err)
	}
	object := u.ObjectName(name)

	w := u.bucket.newWriter(ctx, object)
	if err := traceio.Encode(w, doc); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write gs://%s/%s: %w", u.bucketName, object, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close GCS writer for %s: %w", object, err)
	}

	uri := fmt.Sprintf("gs://%s/%s", u.bucketName, object)
	u.logger.Info("trace uploaded", slog.String("uri", uri), slog.Int("steps", len(doc.Steps)))
	return uri, nil
}

// Download reads and validates the trace at a gs:// URI in this bucket.
func (u *Uploader) Download(ctx context.Context, uri string) (traceio.Document, error) {
	bucketName, object, err := ParseURI(uri)
	if err != nil {
		return traceio.Document{}, err
	}
	if bucketName != u.bucketName {
		return traceio.Document{}, fmt.Errorf("%w: bucket %q, uploader is bound to %q", ErrInvalidURI, bucketName, u.bucketName)
	}

	r, err := u.bucket.newReader(ctx, object)
	if err != nil {
		return traceio.Document{}, fmt.Errorf("open %s: %w", uri, err)
	}
	defer r.Close()
	return traceio.Decode(r)
}

// Close releases the storage client.
func (u *Uploader) Close() error {
	if u.client == nil {
		return nil
	}
	return u.client.Close()
}

// ParseURI splits gs://bucket/object.
func ParseURI(uri string) (bucketName, object string, err error) {
	rest, ok := strings.CutPrefix(uri, "gs://")
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidURI, uri)
	}
	bucketName, object, ok = strings.Cut(rest, "/")
	if !ok || bucketName == "" || object == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidURI, uri)
	}
	return bucketName, object, nil
}
