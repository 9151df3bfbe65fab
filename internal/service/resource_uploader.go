package service

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/internal/observability"
)

// FileStorage abstracts where course files are kept. Upload returns either a
// storage-relative location or an absolute URL.
type FileStorage interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
	Delete(ctx context.Context, location string) error
}

type storedFile struct {
	Location string
	Type     string
}

type resourceUploader struct {
	storage FileStorage
	maxSize int64
	logger  zerolog.Logger
	tracer  trace.Tracer
}

func newResourceUploader(storage FileStorage, maxSize int64, logger zerolog.Logger) *resourceUploader {
	if maxSize <= 0 {
		maxSize = 10 * 1024 * 1024
	}
	return &resourceUploader{
		storage: storage,
		maxSize: maxSize,
		logger:  logger.With().Str("component", "resource_uploader").Logger(),
		tracer:  otel.Tracer("github.com/noah-isme/classroom-api/internal/service/upload"),
	}
}

// storeAll uploads every file or none: on failure the files already stored
// are removed again.
func (u *resourceUploader) storeAll(ctx context.Context, files []*multipart.FileHeader) ([]storedFile, error) {
	stored := make([]storedFile, 0, len(files))
	for _, file := range files {
		item, err := u.store(ctx, file)
		if err != nil {
			u.discard(ctx, stored)
			return nil, err
		}
		stored = append(stored, item)
	}
	return stored, nil
}

func (u *resourceUploader) store(ctx context.Context, file *multipart.FileHeader) (storedFile, error) {
	ctx, span := u.tracer.Start(ctx, "upload.store")
	defer span.End()

	if file == nil {
		err := fieldError("files", "file is required")
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		return storedFile{}, err
	}
	span.SetAttributes(
		attribute.String("upload.original_name", strings.TrimSpace(file.Filename)),
		attribute.Int64("upload.request_size", file.Size),
		attribute.Int64("upload.max_bytes", u.maxSize),
	)

	if file.Size > u.maxSize {
		observability.Uploads().WithLabelValues("unknown", "too_large").Inc()
		span.RecordError(ErrUploadTooLarge)
		span.SetStatus(codes.Error, "payload too large")
		return storedFile{}, ErrUploadTooLarge
	}

	handle, err := file.Open()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "open failed")
		return storedFile{}, err
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, u.maxSize+1)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return storedFile{}, err
	}
	if int64(buf.Len()) > u.maxSize {
		observability.Uploads().WithLabelValues("unknown", "too_large").Inc()
		span.RecordError(ErrUploadTooLarge)
		span.SetStatus(codes.Error, "payload too large")
		return storedFile{}, ErrUploadTooLarge
	}

	detected := mimetype.Detect(buf.Bytes())
	kind := classifyMime(detected)
	span.SetAttributes(
		attribute.String("upload.detected_mime", detected.String()),
		attribute.String("upload.resource_type", kind),
	)

	location, err := u.storage.Upload(ctx, file.Filename, bytes.NewReader(buf.Bytes()))
	if err != nil {
		observability.Uploads().WithLabelValues(kind, "failed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage failed")
		return storedFile{}, err
	}

	observability.Uploads().WithLabelValues(kind, "stored").Inc()
	span.SetStatus(codes.Ok, "stored")
	return storedFile{Location: location, Type: kind}, nil
}

// discard removes stored files whose database rows could not be written.
func (u *resourceUploader) discard(ctx context.Context, files []storedFile) {
	for _, file := range files {
		if err := u.storage.Delete(context.WithoutCancel(ctx), file.Location); err != nil {
			u.logger.Warn().Err(err).Str("location", file.Location).Msg("failed to remove orphaned upload")
		}
	}
}

func classifyMime(detected *mimetype.MIME) string {
	for m := detected; m != nil; m = m.Parent() {
		value := strings.ToLower(m.String())
		switch {
		case strings.HasPrefix(value, "application/pdf"):
			return models.ResourceTypePDF
		case strings.HasPrefix(value, "image/"):
			return models.ResourceTypeImage
		case strings.HasPrefix(value, "video/"):
			return models.ResourceTypeVideo
		case strings.HasPrefix(value, "audio/"):
			return models.ResourceTypeAudio
		case isDocumentMime(value):
			return models.ResourceTypeDocument
		}
	}
	return models.ResourceTypeFile
}

func isDocumentMime(value string) bool {
	if strings.HasPrefix(value, "text/") {
		return true
	}
	for _, marker := range []string{"msword", "officedocument", "opendocument", "rtf", "ms-excel", "ms-powerpoint"} {
		if strings.Contains(value, marker) {
			return true
		}
	}
	return false
}
