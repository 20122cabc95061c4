package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"path"
	"strings"

	"chat-realtime/internal/config"
	"chat-realtime/internal/models"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var (
	ErrEmptyFile    = errors.New("file is empty")
	ErrFileTooLarge = errors.New("file exceeds the upload limit")
)

// sniffLen is how many leading bytes are inspected to detect the MIME type.
const sniffLen = 512

// MinIOClient stores message attachments and group avatars.
type MinIOClient struct {
	client    *minio.Client
	bucket    string
	publicURL string
	maxUpload int64
	logger    *slog.Logger
}

func NewMinIOClient(ctx context.Context, cfg config.MinIOConfig, logger *slog.Logger) (*MinIOClient, error) {
	if logger == nil {
		logger = slog.Default()
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	// Check if bucket exists, create if not
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		publicURL = client.EndpointURL().String() + "/" + cfg.Bucket
	}

	logger.Info("Successfully connected to MinIO", "endpoint", cfg.Endpoint, "bucket", cfg.Bucket)
	return &MinIOClient{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
		maxUpload: cfg.MaxUpload,
		logger:    logger,
	}, nil
}

// Upload stores file under folder and describes it as a message attachment.
func (m *MinIOClient) Upload(ctx context.Context, folder string, file *multipart.FileHeader) (*models.Media, error) {
	if file.Size == 0 {
		return nil, ErrEmptyFile
	}
	if m.maxUpload > 0 && file.Size > m.maxUpload {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrFileTooLarge, file.Filename, file.Size)
	}

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer src.Close()

	mime, err := sniff(src)
	if err != nil {
		return nil, err
	}

	objectName := path.Join(folder, uuid.New().String()+mime.Extension())
	_, err = m.client.PutObject(ctx, m.bucket, objectName, src, file.Size, minio.PutObjectOptions{
		ContentType: mime.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload file: %w", err)
	}

	m.logger.Debug("File uploaded", "object", objectName, "mime", mime.String(), "size", file.Size)
	return &models.Media{
		URL:      m.publicURL + "/" + objectName,
		Type:     Classify(mime),
		FileName: file.Filename,
		Size:     file.Size,
	}, nil
}

// sniff detects the MIME type and rewinds the file for the upload.
func sniff(src multipart.File) (*mimetype.MIME, error) {
	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(src, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	mime := mimetype.Detect(buf[:n])

	// Cursor needs to be at the beginning for the upload
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind file: %w", err)
	}
	return mime, nil
}

// Classify maps a detected MIME type onto the attachment kinds clients render.
func Classify(mime *mimetype.MIME) models.MediaType {
	for m := mime; m != nil; m = m.Parent() {
		switch {
		case m.Is("application/pdf"):
			return models.MediaTypePDF
		case strings.HasPrefix(m.String(), "image/"):
			return models.MediaTypeImage
		case strings.HasPrefix(m.String(), "video/"):
			return models.MediaTypeVideo
		case strings.HasPrefix(m.String(), "audio/"):
			return models.MediaTypeAudio
		}
	}
	return models.MediaTypeFile
}
