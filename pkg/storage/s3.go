package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"
)

const (
	// MaxMenuImageSize is the maximum allowed size for menu item images (5MB).
	MaxMenuImageSize = 5 * 1024 * 1024
	// FolderMenuImages is the S3 prefix for menu item images.
	FolderMenuImages = "menu-images"
)

// Allowed image MIME types and extensions.
var (
	AllowedImageTypes = map[string]string{
		"image/jpeg": ".jpg",
		"image/jpg":  ".jpg",
		"image/png":  ".png",
		"image/webp": ".webp",
		"image/gif":  ".gif",
	}
	AllowedImageExtensions = map[string]string{
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".png":  "image/png",
		".webp": "image/webp",
		".gif":  "image/gif",
	}
)

// S3Config holds S3 client configuration.
type S3Config struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	MenuImagesBucket     string
	PresignExpireMinutes int
}

// S3 provides menu image storage with validation and pre-signed URLs.
type S3 struct {
	client   *s3.Client
	uploader *manager.Uploader
	cfg      S3Config
	logger   *zap.Logger
}

// NewS3 creates an S3 client using credentials from config or the environment, else the default chain.
func NewS3(ctx context.Context, cfg S3Config, logger *zap.Logger) (*S3, error) {
	accessKey := cfg.AccessKeyID
	secretKey := cfg.SecretAccessKey
	if accessKey == "" || secretKey == "" {
		accessKey = os.Getenv("AWS_ACCESS_KEY_ID")
		secretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	}
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKey, secretKey, "",
		)))
		if logger != nil {
			logger.Info("S3 client using static credentials", zap.String("region", cfg.Region), zap.String("bucket", cfg.MenuImagesBucket))
		}
	} else if logger != nil {
		logger.Warn("S3 client using default credential chain")
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg)
	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = manager.MinUploadPartSize
	})
	return &S3{
		client:   client,
		uploader: uploader,
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// ImageContentType resolves the MIME type of an image upload from its declared content type, falling back
// to the filename extension. ok is false for anything that is not an allowed image.
func ImageContentType(contentType, filename string) (ct string, ok bool) {
	ct = strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if _, known := AllowedImageTypes[ct]; known {
		if ct == "image/jpg" {
			ct = "image/jpeg"
		}
		return ct, true
	}
	if ct != "" && ct != "application/octet-stream" {
		return "", false
	}
	if byExt, known := AllowedImageExtensions[strings.ToLower(path.Ext(filename))]; known {
		return byExt, true
	}
	return "", false
}

// MenuImageKey returns the object key for a menu image: menu-images/{tenant}/{name}{ext}.
func MenuImageKey(tenantID, name, contentType string) string {
	return path.Join(FolderMenuImages, tenantID, name+AllowedImageTypes[contentType])
}

// GeneratePresignedUploadURL returns a pre-signed PUT URL for direct upload.
func (s *S3) GeneratePresignedUploadURL(ctx context.Context, bucket, key, contentType string, expires time.Duration) (string, error) {
	presignClient := s3.NewPresignClient(s.client)
	req, err := presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = expires
	})
	if err != nil {
		return "", fmt.Errorf("presign put: %w", err)
	}
	return req.URL, nil
}

// PresignMenuImageUpload returns a pre-signed PUT URL for key in the menu images bucket.
func (s *S3) PresignMenuImageUpload(ctx context.Context, key, contentType string) (string, time.Duration, error) {
	expires := s.PresignExpire()
	url, err := s.GeneratePresignedUploadURL(ctx, s.cfg.MenuImagesBucket, key, contentType, expires)
	if err != nil {
		return "", 0, err
	}
	return url, expires, nil
}

// PresignExpire returns the configured presign duration.
func (s *S3) PresignExpire() time.Duration {
	if s.cfg.PresignExpireMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(s.cfg.PresignExpireMinutes) * time.Minute
}

// MenuImageURL returns the public URL of a menu image object.
func (s *S3) MenuImageURL(key string) string {
	return s.PublicObjectURL(s.cfg.MenuImagesBucket, key)
}

// PublicObjectURL returns the public URL for an object (no signing; the bucket is expected to be public-read).
func (s *S3) PublicObjectURL(bucket, key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, s.cfg.Region, key)
}

// UploadMenuImage streams body into the menu images bucket as a public-read object and returns its URL.
func (s *S3) UploadMenuImage(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	return s.Upload(ctx, s.cfg.MenuImagesBucket, key, contentType, body, size, true)
}

// Upload streams a reader to S3.
func (s *S3) Upload(ctx context.Context, bucket, key, contentType string, body io.Reader, contentLength int64, publicRead bool) (string, error) {
	var contentLengthPtr *int64
	if contentLength > 0 {
		contentLengthPtr = &contentLength
	}
	input := &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: contentLengthPtr,
	}
	if publicRead {
		input.ACL = types.ObjectCannedACLPublicRead
	}
	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	return s.PublicObjectURL(bucket, key), nil
}
