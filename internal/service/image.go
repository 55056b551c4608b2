package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rnkp755/chefcognito/config"
)

// ImageService archives uploaded ingredient photos in S3. Storage is best
// effort: detection proceeds even when the archive write fails.
type ImageService struct {
	s3Config *config.S3Config
	logger   *zap.Logger
}

func NewImageService(s3Config *config.S3Config, logger *zap.Logger) *ImageService {
	return &ImageService{s3Config: s3Config, logger: logger}
}

// StoreIngredientPhoto decodes the base64 payload and uploads it under a
// fresh key, returning the public URL. Data URI prefixes are stripped.
func (s *ImageService) StoreIngredientPhoto(ctx context.Context, imageB64 string) (string, error) {
	if s.s3Config == nil || s.s3Config.Client == nil {
		return "", fmt.Errorf("photo storage not configured")
	}

	payload := imageB64
	if idx := strings.Index(payload, "base64,"); idx >= 0 {
		payload = payload[idx+len("base64,"):]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("invalid image payload: %w", err)
	}

	key := fmt.Sprintf("ingredient-photos/%s.jpg", uuid.New().String())
	url, err := s.uploadToS3(ctx, data, key)
	if err != nil {
		return "", err
	}

	s.logger.Info("ingredient photo archived", zap.String("url", url))
	return url, nil
}

func (s *ImageService) uploadToS3(ctx context.Context, data []byte, key string) (string, error) {
	_, err := s.s3Config.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.s3Config.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("image/jpeg"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.s3Config.BucketName, key), nil
}
