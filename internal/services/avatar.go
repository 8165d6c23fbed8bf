package services

// 头像服务：将上传的图片写入 S3 兼容存储桶并返回可公开访问的地址。
// 通过 BaseEndpoint 覆盖可对接 MinIO 等自建服务。

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"contactbook/internal/config"
)

// AvatarService 负责头像对象的写入与公开地址推导。
type AvatarService struct {
	cfg config.Config
}

func NewAvatarService(cfg config.Config) *AvatarService { return &AvatarService{cfg: cfg} }

func (s *AvatarService) client(ctx context.Context) (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(s.cfg.S3.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.cfg.S3.AccessKey,
			s.cfg.S3.SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if s.cfg.S3.Endpoint != "" {
			o.BaseEndpoint = aws.String(s.cfg.S3.Endpoint)
			// MinIO 等自建服务通常要求 path-style 访问
			o.UsePathStyle = true
		}
	}), nil
}

// storageKey 生成对象键：avatars/<uid>/<uuid><ext>，保留原始扩展名。
func storageKey(userID uint64, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("avatars/%d/%s%s", userID, uuid.NewString(), ext)
}

// Upload 将图片内容写入存储桶并返回公开 URL。
func (s *AvatarService) Upload(ctx context.Context, userID uint64, filename, contentType string, r io.Reader, size int64) (string, error) {
	cli, err := s.client(ctx)
	if err != nil {
		return "", fmt.Errorf("s3 client: %w", err)
	}
	bucket := s.cfg.S3.Bucket
	key := storageKey(userID, filename)
	_, err = cli.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        &bucket,
		Key:           &key,
		Body:          r,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return s.PublicURL(key), nil
}

// PublicURL 推导对象的公开访问地址；优先使用配置的 PublicBaseURL。
func (s *AvatarService) PublicURL(key string) string {
	if s.cfg.S3.PublicBaseURL != "" {
		return strings.TrimRight(s.cfg.S3.PublicBaseURL, "/") + "/" + key
	}
	if s.cfg.S3.Endpoint != "" {
		return strings.TrimRight(s.cfg.S3.Endpoint, "/") + "/" + s.cfg.S3.Bucket + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.S3.Bucket, s.cfg.S3.Region, key)
}
