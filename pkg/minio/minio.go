package minio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bhavyaajainn/chatly/config"
	"github.com/bhavyaajainn/chatly/pkg/logger"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var global *MinIOClient

// MinIOClient MinIO 客户端封装
type MinIOClient struct {
	client *minio.Client
	config config.MinIOConfig
}

// Client 返回全局 MinIO 客户端（未初始化时为 nil）
func Client() *MinIOClient {
	return global
}

// ReplaceGlobal 设置全局 MinIO 客户端
func ReplaceGlobal(c *MinIOClient) {
	global = c
}

// Build 基于配置创建 MinIO 客户端，并确保 Bucket 存在。
func Build(cfg config.MinIOConfig) (*MinIOClient, error) {
	// 1. 验证必填配置
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, errors.New("minio endpoint is empty")
	}
	if strings.TrimSpace(cfg.AccessKeyID) == "" {
		return nil, errors.New("minio accessKeyId is empty")
	}
	if strings.TrimSpace(cfg.SecretAccessKey) == "" {
		return nil, errors.New("minio secretAccessKey is empty")
	}
	if strings.TrimSpace(cfg.BucketName) == "" {
		return nil, errors.New("minio bucketName is empty")
	}

	// 2. 创建 MinIO 客户端
	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	client := &MinIOClient{
		client: minioClient,
		config: cfg,
	}

	// 3. 确保 Bucket 存在
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := minioClient.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket exists: %w", err)
	}

	if !exists {
		err = minioClient.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{
			Region: cfg.Location,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}

		logger.Info(ctx, "MinIO Bucket 创建成功",
			logger.String("bucket", cfg.BucketName),
			logger.String("location", cfg.Location),
		)

		// 聊天附件与头像默认公开读，URL 直接下发给客户端
		if cfg.PublicRead {
			policy := fmt.Sprintf(`{
				"Version": "2012-10-17",
				"Statement": [
					{
						"Effect": "Allow",
						"Principal": {"AWS": ["*"]},
						"Action": ["s3:GetObject"],
						"Resource": ["arn:aws:s3:::%s/*"]
					}
				]
			}`, cfg.BucketName)

			err = minioClient.SetBucketPolicy(ctx, cfg.BucketName, policy)
			if err != nil {
				logger.Warn(ctx, "设置 Bucket 公开策略失败",
					logger.String("bucket", cfg.BucketName),
					logger.ErrorField(err),
				)
			}
		}
	}

	return client, nil
}

// UploadOptions 上传选项
type UploadOptions struct {
	// 文件路径前缀（如: "attachments/{channel_id}/", "avatars/"）
	PathPrefix string
	// 自定义文件名（为空则自动生成 UUID）
	FileName string
	// 内容类型（为空则基于文件内容检测）
	ContentType string
	// 元数据（可选）
	Metadata map[string]string
}

// UploadResult 上传结果
type UploadResult struct {
	ObjectName  string // 对象名称（完整路径）
	Size        int64  // 文件大小（字节）
	ETag        string // 文件的 MD5 哈希
	URL         string // 完整访问 URL
	ContentType string // 最终内容类型，image/* 前缀决定附件归类为图片
}

// Upload 上传文件。
// 基于文件前 512 字节的 Magic Bytes 检测真实 Content-Type，
// 聊天附件的图片/文件归类依赖这里返回的类型，不信任客户端声明。
func (c *MinIOClient) Upload(ctx context.Context, reader io.Reader, fileSize int64, opts UploadOptions) (*UploadResult, error) {
	// 1. 验证文件大小
	if c.config.MaxFileSize > 0 && fileSize > c.config.MaxFileSize {
		return nil, fmt.Errorf("文件大小超过限制: %d bytes (最大: %d bytes)", fileSize, c.config.MaxFileSize)
	}

	// 2. 生成对象名称
	objectName := c.generateObjectName(opts)

	// 3. 读取前 512 字节检测真实 MIME 类型（http.DetectContentType 的要求）
	buffer := make([]byte, 512)
	n, err := io.ReadFull(reader, buffer)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("读取文件内容失败: %w", err)
	}
	buffer = buffer[:n]

	detectedContentType := http.DetectContentType(buffer)

	contentType := opts.ContentType
	if contentType == "" {
		contentType = detectedContentType
	} else if !contentTypeMatch(contentType, detectedContentType) {
		logger.Warn(ctx, "指定的文件类型与实际检测到的类型不一致",
			logger.String("specified", contentType),
			logger.String("detected", detectedContentType),
			logger.String("object", objectName),
		)
		// 以检测到的真实类型为准
		contentType = detectedContentType
	}

	// 4. 重新组合 reader（已读取的 512 字节 + 剩余内容）
	multiReader := io.MultiReader(bytes.NewReader(buffer), reader)

	// 5. 设置超时
	uploadCtx := ctx
	if c.config.UploadTimeout > 0 {
		var cancel context.CancelFunc
		uploadCtx, cancel = context.WithTimeout(ctx, c.config.UploadTimeout)
		defer cancel()
	}

	// 6. 执行上传
	uploadInfo, err := c.client.PutObject(
		uploadCtx,
		c.config.BucketName,
		objectName,
		multiReader,
		fileSize,
		minio.PutObjectOptions{
			ContentType:  contentType,
			UserMetadata: opts.Metadata,
		},
	)
	if err != nil {
		logger.Error(ctx, "MinIO 上传失败",
			logger.String("object", objectName),
			logger.String("content_type", contentType),
			logger.Int64("size", fileSize),
			logger.ErrorField(err),
		)
		return nil, fmt.Errorf("上传失败: %w", err)
	}

	url := c.generateURL(objectName)

	logger.Info(ctx, "MinIO 上传成功",
		logger.String("object", objectName),
		logger.String("url", url),
		logger.String("content_type", contentType),
		logger.Int64("size", uploadInfo.Size),
	)

	return &UploadResult{
		ObjectName:  objectName,
		Size:        uploadInfo.Size,
		ETag:        uploadInfo.ETag,
		URL:         url,
		ContentType: contentType,
	}, nil
}

// Download 下载文件，返回的 ReadCloser 需要调用方关闭。
func (c *MinIOClient) Download(ctx context.Context, objectName string) (io.ReadCloser, *minio.ObjectInfo, error) {
	object, err := c.client.GetObject(ctx, c.config.BucketName, objectName, minio.GetObjectOptions{})
	if err != nil {
		logger.Error(ctx, "MinIO 下载失败",
			logger.String("object", objectName),
			logger.ErrorField(err),
		)
		return nil, nil, fmt.Errorf("下载失败: %w", err)
	}

	info, err := object.Stat()
	if err != nil {
		object.Close()
		return nil, nil, fmt.Errorf("获取对象信息失败: %w", err)
	}

	return object, &info, nil
}

// Delete 删除文件
func (c *MinIOClient) Delete(ctx context.Context, objectName string) error {
	err := c.client.RemoveObject(ctx, c.config.BucketName, objectName, minio.RemoveObjectOptions{})
	if err != nil {
		logger.Error(ctx, "MinIO 删除失败",
			logger.String("object", objectName),
			logger.ErrorField(err),
		)
		return fmt.Errorf("删除失败: %w", err)
	}
	return nil
}

// DeleteMultiple 批量删除文件，返回删除失败的错误列表。
// 双方都删除会话后，消息附件在异步任务里走这里清理。
func (c *MinIOClient) DeleteMultiple(ctx context.Context, objectNames []string) []error {
	if len(objectNames) == 0 {
		return nil
	}

	objectsCh := make(chan minio.ObjectInfo, len(objectNames))
	go func() {
		defer close(objectsCh)
		for _, name := range objectNames {
			objectsCh <- minio.ObjectInfo{Key: name}
		}
	}()

	errorsCh := c.client.RemoveObjects(ctx, c.config.BucketName, objectsCh, minio.RemoveObjectsOptions{})

	var errs []error
	for err := range errorsCh {
		if err.Err != nil {
			logger.Error(ctx, "MinIO 批量删除失败",
				logger.String("object", err.ObjectName),
				logger.ErrorField(err.Err),
			)
			errs = append(errs, fmt.Errorf("删除 %s 失败: %w", err.ObjectName, err.Err))
		}
	}
	return errs
}

// Exists 检查文件是否存在
func (c *MinIOClient) Exists(ctx context.Context, objectName string) (bool, error) {
	_, err := c.client.StatObject(ctx, c.config.BucketName, objectName, minio.StatObjectOptions{})
	if err != nil {
		errResponse := minio.ToErrorResponse(err)
		if errResponse.Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("检查对象存在失败: %w", err)
	}
	return true, nil
}

// GetPresignedURL 获取预签名 URL（用于临时访问私有文件）
func (c *MinIOClient) GetPresignedURL(ctx context.Context, objectName string, expires time.Duration) (string, error) {
	url, err := c.client.PresignedGetObject(ctx, c.config.BucketName, objectName, expires, nil)
	if err != nil {
		logger.Error(ctx, "MinIO 生成预签名 URL 失败",
			logger.String("object", objectName),
			logger.Duration("expires", expires),
			logger.ErrorField(err),
		)
		return "", fmt.Errorf("生成预签名 URL 失败: %w", err)
	}
	return url.String(), nil
}

// ObjectNameFromURL 从访问 URL 反解对象名，非本桶 URL 返回空串。
func (c *MinIOClient) ObjectNameFromURL(rawURL string) string {
	prefix := strings.TrimSuffix(c.config.BaseURL, "/") + "/" + c.config.BucketName + "/"
	if !strings.HasPrefix(rawURL, prefix) {
		return ""
	}
	return strings.TrimPrefix(rawURL, prefix)
}

// ==================== 辅助方法 ====================

// generateObjectName 生成对象名称
func (c *MinIOClient) generateObjectName(opts UploadOptions) string {
	fileName := opts.FileName
	if fileName == "" {
		fileName = uuid.New().String()
	}

	if opts.PathPrefix != "" {
		prefix := strings.TrimSuffix(opts.PathPrefix, "/")
		return prefix + "/" + fileName
	}
	return fileName
}

// generateURL 生成访问 URL
func (c *MinIOClient) generateURL(objectName string) string {
	baseURL := strings.TrimSuffix(c.config.BaseURL, "/")
	objectName = strings.TrimPrefix(objectName, "/")
	return fmt.Sprintf("%s/%s/%s", baseURL, c.config.BucketName, objectName)
}

// contentTypeMatch 检查两个 Content-Type 是否匹配。
// image/jpg 与 image/jpeg 视为相同，主类型相同也放行。
func contentTypeMatch(specified, detected string) bool {
	specified = strings.ToLower(strings.TrimSpace(specified))
	detected = strings.ToLower(strings.TrimSpace(detected))

	if specified == detected {
		return true
	}

	if (specified == "image/jpg" || specified == "image/jpeg") &&
		(detected == "image/jpg" || detected == "image/jpeg") {
		return true
	}

	return strings.Split(specified, "/")[0] == strings.Split(detected, "/")[0]
}

// GetBucketName 获取当前使用的 Bucket 名称
func (c *MinIOClient) GetBucketName() string {
	return c.config.BucketName
}
