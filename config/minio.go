package config

import "time"

// MinIOConfig MinIO 对象存储配置
type MinIOConfig struct {
	Endpoint        string `json:"endpoint" yaml:"endpoint"`               // MinIO 服务地址，如: localhost:9000
	AccessKeyID     string `json:"accessKeyId" yaml:"accessKeyId"`         // Access Key
	SecretAccessKey string `json:"secretAccessKey" yaml:"secretAccessKey"` // Secret Key
	UseSSL          bool   `json:"useSSL" yaml:"useSSL"`                   // 是否使用 HTTPS

	BucketName string `json:"bucketName" yaml:"bucketName"` // 默认存储桶名称
	Location   string `json:"location" yaml:"location"`     // Bucket 区域

	MaxFileSize   int64         `json:"maxFileSize" yaml:"maxFileSize"`     // 单文件大小上限（字节）
	UploadTimeout time.Duration `json:"uploadTimeout" yaml:"uploadTimeout"` // 上传超时时间

	PublicRead bool   `json:"publicRead" yaml:"publicRead"` // 是否公开读取
	BaseURL    string `json:"baseUrl" yaml:"baseUrl"`       // 返回给客户端的文件访问基础 URL
}

// DefaultMinIOConfig 返回本地开发的默认配置（与 docker-compose 对齐）。
// 聊天附件不限制 MIME 类型：imageUrls/files 的划分在发送链路完成，
// 这里只管字节的存取。
func DefaultMinIOConfig() MinIOConfig {
	return MinIOConfig{
		Endpoint:        envString("CHATLY_MINIO_ENDPOINT", "127.0.0.1:9000"),
		AccessKeyID:     envString("CHATLY_MINIO_ACCESS_KEY", "minioadmin"),
		SecretAccessKey: envString("CHATLY_MINIO_SECRET_KEY", "minioadmin"),
		UseSSL:          false,

		BucketName: envString("CHATLY_MINIO_BUCKET", "chatly"),
		Location:   "us-east-1",

		MaxFileSize:   20 * 1024 * 1024, // 20MB
		UploadTimeout: 30 * time.Second,

		PublicRead: true,
		BaseURL:    envString("CHATLY_MINIO_BASE_URL", "http://localhost:9000"),
	}
}
