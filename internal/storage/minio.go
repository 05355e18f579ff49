package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path"
	"strings"

	"resume-parser-go/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStorage 对象存储接口
type ObjectStorage interface {
	// UploadResume 上传待解析的简历文件，返回对象键
	UploadResume(ctx context.Context, objectKey string, data []byte) (string, error)

	// DownloadResume 下载待解析的简历文件
	DownloadResume(ctx context.Context, objectKey string) ([]byte, error)

	// UploadResult 把序列化后的解析结果写入结果存储桶
	UploadResult(ctx context.Context, objectKey string, data []byte, contentType string) (string, error)
}

var _ ObjectStorage = (*MinIO)(nil)

// ErrObjectNotFound 对象或存储桶不存在，重试没有意义
var ErrObjectNotFound = errors.New("对象不存在")

// MinIO 简历原件和解析结果的对象存储
type MinIO struct {
	client        *minio.Client
	cfg           *config.MinIOConfig
	resumeBucket  string
	resultsBucket string
	logger        *log.Logger
}

// NewMinIO 创建MinIO客户端并确保两个存储桶存在
func NewMinIO(cfg *config.MinIOConfig, logger *log.Logger) (*MinIO, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MinIO配置不能为空")
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("创建MinIO客户端失败: %w", err)
	}

	m := &MinIO{
		client:        client,
		cfg:           cfg,
		resumeBucket:  cfg.BucketName,
		resultsBucket: cfg.ResultsBucket,
		logger:        logger,
	}
	if m.resultsBucket == "" {
		m.resultsBucket = m.resumeBucket
	}

	for _, bucket := range []string{m.resumeBucket, m.resultsBucket} {
		if err := m.ensureBucketExists(context.Background(), bucket); err != nil {
			return nil, err
		}
	}

	logger.Printf("MinIO客户端初始化完成: endpoint=%s, resumes=%s, results=%s", cfg.Endpoint, m.resumeBucket, m.resultsBucket)
	return m, nil
}

func (m *MinIO) ensureBucketExists(ctx context.Context, bucket string) error {
	exists, err := m.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("检查存储桶 %s 是否存在时出错: %w", bucket, err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: m.cfg.Location}); err != nil {
		return fmt.Errorf("创建存储桶 %s 失败: %w", bucket, err)
	}
	m.logger.Printf("已创建存储桶 %s", bucket)
	return nil
}

// UploadResume 上传简历原件
func (m *MinIO) UploadResume(ctx context.Context, objectKey string, data []byte) (string, error) {
	return m.put(ctx, m.resumeBucket, objectKey, data, ContentTypeFor(objectKey))
}

// UploadResult 上传解析结果
func (m *MinIO) UploadResult(ctx context.Context, objectKey string, data []byte, contentType string) (string, error) {
	return m.put(ctx, m.resultsBucket, objectKey, data, contentType)
}

func (m *MinIO) put(ctx context.Context, bucket, objectKey string, data []byte, contentType string) (string, error) {
	info, err := m.client.PutObject(ctx, bucket, objectKey, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("上传对象 %s/%s 失败: %w", bucket, objectKey, err)
	}
	m.logger.Printf("已上传对象 %s/%s (%d 字节)", bucket, info.Key, info.Size)
	return info.Key, nil
}

// DownloadResume 下载简历原件
func (m *MinIO) DownloadResume(ctx context.Context, objectKey string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, m.resumeBucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("获取对象 %s/%s 失败: %w", m.resumeBucket, objectKey, err)
	}
	defer obj.Close()

	// GetObject 是惰性的，Stat 才会暴露对象不存在等错误
	if _, err := obj.Stat(); err != nil {
		if IsObjectNotFound(err) {
			return nil, fmt.Errorf("%w: %s/%s", ErrObjectNotFound, m.resumeBucket, objectKey)
		}
		return nil, fmt.Errorf("获取对象 %s/%s 状态失败: %w", m.resumeBucket, objectKey, err)
	}
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("读取对象 %s/%s 数据失败: %w", m.resumeBucket, objectKey, err)
	}
	return data, nil
}

// IsObjectNotFound 判断 MinIO 返回的错误是否表示对象或存储桶不存在
func IsObjectNotFound(err error) bool {
	if errors.Is(err, ErrObjectNotFound) {
		return true
	}
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return true
	}
	return false
}

// ResumeObjectKey 生成简历原件的对象键: resumes/{requestID}{ext}
func ResumeObjectKey(requestID, fileName string) string {
	return "resumes/" + requestID + strings.ToLower(path.Ext(fileName))
}

// ResultObjectKey 生成解析结果的对象键: results/{requestID}.{format}
func ResultObjectKey(requestID, format string) string {
	return "results/" + requestID + "." + format
}

// ContentTypeFor 根据对象键的扩展名推断 Content-Type
func ContentTypeFor(objectKey string) string {
	switch strings.ToLower(path.Ext(objectKey)) {
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".doc":
		return "application/msword"
	case ".txt":
		return "text/plain; charset=utf-8"
	case ".json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
