package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"resume-parser-go/internal/config"
	"resume-parser-go/internal/constants"
	"resume-parser-go/internal/logger"
	"resume-parser-go/internal/output"
	"resume-parser-go/internal/processor"
	"resume-parser-go/internal/storage"
	"resume-parser-go/internal/types"
)

// 服务依赖缺失或请求本身无效时返回的错误，路由层据此映射HTTP状态码
var (
	ErrInvalidRequest     = errors.New("请求参数无效")
	ErrFileTooLarge       = errors.New("上传文件超过大小限制")
	ErrObjectStorageUnset = errors.New("对象存储未配置")
	ErrQueueUnset         = errors.New("消息队列未配置")
	ErrStatusStoreUnset   = errors.New("状态存储未配置")
	ErrRequestNotFound    = errors.New("解析请求不存在")
)

// ResumeParser 处理器需要的解析能力
type ResumeParser interface {
	ParseReader(ctx context.Context, fileName string, r io.Reader) (*types.ResumeRecord, error)
	ParseText(ctx context.Context, fileName, text string) (*types.ResumeRecord, error)
}

var _ ResumeParser = (*processor.ResumeParser)(nil)

// StatusStore 异步解析请求的状态存储
type StatusStore interface {
	SetParseStatus(ctx context.Context, requestID, status string, ttl time.Duration) error
	GetParseStatus(ctx context.Context, requestID string) (string, error)
}

var _ StatusStore = (*storage.Redis)(nil)

// ResumeHandler 简历解析处理器，负责同步解析和异步解析请求的编排
type ResumeHandler struct {
	cfg     *config.Config
	parser  ResumeParser
	objects storage.ObjectStorage
	queue   storage.MessageQueue
	status  StatusStore
}

// HandlerOption 可选依赖
type HandlerOption func(*ResumeHandler)

func WithObjectStorage(objects storage.ObjectStorage) HandlerOption {
	return func(h *ResumeHandler) { h.objects = objects }
}

func WithMessageQueue(queue storage.MessageQueue) HandlerOption {
	return func(h *ResumeHandler) { h.queue = queue }
}

func WithStatusStore(status StatusStore) HandlerOption {
	return func(h *ResumeHandler) { h.status = status }
}

// NewResumeHandler 创建简历处理器，未提供的可选依赖对应的接口返回 503
func NewResumeHandler(cfg *config.Config, parser ResumeParser, opts ...HandlerOption) *ResumeHandler {
	h := &ResumeHandler{cfg: cfg, parser: parser}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewResumeHandlerFromStorage 从聚合存储中挑出已初始化的组件
func NewResumeHandlerFromStorage(cfg *config.Config, parser ResumeParser, stg *storage.Storage) *ResumeHandler {
	var opts []HandlerOption
	if stg != nil {
		if stg.MinIO != nil {
			opts = append(opts, WithObjectStorage(stg.MinIO))
		}
		if stg.RabbitMQ != nil {
			opts = append(opts, WithMessageQueue(stg.RabbitMQ))
		}
		if stg.Redis != nil {
			opts = append(opts, WithStatusStore(stg.Redis))
		}
	}
	return NewResumeHandler(cfg, parser, opts...)
}

// ParseTextRequest 纯文本解析请求
type ParseTextRequest struct {
	FileName string `json:"file_name"`
	Text     string `json:"text"`
}

// ParseObjectRequest 解析对象存储中已有的简历
type ParseObjectRequest struct {
	ObjectKey string `json:"object_key"`
	FileName  string `json:"file_name,omitempty"`
}

// SubmitRequest 提交异步解析请求
type SubmitRequest struct {
	ObjectKey string `json:"object_key"`
	FileName  string `json:"file_name,omitempty"`
	Format    string `json:"format,omitempty"`
}

// SubmitResponse 异步解析请求的受理结果
type SubmitResponse struct {
	RequestID string `json:"request_id"`
	ObjectKey string `json:"object_key"`
	Status    string `json:"status"`
}

// StatusResponse 异步解析请求的当前状态
type StatusResponse struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
}

// HandleParseUpload 同步解析上传的文件
func (h *ResumeHandler) HandleParseUpload(ctx context.Context, fileName string, size int64, r io.Reader) (*types.ResumeRecord, error) {
	if size > constants.MaxUploadSize {
		return nil, fmt.Errorf("%w: %d 字节", ErrFileTooLarge, size)
	}
	if strings.TrimSpace(fileName) == "" {
		return nil, fmt.Errorf("%w: 缺少文件名", ErrInvalidRequest)
	}
	return h.parser.ParseReader(ctx, fileName, io.LimitReader(r, constants.MaxUploadSize))
}

// HandleParseText 解析调用方已提取好的文本
func (h *ResumeHandler) HandleParseText(ctx context.Context, req ParseTextRequest) (*types.ResumeRecord, error) {
	fileName := strings.TrimSpace(req.FileName)
	if fileName == "" {
		fileName = "resume.txt"
	}
	return h.parser.ParseText(ctx, fileName, req.Text)
}

// HandleParseObject 从对象存储下载简历后同步解析
func (h *ResumeHandler) HandleParseObject(ctx context.Context, req ParseObjectRequest) (*types.ResumeRecord, error) {
	if h.objects == nil {
		return nil, ErrObjectStorageUnset
	}
	if strings.TrimSpace(req.ObjectKey) == "" {
		return nil, fmt.Errorf("%w: object_key 不能为空", ErrInvalidRequest)
	}
	data, err := h.objects.DownloadResume(ctx, req.ObjectKey)
	if err != nil {
		return nil, err
	}
	return h.parser.ParseReader(ctx, fileNameOr(req.FileName, req.ObjectKey), bytes.NewReader(data))
}

// HandleUploadAndSubmit 把上传的文件存入对象存储，再提交异步解析请求
func (h *ResumeHandler) HandleUploadAndSubmit(ctx context.Context, fileName string, size int64, r io.Reader, format string) (*SubmitResponse, error) {
	if h.objects == nil {
		return nil, ErrObjectStorageUnset
	}
	if h.queue == nil {
		return nil, ErrQueueUnset
	}
	if size > constants.MaxUploadSize {
		return nil, fmt.Errorf("%w: %d 字节", ErrFileTooLarge, size)
	}
	if !constants.IsSupportedExtension(path.Ext(fileName)) {
		return nil, fmt.Errorf("%w: 不支持的文件类型 %q", ErrInvalidRequest, path.Ext(fileName))
	}
	data, err := io.ReadAll(io.LimitReader(r, constants.MaxUploadSize))
	if err != nil {
		return nil, fmt.Errorf("读取上传文件内容失败: %w", err)
	}

	requestID, err := storage.NewRequestID()
	if err != nil {
		return nil, err
	}
	objectKey, err := h.objects.UploadResume(ctx, storage.ResumeObjectKey(requestID, fileName), data)
	if err != nil {
		return nil, fmt.Errorf("上传简历到MinIO失败: %w", err)
	}
	return h.submit(ctx, requestID, SubmitRequest{ObjectKey: objectKey, FileName: fileName, Format: format})
}

// HandleSubmit 为对象存储中已有的简历提交异步解析请求
func (h *ResumeHandler) HandleSubmit(ctx context.Context, req SubmitRequest) (*SubmitResponse, error) {
	if h.queue == nil {
		return nil, ErrQueueUnset
	}
	if strings.TrimSpace(req.ObjectKey) == "" {
		return nil, fmt.Errorf("%w: object_key 不能为空", ErrInvalidRequest)
	}
	requestID, err := storage.NewRequestID()
	if err != nil {
		return nil, err
	}
	return h.submit(ctx, requestID, req)
}

func (h *ResumeHandler) submit(ctx context.Context, requestID string, req SubmitRequest) (*SubmitResponse, error) {
	format := output.FormatJSON
	if req.Format != "" {
		f, err := output.ParseFormat(req.Format)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		format = f
	}

	message := storage.ParseRequestMessage{
		RequestID:   requestID,
		ObjectKey:   req.ObjectKey,
		FileName:    fileNameOr(req.FileName, req.ObjectKey),
		Format:      string(format),
		SubmittedAt: time.Now(),
	}
	if err := h.queue.PublishJSON(ctx, h.cfg.RabbitMQ.ParseExchange, h.cfg.RabbitMQ.RequestRoutingKey, message); err != nil {
		return nil, fmt.Errorf("发布解析请求到RabbitMQ失败: %w", err)
	}
	h.setStatus(ctx, requestID, storage.ParseStatusPending)

	logger.Info().
		Str("request_id", requestID).
		Str("object_key", safeLogValue("object_key", message.ObjectKey)).
		Msg("异步解析请求已提交")
	return &SubmitResponse{RequestID: requestID, ObjectKey: message.ObjectKey, Status: storage.ParseStatusPending}, nil
}

// HandleStatus 查询异步解析请求的状态
func (h *ResumeHandler) HandleStatus(ctx context.Context, requestID string) (*StatusResponse, error) {
	if h.status == nil {
		return nil, ErrStatusStoreUnset
	}
	if strings.TrimSpace(requestID) == "" {
		return nil, fmt.Errorf("%w: request_id 不能为空", ErrInvalidRequest)
	}
	status, err := h.status.GetParseStatus(ctx, requestID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return &StatusResponse{RequestID: requestID, Status: status}, nil
}

// setStatus 写入状态失败只记录日志，不影响主流程
func (h *ResumeHandler) setStatus(ctx context.Context, requestID, status string) {
	if h.status == nil {
		return
	}
	if err := h.status.SetParseStatus(ctx, requestID, status, h.statusTTL()); err != nil {
		logger.FromContext(ctx).Warn().
			Err(err).
			Str("request_id", requestID).
			Str("status", status).
			Msg("写入解析状态失败")
	}
}

func (h *ResumeHandler) statusTTL() time.Duration {
	if ttl := h.cfg.CacheTTL(); ttl > 0 {
		return ttl
	}
	return constants.ParseResultCacheDuration
}

// fileNameOr 未给出文件名时取对象键的最后一段
func fileNameOr(fileName, objectKey string) string {
	if name := strings.TrimSpace(fileName); name != "" {
		return path.Base(name)
	}
	return path.Base(objectKey)
}
