package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"time"

	"resume-parser-go/internal/config"
	"resume-parser-go/internal/constants"
	"resume-parser-go/internal/logger"
	"resume-parser-go/internal/output"
	"resume-parser-go/internal/storage"
	"resume-parser-go/internal/tracing"
	"resume-parser-go/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "handler"

// QueueConsumer 可启动消费者的消息队列
type QueueConsumer interface {
	StartConsumer(ctx context.Context, queueName string, prefetchCount, workers int, handler storage.DeliveryHandler) (<-chan struct{}, error)
}

var _ QueueConsumer = (*storage.RabbitMQ)(nil)

// StartParseConsumer 启动异步解析消费者，返回的 channel 在所有消费协程退出后关闭
func (h *ResumeHandler) StartParseConsumer(ctx context.Context, consumer QueueConsumer) (<-chan struct{}, error) {
	if consumer == nil {
		return nil, ErrQueueUnset
	}
	if h.objects == nil {
		return nil, ErrObjectStorageUnset
	}
	if h.queue == nil {
		return nil, ErrQueueUnset
	}

	rmq := h.cfg.RabbitMQ
	logger.Info().
		Str("exchange", rmq.ParseExchange).
		Str("queue", rmq.RequestQueue).
		Int("prefetch", rmq.PrefetchCount).
		Int("workers", rmq.ConsumerWorkers).
		Msg("启动异步解析消费者")

	return consumer.StartConsumer(ctx, rmq.RequestQueue, rmq.PrefetchCount, rmq.ConsumerWorkers, h.HandleParseRequest)
}

// HandleParseRequest 处理一条解析请求消息。
// 返回 true 表示确认消息；返回 false 表示临时失败，消息重新入队。
// 格式错误的消息和无法解析的文档都会被确认，后者会发布一条失败结果。
func (h *ResumeHandler) HandleParseRequest(ctx context.Context, body []byte) bool {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "resume.parse_request")
	defer span.End()

	var req storage.ParseRequestMessage
	if err := json.Unmarshal(body, &req); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		logger.Error().Err(err).Int("body_len", len(body)).Msg("解析请求消息反序列化失败，丢弃")
		return true
	}
	if err := req.Validate(); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		logger.Error().Err(err).Str("request_id", req.RequestID).Msg("解析请求消息缺少必填字段，丢弃")
		return true
	}
	span.SetAttributes(
		attribute.String("resume.request_id", req.RequestID),
		attribute.String("resume.object_key", safeLogValue("object_key", req.ObjectKey)),
	)

	ctx = logger.WithRequestID(ctx, req.RequestID)
	log := logger.FromContext(ctx)

	format, err := output.ParseFormat(req.Format)
	if req.Format == "" {
		format, err = output.FormatJSON, nil
	}
	if err != nil {
		return h.finishFailed(ctx, req, err, tracing.ErrorTypeValidation)
	}

	data, err := h.objects.DownloadResume(ctx, req.ObjectKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return h.finishFailed(ctx, req, err, tracing.ErrorTypeObjectStorage)
		}
		tracing.RecordError(span, err, tracing.ErrorTypeObjectStorage)
		log.Warn().Err(err).Str("object_key", safeLogValue("object_key", req.ObjectKey)).Msg("下载简历失败，稍后重试")
		return h.retryLater(ctx)
	}

	record, err := h.parser.ParseReader(ctx, req.FileName, bytes.NewReader(data))
	if err != nil {
		return h.finishFailed(ctx, req, err, tracing.ErrorTypeParse)
	}

	rendered, err := output.Marshal(record, format)
	if err != nil {
		return h.finishFailed(ctx, req, err, tracing.ErrorTypeInternal)
	}
	resultKey, err := h.objects.UploadResult(ctx, storage.ResultObjectKey(req.RequestID, string(format)), rendered, format.ContentType())
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeObjectStorage)
		log.Warn().Err(err).Msg("上传解析结果失败，稍后重试")
		return h.retryLater(ctx)
	}

	if !h.publishResult(ctx, completedMessage(req.RequestID, resultKey, record)) {
		return h.retryLater(ctx)
	}
	h.setStatus(ctx, req.RequestID, storage.ParseStatusCompleted)
	log.Info().Str("result_object_key", safeLogValue("object_key", resultKey)).Msg("异步解析完成")
	return true
}

// finishFailed 发布失败结果。发布失败时消息重新入队
func (h *ResumeHandler) finishFailed(ctx context.Context, req storage.ParseRequestMessage, cause error, errorType tracing.ErrorType) bool {
	redacted := tracing.RedactError(cause, path.Base(req.FileName))
	tracing.RecordError(trace.SpanFromContext(ctx), redacted, errorType)
	logger.FromContext(ctx).Error().Err(redacted).Str("file_name", safeLogValue("file_name", req.FileName)).Msg("异步解析失败")
	if !h.publishResult(ctx, failedMessage(req.RequestID, cause)) {
		return h.retryLater(ctx)
	}
	h.setStatus(ctx, req.RequestID, storage.ParseStatusFailed)
	return true
}

func (h *ResumeHandler) publishResult(ctx context.Context, msg storage.ParseResultMessage) bool {
	err := h.queue.PublishJSON(ctx, h.cfg.RabbitMQ.ParseExchange, h.cfg.RabbitMQ.ResultRoutingKey, msg)
	if err != nil {
		tracing.RecordError(trace.SpanFromContext(ctx), err, tracing.ErrorTypeRabbitMQ)
		logger.FromContext(ctx).Error().Err(err).Str("status", msg.Status).Msg("发布解析结果失败")
		return false
	}
	return true
}

// safeLogValue 写入日志或 span 前处理字段值：文件名掩码，对象键截断
func safeLogValue(field, value string) string {
	return tracing.SafeAttributeValue(field, value, tracing.MaxFileNameLength)
}

// retryLater 等待重试间隔后返回 false，避免消息立即重投形成空转
func (h *ResumeHandler) retryLater(ctx context.Context) bool {
	interval := config.GetDuration(h.cfg.RabbitMQ.RetryInterval, 0)
	if interval <= 0 {
		return false
	}
	timer := time.NewTimer(interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
	return false
}

func completedMessage(requestID, resultKey string, record *types.ResumeRecord) storage.ParseResultMessage {
	return storage.ParseResultMessage{
		RequestID:       requestID,
		Status:          storage.ParseStatusCompleted,
		ResultObjectKey: resultKey,
		Record:          record,
		ParserVersion:   constants.DefaultParserVer,
		CompletedAt:     time.Now(),
	}
}

func failedMessage(requestID string, cause error) storage.ParseResultMessage {
	return storage.ParseResultMessage{
		RequestID:     requestID,
		Status:        storage.ParseStatusFailed,
		Error:         fmt.Sprint(cause),
		ParserVersion: constants.DefaultParserVer,
		CompletedAt:   time.Now(),
	}
}
