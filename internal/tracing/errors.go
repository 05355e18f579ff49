package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrorType 错误分类，写入 span 的 error.type 属性
type ErrorType string

const (
	ErrorTypeHTTP          ErrorType = "http"
	ErrorTypeRedis         ErrorType = "redis"
	ErrorTypeRabbitMQ      ErrorType = "rabbitmq"
	ErrorTypeObjectStorage ErrorType = "object_storage"
	// ErrorTypeExtraction 文档文本提取失败
	ErrorTypeExtraction ErrorType = "extraction"
	// ErrorTypeParse 分段或字段抽取失败
	ErrorTypeParse ErrorType = "parse"
	// ErrorTypeLLM 技能短语模型调用失败
	ErrorTypeLLM        ErrorType = "llm"
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeInternal   ErrorType = "internal"
)

// RecordError 在 span 上记录错误并标记为失败
func RecordError(span trace.Span, err error, errorType ErrorType, attrs ...attribute.KeyValue) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetAttributes(
		attribute.String("error.type", string(errorType)),
		attribute.String("error.message", TruncateString(err.Error(), DefaultMaxLength)),
	)
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	span.SetStatus(codes.Error, err.Error())
}

// RecordHTTPError 记录 HTTP 错误，并按状态码区分客户端或服务端错误
func RecordHTTPError(span trace.Span, err error, statusCode int) {
	if span == nil || err == nil {
		return
	}
	RecordError(span, err, ErrorTypeHTTP,
		attribute.Int("http.status_code", statusCode),
		attribute.String("error.category", httpErrorCategory(statusCode)),
	)
}

func httpErrorCategory(statusCode int) string {
	switch {
	case statusCode >= 400 && statusCode < 500:
		return "client_error"
	case statusCode >= 500:
		return "server_error"
	default:
		return "unknown"
	}
}
