package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"resume-parser-go/internal/config"
	"resume-parser-go/internal/constants"
	"resume-parser-go/internal/tracing"
	"resume-parser-go/internal/types"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrNotFound 键不存在，等同于 redis.Nil
var ErrNotFound = redis.Nil

// 异步解析状态取值
const (
	ParseStatusPending   = "pending"
	ParseStatusCompleted = "completed"
	ParseStatusFailed    = "failed"
)

var redisTracer = otel.Tracer("resume-parser-go/storage/redis")

// Redis 解析结果缓存和异步状态存储
type Redis struct {
	Client *redis.Client
	config *config.RedisConfig
}

// ParseResultKey 返回按文本MD5缓存解析结果的键
func ParseResultKey(textMD5 string) string {
	return fmt.Sprintf(constants.KeyParseResult, textMD5)
}

// ParseStatusKey 返回异步解析请求状态的键
func ParseStatusKey(requestID string) string {
	return fmt.Sprintf(constants.KeyParseStatus, requestID)
}

// NewRedisAdapter 按配置建立连接并挂载 OpenTelemetry 钩子
func NewRedisAdapter(cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis配置不能为空")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis地址不能为空")
	}

	opt := &redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
		MaxRetries:   cfg.MaxRetries,
	}

	client := redis.NewClient(opt)
	if err := redisotel.InstrumentTracing(client); err != nil {
		client.Close()
		return nil, fmt.Errorf("为Redis挂载OpenTelemetry钩子失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("连接Redis %s 失败: %w", cfg.Address, err)
	}

	return &Redis{Client: client, config: cfg}, nil
}

// NewRedisWithClient 用已有客户端构造，主要供测试使用
func NewRedisWithClient(client *redis.Client) *Redis {
	return &Redis{Client: client}
}

// Close 关闭连接
func (r *Redis) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// Ping 检查连接
func (r *Redis) Ping(ctx context.Context) error {
	if r.Client == nil {
		return fmt.Errorf("redis客户端未初始化")
	}
	return r.Client.Ping(ctx).Err()
}

// GetParseResult 读取缓存的解析结果。未命中时返回 ErrNotFound。
func (r *Redis) GetParseResult(ctx context.Context, textMD5 string) (*types.ResumeRecord, error) {
	if r.Client == nil {
		return nil, fmt.Errorf("redis客户端未初始化")
	}
	key := ParseResultKey(textMD5)
	ctx, span := redisTracer.Start(ctx, "Redis.GetParseResult",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "redis"),
			attribute.String("db.redis.key", tracing.SafeRedisKey(key)),
		))
	defer span.End()

	raw, err := r.Client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			span.SetAttributes(attribute.Bool("db.redis.key_exists", false))
			return nil, ErrNotFound
		}
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return nil, fmt.Errorf("读取解析结果缓存失败: %w", err)
	}

	var record types.ResumeRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "缓存内容无法反序列化")
		return nil, fmt.Errorf("反序列化解析结果缓存失败: %w", err)
	}
	span.SetAttributes(
		attribute.Bool("db.redis.key_exists", true),
		attribute.Int("db.redis.value_length", len(raw)),
	)
	return &record, nil
}

// SetParseResult 缓存解析结果，ttl 为 0 表示不过期
func (r *Redis) SetParseResult(ctx context.Context, textMD5 string, record *types.ResumeRecord, ttl time.Duration) error {
	if r.Client == nil {
		return fmt.Errorf("redis客户端未初始化")
	}
	if record == nil {
		return fmt.Errorf("解析结果不能为空")
	}
	key := ParseResultKey(textMD5)
	ctx, span := redisTracer.Start(ctx, "Redis.SetParseResult",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "redis"),
			attribute.String("db.redis.key", tracing.SafeRedisKey(key)),
			attribute.String("db.redis.ttl", ttl.String()),
		))
	defer span.End()

	raw, err := json.Marshal(record)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("序列化解析结果失败: %w", err)
	}
	if err := r.Client.Set(ctx, key, raw, ttl).Err(); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return fmt.Errorf("写入解析结果缓存失败: %w", err)
	}
	return nil
}

// SetParseStatus 记录异步解析请求的状态
func (r *Redis) SetParseStatus(ctx context.Context, requestID, status string, ttl time.Duration) error {
	if r.Client == nil {
		return fmt.Errorf("redis客户端未初始化")
	}
	if err := r.Client.Set(ctx, ParseStatusKey(requestID), status, ttl).Err(); err != nil {
		return fmt.Errorf("写入解析状态失败 (request_id=%s): %w", requestID, err)
	}
	return nil
}

// GetParseStatus 读取异步解析请求的状态，不存在时返回 ErrNotFound
func (r *Redis) GetParseStatus(ctx context.Context, requestID string) (string, error) {
	if r.Client == nil {
		return "", fmt.Errorf("redis客户端未初始化")
	}
	status, err := r.Client.Get(ctx, ParseStatusKey(requestID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("读取解析状态失败 (request_id=%s): %w", requestID, err)
	}
	return status, nil
}
