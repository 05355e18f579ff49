package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"resume-parser-go/internal/config"
)

// Storage 聚合服务模式用到的外部依赖，未配置的组件为 nil
type Storage struct {
	// 简历原件和解析结果
	MinIO *MinIO

	// 异步解析请求和结果通知
	RabbitMQ *RabbitMQ

	// 解析结果缓存和请求状态
	Redis *Redis
}

// NewStorage 按配置初始化各组件。单个组件失败只记录警告；
// 已配置的组件全部失败时返回错误。
func NewStorage(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	s := &Storage{}
	var (
		configured int
		initErrors []string
		err        error
	)

	if cfg.MinIO.Endpoint != "" {
		configured++
		if s.MinIO, err = NewMinIO(&cfg.MinIO, logger); err != nil {
			s.MinIO = nil
			initErrors = append(initErrors, fmt.Sprintf("MinIO: %v", err))
		}
	}

	if cfg.RabbitMQ.URL != "" {
		configured++
		if s.RabbitMQ, err = NewRabbitMQ(&cfg.RabbitMQ, logger); err != nil {
			s.RabbitMQ = nil
			initErrors = append(initErrors, fmt.Sprintf("RabbitMQ: %v", err))
		} else if err = s.RabbitMQ.SetupParseTopology(); err != nil {
			s.RabbitMQ.Close()
			s.RabbitMQ = nil
			initErrors = append(initErrors, fmt.Sprintf("RabbitMQ拓扑: %v", err))
		}
	}

	if cfg.Redis.Address != "" {
		configured++
		if s.Redis, err = NewRedisAdapter(&cfg.Redis); err != nil {
			s.Redis = nil
			initErrors = append(initErrors, fmt.Sprintf("Redis: %v", err))
		}
	}

	if configured > 0 && len(initErrors) == configured {
		return nil, fmt.Errorf("所有存储组件初始化失败: %s", strings.Join(initErrors, "; "))
	}
	if len(initErrors) > 0 {
		logger.Printf("警告: 以下存储组件初始化失败: %s", strings.Join(initErrors, "; "))
	}
	return s, nil
}

// Close 关闭所有连接。MinIO 客户端无需显式关闭。
func (s *Storage) Close() {
	if s.RabbitMQ != nil {
		if err := s.RabbitMQ.Close(); err != nil {
			log.Printf("关闭RabbitMQ连接失败: %v", err)
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Printf("关闭Redis连接失败: %v", err)
		}
	}
}
