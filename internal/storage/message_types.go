package storage

import (
	"fmt"
	"time"

	"resume-parser-go/internal/types"

	"github.com/gofrs/uuid/v5"
)

// ParseRequestMessage 异步解析请求，简历原件已在 MinIO 中
type ParseRequestMessage struct {
	RequestID   string    `json:"request_id"`
	ObjectKey   string    `json:"object_key"`
	FileName    string    `json:"file_name"`
	Format      string    `json:"format,omitempty"` // 结果输出格式，json 或 txt
	SubmittedAt time.Time `json:"submitted_at"`
}

// ParseResultMessage 异步解析完成通知
type ParseResultMessage struct {
	RequestID       string              `json:"request_id"`
	Status          string              `json:"status"`
	ResultObjectKey string              `json:"result_object_key,omitempty"`
	Record          *types.ResumeRecord `json:"record,omitempty"`
	Error           string              `json:"error,omitempty"`
	ParserVersion   string              `json:"parser_version"`
	CompletedAt     time.Time           `json:"completed_at"`
}

// NewRequestID 生成按时间有序的请求ID (UUIDv7)
func NewRequestID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("生成请求ID失败: %w", err)
	}
	return id.String(), nil
}

// Validate 检查请求消息的必填字段
func (m *ParseRequestMessage) Validate() error {
	switch {
	case m.RequestID == "":
		return fmt.Errorf("request_id 不能为空")
	case m.ObjectKey == "":
		return fmt.Errorf("object_key 不能为空")
	case m.FileName == "":
		return fmt.Errorf("file_name 不能为空")
	}
	return nil
}
