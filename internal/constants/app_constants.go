package constants

import (
	"strings"
	"time"
)

const (
	// DefaultParserVer 解析器版本，写入结果消息
	DefaultParserVer = "1.0"

	// ParseResultCacheDuration 解析结果缓存的默认有效期
	ParseResultCacheDuration = 24 * time.Hour

	// DefaultOutputDir CLI 默认输出目录
	DefaultOutputDir = "output"

	// DefaultWorkers 批量解析的默认并发数
	DefaultWorkers = 4

	// MaxUploadSize 上传文件大小上限
	MaxUploadSize = 20 << 20
)

// SupportedExtensions 可解析的文件扩展名（小写）
var SupportedExtensions = []string{".pdf", ".docx", ".doc", ".txt"}

// IsSupportedExtension 大小写不敏感地判断扩展名是否受支持
func IsSupportedExtension(ext string) bool {
	for _, e := range SupportedExtensions {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}
