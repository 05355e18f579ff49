package tracing

import (
	"errors"
	"strings"
)

const (
	// DefaultMaxLength 默认最大属性长度
	DefaultMaxLength = 200

	// MaxRedisKeyLength Redis 键最大长度
	MaxRedisKeyLength = 100

	// MaxFileNameLength 文件名或对象键最大长度
	MaxFileNameLength = 120
)

// 属性名包含这些关键字时，值需要掩码
var piiKeywords = []string{
	"email", "phone", "linkedin", "github",
	"password", "secret", "token", "api_key",
	"name", "姓名", "电话", "邮箱",
}

// SafeAttributeValue 返回可安全写入 span 的属性值：
// 敏感属性做掩码，其余按 maxLength 截断。
func SafeAttributeValue(name, value string, maxLength int) string {
	lower := strings.ToLower(name)
	for _, keyword := range piiKeywords {
		if strings.Contains(lower, keyword) {
			return MaskPII(value)
		}
	}
	return TruncateString(value, maxLength)
}

// MaskPII 保留首尾少量字符，其余替换为 *
//
//	"张三" -> "张*"
//	"王小明" -> "王*明"
//	"jane@example.com" -> "ja************om"
func MaskPII(value string) string {
	runes := []rune(value)
	n := len(runes)
	switch {
	case n == 0:
		return ""
	case n == 1:
		return "*"
	case n == 2:
		return string(runes[0]) + "*"
	case n <= 4:
		return string(runes[0]) + strings.Repeat("*", n-2) + string(runes[n-1])
	default:
		return string(runes[:2]) + strings.Repeat("*", n-4) + string(runes[n-2:])
	}
}

// TruncateString 超长时保留首尾，中间用 ... 连接
func TruncateString(s string, maxLength int) string {
	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return string(runes[:maxLength])
	}
	half := max((maxLength-3)/2, 1)
	return string(runes[:half]) + "..." + string(runes[len(runes)-half:])
}

// SafeRedisKey 截断 Redis 键
func SafeRedisKey(key string) string {
	return TruncateString(key, MaxRedisKeyLength)
}


// RedactFileName 把文本中出现的文件名替换为掩码形式
func RedactFileName(text, fileName string) string {
	if fileName == "" || !strings.Contains(text, fileName) {
		return text
	}
	return strings.ReplaceAll(text, fileName, MaskPII(fileName))
}

// RedactError 返回错误信息中文件名已掩码的错误，仅用于写日志或 span，
// 不包含文件名时原样返回
func RedactError(err error, fileName string) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	redacted := RedactFileName(msg, fileName)
	if redacted == msg {
		return err
	}
	return errors.New(redacted)
}
