package extractor

import "log"

// logWarn 以 [WARN] 前缀写日志，logger 为空时不输出
func logWarn(logger *log.Logger, format string, args ...any) {
	if logger == nil {
		return
	}
	logger.Printf("[WARN] "+format, args...)
}
