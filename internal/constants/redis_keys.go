package constants

// Redis Key 前缀和格式常量
// 使用统一的命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 是所有Redis Key的统一应用前缀
	AppPrefix = "app"

	// ParseModulePrefix 解析模块
	ParseModulePrefix = "parse"

	// EntityResult 解析结果实体
	EntityResult = "result"
	// EntityStatus 异步解析状态实体
	EntityStatus = "status"

	// KeyParseResult 按文本MD5缓存的解析结果 (STRING, JSON)
	// 格式: app:parse:result:{textMD5}
	KeyParseResult = AppPrefix + ":" + ParseModulePrefix + ":" + EntityResult + ":%s"

	// KeyParseStatus 异步解析请求的状态 (STRING)
	// 格式: app:parse:status:{requestID}
	KeyParseStatus = AppPrefix + ":" + ParseModulePrefix + ":" + EntityStatus + ":%s"
)
