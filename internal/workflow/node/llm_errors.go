package node

import "strings"

// IsResponseFormatUnsupportedError 判断 OpenAI 兼容端点是否拒绝了 response_format 参数
func IsResponseFormatUnsupportedError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "response_format"):
		return true
	case strings.Contains(msg, "json_schema"):
		return true
	case strings.Contains(msg, "unknown parameter") && strings.Contains(msg, "response"):
		return true
	case strings.Contains(msg, "response_schema"):
		return true
	default:
		return false
	}
}

// IsAuthError 判断错误是否来自凭证被拒（401/403）
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "401"), strings.Contains(msg, "403"):
		return true
	case strings.Contains(msg, "unauthorized"), strings.Contains(msg, "permission denied"):
		return true
	case strings.Contains(msg, "invalid api key"), strings.Contains(msg, "incorrect api key"), strings.Contains(msg, "api key not valid"):
		return true
	default:
		return false
	}
}
