package utils

// Snippet 截断字符串，用于日志和诊断信息中的片段展示
func Snippet(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
