package vision

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"calories-tracker-go/src/core/utils"
)

// 诊断片段的截断长度
const snippetLen = 200

// 混合引号场景下的定向修复：单引号键与单引号值
var (
	singleQuotedKey   = regexp.MustCompile(`'([^']*)'(\s*:)`)
	singleQuotedValue = regexp.MustCompile(`:\s*'([^']*)'`)
)

// NormalizeError 归一化失败的结构化错误，携带截断的诊断片段，仅用于排查不用于程序匹配
type NormalizeError struct {
	Cause           error  // 底层JSON解码错误
	OriginalSnippet string // 修复前候选文本的前缀
	RepairedSnippet string // 修复后候选文本的前缀
}

func (e *NormalizeError) Error() string {
	return fmt.Sprintf("could not parse vision output as JSON: %v. Original snippet: %s. Repaired snippet: %s",
		e.Cause, e.OriginalSnippet, e.RepairedSnippet)
}

func (e *NormalizeError) Unwrap() error {
	return e.Cause
}

// Normalize 把视觉模型松散的文本回复归一化为严格的JSON对象：
// 剥离markdown围栏，定位大括号边界，修复非标准引号，严格解析，
// 缺失healthiness字段时补默认值"N/A"，最后按规范形式重新序列化。
func Normalize(raw string) ([]byte, error) {
	candidate := stripFence(strings.TrimSpace(raw))

	// 取首个'{'到末个'}'之间的子串作为JSON候选，找不到就整体作为候选
	start := strings.Index(candidate, "{")
	end := strings.LastIndex(candidate, "}")
	if start != -1 && end != -1 && end > start {
		candidate = candidate[start : end+1]
	}

	repaired := repairQuotes(candidate)

	parsed := map[string]interface{}{}
	if err := json.Unmarshal([]byte(repaired), &parsed); err != nil {
		// 空候选、裸数组、标量等非对象输入都走同一条失败路径
		return nil, &NormalizeError{
			Cause:           err,
			OriginalSnippet: utils.Snippet(candidate, snippetLen),
			RepairedSnippet: utils.Snippet(repaired, snippetLen),
		}
	}

	if _, ok := parsed["healthiness"]; !ok {
		parsed["healthiness"] = "N/A"
	}

	return json.Marshal(parsed)
}

// stripFence 剥离三反引号围栏，可选带json标签
func stripFence(text string) string {
	if strings.HasPrefix(text, "```json") && strings.HasSuffix(text, "```") {
		return strings.TrimSpace(text[len("```json") : len(text)-len("```")])
	}
	if strings.HasPrefix(text, "```") && strings.HasSuffix(text, "```") && len(text) >= 6 {
		return strings.TrimSpace(text[len("```") : len(text)-len("```")])
	}
	return text
}

// repairQuotes 修复模型常见的单引号JSON。全单引号时整体替换是安全的；
// 混合引号时只做两处定向替换（单引号键、单引号值），不处理嵌在双引号串里的引号。
func repairQuotes(candidate string) string {
	if !strings.Contains(candidate, "'") {
		return candidate
	}

	if !strings.Contains(candidate, `"`) {
		return strings.ReplaceAll(candidate, "'", `"`)
	}

	repaired := singleQuotedKey.ReplaceAllString(candidate, `"${1}"${2}`)
	repaired = singleQuotedValue.ReplaceAllString(repaired, `: "${1}"`)
	return repaired
}
