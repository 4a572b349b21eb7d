package vision

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "标准双引号JSON补默认healthiness",
			input:    `{"mealName": "Pizza", "estimatedCalories": 600}`,
			expected: `{"estimatedCalories":600,"healthiness":"N/A","mealName":"Pizza"}`,
		},
		{
			name:     "已有healthiness字段保持不变",
			input:    `{"mealName": "Salad", "healthiness": "healthy"}`,
			expected: `{"healthiness":"healthy","mealName":"Salad"}`,
		},
		{
			name:     "全单引号整体替换",
			input:    `{'a': 'b', 'c': 1}`,
			expected: `{"a":"b","c":1,"healthiness":"N/A"}`,
		},
		{
			name:     "json标签围栏剥离",
			input:    "```json\n{\"a\":1}\n```",
			expected: `{"a":1,"healthiness":"N/A"}`,
		},
		{
			name:     "无标签围栏剥离",
			input:    "```\n{\"a\":1}\n```",
			expected: `{"a":1,"healthiness":"N/A"}`,
		},
		{
			name:     "围栏加单引号组合",
			input:    "```json\n{'mealName':'Pizza','estimatedCalories':600}\n```",
			expected: `{"estimatedCalories":600,"healthiness":"N/A","mealName":"Pizza"}`,
		},
		{
			name:     "大括号跨度提取忽略前后杂文",
			input:    `Here is the analysis: {"a": 1} hope it helps`,
			expected: `{"a":1,"healthiness":"N/A"}`,
		},
		{
			name:     "混合引号定向修复",
			input:    `{'name': 'Pizza', 'note': "fresh"}`,
			expected: `{"healthiness":"N/A","name":"Pizza","note":"fresh"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.input)
			if err != nil {
				t.Fatalf("Normalize(%q) 返回错误: %v", tt.input, err)
			}

			// 内容层面比较，序列化顺序由json.Marshal保证
			var gotMap, wantMap map[string]interface{}
			if err := json.Unmarshal(got, &gotMap); err != nil {
				t.Fatalf("结果不是合法JSON: %v", err)
			}
			if err := json.Unmarshal([]byte(tt.expected), &wantMap); err != nil {
				t.Fatalf("期望值不是合法JSON: %v", err)
			}
			if !reflect.DeepEqual(gotMap, wantMap) {
				t.Errorf("Normalize(%q) = %s, 期望 %s", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizeCanonicalOutput(t *testing.T) {
	// 键按字母序输出，保证规范形式稳定
	got, err := Normalize(`{'a': 'b', 'c': 1}`)
	if err != nil {
		t.Fatalf("Normalize 返回错误: %v", err)
	}
	if string(got) != `{"a":"b","c":1,"healthiness":"N/A"}` {
		t.Errorf("规范输出 = %s", got)
	}
}

func TestNormalizeFailures(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "完全不是JSON", input: "not json at all"},
		{name: "空输入", input: ""},
		{name: "纯空白", input: "   \n\t  "},
		{name: "裸数组", input: "[1, 2, 3]"},
		{name: "裸标量", input: "42"},
		{name: "残缺对象", input: `{"a": `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.input)
			if err == nil {
				t.Fatalf("Normalize(%q) 应当失败", tt.input)
			}

			var normErr *NormalizeError
			if !errors.As(err, &normErr) {
				t.Fatalf("错误类型应为 *NormalizeError, 实际 %T", err)
			}
		})
	}
}

func TestNormalizeErrorCarriesSnippets(t *testing.T) {
	input := "not json at all"
	_, err := Normalize(input)
	if err == nil {
		t.Fatal("应当返回错误")
	}
	if !strings.Contains(err.Error(), input) {
		t.Errorf("错误信息应包含原始文本片段: %v", err)
	}

	// 超长输入的诊断片段截断到200字符
	long := strings.Repeat("x", 500)
	_, err = Normalize(long)
	var normErr *NormalizeError
	if !errors.As(err, &normErr) {
		t.Fatalf("错误类型应为 *NormalizeError, 实际 %T", err)
	}
	if len(normErr.OriginalSnippet) > 200 {
		t.Errorf("原始片段长度 %d 超过200", len(normErr.OriginalSnippet))
	}
	if len(normErr.RepairedSnippet) > 200 {
		t.Errorf("修复片段长度 %d 超过200", len(normErr.RepairedSnippet))
	}
}
