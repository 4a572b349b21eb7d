package openrouter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"calories-tracker-go/src/configs"
	"calories-tracker-go/src/core/providers/vision"
	"calories-tracker-go/src/core/utils"
)

func newTestLogger(t *testing.T) *utils.Logger {
	t.Helper()
	config := &configs.Config{}
	config.Log.LogDir = t.TempDir()
	config.Log.LogFile = "test.log"

	logger, err := utils.NewLogger(config)
	if err != nil {
		t.Fatalf("创建日志记录器失败: %v", err)
	}
	t.Cleanup(func() { logger.Close() })
	return logger
}

// newTestProvider 创建指向本地测试服务器的提供者
func newTestProvider(t *testing.T, baseURL string) vision.Provider {
	t.Helper()
	config := &configs.VisionConfig{
		Type:      "openrouter",
		ModelName: "anthropic/claude-3-opus-20240229",
		BaseURL:   baseURL,
		APIKey:    "test-key",
		MaxTokens: 1000,
		Referer:   "https://theholylabs.com",
		Title:     "Kali AI Food Analysis",
	}

	provider, err := NewProvider(config, newTestLogger(t))
	if err != nil {
		t.Fatalf("创建提供者失败: %v", err)
	}
	if err := provider.Initialize(); err != nil {
		t.Fatalf("初始化提供者失败: %v", err)
	}
	return provider
}

func assertClientError(t *testing.T, err error, kind vision.ErrorKind) *vision.ClientError {
	t.Helper()
	if err == nil {
		t.Fatal("期望返回错误")
	}
	var clientErr *vision.ClientError
	if !errors.As(err, &clientErr) {
		t.Fatalf("期望*vision.ClientError, 实际: %T %v", err, err)
	}
	if clientErr.Kind != kind {
		t.Fatalf("错误类别 = %q, 期望 %q, 消息: %s", clientErr.Kind, kind, clientErr.Message)
	}
	return clientErr
}

func TestAnalyzeSuccess(t *testing.T) {
	var gotReferer, gotTitle, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("意外的请求路径: %s", r.URL.Path)
		}
		gotReferer = r.Header.Get("HTTP-Referer")
		gotTitle = r.Header.Get("X-Title")
		gotAuth = r.Header.Get("Authorization")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "gen-1",
			"object": "chat.completion",
			"model": "anthropic/claude-3-opus-20240229",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"mealName\": \"Pizza\"}"}, "finish_reason": "stop"}]
		}`))
	}))
	defer server.Close()

	provider := newTestProvider(t, server.URL)
	content, err := provider.Analyze(context.Background(), "https://example.com/meal.jpg", "", "describe the meal")
	if err != nil {
		t.Fatalf("分析失败: %v", err)
	}
	if content != `{"mealName": "Pizza"}` {
		t.Errorf("回复内容 = %q", content)
	}

	if gotReferer != "https://theholylabs.com" {
		t.Errorf("HTTP-Referer = %q", gotReferer)
	}
	if gotTitle != "Kali AI Food Analysis" {
		t.Errorf("X-Title = %q", gotTitle)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
}

func TestAnalyzeInputValidation(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	provider := newTestProvider(t, server.URL)

	tests := []struct {
		name        string
		imageURL    string
		imageBase64 string
		prompt      string
	}{
		{name: "缺少提示词", imageURL: "https://example.com/meal.jpg", prompt: ""},
		{name: "图片来源全部缺失", prompt: "describe the meal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := provider.Analyze(context.Background(), tt.imageURL, tt.imageBase64, tt.prompt)
			assertClientError(t, err, vision.ErrKindInput)
		})
	}

	// 入参校验失败不应产生网络请求
	if n := hits.Load(); n != 0 {
		t.Errorf("上游收到了 %d 次请求", n)
	}
}

func TestAnalyzeUpstreamAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error": {"message": "Insufficient credits", "type": "payment"}}`))
	}))
	defer server.Close()

	provider := newTestProvider(t, server.URL)
	_, err := provider.Analyze(context.Background(), "https://example.com/meal.jpg", "", "describe the meal")

	clientErr := assertClientError(t, err, vision.ErrKindUpstream)
	if !strings.Contains(clientErr.Message, "Insufficient credits") {
		t.Errorf("错误消息应包含上游message: %s", clientErr.Message)
	}
	if !strings.Contains(clientErr.Message, "payment") {
		t.Errorf("错误消息应包含上游type: %s", clientErr.Message)
	}
}

func TestAnalyzeUpstreamNonJSONError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	}))
	defer server.Close()

	provider := newTestProvider(t, server.URL)
	_, err := provider.Analyze(context.Background(), "https://example.com/meal.jpg", "", "describe the meal")

	clientErr := assertClientError(t, err, vision.ErrKindUpstream)
	if !strings.Contains(clientErr.Message, "502") {
		t.Errorf("错误消息应包含状态码: %s", clientErr.Message)
	}
	if !strings.Contains(clientErr.Message, "upstream exploded") {
		t.Errorf("错误消息应包含响应体片段: %s", clientErr.Message)
	}
}

func TestAnalyzeEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "gen-2", "object": "chat.completion", "choices": []}`))
	}))
	defer server.Close()

	provider := newTestProvider(t, server.URL)
	_, err := provider.Analyze(context.Background(), "https://example.com/meal.jpg", "", "describe the meal")
	assertClientError(t, err, vision.ErrKindEmpty)
}

func TestAnalyzeConnectionFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // 立即关闭，模拟不可达的上游

	provider := newTestProvider(t, server.URL)
	_, err := provider.Analyze(context.Background(), "https://example.com/meal.jpg", "", "describe the meal")
	assertClientError(t, err, vision.ErrKindConnection)
}

func TestInitializeRequiresAPIKey(t *testing.T) {
	provider, err := NewProvider(&configs.VisionConfig{Type: "openrouter"}, newTestLogger(t))
	if err != nil {
		t.Fatalf("创建提供者失败: %v", err)
	}
	if err := provider.Initialize(); err == nil {
		t.Fatal("缺少API密钥时初始化应失败")
	}
}
