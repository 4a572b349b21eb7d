package openrouter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"calories-tracker-go/src/configs"
	"calories-tracker-go/src/core/providers/vision"
	"calories-tracker-go/src/core/utils"

	"github.com/sashabaranov/go-openai"
)

const (
	defaultBaseURL   = "https://openrouter.ai/api/v1"
	defaultModelName = "anthropic/claude-3-opus-20240229"
	defaultMaxTokens = 1000

	// 单次上游调用的超时时间
	requestTimeout = 30 * time.Second

	// 错误信息中原始响应体的截断长度
	bodySnippetLen = 200
)

// Provider OpenRouter视觉分析提供者，走chat-completion多模态接口
type Provider struct {
	config *configs.VisionConfig
	logger *utils.Logger
	client *openai.Client
}

// init 注册OpenRouter视觉分析提供者
func init() {
	vision.Register("openrouter", NewProvider)
}

// NewProvider 创建OpenRouter提供者实例
func NewProvider(config *configs.VisionConfig, logger *utils.Logger) (vision.Provider, error) {
	return &Provider{
		config: config,
		logger: logger,
	}, nil
}

// Initialize 初始化API客户端
func (p *Provider) Initialize() error {
	if p.config.APIKey == "" {
		return fmt.Errorf("missing OpenRouter API key")
	}

	clientConfig := openai.DefaultConfig(p.config.APIKey)
	if p.config.BaseURL != "" {
		clientConfig.BaseURL = p.config.BaseURL
	} else {
		clientConfig.BaseURL = defaultBaseURL
	}

	// OpenRouter要求的识别头通过RoundTripper注入
	clientConfig.HTTPClient = &http.Client{
		Transport: &identifyingTransport{
			referer: p.config.Referer,
			title:   p.config.Title,
			base:    http.DefaultTransport,
		},
	}

	p.client = openai.NewClientWithConfig(clientConfig)

	p.logger.Debug("OpenRouter视觉分析客户端初始化成功 %v", map[string]interface{}{
		"model_name": p.modelName(),
		"base_url":   clientConfig.BaseURL,
	})
	return nil
}

// Cleanup 清理资源
func (p *Provider) Cleanup() error {
	return nil
}

// Analyze 对一张图片执行一次分析
func (p *Provider) Analyze(ctx context.Context, imageURL string, imageBase64 string, prompt string) (string, error) {
	if prompt == "" {
		return "", vision.NewClientError(vision.ErrKindInput, "analysis prompt must be provided")
	}
	if imageURL == "" && imageBase64 == "" {
		return "", vision.NewClientError(vision.ErrKindInput, "either image_url or image_base64 must be provided")
	}

	// 图片内容部分：URL直接透传，base64转data URI
	contentURL := imageURL
	if imageBase64 != "" {
		contentURL = "data:image/jpeg;base64," + imageBase64
	}

	request := openai.ChatCompletionRequest{
		Model: p.modelName(),
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: prompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL: contentURL,
						},
					},
				},
			},
		},
		MaxTokens: p.maxTokens(),
	}

	p.logger.Debug("开始调用OpenRouter视觉API %v", map[string]interface{}{
		"model":      request.Model,
		"max_tokens": request.MaxTokens,
		"by_url":     imageURL != "",
	})

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := p.client.CreateChatCompletion(ctx, request)
	if err != nil {
		return "", p.classifyError(err)
	}

	if len(resp.Choices) == 0 {
		return "", vision.NewClientError(vision.ErrKindEmpty, "no content in OpenRouter response")
	}

	content := resp.Choices[0].Message.Content
	p.logger.Info(fmt.Sprintf("OpenRouter视觉API调用成功，回复长度: %d", len(content)))
	return content, nil
}

// classifyError 将客户端错误归类为结构化错误，提取上游错误的type/message/code
func (p *Provider) classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		p.logger.Warn("OpenRouter返回上游错误 %v", map[string]interface{}{
			"status":  apiErr.HTTPStatusCode,
			"type":    apiErr.Type,
			"code":    apiErr.Code,
			"message": apiErr.Message,
		})
		return vision.NewClientError(vision.ErrKindUpstream,
			"OpenRouter API Error (%s): %s", apiErr.Type, apiErr.Message)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		// 上游错误体不是可解析的JSON，退回状态码加截断的原始响应体
		return vision.NewClientError(vision.ErrKindUpstream,
			"API call failed with status %d: %s",
			reqErr.HTTPStatusCode, utils.Snippet(string(reqErr.Body), bodySnippetLen))
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return vision.NewClientError(vision.ErrKindTimeout,
			"OpenRouter API request timed out after %s", requestTimeout)
	}

	return vision.NewClientError(vision.ErrKindConnection,
		"failed to connect to OpenRouter API: %v", err)
}

func (p *Provider) modelName() string {
	if p.config.ModelName != "" {
		return p.config.ModelName
	}
	return defaultModelName
}

func (p *Provider) maxTokens() int {
	if p.config.MaxTokens > 0 {
		return p.config.MaxTokens
	}
	return defaultMaxTokens
}

// identifyingTransport 为每个出站请求附加OpenRouter识别头
type identifyingTransport struct {
	referer string
	title   string
	base    http.RoundTripper
}

func (t *identifyingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.referer != "" {
		req.Header.Set("HTTP-Referer", t.referer)
	}
	if t.title != "" {
		req.Header.Set("X-Title", t.title)
	}
	return t.base.RoundTrip(req)
}
