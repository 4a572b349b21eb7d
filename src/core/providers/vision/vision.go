package vision

import (
	"context"
	"fmt"

	"calories-tracker-go/src/configs"
	"calories-tracker-go/src/core/utils"
)

// ErrorKind 视觉分析调用的失败类别
type ErrorKind string

const (
	ErrKindInput      ErrorKind = "input"      // 调用方入参缺失
	ErrKindTimeout    ErrorKind = "timeout"    // 上游请求超时
	ErrKindConnection ErrorKind = "connection" // 网络连接失败
	ErrKindUpstream   ErrorKind = "upstream"   // 上游返回非成功状态
	ErrKindEmpty      ErrorKind = "empty"      // 上游响应中没有可用内容
)

// ClientError 视觉分析客户端的结构化错误，错误不会越过客户端边界以panic形式传播
type ClientError struct {
	Kind    ErrorKind
	Message string
}

func (e *ClientError) Error() string {
	return e.Message
}

// NewClientError 创建结构化错误
func NewClientError(kind ErrorKind, format string, args ...interface{}) *ClientError {
	return &ClientError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// Provider 视觉分析提供者接口
type Provider interface {
	// Analyze 对一张图片执行一次分析，图片来源为URL或base64二选一，返回模型的文本回复
	Analyze(ctx context.Context, imageURL string, imageBase64 string, prompt string) (string, error)
	Initialize() error
	Cleanup() error
}

// Factory 视觉分析提供者工厂函数类型
type Factory func(config *configs.VisionConfig, logger *utils.Logger) (Provider, error)

var factories = make(map[string]Factory)

// Register 注册视觉分析提供者工厂
func Register(name string, factory Factory) {
	factories[name] = factory
}

// Create 创建视觉分析提供者实例
func Create(name string, config *configs.VisionConfig, logger *utils.Logger) (Provider, error) {
	factory, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("未知的视觉分析提供者: %s", name)
	}

	provider, err := factory(config, logger)
	if err != nil {
		return nil, fmt.Errorf("创建视觉分析提供者失败: %v", err)
	}

	if err := provider.Initialize(); err != nil {
		return nil, fmt.Errorf("初始化视觉分析提供者失败: %v", err)
	}

	return provider, nil
}
