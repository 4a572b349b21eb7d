package vision

import (
	"context"

	"github.com/gin-gonic/gin"
)

// AnalysisService 定义图片分析服务接口
type AnalysisService interface {
	// 将分析相关的路由注册到 engine 与 apiGroup
	Start(ctx context.Context, engine *gin.Engine, apiGroup *gin.RouterGroup) error
}

// VisionClient 视觉分析客户端端口，处理器在构造时注入实现（真实或桩）
type VisionClient interface {
	Analyze(ctx context.Context, imageURL string, imageBase64 string, prompt string) (string, error)
}
