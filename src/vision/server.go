package vision

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"calories-tracker-go/src/configs"
	"calories-tracker-go/src/core/image"
	"calories-tracker-go/src/core/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DefaultAnalysisService 图片分析HTTP服务
type DefaultAnalysisService struct {
	logger    *utils.Logger
	config    *configs.Config
	client    VisionClient     // 构造时注入的视觉分析客户端
	validator *image.Validator // 内联图片验证器，未启用时为nil
}

// NewDefaultAnalysisService 构造函数，client为真实或桩实现
func NewDefaultAnalysisService(config *configs.Config, logger *utils.Logger, client VisionClient) (*DefaultAnalysisService, error) {
	if client == nil {
		return nil, fmt.Errorf("缺少视觉分析客户端")
	}

	service := &DefaultAnalysisService{
		logger: logger,
		config: config,
		client: client,
	}

	// 图片安全验证按所选模型的配置开关
	if selected := config.SelectedModule["Vision"]; selected != "" {
		if vc, ok := config.Vision[selected]; ok && vc.Security.Enabled {
			security := vc.Security
			service.validator = image.NewValidator(&security, logger)
		}
	}

	return service, nil
}

// Start 实现 AnalysisService 接口，注册所有分析相关路由
func (s *DefaultAnalysisService) Start(ctx context.Context, engine *gin.Engine, apiGroup *gin.RouterGroup) error {
	// 分析主接口（GET用于状态检查，POST用于图片分析）
	apiGroup.GET("/analyze", s.handleGet)
	apiGroup.POST("/analyze", s.handlePost)
	apiGroup.OPTIONS("/analyze", s.handleOptions)

	s.logger.Info("图片分析HTTP服务路由注册完成")
	return nil
}

// handleOptions 处理OPTIONS请求（CORS）
func (s *DefaultAnalysisService) handleOptions(c *gin.Context) {
	s.addCORSHeaders(c)
	c.Status(http.StatusOK)
}

// handleGet 处理GET请求（状态检查）
func (s *DefaultAnalysisService) handleGet(c *gin.Context) {
	s.addCORSHeaders(c)
	c.String(http.StatusOK, "meal analysis interface is running")
}

// handlePost 处理POST请求（图片分析）
func (s *DefaultAnalysisService) handlePost(c *gin.Context) {
	s.addCORSHeaders(c)

	reqID := uuid.New().String()[:8]

	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid JSON request body"})
		return
	}

	imageName := req.ImageName
	if imageName == "" {
		imageName = "unknown.jpg"
	}
	s.logger.Info(fmt.Sprintf("[%s] 收到图片分析请求: %s", reqID, imageName), map[string]interface{}{
		"url_len":    len(req.ImageURL),
		"base64_len": len(req.ImageBase64),
	})

	// 输入校验：URL和base64至少给一个
	if req.ImageURL == "" && req.ImageBase64 == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Either image_url or image_base64 must be provided",
		})
		return
	}

	// URL必须是http(s)
	if req.ImageURL != "" && !strings.HasPrefix(req.ImageURL, "http://") && !strings.HasPrefix(req.ImageURL, "https://") {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid image URL format. Must start with http:// or https://",
		})
		return
	}

	// 内联图片的安全验证（配置启用时）
	if s.validator != nil && req.ImageBase64 != "" {
		result := s.validator.ValidateBase64(req.ImageBase64)
		if !result.IsValid {
			s.logger.Warn(fmt.Sprintf("[%s] 图片验证失败: %v", reqID, result.Error))
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error: fmt.Sprintf("Invalid image data: %v", result.Error),
			})
			return
		}
	}

	// 上游调用与归一化：任何失败都转成200的统一兜底包络，调用方永远能解析
	normalized, err := s.analyze(c.Request.Context(), &req)
	if err != nil {
		s.logger.Warn(fmt.Sprintf("[%s] 图片分析失败: %v", reqID, err))
		c.JSON(http.StatusOK, FallbackResponse{
			Error:            "Failed to analyze image with OpenRouter Vision API",
			Message:          err.Error(),
			FallbackAnalysis: newFallbackAnalysis(),
		})
		return
	}

	s.logger.Info(fmt.Sprintf("[%s] 图片分析成功，结果长度: %d", reqID, len(normalized)))
	c.Data(http.StatusOK, "application/json", normalized)
}

// analyze 调用视觉客户端并把原始回复归一化为严格JSON
func (s *DefaultAnalysisService) analyze(ctx context.Context, req *AnalyzeRequest) ([]byte, error) {
	raw, err := s.client.Analyze(ctx, req.ImageURL, req.ImageBase64, analysisPrompt)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("视觉模型原始回复 %v", map[string]interface{}{
		"snippet": utils.Snippet(raw, 500),
	})

	return Normalize(raw)
}

// addCORSHeaders 添加CORS头
func (s *DefaultAnalysisService) addCORSHeaders(c *gin.Context) {
	c.Header("Access-Control-Allow-Headers", "content-type, authorization")
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
}
