package verification

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"

	"calories-tracker-go/src/configs"
	"calories-tracker-go/src/core/utils"

	"github.com/gin-gonic/gin"
)

// 验证码位数
const codeLength = 6

// VerificationResponse 验证码生成响应，投递失败时依然返回验证码
type VerificationResponse struct {
	VerificationCode string `json:"verification_code"`
	Message          string `json:"message"`
	EmailSent        bool   `json:"email_sent"`
}

// ErrorResponse 客户端输入错误响应
type ErrorResponse struct {
	Error string `json:"error"`
}

// DefaultVerificationService 邮箱验证码HTTP服务。
// 验证码不在服务端存储，也不做过期控制：同一邮箱的两次请求各自独立。
type DefaultVerificationService struct {
	logger *utils.Logger
	config *configs.Config
	sender CodeSender // 构造时注入的投递实现
}

// NewDefaultVerificationService 构造函数
func NewDefaultVerificationService(config *configs.Config, logger *utils.Logger, sender CodeSender) (*DefaultVerificationService, error) {
	if sender == nil {
		return nil, fmt.Errorf("缺少验证码投递实现")
	}
	return &DefaultVerificationService{
		logger: logger,
		config: config,
		sender: sender,
	}, nil
}

// Start 实现 VerificationService 接口，注册所有验证码相关路由
func (s *DefaultVerificationService) Start(ctx context.Context, engine *gin.Engine, apiGroup *gin.RouterGroup) error {
	// 兼容GET和POST两种触发方式，参数都从query取
	apiGroup.GET("/verification", s.handleVerification)
	apiGroup.POST("/verification", s.handleVerification)
	apiGroup.OPTIONS("/verification", s.handleOptions)

	s.logger.Info("邮箱验证码HTTP服务路由注册完成")
	return nil
}

// handleOptions 处理OPTIONS请求（CORS）
func (s *DefaultVerificationService) handleOptions(c *gin.Context) {
	s.addCORSHeaders(c)
	c.Status(http.StatusOK)
}

// handleVerification 生成6位验证码并尝试邮件投递
func (s *DefaultVerificationService) handleVerification(c *gin.Context) {
	s.addCORSHeaders(c)

	email := c.Query("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Email parameter is required"})
		return
	}

	s.logger.Info(fmt.Sprintf("收到验证码请求: %s", email))

	code := GenerateCode()

	// 投递失败只记录日志，验证码照常返回给调用方
	sent := s.sender.Send(c.Request.Context(), email, code)
	if !sent {
		s.logger.Warn(fmt.Sprintf("验证码邮件投递失败: %s", email))
	}

	c.JSON(http.StatusOK, VerificationResponse{
		VerificationCode: code,
		Message:          "Verification code generated successfully",
		EmailSent:        sent,
	})
}

// GenerateCode 生成6位数字验证码，每一位独立均匀采样。
// 使用非加密随机源，与上游实现保持一致。
func GenerateCode() string {
	var digits [codeLength]byte
	for i := range digits {
		digits[i] = byte('0' + rand.Intn(10))
	}
	return string(digits[:])
}

// addCORSHeaders 添加CORS头
func (s *DefaultVerificationService) addCORSHeaders(c *gin.Context) {
	c.Header("Access-Control-Allow-Headers", "content-type, authorization")
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
}
