package verification

import (
	"context"

	"github.com/gin-gonic/gin"
)

// VerificationService 定义邮箱验证码服务接口
type VerificationService interface {
	// 将验证码相关的路由注册到 engine 与 apiGroup
	Start(ctx context.Context, engine *gin.Engine, apiGroup *gin.RouterGroup) error
}

// CodeSender 验证码投递端口，返回是否投递成功，投递失败不影响请求结果
type CodeSender interface {
	Send(ctx context.Context, to string, code string) bool
}
