package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"calories-tracker-go/src/configs"
	"calories-tracker-go/src/core/providers/vision"
	"calories-tracker-go/src/core/utils"
	"calories-tracker-go/src/mail"
	analysis "calories-tracker-go/src/vision"
	"calories-tracker-go/src/verification"

	// 导入所有providers以确保init函数被调用
	_ "calories-tracker-go/src/core/providers/vision/openrouter"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func LoadConfigAndLogger() (*configs.Config, *utils.Logger, error) {
	// 先加载 .env 文件，配置读取时环境变量才可用
	if err := godotenv.Load(); err != nil {
		fmt.Println("未找到 .env 文件，使用系统环境变量")
	}

	// 加载配置,默认使用.config.yaml
	config, configPath, err := configs.LoadConfig()
	if err != nil {
		return nil, nil, err
	}

	// 初始化日志系统
	logger, err := utils.NewLogger(config)
	if err != nil {
		return nil, nil, err
	}
	logger.Info(fmt.Sprintf("日志系统初始化成功, 配置文件路径: %s", configPath))

	return config, logger, nil
}

// newVisionClient 按配置创建所选的视觉分析提供者
func newVisionClient(config *configs.Config, logger *utils.Logger) (vision.Provider, error) {
	selected := config.SelectedModule["Vision"]
	if selected == "" {
		return nil, fmt.Errorf("请设置好Vision provider配置")
	}

	visionConfig, ok := config.Vision[selected]
	if !ok {
		return nil, fmt.Errorf("未找到Vision配置: %s", selected)
	}

	provider, err := vision.Create(visionConfig.Type, &visionConfig, logger)
	if err != nil {
		return nil, err
	}

	logger.Info(fmt.Sprintf("Vision provider %s 初始化成功", selected))
	return provider, nil
}

func StartHttpServer(config *configs.Config, logger *utils.Logger, g *errgroup.Group, groupCtx context.Context) (*http.Server, error) {
	// 初始化Gin引擎
	if config.Log.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	router.SetTrustedProxies([]string{"0.0.0.0"})

	// API路由全部挂载到/api前缀下
	apiGroup := router.Group("/api")

	// 启动图片分析服务
	visionClient, err := newVisionClient(config, logger)
	if err != nil {
		logger.Error("Vision 客户端初始化失败 %v", err)
		return nil, err
	}
	analysisService, err := analysis.NewDefaultAnalysisService(config, logger, visionClient)
	if err != nil {
		logger.Error("分析服务初始化失败 %v", err)
		return nil, err
	}
	if err := analysisService.Start(groupCtx, router, apiGroup); err != nil {
		logger.Error("分析服务启动失败", err)
		return nil, err
	}

	// 启动邮箱验证码服务
	sender := mail.NewSMTPSender(config, logger)
	verificationService, err := verification.NewDefaultVerificationService(config, logger, sender)
	if err != nil {
		logger.Error("验证码服务初始化失败 %v", err)
		return nil, err
	}
	if err := verificationService.Start(groupCtx, router, apiGroup); err != nil {
		logger.Error("验证码服务启动失败", err)
		return nil, err
	}

	// HTTP Server（支持优雅关机）
	httpServer := &http.Server{
		Addr:    ":" + strconv.Itoa(config.Server.Port),
		Handler: router,
	}

	g.Go(func() error {
		logger.Info(fmt.Sprintf("Gin 服务已启动，访问地址: http://0.0.0.0:%d", config.Server.Port))

		// 在单独的 goroutine 中监听关闭信号
		go func() {
			<-groupCtx.Done()
			logger.Info("收到关闭信号，开始关闭HTTP服务...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("HTTP服务关闭失败", err)
			} else {
				logger.Info("HTTP服务已优雅关闭")
			}
		}()

		// ListenAndServe 返回 ErrServerClosed 时表示正常关闭
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP 服务启动失败", err)
			return err
		}
		return nil
	})

	return httpServer, nil
}

func GracefulShutdown(cancel context.CancelFunc, logger *utils.Logger, g *errgroup.Group) {
	// 监听系统信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	// 等待信号
	sig := <-sigChan
	logger.Info(fmt.Sprintf("接收到系统信号: %v，开始优雅关闭服务", sig))

	// 取消上下文，通知服务开始关闭
	cancel()

	// 等待服务关闭，设置超时保护
	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.Error("服务关闭过程中出现错误", err)
			os.Exit(1)
		}
		logger.Info("所有服务已优雅关闭")
	case <-time.After(15 * time.Second):
		logger.Error("服务关闭超时，强制退出")
		os.Exit(1)
	}
}

func main() {
	// 加载配置和初始化日志系统
	config, logger, err := LoadConfigAndLogger()
	if err != nil {
		fmt.Println("加载配置或初始化日志系统失败:", err)
		os.Exit(1)
	}
	defer logger.Close()

	// 创建可取消的上下文
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 用 errgroup 管理HTTP服务
	g, groupCtx := errgroup.WithContext(ctx)

	if _, err := StartHttpServer(config, logger, g, groupCtx); err != nil {
		logger.Error("启动服务失败:", err)
		cancel()
		os.Exit(1)
	}

	// 启动优雅关机处理
	GracefulShutdown(cancel, logger, g)

	logger.Info("程序已成功退出")
}
