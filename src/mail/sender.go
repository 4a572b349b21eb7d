package mail

import (
	"context"
	"fmt"
	"time"

	"calories-tracker-go/src/configs"
	"calories-tracker-go/src/core/utils"

	gomail "github.com/wneessen/go-mail"
)

// SMTP连接超时时间
const connectTimeout = 30 * time.Second

// SMTPSender 验证码邮件投递器。服务器支持STARTTLS时升级加密通道，
// 不支持时容忍明文继续；配置了密码才做认证，否则尝试匿名投递。
type SMTPSender struct {
	config *configs.MailConfig
	logger *utils.Logger
}

// NewSMTPSender 构造函数
func NewSMTPSender(config *configs.Config, logger *utils.Logger) *SMTPSender {
	return &SMTPSender{
		config: &config.Mail,
		logger: logger,
	}
}

// Send 渲染双格式（纯文本+HTML）邮件并通过SMTP投递。
// 任何失败都只记录日志并返回false，不会向调用方抛出。
func (s *SMTPSender) Send(ctx context.Context, to string, code string) bool {
	s.logger.Info(fmt.Sprintf("开始发送验证码邮件: %s，SMTP服务器: %s:%d",
		to, s.config.SMTPServer, s.config.SMTPPort))

	msg, err := s.buildMessage(to, code)
	if err != nil {
		s.logger.Error(fmt.Sprintf("构造验证码邮件失败: %v", err))
		return false
	}

	client, err := s.newClient()
	if err != nil {
		s.logger.Error(fmt.Sprintf("创建SMTP客户端失败: %v", err))
		return false
	}

	// DialAndSend保证每条退出路径都会尝试关闭会话，关闭失败只记日志
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		s.logger.Error(fmt.Sprintf("验证码邮件投递失败: %v", err), map[string]interface{}{
			"to":     to,
			"server": s.config.SMTPServer,
		})
		return false
	}

	s.logger.Info(fmt.Sprintf("验证码邮件投递成功: %s", to))
	return true
}

// buildMessage 用固定模板和当前年份渲染双格式邮件
func (s *SMTPSender) buildMessage(to string, code string) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(s.config.Sender); err != nil {
		return nil, fmt.Errorf("无效的发件人地址 %q: %w", s.config.Sender, err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("无效的收件人地址 %q: %w", to, err)
	}

	year := time.Now().Format("2006")
	msg.Subject(verificationSubject)
	msg.SetBodyString(gomail.TypeTextPlain, renderVerificationText(code, year))
	msg.AddAlternativeString(gomail.TypeTextHTML, renderVerificationHTML(code, year))
	return msg, nil
}

// newClient 按配置创建SMTP客户端，STARTTLS按机会协商
func (s *SMTPSender) newClient() (*gomail.Client, error) {
	opts := []gomail.Option{
		gomail.WithPort(s.config.SMTPPort),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(connectTimeout),
	}

	if s.config.Password != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.config.Sender),
			gomail.WithPassword(s.config.Password),
		)
	} else {
		s.logger.Warn("未配置SMTP密码，尝试匿名投递")
	}

	return gomail.NewClient(s.config.SMTPServer, opts...)
}
