package mail

import "fmt"

// 验证码邮件主题
const verificationSubject = "Your Verification Code for Calzo"

// verificationHTMLTemplate HTML正文模板，占位符依次为验证码和年份
const verificationHTMLTemplate = `<html><head><style>body{font-family:Arial,sans-serif;line-height:1.6;color:#333333}.container{max-width:600px;margin:0 auto;padding:20px}.code{font-size:32px;font-weight:bold;color:#4A90E2;letter-spacing:5px;text-align:center;padding:20px;margin:20px 0;background-color:#F5F5F5;border-radius:5px}.footer{font-size:12px;color:#666666;text-align:center;margin-top:30px}</style></head><body><div class="container"><h2>Welcome to Calzo!</h2><p>Thank you for signing up. To complete your registration, please use the following verification code:</p><div class="code">%s</div><p>This code will expire in 10 minutes for security purposes.</p><p>If you didn't request this code, please ignore this email.</p><div class="footer"><p>This is an automated message, please do not reply.</p><p>&copy; %s Calzo. All rights reserved.</p></div></div></body></html>`

// verificationTextTemplate 纯文本正文模板，占位符依次为验证码和年份
const verificationTextTemplate = `Welcome to Calzo!

Thank you for signing up. To complete your registration, please use the following verification code:

%s

This code will expire in 10 minutes for security purposes.

If you didn't request this code, please ignore this email.

This is an automated message, please do not reply.
© %s Calzo. All rights reserved.`

// renderVerificationHTML 渲染HTML正文
func renderVerificationHTML(code, year string) string {
	return fmt.Sprintf(verificationHTMLTemplate, code, year)
}

// renderVerificationText 渲染纯文本正文
func renderVerificationText(code, year string) string {
	return fmt.Sprintf(verificationTextTemplate, code, year)
}
