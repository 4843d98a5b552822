package mail

import (
	"fmt"

	"github.com/bhavyaajainn/chatly/config"

	"gopkg.in/gomail.v2"
)

// Sender 邮件发送器，验证码与重置密码邮件都从这里出去。
type Sender struct {
	cfg    config.MailConfig
	dialer *gomail.Dialer
}

// NewSender 创建邮件发送器
func NewSender(cfg config.MailConfig) *Sender {
	return &Sender{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

// SendVerifyCode 发送邮箱验证码
func (s *Sender) SendVerifyCode(to, code string) error {
	subject := "Chatly 邮箱验证码"
	body := fmt.Sprintf(`<p>你的验证码是 <b>%s</b>，10 分钟内有效。</p>
<p>如果这不是你的操作，请忽略本邮件。</p>`, code)
	return s.send(to, subject, body)
}

// SendPasswordReset 发送密码重置链接
func (s *Sender) SendPasswordReset(to, resetURL string) error {
	subject := "Chatly 重置密码"
	body := fmt.Sprintf(`<p>点击以下链接重置密码，30 分钟内有效：</p>
<p><a href="%s">%s</a></p>
<p>如果这不是你的操作，请忽略本邮件。</p>`, resetURL, resetURL)
	return s.send(to, subject, body)
}

func (s *Sender) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send mail to %s failed: %w", to, err)
	}
	return nil
}
