package services

// 邮件服务：通过 SMTP 发送验证与重置邮件。发送是"发后即忘"——
// 失败只记录日志与指标，不重试，也不影响请求结果。

import (
	"bytes"
	"fmt"
	"net/smtp"
	"strings"
	"text/template"

	log "github.com/sirupsen/logrus"

	"contactbook/internal/config"
	"contactbook/internal/metrics"
)

// MailSender 是 HTTP 层看到的发信接口，便于测试替换。
type MailSender interface {
	SendVerification(email, username, token string)
	SendReset(email, username, token string)
}

type mailTemplate struct {
	Subject string
	Body    string
}

// 模板内容内置在代码中，host/username/token 在发送时注入。
var mailTemplates = map[string]mailTemplate{
	"verify": {
		Subject: "Confirm your email",
		Body: "Hello {{.Username}},\r\n\r\n" +
			"Please confirm your email address by opening the link below:\r\n" +
			"{{.Host}}/api/auth/confirmed_email/{{.Token}}\r\n\r\n" +
			"If you did not create an account, ignore this message.\r\n",
	},
	"reset": {
		Subject: "Reset password",
		Body: "Hello {{.Username}},\r\n\r\n" +
			"A password reset was requested for your account. Submit your new\r\n" +
			"password to the link below within one hour; the link works once:\r\n" +
			"{{.Host}}/api/auth/reset_password/{{.Token}}\r\n\r\n" +
			"If you did not request a reset, ignore this message.\r\n",
	},
}

// Mailer 基于 net/smtp 实现 MailSender。
type Mailer struct {
	cfg config.Config
}

func NewMailer(cfg config.Config) *Mailer { return &Mailer{cfg: cfg} }

func (m *Mailer) SendVerification(email, username, token string) {
	go m.send("verify", email, username, token)
}

func (m *Mailer) SendReset(email, username, token string) {
	go m.send("reset", email, username, token)
}

func (m *Mailer) send(name, email, username, token string) {
	tpl, ok := mailTemplates[name]
	if !ok {
		log.WithField("template", name).Error("unknown mail template")
		return
	}
	var body bytes.Buffer
	t := template.Must(template.New(name).Parse(tpl.Body))
	data := struct {
		Username, Host, Token string
	}{Username: username, Host: strings.TrimRight(m.cfg.BaseURL, "/"), Token: token}
	if err := t.Execute(&body, data); err != nil {
		log.WithError(err).WithField("template", name).Error("render mail body")
		metrics.EmailSends.WithLabelValues(name, "error").Inc()
		return
	}

	// 未配置 SMTP 时降级为日志输出（开发环境）
	if m.cfg.Mail.Host == "" {
		log.WithFields(log.Fields{"to": email, "template": name}).Info("smtp not configured, mail logged only")
		metrics.EmailSends.WithLabelValues(name, "skipped").Inc()
		return
	}

	from := m.cfg.Mail.From
	msg := fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s",
		m.cfg.Mail.FromName, from, email, tpl.Subject, body.String())

	var auth smtp.Auth
	if m.cfg.Mail.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Mail.Username, m.cfg.Mail.Password, m.cfg.Mail.Host)
	}
	if err := smtp.SendMail(m.cfg.Mail.Addr(), auth, from, []string{email}, []byte(msg)); err != nil {
		log.WithError(err).WithFields(log.Fields{"to": email, "template": name}).Error("send mail")
		metrics.EmailSends.WithLabelValues(name, "error").Inc()
		return
	}
	metrics.EmailSends.WithLabelValues(name, "ok").Inc()
}
