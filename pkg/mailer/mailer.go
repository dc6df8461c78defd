package mailer

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/contactdesk/backend/config"
	"github.com/contactdesk/backend/pkg/logger"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

const verificationSubject = "Confirm your email"

// verificationTemplate is rendered with sprig helpers so the copy can use
// formatting functions without Go-side preprocessing.
const verificationTemplate = `<html>
<body style="font-family: sans-serif; color: #222;">
  <h2>Welcome to {{ .AppName | title }}</h2>
  <p>Hi {{ .Username }},</p>
  <p>Please confirm your email address by clicking the link below:</p>
  <p><a href="{{ .VerifyLink }}">{{ .VerifyLink }}</a></p>
  <p>If you did not create this account, you can ignore this message.</p>
  <p style="color: #888; font-size: 12px;">{{ .AppName }} &middot; {{ now | date "2006" }}</p>
</body>
</html>`

// VerificationMail holds everything needed to render and send one
// verification message.
type VerificationMail struct {
	To         string
	Username   string
	VerifyLink string
}

// Sender delivers verification mail. The dispatcher wraps a Sender to make
// delivery asynchronous.
type Sender interface {
	SendVerification(mail VerificationMail) error
}

type Mailer struct {
	cfg  *config.Config
	tmpl *template.Template
}

func NewMailer(cfg *config.Config) (*Mailer, error) {
	tmpl, err := template.New("verification").Funcs(sprig.HtmlFuncMap()).Parse(verificationTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse verification template: %w", err)
	}
	return &Mailer{cfg: cfg, tmpl: tmpl}, nil
}

// RenderVerification renders the verification mail body.
func (m *Mailer) RenderVerification(mail VerificationMail) (string, error) {
	var buf bytes.Buffer
	err := m.tmpl.Execute(&buf, map[string]interface{}{
		"AppName":    m.cfg.App.Name,
		"Username":   mail.Username,
		"VerifyLink": mail.VerifyLink,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render verification template: %w", err)
	}
	return buf.String(), nil
}

// SendVerification renders and delivers one verification mail. When SMTP is
// disabled the message is logged instead of sent, which keeps local
// development working without a mail server.
func (m *Mailer) SendVerification(mail VerificationMail) error {
	body, err := m.RenderVerification(mail)
	if err != nil {
		return err
	}

	if !m.cfg.Email.Enabled {
		logger.GetLogger().Info("SMTP disabled, skipping verification mail",
			zap.String("to", mail.To),
			zap.String("verify_link", mail.VerifyLink),
		)
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.Email.From)
	msg.SetHeader("To", mail.To)
	msg.SetHeader("Subject", verificationSubject)
	msg.SetBody("text/html", body)

	d := gomail.NewDialer(
		m.cfg.Email.SMTPHost,
		m.cfg.Email.SMTPPort,
		m.cfg.Email.Username,
		m.cfg.Email.Password,
	)

	if err := d.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send verification mail: %w", err)
	}
	return nil
}
