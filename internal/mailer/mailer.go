package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
	"time"

	mail "gopkg.in/mail.v2"
)

const (
	FromName   = "Shop"
	maxRetries = 3

	UserActivationTemplate    = "user_activation.tmpl"
	OrderConfirmationTemplate = "order_confirmation.tmpl"
	PaymentReceivedTemplate   = "payment_received.tmpl"
	ResetPasswordTemplate     = "reset_password.tmpl"
)

//go:embed "templates"
var FS embed.FS

// Client sends one transactional email. Failures are surfaced to the caller;
// nothing is queued or retried beyond the immediate attempts here.
type Client interface {
	Send(templateFile, username, email string, data any) (int, error)
}

// SMTPClient delivers mail through a plain SMTP relay.
type SMTPClient struct {
	fromEmail string
	host      string
	port      int
	username  string
	password  string
}

func NewSMTPClient(fromEmail, host string, port int, username, password string) *SMTPClient {
	return &SMTPClient{
		fromEmail: fromEmail,
		host:      host,
		port:      port,
		username:  username,
		password:  password,
	}
}

func (c *SMTPClient) Send(templateFile, username, email string, data any) (int, error) {
	tmpl, err := template.ParseFS(FS, "templates/"+templateFile)
	if err != nil {
		return -1, fmt.Errorf("parse template %s: %w", templateFile, err)
	}

	subject := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(subject, "subject", data); err != nil {
		return -1, fmt.Errorf("render subject: %w", err)
	}
	body := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(body, "body", data); err != nil {
		return -1, fmt.Errorf("render body: %w", err)
	}

	msg := mail.NewMessage()
	msg.SetAddressHeader("From", c.fromEmail, FromName)
	msg.SetAddressHeader("To", email, username)
	msg.SetHeader("Subject", subject.String())
	msg.SetBody("text/html", body.String())

	dialer := mail.NewDialer(c.host, c.port, c.username, c.password)

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		if lastErr = dialer.DialAndSend(msg); lastErr == nil {
			return 200, nil
		}
		time.Sleep(time.Second * time.Duration(i+1))
	}
	return -1, fmt.Errorf("failed to send email after %d attempts: %w", maxRetries, lastErr)
}
