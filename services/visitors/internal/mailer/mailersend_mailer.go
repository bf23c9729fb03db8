package mailer

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/mailersend/mailersend-go"
)

type MailerSendClient struct {
	client  *mailersend.Mailersend
	from    mailersend.From
	enabled bool
}

func NewMailerSend(apiKey, fromName, fromEmail string) *MailerSendClient {
	m := &MailerSendClient{
		enabled: apiKey != "" && fromEmail != "",
		from: mailersend.From{
			Name:  fromName,
			Email: fromEmail,
		},
	}

	if m.enabled {
		m.client = mailersend.NewMailersend(apiKey)
	}

	return m
}

func (m *MailerSendClient) SendWelcomeEmail(toEmail, username, loginURL string) error {
	if !m.enabled {
		return fmt.Errorf("MailerSend not configured")
	}

	subject := "Welcome to Visitor Desk"
	body := fmt.Sprintf(`
		<h2>Welcome to Visitor Desk</h2>
		<p>Hi %s,</p>
		<p>Your account is ready. An administrator will assign your role.</p>
		<p><a href="%s" style="background-color: #2563eb; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px;">Sign in</a></p>
	`, html.EscapeString(username), loginURL)

	text := fmt.Sprintf("Hi %s,\n\nYour Visitor Desk account is ready. Sign in at: %s", username, loginURL)

	return m.sendEmail(toEmail, username, subject, text, body)
}

func (m *MailerSendClient) SendCredentialsEmail(toEmail, username, tempPassword, loginURL string) error {
	if !m.enabled {
		return fmt.Errorf("MailerSend not configured")
	}

	subject := "Your Visitor Desk account"
	body := fmt.Sprintf(`
		<h2>You have been added to Visitor Desk</h2>
		<p>Hi %s,</p>
		<p>Your temporary password is: <strong style="font-size: 18px;">%s</strong></p>
		<p><a href="%s" style="background-color: #2563eb; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px;">Sign in</a></p>
		<p>Please change it after your first sign in.</p>
	`, html.EscapeString(username), html.EscapeString(tempPassword), loginURL)

	text := fmt.Sprintf("Hi %s,\n\nYour temporary password is: %s\n\nSign in at: %s", username, tempPassword, loginURL)

	return m.sendEmail(toEmail, username, subject, text, body)
}

func (m *MailerSendClient) sendEmail(toEmail, toName, subject, text, htmlBody string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	msg := m.client.Email.NewMessage()
	msg.SetFrom(m.from)
	msg.SetRecipients([]mailersend.Recipient{{Name: toName, Email: toEmail}})
	msg.SetSubject(subject)

	if strings.TrimSpace(text) != "" {
		msg.SetText(text)
	}
	if strings.TrimSpace(htmlBody) != "" {
		msg.SetHTML(htmlBody)
	}

	_, err := m.client.Email.Send(ctx, msg)
	return err
}
