package mailer

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"
)

type SMTPMailer struct {
	Host   string
	Port   int
	From   string
	User   string
	Pass   string
	UseTLS bool

	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(host string, port int, from, user, pass string, useTLS bool) *SMTPMailer {
	return &SMTPMailer{
		Host:   strings.TrimSpace(host),
		Port:   port,
		From:   strings.TrimSpace(from),
		User:   strings.TrimSpace(user),
		Pass:   strings.TrimSpace(pass),
		UseTLS: useTLS,
		send:   smtp.SendMail,
	}
}

func (s *SMTPMailer) SendWelcomeEmail(toEmail, username, loginURL string) error {
	subject := "Welcome to Visitor Desk"
	text := fmt.Sprintf("Hi %s,\n\nYour account is ready. Sign in at: %s", username, loginURL)
	html := fmt.Sprintf(`
		<h2>Welcome to Visitor Desk</h2>
		<p>Hi %s,</p>
		<p>Your account is ready.</p>
		<p><a href="%s">Sign in</a></p>
	`, username, loginURL)

	return s.sendEmail(toEmail, subject, text, html)
}

func (s *SMTPMailer) SendCredentialsEmail(toEmail, username, tempPassword, loginURL string) error {
	subject := "Your Visitor Desk account"
	text := fmt.Sprintf("Hi %s,\n\nAn account was created for you.\nTemporary password: %s\nSign in at: %s", username, tempPassword, loginURL)
	html := fmt.Sprintf(`
		<h2>Your Visitor Desk account</h2>
		<p>Hi %s,</p>
		<p>An account was created for you. Your temporary password is <strong>%s</strong>.</p>
		<p><a href="%s">Sign in</a> and change it from your profile.</p>
	`, username, tempPassword, loginURL)

	return s.sendEmail(toEmail, subject, text, html)
}

func (s *SMTPMailer) buildMessage(toEmail, subject, text, html string) []byte {
	var buf bytes.Buffer
	boundary := "visitordesk-alt"

	fmt.Fprintf(&buf, "From: %s\r\n", s.From)
	fmt.Fprintf(&buf, "To: %s\r\n", toEmail)
	fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", boundary)

	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	fmt.Fprintf(&buf, "Content-Type: text/plain; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&buf, "%s\r\n\r\n", text)

	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	fmt.Fprintf(&buf, "Content-Type: text/html; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&buf, "%s\r\n\r\n", html)

	fmt.Fprintf(&buf, "--%s--\r\n", boundary)
	return buf.Bytes()
}

func (s *SMTPMailer) sendEmail(toEmail, subject, text, html string) error {
	toEmail = strings.TrimSpace(toEmail)
	if toEmail == "" {
		return fmt.Errorf("empty recipient email")
	}
	msg := s.buildMessage(toEmail, subject, text, html)
	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)

	// Mailpit and similar local servers take mail without auth or TLS.
	if !s.UseTLS {
		var auth smtp.Auth
		if s.User != "" {
			auth = smtp.PlainAuth("", s.User, s.Pass, s.Host)
		}
		return s.send(addr, auth, s.From, []string{toEmail}, msg)
	}
	return s.sendImplicitTLS(addr, toEmail, msg)
}

func (s *SMTPMailer) sendImplicitTLS(addr, toEmail string, msg []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: s.Host})
	if err != nil {
		return err
	}
	defer conn.Close()

	c, err := smtp.NewClient(conn, s.Host)
	if err != nil {
		return err
	}
	defer c.Quit()

	if s.User != "" {
		if err := c.Auth(smtp.PlainAuth("", s.User, s.Pass, s.Host)); err != nil {
			return err
		}
	}
	if err := c.Mail(s.From); err != nil {
		return err
	}
	if err := c.Rcpt(toEmail); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	return w.Close()
}
