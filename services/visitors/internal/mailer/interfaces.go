package mailer

import (
	"github.com/diagnosis/visitor-desk/pkg/config"
	"github.com/diagnosis/visitor-desk/pkg/logger"
)

type Service interface {
	SendWelcomeEmail(toEmail, username, loginURL string) error
	SendCredentialsEmail(toEmail, username, tempPassword, loginURL string) error
}

// FromConfig picks the transport: dev mode prints mails, otherwise an SMTP
// host wins over a MailerSend key, and with neither configured mails are
// printed as well.
func FromConfig(cfg config.EmailConfig) Service {
	switch {
	case cfg.DevMode:
		logger.Info("Using dev mailer")
		return NewDevMailer()
	case cfg.SMTPHost != "":
		logger.Info("Using SMTP mailer", "host", cfg.SMTPHost, "port", cfg.SMTPPort)
		return NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.FromEmail, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPUseTLS)
	case cfg.MailerSendKey != "":
		logger.Info("Using MailerSend mailer")
		return NewMailerSend(cfg.MailerSendKey, cfg.FromName, cfg.FromEmail)
	default:
		logger.Warn("No mail transport configured, falling back to dev mailer")
		return NewDevMailer()
	}
}
