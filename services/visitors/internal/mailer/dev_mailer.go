package mailer

import (
	"fmt"
	"io"
	"os"

	"github.com/diagnosis/visitor-desk/pkg/logger"
)

// DevMailer logs mails and prints them to Out instead of sending them.
type DevMailer struct {
	Out io.Writer
}

func NewDevMailer() *DevMailer {
	return &DevMailer{Out: os.Stdout}
}

func (d *DevMailer) SendWelcomeEmail(toEmail, username, loginURL string) error {
	logger.Info("📧 [DEV MAIL] Welcome Email",
		"to", toEmail,
		"username", username,
	)

	d.print(toEmail, username, "Welcome to Visitor Desk",
		fmt.Sprintf("Your account is ready. Sign in at: %s", loginURL))
	return nil
}

func (d *DevMailer) SendCredentialsEmail(toEmail, username, tempPassword, loginURL string) error {
	logger.Info("📧 [DEV MAIL] Credentials Email",
		"to", toEmail,
		"username", username,
	)

	d.print(toEmail, username, "Your Visitor Desk account",
		fmt.Sprintf("Temporary password: %s\nSign in at: %s", tempPassword, loginURL))
	return nil
}

func (d *DevMailer) print(toEmail, username, subject, body string) {
	if d.Out == nil {
		return
	}
	fmt.Fprintf(d.Out, "\n"+
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n"+
		"📧 EMAIL (DEV MODE)\n"+
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n"+
		"To: %s (%s)\n"+
		"Subject: %s\n"+
		"\n"+
		"%s\n"+
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n",
		toEmail, username, subject, body)
}
