package mailer

import (
	"fmt"
	"log"
	"net/smtp"
)

// Mailer delivers the password reset message. Implementations must not
// retain the token beyond the send.
type Mailer interface {
	SendPasswordReset(to, resetLink string) error
}

// SMTP sends through a plain SMTP endpoint.
type SMTP struct {
	Addr string // host:port
	From string
}

func (m *SMTP) SendPasswordReset(to, resetLink string) error {
	body := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: Reset your password\r\n\r\n"+
		"Click the following link to reset your password: %s\r\n", m.From, to, resetLink)
	return smtp.SendMail(m.Addr, nil, m.From, []string{to}, []byte(body))
}

// Log writes the reset link to the log instead of sending mail. Used when
// SMTP_ADDR is not configured.
type Log struct{}

func (Log) SendPasswordReset(to, resetLink string) error {
	log.Printf("[MAIL] [INFO] password reset for %s: %s", to, resetLink)
	return nil
}
