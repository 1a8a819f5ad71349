package mailer

import (
	"fmt"
	"log"

	"anoa.com/p2pcomm/internal/config"
	"gopkg.in/gomail.v2"
)

// Mailer defines the contract for credential delivery. Registration depends
// on it succeeding: a user must not exist without their credential mail.
type Mailer interface {
	// SendCredentials mails the generated username/password pair to the
	// student's college address.
	SendCredentials(to, username, password string) error
}

const credentialSubject = "Your P2PComm credentials"

func credentialBody(username, password string) string {
	return fmt.Sprintf(
		"Hello,\n\nYour account has been created.\n\nUsername: %s\nPassword: %s\n\nPlease login and complete your profile by adding a secondary email.\n",
		username, password,
	)
}

type smtpMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer builds a gomail-backed Mailer from config.
func NewSMTPMailer(cfg *config.Config) Mailer {
	return &smtpMailer{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass),
		from:   cfg.MailFrom,
	}
}

func (m *smtpMailer) SendCredentials(to, username, password string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", credentialSubject)
	msg.SetBody("text/plain", credentialBody(username, password))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send credential email to %s: %w", to, err)
	}

	return nil
}

type consoleMailer struct{}

// NewConsoleMailer returns a Mailer that logs instead of sending. Used in
// development when no SMTP host is configured.
func NewConsoleMailer() Mailer {
	return consoleMailer{}
}

func (consoleMailer) SendCredentials(to, username, password string) error {
	log.Printf("[mail] to=%s subject=%q\n%s", to, credentialSubject, credentialBody(username, password))
	return nil
}

// FromConfig picks the SMTP mailer when a host is configured, otherwise the
// console backend.
func FromConfig(cfg *config.Config) Mailer {
	if cfg.SMTPHost == "" {
		return NewConsoleMailer()
	}
	return NewSMTPMailer(cfg)
}
