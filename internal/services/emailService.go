package services

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"

	"chikota/internal/config"
)

// EmailService sends a single HTML email and returns the id it was sent under.
type EmailService interface {
	SendEmail(to, subject, html string) (string, error)
}

type emailService struct {
	from   string
	domain string
	dialer *gomail.Dialer
}

func NewEmailService(cfg config.EmailConfig) EmailService {
	return &emailService{
		from:   cfg.From,
		domain: senderDomain(cfg.From),
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
	}
}

func (e *emailService) SendEmail(to, subject, html string) (string, error) {
	id := uuid.NewString()

	m := gomail.NewMessage()
	m.SetHeader("From", e.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetHeader("Message-ID", fmt.Sprintf("<%s@%s>", id, e.domain))
	m.SetBody("text/html", html)

	if err := e.dialer.DialAndSend(m); err != nil {
		return "", err
	}
	return id, nil
}

func senderDomain(from string) string {
	addr, err := mail.ParseAddress(from)
	if err != nil {
		return "localhost"
	}
	if at := strings.LastIndex(addr.Address, "@"); at >= 0 && at < len(addr.Address)-1 {
		return addr.Address[at+1:]
	}
	return "localhost"
}
