package mailer

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer sends owner notifications through an SMTP relay.
type SMTPMailer struct {
	from   string
	dialer dialer
}

func NewSMTPMailer(host string, port int, from, password string) *SMTPMailer {
	return &SMTPMailer{
		from:   from,
		dialer: gomail.NewDialer(host, port, from, password),
	}
}

func (m *SMTPMailer) SendListingCreated(ctx context.Context, toEmail, listingTitle string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if toEmail == "" {
		return fmt.Errorf("mailer: empty recipient")
	}
	return m.dialer.DialAndSend(m.listingCreatedMessage(toEmail, listingTitle))
}

func (m *SMTPMailer) listingCreatedMessage(toEmail, listingTitle string) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", toEmail)
	msg.SetHeader("Subject", "New Listing Created")
	msg.SetBody("text/plain", fmt.Sprintf("Your listing '%s' has been created successfully.", listingTitle))
	return msg
}
