// Copyright (c) 2026 OreMetrics. All rights reserved.

/*
Package email implements the OTP dispatch collaborator over SMTP.

It speaks plain SMTP with STARTTLS or implicit TLS, which keeps the service
portable across Gmail-style relays and self-hosted mail servers. The sender
is injected into the auth service behind a one-method interface, so tests
never open a network connection.
*/
package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"
)

// Settings holds SMTP relay configuration.
type Settings struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// TLSMode is one of "starttls" (default), "tls", or "none".
	TLSMode string
}

// Sender delivers one-time passwords to user mailboxes.
type Sender struct {
	settings Settings
}

// NewSender constructs a Sender with the given relay settings.
func NewSender(settings Settings) *Sender {
	return &Sender{settings: settings}
}

// SendOTP delivers the verification code to the given address.
//
// The subject and body match what the companion frontend tells users to
// expect. net/smtp does not take a context; the ctx is honored up front so
// a cancelled request does not open a fresh connection.
func (sender *Sender) SendOTP(ctx context.Context, toEmail, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	subject := "Your OTP for AI-LCA Tool"
	body := fmt.Sprintf("Your OTP is: %s. It is valid for 10 minutes.", code)

	return sender.send(toEmail, subject, body)
}

func (sender *Sender) send(toEmail, subject, body string) error {
	settings := sender.settings
	addr := fmt.Sprintf("%s:%d", settings.Host, settings.Port)

	client, err := connect(settings, addr)
	if err != nil {
		return err
	}
	defer client.Close()

	if settings.Username != "" {
		auth := smtp.PlainAuth("", settings.Username, settings.Password, settings.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("email: smtp auth: %w", err)
		}
	}

	if err := client.Mail(settings.From); err != nil {
		return fmt.Errorf("email: smtp from: %w", err)
	}
	if err := client.Rcpt(toEmail); err != nil {
		return fmt.Errorf("email: smtp rcpt: %w", err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("email: smtp data: %w", err)
	}

	message := buildMessage(settings.From, toEmail, subject, body)
	if _, err := writer.Write([]byte(message)); err != nil {
		return fmt.Errorf("email: smtp write: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("email: smtp close: %w", err)
	}
	if err := client.Quit(); err != nil && !strings.Contains(err.Error(), "use of closed network connection") {
		return fmt.Errorf("email: smtp quit: %w", err)
	}
	return nil
}

func connect(settings Settings, addr string) (*smtp.Client, error) {
	tlsMode := settings.TLSMode
	if tlsMode == "" {
		tlsMode = "starttls"
	}

	switch tlsMode {
	case "tls":
		conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: settings.Host, MinVersion: tls.VersionTLS12})
		if err != nil {
			return nil, fmt.Errorf("email: smtp tls dial: %w", err)
		}
		client, err := smtp.NewClient(conn, settings.Host)
		if err != nil {
			return nil, fmt.Errorf("email: smtp client: %w", err)
		}
		return client, nil
	default:
		client, err := smtp.Dial(addr)
		if err != nil {
			return nil, fmt.Errorf("email: smtp dial: %w", err)
		}
		if tlsMode == "starttls" {
			if err := client.StartTLS(&tls.Config{ServerName: settings.Host, MinVersion: tls.VersionTLS12}); err != nil {
				_ = client.Close()
				return nil, fmt.Errorf("email: smtp starttls: %w", err)
			}
		}
		return client, nil
	}
}

func buildMessage(from, to, subject, body string) string {
	lines := []string{
		"From: " + from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}
	return strings.Join(lines, "\r\n")
}
