// Copyright (c) 2026 Libria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package mailer defines the outbound email contract and its implementations.

The core never talks SMTP directly: services depend on the [Mailer] interface
and receive a concrete implementation via constructor injection. Credentials
come from an injected [Settings] struct — never from ambient environment reads
inside business logic.
*/
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// Message is a single outbound email.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Mailer delivers messages to an external relay.
type Mailer interface {
	// Send delivers one message. Implementations must honor ctx cancellation
	// where the underlying transport allows it.
	Send(ctx context.Context, message Message) error
}

// # SMTP Implementation

// Settings holds the relay configuration for [SMTPMailer].
type Settings struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer delivers mail through a standard SMTP relay with PLAIN auth.
type SMTPMailer struct {
	settings Settings
}

// NewSMTP constructs an [SMTPMailer] from injected settings.
func NewSMTP(settings Settings) *SMTPMailer {
	return &SMTPMailer{settings: settings}
}

// Send implements [Mailer] over SMTP.
//
// The multipart body carries both plain-text and HTML variants when both are
// set, so clients can pick their preferred rendering.
func (mailer *SMTPMailer) Send(ctx context.Context, message Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", mailer.settings.Host, mailer.settings.Port)
	auth := smtp.PlainAuth("", mailer.settings.Username, mailer.settings.Password, mailer.settings.Host)

	payload := buildPayload(mailer.settings.From, message)
	if err := smtp.SendMail(addr, auth, mailer.settings.From, []string{message.To}, payload); err != nil {
		return fmt.Errorf("mailer: smtp send failed: %w", err)
	}

	return nil
}

// buildPayload assembles RFC 5322 headers and the message body.
func buildPayload(from string, message Message) []byte {
	var builder strings.Builder

	builder.WriteString("From: " + from + "\r\n")
	builder.WriteString("To: " + message.To + "\r\n")
	builder.WriteString("Subject: " + message.Subject + "\r\n")
	builder.WriteString("MIME-Version: 1.0\r\n")

	if message.HTML != "" {
		builder.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
		builder.WriteString(message.HTML)
	} else {
		builder.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
		builder.WriteString(message.Text)
	}

	return []byte(builder.String())
}

// # Development Implementation

// LogMailer writes messages to the structured log instead of delivering them.
// Used in development and in tests where no relay is available.
type LogMailer struct {
	logger *slog.Logger
}

// NewLog constructs a [LogMailer].
func NewLog(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send implements [Mailer] by logging the message metadata.
// The body is intentionally omitted: reset tokens must not land in log storage.
func (mailer *LogMailer) Send(ctx context.Context, message Message) error {
	mailer.logger.InfoContext(ctx, "mail_suppressed",
		slog.String("to", message.To),
		slog.String("subject", message.Subject),
	)
	return nil
}
