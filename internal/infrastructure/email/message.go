// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package email

import (
	"encoding/base64"
	"fmt"
	"net/smtp"
	"strings"
)

// buildEmailMessage builds the complete email message with headers and multipart content.
// When icsContent is non-empty it is attached as a calendar invitation.
func buildEmailMessage(recipient, subject, htmlContent, textContent, icsContent string, config SMTPConfig) string {
	altBoundary := "===============1234567890123456789=="
	mixedBoundary := "===============9876543210987654321=="

	var message strings.Builder

	// Email headers
	message.WriteString(fmt.Sprintf("From: %s\r\n", config.From))
	message.WriteString(fmt.Sprintf("To: %s\r\n", recipient))
	message.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	message.WriteString("MIME-Version: 1.0\r\n")

	if icsContent != "" {
		message.WriteString(fmt.Sprintf("Content-Type: multipart/mixed; boundary=\"%s\"\r\n", mixedBoundary))
		message.WriteString("\r\n")
		message.WriteString(fmt.Sprintf("--%s\r\n", mixedBoundary))
	}

	message.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=\"%s\"\r\n", altBoundary))
	message.WriteString("\r\n")

	// Plain text part
	message.WriteString(fmt.Sprintf("--%s\r\n", altBoundary))
	message.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	message.WriteString("\r\n")
	message.WriteString(textContent)
	message.WriteString("\r\n")

	// HTML part
	message.WriteString(fmt.Sprintf("--%s\r\n", altBoundary))
	message.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	message.WriteString("\r\n")
	message.WriteString(htmlContent)
	message.WriteString("\r\n")

	// End alternative boundary
	message.WriteString(fmt.Sprintf("--%s--\r\n", altBoundary))

	if icsContent != "" {
		// Calendar attachment part
		message.WriteString(fmt.Sprintf("--%s\r\n", mixedBoundary))
		message.WriteString("Content-Type: text/calendar; method=REQUEST; charset=\"UTF-8\"\r\n")
		message.WriteString("Content-Transfer-Encoding: base64\r\n")
		message.WriteString("Content-Disposition: attachment; filename=\"invite.ics\"\r\n")
		message.WriteString("\r\n")
		message.WriteString(wrapBase64(base64.StdEncoding.EncodeToString([]byte(icsContent))))
		message.WriteString("\r\n")
		message.WriteString(fmt.Sprintf("--%s--\r\n", mixedBoundary))
	}

	return message.String()
}

// wrapBase64 wraps base64 content at 76 characters per RFC 2045
func wrapBase64(s string) string {
	const lineLen = 76
	var out strings.Builder
	for len(s) > lineLen {
		out.WriteString(s[:lineLen])
		out.WriteString("\r\n")
		s = s[lineLen:]
	}
	out.WriteString(s)
	return out.String()
}

// sendEmailMessage sends a pre-built email message via SMTP
func sendEmailMessage(recipient, message string, config SMTPConfig) error {
	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)

	var auth smtp.Auth
	if config.Username != "" && config.Password != "" {
		auth = smtp.PlainAuth("", config.Username, config.Password, config.Host)
	}

	err := smtp.SendMail(addr, auth, config.From, []string{recipient}, []byte(message))
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
