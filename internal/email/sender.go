// Package email delivers triage notifications over SMTP.
package email

import (
	"context"
)

// Attachment represents a file attachment for an email.
type Attachment struct {
	Content  []byte
	FileName string
	MIMEType string
}

type Sender interface {
	SendHotLeadAlertEmail(ctx context.Context, toEmail, leadName, leadPhone, sessionID string, score int) error
	SendLeadAssignedEmail(ctx context.Context, toEmail, agentName, leadName, leadPhone, sessionID string, matchScore int, sla string) error
	SendNurtureFollowUpEmail(ctx context.Context, toEmail, leadName string) error
	SendCustomEmail(ctx context.Context, toEmail, subject, htmlContent string) error
}

// NoopSender is used when email delivery is disabled.
type NoopSender struct{}

func (NoopSender) SendHotLeadAlertEmail(ctx context.Context, toEmail, leadName, leadPhone, sessionID string, score int) error {
	return nil
}

func (NoopSender) SendLeadAssignedEmail(ctx context.Context, toEmail, agentName, leadName, leadPhone, sessionID string, matchScore int, sla string) error {
	return nil
}

func (NoopSender) SendNurtureFollowUpEmail(ctx context.Context, toEmail, leadName string) error {
	return nil
}

func (NoopSender) SendCustomEmail(ctx context.Context, toEmail, subject, htmlContent string) error {
	return nil
}
