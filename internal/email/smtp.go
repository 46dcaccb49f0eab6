package email

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender implements the Sender interface using a direct SMTP connection via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates a new SMTPSender with the given SMTP credentials.
func NewSMTPSender(host string, port int, username, password, fromEmail, fromName string) *SMTPSender {
	return &SMTPSender{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string, attachments ...Attachment) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	for _, att := range attachments {
		msg.AttachReader(att.FileName, bytes.NewReader(att.Content))
	}

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

func (s *SMTPSender) SendHotLeadAlertEmail(ctx context.Context, toEmail, leadName, leadPhone, sessionID string, score int) error {
	subject := fmt.Sprintf(subjectHotLeadAlertFmt, displayName(leadName))
	content, err := renderEmailTemplate("hot_lead_alert.html", hotLeadAlertEmailData{
		baseEmailData: baseEmailData{
			Title:   "Lead quente detectado",
			Heading: "Lead quente detectado",
		},
		LeadName:  displayName(leadName),
		LeadPhone: leadPhone,
		SessionID: sessionID,
		Score:     score,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subject, content)
}

func (s *SMTPSender) SendLeadAssignedEmail(ctx context.Context, toEmail, agentName, leadName, leadPhone, sessionID string, matchScore int, sla string) error {
	content, err := renderEmailTemplate("lead_assigned.html", leadAssignedEmailData{
		baseEmailData: baseEmailData{
			Title:   "Novo lead atribuído",
			Heading: "Novo lead atribuído",
		},
		AgentName:  agentName,
		LeadName:   displayName(leadName),
		LeadPhone:  leadPhone,
		SessionID:  sessionID,
		MatchScore: matchScore,
		SLA:        sla,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectLeadAssigned, content)
}

func (s *SMTPSender) SendNurtureFollowUpEmail(ctx context.Context, toEmail, leadName string) error {
	content, err := renderEmailTemplate("nurture_follow_up.html", nurtureFollowUpEmailData{
		baseEmailData: baseEmailData{
			Title:   "Ainda procurando seu imóvel?",
			Heading: "Ainda procurando seu imóvel?",
		},
		LeadName: displayName(leadName),
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectNurtureFollowUp, content)
}

func (s *SMTPSender) SendCustomEmail(ctx context.Context, toEmail, subject, htmlContent string) error {
	return s.send(ctx, toEmail, subject, htmlContent)
}

func displayName(name string) string {
	if name == "" {
		return "cliente"
	}
	return name
}
