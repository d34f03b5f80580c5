package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// ErrNotConfigured is returned when no provider is set.
var ErrNotConfigured = errors.New("no email provider configured")

// Provider defines the interface for email providers
type Provider interface {
	SendEmail(ctx context.Context, msg Message) error
	GetProviderName() string
}

// Message is one outbound HTML email.
type Message struct {
	To      []string
	Subject string
	HTML    string
}

// Service renders the platform's transactional emails and hands them to a
// Provider.
type Service struct {
	provider Provider
	appURL   string
}

// NewService creates a new email service with the specified provider. A nil
// provider makes every send fail with ErrNotConfigured.
func NewService(provider Provider, appURL string) *Service {
	if appURL == "" {
		appURL = "https://app.reficulbot.com"
	}
	return &Service{provider: provider, appURL: appURL}
}

// Enabled reports whether a provider is configured.
func (s *Service) Enabled() bool {
	return s != nil && s.provider != nil
}

// SendEmail sends a single HTML email.
func (s *Service) SendEmail(ctx context.Context, msg Message) error {
	if !s.Enabled() {
		return ErrNotConfigured
	}
	if err := s.provider.SendEmail(ctx, msg); err != nil {
		return fmt.Errorf("%s: %w", s.provider.GetProviderName(), err)
	}
	log.Debug().Strs("to", msg.To).Str("subject", msg.Subject).Msg("Email sent")
	return nil
}

// SendWelcomeEmail greets a newly registered user.
func (s *Service) SendWelcomeEmail(ctx context.Context, to, name string) error {
	html, err := render(welcomeTmpl, map[string]string{"Name": name})
	if err != nil {
		return err
	}
	return s.SendEmail(ctx, Message{To: []string{to}, Subject: "Welcome to ReficulBot!", HTML: html})
}

// SendInviteEmail tells a user they were added to a workspace.
func (s *Service) SendInviteEmail(ctx context.Context, to, workspaceName, inviterName string) error {
	html, err := render(inviteTmpl, map[string]string{
		"Workspace": workspaceName,
		"Inviter":   inviterName,
		"URL":       s.appURL,
	})
	if err != nil {
		return err
	}
	return s.SendEmail(ctx, Message{
		To:      []string{to},
		Subject: fmt.Sprintf("You've been added to %s on ReficulBot", workspaceName),
		HTML:    html,
	})
}

// SendEscalationNotification alerts a human that the AI handed off a
// conversation.
func (s *Service) SendEscalationNotification(ctx context.Context, to, conversationID, customerMessage string) error {
	html, err := render(escalationTmpl, map[string]string{
		"Message": customerMessage,
		"URL":     fmt.Sprintf("%s/inbox/%s", s.appURL, conversationID),
	})
	if err != nil {
		return err
	}
	return s.SendEmail(ctx, Message{
		To:      []string{to},
		Subject: "[Escalation] Customer conversation requires attention",
		HTML:    html,
	})
}
