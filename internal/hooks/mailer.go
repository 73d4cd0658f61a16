// internal/hooks/mailer.go
package hooks

import (
	"context"
	"strings"

	"equimarket/internal/common/aws"
	apperrors "equimarket/internal/common/errors"
	"equimarket/internal/common/logger"
	"equimarket/internal/i18n"
	"equimarket/internal/models"
)

// Mailer emails the submitting user a confirmation in their locale.
type Mailer struct {
	client  *aws.SESClient
	catalog *i18n.Catalog
	logger  logger.Logger
}

func NewMailer(client *aws.SESClient, catalog *i18n.Catalog, log logger.Logger) *Mailer {
	return &Mailer{client: client, catalog: catalog, logger: log}
}

func (m *Mailer) Name() string { return "ses" }

func (m *Mailer) Run(ctx context.Context, s Submission) error {
	if s.User == nil || s.User.Email == "" {
		m.logger.Debug("no email on file, skipping confirmation", map[string]interface{}{
			"documentId": s.Event.DocumentID,
		})
		return nil
	}

	msg := m.compose(s)
	id, err := m.client.Send(ctx, msg)
	if err != nil {
		return apperrors.NewNotificationSendFailedError("ses", err)
	}
	m.logger.Debug("confirmation sent", map[string]interface{}{"messageId": id})
	return nil
}

func (m *Mailer) compose(s Submission) models.EmailMessage {
	locale := m.catalog.Match(s.User.Locale)
	template := "email.listing_created"
	if s.Event.Type == EventListingUpdated {
		template = "email.listing_updated"
	}

	name := s.User.Name
	if name == "" {
		name = strings.SplitN(s.User.Email, "@", 2)[0]
	}
	args := map[string]string{
		"entity":     m.catalog.T(locale, "entity."+s.Event.Entity, nil),
		"name":       name,
		"documentId": s.Event.DocumentID,
	}

	return models.EmailMessage{
		To:      []string{s.User.Email},
		Subject: m.catalog.T(locale, template+".subject", args),
		Body:    m.catalog.T(locale, template+".body", args),
	}
}
