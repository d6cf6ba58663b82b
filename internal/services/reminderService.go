package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"chikota/internal/metrics"
	"chikota/internal/models"
)

type ReminderService interface {
	// SendReminder emails a one-off reminder for a bookmark and returns the message id.
	SendReminder(ctx context.Context, userID string, req models.ReminderRequest) (string, error)
}

type reminderServiceImpl struct {
	email EmailService
}

func NewReminderService(email EmailService) ReminderService {
	return &reminderServiceImpl{email: email}
}

var reminderTemplate = template.Must(template.New("reminder").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
    <h2>Bookmark Reminder</h2>
    <p>Don't forget to check your bookmark!</p>
    <div style="border: 1px solid #e5e7eb; border-radius: 8px; padding: 16px; margin: 16px 0;">
        <h3 style="margin: 0 0 8px 0;">{{.Title}}</h3>
        <p style="margin: 0; color: #6b7280;">{{.URL}}</p>
    </div>
    <p>Scheduled for: {{.ScheduledFor}}</p>
    <a href="{{.URL}}" style="background-color: #3b82f6; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; display: inline-block;">View Bookmark</a>
</div>
`))

type reminderView struct {
	Title        string
	URL          string
	ScheduledFor string
}

func renderReminder(req models.ReminderRequest) (string, error) {
	var buf bytes.Buffer
	err := reminderTemplate.Execute(&buf, reminderView{
		Title:        req.Title,
		URL:          req.URL,
		ScheduledFor: req.ReminderAt.UTC().Format("January 2, 2006 at 3:04 PM MST"),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s *reminderServiceImpl) SendReminder(ctx context.Context, userID string, req models.ReminderRequest) (string, error) {
	log.Debug().Str("userID", userID).Str("email", req.Email).Str("url", req.URL).Msg("Attempting to send reminder")

	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Title) == "" ||
		strings.TrimSpace(req.URL) == "" || req.ReminderAt == nil || req.ReminderAt.IsZero() {
		log.Warn().Str("userID", userID).Msg("Missing required fields for reminder")
		return "", invalid("Missing required fields")
	}

	html, err := renderReminder(req)
	if err != nil {
		log.Error().Err(err).Str("userID", userID).Msg("Failed to render reminder email")
		return "", fmt.Errorf("failed to render reminder: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	start := time.Now()
	id, err := s.email.SendEmail(req.Email, "Reminder: "+req.Title, html)
	if err != nil {
		metrics.ReminderSentTotal.WithLabelValues("failed").Inc()
		log.Error().Err(err).Str("userID", userID).Str("email", req.Email).Msg("Failed to send reminder email")
		return "", fmt.Errorf("failed to send email: %w", err)
	}

	metrics.ReminderSentTotal.WithLabelValues("success").Inc()
	log.Info().Str("userID", userID).Str("messageID", id).Dur("took", time.Since(start)).Msg("Reminder sent successfully")
	return id, nil
}
