package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"simdash"
	"simdash/internal/logger"
	"simdash/internal/mailer"
	"simdash/internal/metrics"
	"simdash/internal/models"
)

const alertTimeLayout = "January 2, 2006 at 03:04:05 PM"

var errNoRecipient = errors.New("no alert recipient configured")

// AlertService renders the critical temperature email and hands it to a Mailer.
// Delivery failures are reported in the result, never returned as errors.
type AlertService struct {
	mailer    Mailer
	recipient string
	tpl       *alertTemplates
	log       *logger.Logger
	now       func() time.Time
}

func NewAlertService(m Mailer, recipient string, log *logger.Logger) *AlertService {
	return &AlertService{
		mailer:    m,
		recipient: strings.TrimSpace(recipient),
		tpl:       newAlertTemplates(),
		log:       logger.OrNop(log),
		now:       time.Now,
	}
}

// AlertSubject is the subject line for a critical reading.
func AlertSubject(temperature int) string {
	return fmt.Sprintf("CRITICAL TEMPERATURE ALERT - %d°C", temperature)
}

func (s *AlertService) SendCriticalAlert(ctx context.Context, req simdash.AlertRequest) simdash.AlertResult {
	if req.Timestamp.IsZero() {
		req.Timestamp = s.now()
	}
	to := s.recipient
	if to == "" {
		to = strings.TrimSpace(req.UserEmail)
	}
	subject := AlertSubject(req.Temperature)

	text, html, err := s.tpl.render(alertData{
		Temperature:  req.Temperature,
		SimulationID: req.SimulationID,
		AlertTime:    req.Timestamp.UTC().Format(alertTimeLayout),
		Threshold:    models.CriticalThreshold,
		UserEmail:    req.UserEmail,
	})
	if err != nil {
		s.log.Errorw("alert_render_failed", "err", err)
		metrics.IncAlert(metrics.ResultError)
		return simdash.AlertResult{Error: "Failed to send critical alert", Details: err.Error()}
	}

	fallback := &simdash.AlertFallback{To: to, Subject: subject, Body: text}
	if to == "" {
		s.log.Warnw("alert_not_sent", "err", errNoRecipient, "subject", subject)
		metrics.IncAlert(metrics.ResultError)
		return simdash.AlertResult{Error: "Email sending failed", Details: errNoRecipient.Error(), Fallback: fallback}
	}
	if s.mailer == nil {
		return s.failed(mailer.ErrNotConfigured, fallback)
	}

	id, err := s.mailer.Send(ctx, mailer.Message{To: []string{to}, Subject: subject, HTML: html, Text: text})
	if err != nil {
		return s.failed(err, fallback)
	}

	s.log.Infow("alert_sent", "temperature", req.Temperature, "simulation_id", req.SimulationID, "email_id", id)
	metrics.IncAlert(metrics.ResultSuccess)
	return simdash.AlertResult{
		Success: true,
		Message: "Critical temperature alert sent successfully",
		EmailID: id,
	}
}

func (s *AlertService) failed(err error, fb *simdash.AlertFallback) simdash.AlertResult {
	details := err.Error()
	var de *mailer.DeliveryError
	if errors.As(err, &de) && de.Body != "" {
		details = de.Body
	}
	// the rendered message is logged so it can be sent by hand
	s.log.Warnw("alert_delivery_failed", "err", err, "to", fb.To, "subject", fb.Subject, "body", fb.Body)
	metrics.IncAlert(metrics.ResultError)
	return simdash.AlertResult{Error: "Email sending failed", Details: details, Fallback: fb}
}
