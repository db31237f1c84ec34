package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"simdash"
	"simdash/internal/mailer"
)

func TestAlertSubject(t *testing.T) {
	if got := AlertSubject(95); got != "CRITICAL TEMPERATURE ALERT - 95°C" {
		t.Fatalf("unexpected subject %q", got)
	}
}

func TestSendCriticalAlert_Success(t *testing.T) {
	m := &fakeMailer{id: "email-7"}
	svc := NewAlertService(m, "ops@example.com", nil)

	res := svc.SendCriticalAlert(context.Background(), simdash.AlertRequest{
		Temperature:  95,
		SimulationID: "test-email-1",
		Timestamp:    time.Date(2025, 5, 6, 14, 3, 9, 0, time.UTC),
		UserEmail:    "alice@example.com",
	})
	if !res.Success || res.EmailID != "email-7" {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(m.sent) != 1 {
		t.Fatalf("expected one email, got %d", len(m.sent))
	}
	msg := m.sent[0]
	if msg.To[0] != "ops@example.com" || msg.Subject != AlertSubject(95) {
		t.Fatalf("unexpected envelope %+v", msg)
	}
	for _, want := range []string{"Temperature: 95°C", "Simulation ID: test-email-1", "May 6, 2025 at 02:03:09 PM UTC", "Triggered by: alice@example.com"} {
		if !strings.Contains(msg.Text, want) {
			t.Errorf("text body missing %q:\n%s", want, msg.Text)
		}
	}
	if !strings.Contains(msg.HTML, "test-email-1") {
		t.Errorf("html body missing simulation id")
	}
}

func TestSendCriticalAlert_DeliveryFailureCarriesFallback(t *testing.T) {
	m := &fakeMailer{err: &mailer.DeliveryError{StatusCode: 500, Body: "smtp down"}}
	svc := NewAlertService(m, "", nil)

	res := svc.SendCriticalAlert(context.Background(), simdash.AlertRequest{Temperature: 97, SimulationID: "s", UserEmail: "u@example.com"})
	if res.Success {
		t.Fatalf("expected failure")
	}
	if res.Details != "smtp down" || res.Fallback == nil {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Fallback.To != "u@example.com" || !strings.Contains(res.Fallback.Body, "97°C") {
		t.Fatalf("unexpected fallback %+v", res.Fallback)
	}
}

func TestSendCriticalAlert_NoRecipient(t *testing.T) {
	m := &fakeMailer{}
	res := NewAlertService(m, "", nil).SendCriticalAlert(context.Background(), simdash.AlertRequest{Temperature: 91})
	if res.Success || len(m.sent) != 0 {
		t.Fatalf("expected no delivery without recipient: %+v", res)
	}
}

func TestSendCriticalAlert_NilMailer(t *testing.T) {
	res := NewAlertService(nil, "ops@example.com", nil).SendCriticalAlert(context.Background(), simdash.AlertRequest{Temperature: 91})
	if res.Success || res.Details != mailer.ErrNotConfigured.Error() {
		t.Fatalf("unexpected result %+v", res)
	}
}
