package service

import (
	"bytes"
	htmltemplate "html/template"
	"text/template"
)

const alertTextTemplate = `CRITICAL TEMPERATURE ALERT

Temperature: {{.Temperature}}°C
Status: CRITICAL
Simulation ID: {{.SimulationID}}
Alert Time: {{.AlertTime}} UTC
Threshold: {{.Threshold}}°C
{{- if .UserEmail}}
Triggered by: {{.UserEmail}}
{{- end}}

This temperature exceeds the critical threshold of {{.Threshold}}°C.
Please check the simulation system immediately.

Recommended Actions:
- Check the simulation system
- Verify temperature sensors
- Consider stopping simulation if necessary
- Monitor system closely

This is an automated alert from the Temperature Monitoring System.
Please acknowledge this alert by checking the dashboard.
`

const alertHTMLTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Critical Temperature Alert</title></head>
<body style="font-family: Arial, sans-serif;">
  <h1 style="color: #dc2626;">CRITICAL TEMPERATURE ALERT</h1>
  <p style="font-size: 48px; font-weight: bold; color: #dc2626;">{{.Temperature}}°C</p>
  <p>Temperature is above {{.Threshold}}°C. Critical level reached.</p>
  <ul>
    <li><strong>Temperature:</strong> {{.Temperature}}°C</li>
    <li><strong>Status:</strong> CRITICAL</li>
    <li><strong>Simulation ID:</strong> {{.SimulationID}}</li>
    <li><strong>Alert Time:</strong> {{.AlertTime}} UTC</li>
    <li><strong>Threshold:</strong> {{.Threshold}}°C</li>
    {{- if .UserEmail}}
    <li><strong>Triggered by:</strong> {{.UserEmail}}</li>
    {{- end}}
  </ul>
  <p>This is an automated alert from the Temperature Monitoring System.</p>
</body>
</html>
`

// alertData provides fields for rendering alert content.
type alertData struct {
	Temperature  int
	SimulationID string
	AlertTime    string
	Threshold    int
	UserEmail    string
}

type alertTemplates struct {
	text *template.Template
	html *htmltemplate.Template
}

func newAlertTemplates() *alertTemplates {
	return &alertTemplates{
		text: template.Must(template.New("alert-text").Parse(alertTextTemplate)),
		html: htmltemplate.Must(htmltemplate.New("alert-html").Parse(alertHTMLTemplate)),
	}
}

func (t *alertTemplates) render(d alertData) (text, html string, err error) {
	var tb, hb bytes.Buffer
	if err := t.text.Execute(&tb, d); err != nil {
		return "", "", err
	}
	if err := t.html.Execute(&hb, d); err != nil {
		return "", "", err
	}
	return tb.String(), hb.String(), nil
}
