// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/churchnet/calendar-service/internal/domain/models"
)

//go:embed templates/*
var templateFS embed.FS

// RenderedEmail holds both HTML and text versions of a rendered email
type RenderedEmail struct {
	HTML string
	Text string
}

// templateConfig identifies a template by name and embedded path
type templateConfig struct {
	name string
	path string
}

// TemplateSet holds the HTML and text variants of one email kind
type TemplateSet struct {
	HTML *template.Template
	Text *template.Template
}

// Templates holds every template set the notifier renders
type Templates struct {
	ApprovalRequested TemplateSet
	EventApproved     TemplateSet
	EventRejected     TemplateSet
	SyncDisconnected  TemplateSet
}

// NewTemplates loads all notification templates from the embedded filesystem
func NewTemplates() (Templates, error) {
	templateConfigs := map[string]templateConfig{
		"approvalRequestedHTML": {"approval_requested.html", "templates/approval_requested.html"},
		"approvalRequestedText": {"approval_requested.txt", "templates/approval_requested.txt"},
		"eventApprovedHTML":     {"event_approved.html", "templates/event_approved.html"},
		"eventApprovedText":     {"event_approved.txt", "templates/event_approved.txt"},
		"eventRejectedHTML":     {"event_rejected.html", "templates/event_rejected.html"},
		"eventRejectedText":     {"event_rejected.txt", "templates/event_rejected.txt"},
		"syncDisconnectedHTML":  {"sync_disconnected.html", "templates/sync_disconnected.html"},
		"syncDisconnectedText":  {"sync_disconnected.txt", "templates/sync_disconnected.txt"},
	}

	loaded := make(map[string]*template.Template)
	for key, cfg := range templateConfigs {
		tmpl, err := loadTemplate(cfg)
		if err != nil {
			return Templates{}, err
		}
		loaded[key] = tmpl
	}

	return Templates{
		ApprovalRequested: TemplateSet{
			HTML: loaded["approvalRequestedHTML"],
			Text: loaded["approvalRequestedText"],
		},
		EventApproved: TemplateSet{
			HTML: loaded["eventApprovedHTML"],
			Text: loaded["eventApprovedText"],
		},
		EventRejected: TemplateSet{
			HTML: loaded["eventRejectedHTML"],
			Text: loaded["eventRejectedText"],
		},
		SyncDisconnected: TemplateSet{
			HTML: loaded["syncDisconnectedHTML"],
			Text: loaded["syncDisconnectedText"],
		},
	}, nil
}

// renderSet renders the HTML and text variants of one template set
func renderSet(set TemplateSet, data any) (*RenderedEmail, error) {
	html, err := renderTemplate(set.HTML, data)
	if err != nil {
		return nil, fmt.Errorf("failed to render HTML template: %w", err)
	}

	text, err := renderTemplate(set.Text, data)
	if err != nil {
		return nil, fmt.Errorf("failed to render text template: %w", err)
	}

	return &RenderedEmail{HTML: html, Text: text}, nil
}

// loadTemplate loads a single template with the shared function map
func loadTemplate(config templateConfig) (*template.Template, error) {
	tmpl, err := template.New(config.name).Funcs(template.FuncMap{
		"formatEventDate":    formatEventDate,
		"formatTimeRange":    formatTimeRange,
		"capitalize":         capitalize,
		"newLineToBreakLine": newLineToBreakLine,
	}).ParseFS(templateFS, config.path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s template: %w", config.name, err)
	}
	return tmpl, nil
}

// renderTemplate renders any template with the provided data
func renderTemplate(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	err := tmpl.Execute(&buf, data)
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// formatEventDate formats a calendar date for display in emails, e.g.
// "Sunday, September 6th 2026".
func formatEventDate(t time.Time) string {
	day := t.Day()
	var suffix string
	switch {
	case day >= 11 && day <= 13:
		suffix = "th"
	case day%10 == 1:
		suffix = "st"
	case day%10 == 2:
		suffix = "nd"
	case day%10 == 3:
		suffix = "rd"
	default:
		suffix = "th"
	}

	return fmt.Sprintf("%s, %s %d%s %d",
		t.Format("Monday"),
		t.Format("January"),
		day,
		suffix,
		t.Year())
}

// formatTimeRange formats the time-of-day window for display. All-day events
// yield an empty string so templates can omit the clause.
func formatTimeRange(start, end *models.TimeOfDay) string {
	if start == nil || end == nil {
		return ""
	}
	return fmt.Sprintf("%s to %s", start.String(), end.String())
}

// capitalize capitalizes the first letter of a string
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// newLineToBreakLine converts newlines to HTML break tags
func newLineToBreakLine(s string) template.HTML {
	escaped := template.HTMLEscapeString(s)
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>")) // #nosec G203 -- input is escaped above
}
