package mailer

import (
	"github.com/oksasatya/go-ddd-identity/pkg/mailer/templates"
)

// Template names understood by the event worker.
const (
	TemplateWelcome           = templates.Welcome
	TemplateVerifyEmail       = templates.VerifyEmail
	TemplateLoginNotification = templates.LoginNotification
	TemplateAccountSuspended  = templates.AccountSuspended
)

// EmailJob is the JSON payload queued for the worker. Either set Template and
// Data, or provide Subject with Text and optionally HTML.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// Compose fills Subject, Text and HTML from the template when one is set.
// An explicit Subject wins over the rendered one.
func (j *EmailJob) Compose() error {
	if j.Template == "" {
		return nil
	}
	if j.Data == nil {
		j.Data = map[string]any{}
	}
	if _, ok := j.Data["Email"]; !ok {
		j.Data["Email"] = j.To
	}
	subject, text, html, err := templates.Render(j.Template, j.Data)
	if err != nil {
		return err
	}
	if j.Subject == "" {
		j.Subject = subject
	}
	j.Text, j.HTML = text, html
	return nil
}
