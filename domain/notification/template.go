package notification

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	"text/template"
)

// TemplateData contains all the fields available for email template rendering
type TemplateData struct {
	Greeting      string
	CourseName    string
	ActivityName  string
	Distribution  string
	Outcome       string // e.g. "all 12 files were created and shared"
	FolderURL     string
	Failures      []Failure
	DateFormatted string
	SenderName    string
}

// EmailTemplate contains the templates for rendering emails
type EmailTemplate struct {
	SubjectFormat string
	PlainText     string
	HTML          string
}

// DefaultTemplate is the run summary sent after a distribution
var DefaultTemplate = EmailTemplate{
	SubjectFormat: "{{.CourseName}}: {{.ActivityName}} distributed on {{.DateFormatted}}",
	PlainText: `{{.Greeting}}

The {{.Distribution}} distribution of "{{.ActivityName}}" has finished: {{.Outcome}}.
{{if .FolderURL}}
Folder: {{.FolderURL}}
{{end}}{{if .Failures}}
Failed targets:
{{range .Failures}}  - {{.Target}}: {{.Status}}
{{end}}{{end}}
~{{.SenderName}}`,
	HTML: `<div dir="ltr">{{.Greeting}}<br><br>
The {{.Distribution}} distribution of "{{.ActivityName}}" has finished: {{.Outcome}}.<br>
{{if .FolderURL}}<a href="{{.FolderURL}}">Open the activity folder</a><br>{{end}}
{{if .Failures}}<br>Failed targets:<ul>{{range .Failures}}<li>{{.Target}}: {{.Status}}</li>{{end}}</ul>{{end}}
<br>~{{.SenderName}}</div>`,
}

// FormatGreeting creates an appropriate greeting based on number of recipients
// 1 recipient: "Dear John,"
// 2 recipients: "Dear John & Jane,"
// 3+ recipients: "Hello everyone,"
func FormatGreeting(recipients []Recipient) string {
	switch len(recipients) {
	case 0:
		return "Hello,"
	case 1:
		return fmt.Sprintf("Dear %s,", firstName(recipients[0].Name))
	case 2:
		return fmt.Sprintf("Dear %s & %s,", firstName(recipients[0].Name), firstName(recipients[1].Name))
	default:
		return "Hello everyone,"
	}
}

func firstName(fullName string) string {
	fields := strings.Fields(fullName)
	if len(fields) == 0 {
		return "Colleague"
	}
	return fields[0]
}

// FormatOutcome summarises how many targets succeeded
func FormatOutcome(created, total int) string {
	switch {
	case total == 0:
		return "there was nobody to distribute to"
	case created == total && total == 1:
		return "the file was created and shared"
	case created == total:
		return fmt.Sprintf("all %d files were created and shared", total)
	case created == 0:
		return fmt.Sprintf("none of the %d files could be created", total)
	default:
		return fmt.Sprintf("%d of %d files were created and shared, %d failed", created, total, total-created)
	}
}

// RenderSubject renders the email subject using the template
func (t *EmailTemplate) RenderSubject(data TemplateData) (string, error) {
	return renderText("subject", t.SubjectFormat, data)
}

// RenderPlainText renders the plain text email body
func (t *EmailTemplate) RenderPlainText(data TemplateData) (string, error) {
	return renderText("plaintext", t.PlainText, data)
}

// RenderHTML renders the HTML email body with contextual escaping
func (t *EmailTemplate) RenderHTML(data TemplateData) (string, error) {
	tmpl, err := htmltemplate.New("html").Parse(t.HTML)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

func renderText(name, tmplStr string, data TemplateData) (string, error) {
	tmpl, err := template.New(name).Parse(tmplStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}
