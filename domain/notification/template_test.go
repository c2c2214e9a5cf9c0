package notification

import (
	"strings"
	"testing"
)

func sampleData() TemplateData {
	return TemplateData{
		Greeting:      "Dear Dana,",
		CourseName:    "BIO101",
		ActivityName:  "Lab report",
		Distribution:  "std_copy",
		Outcome:       FormatOutcome(2, 3),
		FolderURL:     "https://drive.google.com/drive/folders/f1",
		Failures:      []Failure{{Target: "user 103", Status: "quota exceeded"}},
		DateFormatted: "03/02/2026",
		SenderName:    "Course office",
	}
}

func TestEmailTemplate_RenderSubject(t *testing.T) {
	got, err := DefaultTemplate.RenderSubject(sampleData())
	if err != nil {
		t.Fatalf("RenderSubject() error = %v", err)
	}
	want := "BIO101: Lab report distributed on 03/02/2026"
	if got != want {
		t.Errorf("RenderSubject() = %q, want %q", got, want)
	}
}

func TestEmailTemplate_RenderPlainText(t *testing.T) {
	got, err := DefaultTemplate.RenderPlainText(sampleData())
	if err != nil {
		t.Fatalf("RenderPlainText() error = %v", err)
	}

	for _, want := range []string{
		"Dear Dana,",
		`The std_copy distribution of "Lab report" has finished: 2 of 3 files were created and shared, 1 failed.`,
		"Folder: https://drive.google.com/drive/folders/f1",
		"  - user 103: quota exceeded",
		"~Course office",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("plain text missing %q:\n%s", want, got)
		}
	}
}

func TestEmailTemplate_RenderPlainText_NoFailures(t *testing.T) {
	data := sampleData()
	data.Failures = nil
	data.FolderURL = ""
	data.Outcome = FormatOutcome(3, 3)

	got, err := DefaultTemplate.RenderPlainText(data)
	if err != nil {
		t.Fatalf("RenderPlainText() error = %v", err)
	}
	if strings.Contains(got, "Failed targets") {
		t.Errorf("should not list failures:\n%s", got)
	}
	if strings.Contains(got, "Folder:") {
		t.Errorf("should not show a folder:\n%s", got)
	}
	if !strings.Contains(got, "all 3 files were created and shared") {
		t.Errorf("missing outcome:\n%s", got)
	}
}

func TestEmailTemplate_RenderHTML(t *testing.T) {
	got, err := DefaultTemplate.RenderHTML(sampleData())
	if err != nil {
		t.Fatalf("RenderHTML() error = %v", err)
	}
	if !strings.Contains(got, `<a href="https://drive.google.com/drive/folders/f1">`) {
		t.Errorf("missing folder link:\n%s", got)
	}
	if !strings.Contains(got, "<li>user 103: quota exceeded</li>") {
		t.Errorf("missing failure item:\n%s", got)
	}
}

func TestEmailTemplate_RenderHTML_EscapesNames(t *testing.T) {
	data := sampleData()
	data.ActivityName = "<b>Essay</b>"

	got, err := DefaultTemplate.RenderHTML(data)
	if err != nil {
		t.Fatalf("RenderHTML() error = %v", err)
	}
	if strings.Contains(got, "<b>Essay</b>") {
		t.Errorf("activity name was not escaped:\n%s", got)
	}
}

func TestFormatOutcome(t *testing.T) {
	tests := []struct {
		created, total int
		want           string
	}{
		{0, 0, "there was nobody to distribute to"},
		{1, 1, "the file was created and shared"},
		{5, 5, "all 5 files were created and shared"},
		{0, 4, "none of the 4 files could be created"},
		{3, 4, "3 of 4 files were created and shared, 1 failed"},
	}

	for _, tt := range tests {
		if got := FormatOutcome(tt.created, tt.total); got != tt.want {
			t.Errorf("FormatOutcome(%d, %d) = %q, want %q", tt.created, tt.total, got, tt.want)
		}
	}
}

func TestFormatGreeting(t *testing.T) {
	tests := []struct {
		name       string
		recipients []Recipient
		want       string
	}{
		{"none", nil, "Hello,"},
		{"one", []Recipient{{Name: "Dana Park"}}, "Dear Dana,"},
		{"one without name", []Recipient{{Address: "x@example.com"}}, "Dear Colleague,"},
		{"two", []Recipient{{Name: "Dana Park"}, {Name: "Lee Ortiz"}}, "Dear Dana & Lee,"},
		{"many", []Recipient{{Name: "A"}, {Name: "B"}, {Name: "C"}}, "Hello everyone,"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatGreeting(tt.recipients); got != tt.want {
				t.Errorf("FormatGreeting() = %q, want %q", got, tt.want)
			}
		})
	}
}
