package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"drive-distribution/domain/distribution"
	"drive-distribution/infrastructure/config"
)

// mockPrompter answers prompts in order
type mockPrompter struct {
	inputs   []string
	confirms []bool
	selects  []string
}

func (m *mockPrompter) Input(message string, defaultValue string) (string, error) {
	if len(m.inputs) == 0 {
		return "", errors.New("unexpected input prompt: " + message)
	}
	v := m.inputs[0]
	m.inputs = m.inputs[1:]
	return v, nil
}

func (m *mockPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	if len(m.confirms) == 0 {
		return false, errors.New("unexpected confirm prompt: " + message)
	}
	v := m.confirms[0]
	m.confirms = m.confirms[1:]
	return v, nil
}

func (m *mockPrompter) Select(message string, options []string, defaultValue string) (string, error) {
	if len(m.selects) == 0 {
		return "", errors.New("unexpected select prompt: " + message)
	}
	v := m.selects[0]
	m.selects = m.selects[1:]
	return v, nil
}

func TestRunSetupWithPrompter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "config.yaml")
	prompter := &mockPrompter{
		// credentials, token, root, site, dsn, redis, message, from name,
		// from address, then one recipient
		inputs: []string{
			"", "", "root-1", "", "", "",
			"Please open your copy",
			"Science Office", "office@example.com",
			"Park", "Dana Park", "park@example.com",
		},
		confirms: []bool{false, true, true, true, false},
		selects:  []string{string(distribution.SharePolicyRecordFile)},
	}
	out := &bytes.Buffer{}

	if err := RunSetupWithPrompter(prompter, path, out); err != nil {
		t.Fatalf("RunSetupWithPrompter() error = %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}
	if cfg.Google.CredentialsFile != "credentials.json" || cfg.Google.TokenFile != "token.json" {
		t.Errorf("unexpected google files: %+v", cfg.Google)
	}
	if cfg.Google.RootFolderID != "root-1" || cfg.Google.SiteFolderName != "Drive distributions" {
		t.Errorf("unexpected folders: %+v", cfg.Google)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("Redis.Addr = %q", cfg.Redis.Addr)
	}
	if cfg.SharePolicy() != distribution.SharePolicyRecordFile {
		t.Errorf("SharePolicy = %q", cfg.SharePolicy())
	}
	if cfg.Distribution.NotificationMessage != "Please open your copy" {
		t.Errorf("NotificationMessage = %q", cfg.Distribution.NotificationMessage)
	}
	if got := cfg.Email.Recipients["park"]; got.Address != "park@example.com" {
		t.Errorf("recipient not saved: %+v", cfg.Email.Recipients)
	}
	if !strings.Contains(out.String(), "Configuration saved to") {
		t.Errorf("unexpected output: %s", out.String())
	}
}

func TestRunSetupWithPrompter_ExistingConfigKept(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("google: {}\n"), 0600); err != nil {
		t.Fatal(err)
	}
	out := &bytes.Buffer{}

	if err := RunSetupWithPrompter(&mockPrompter{confirms: []bool{false}}, path, out); err != nil {
		t.Fatalf("RunSetupWithPrompter() error = %v", err)
	}
	if !strings.Contains(out.String(), "Setup cancelled.") {
		t.Errorf("expected cancellation, got %q", out.String())
	}
	data, _ := os.ReadFile(path)
	if string(data) != "google: {}\n" {
		t.Errorf("existing config was modified: %q", data)
	}
}

func TestRunSetupWithPrompter_Errors(t *testing.T) {
	tests := []struct {
		name     string
		prompter *mockPrompter
		wantErr  string
	}{
		{
			name:     "missing root folder",
			prompter: &mockPrompter{inputs: []string{"", "", ""}, confirms: []bool{false}},
			wantErr:  "is required",
		},
		{
			name:     "cancelled",
			prompter: &mockPrompter{},
			wantErr:  "prompt cancelled",
		},
		{
			name: "email with service account",
			prompter: &mockPrompter{
				inputs:   []string{"sa.json", "root-1", "", "", ""},
				confirms: []bool{true, false, true},
				selects:  []string{"strict"},
			},
			wantErr: "OAuth",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			err := RunSetupWithPrompter(tt.prompter, path, &bytes.Buffer{})
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want %q", err, tt.wantErr)
			}
			if _, statErr := os.Stat(path); statErr == nil {
				t.Error("no config should be written on error")
			}
		})
	}
}
