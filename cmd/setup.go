package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"drive-distribution/domain/distribution"
	"drive-distribution/infrastructure/config"
)

var errPromptCancelled = errors.New("prompt cancelled")

// Prompter interface for interactive prompts (allows mocking in tests)
type Prompter interface {
	Input(message string, defaultValue string) (string, error)
	Confirm(message string, defaultValue bool) (bool, error)
	Select(message string, options []string, defaultValue string) (string, error)
}

// SurveyPrompter implements Prompter using the survey library
type SurveyPrompter struct{}

func (p *SurveyPrompter) Input(message string, defaultValue string) (string, error) {
	result := ""
	prompt := &survey.Input{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return "", err
	}
	return result, nil
}

func (p *SurveyPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	result := defaultValue
	prompt := &survey.Confirm{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return false, err
	}
	return result, nil
}

func (p *SurveyPrompter) Select(message string, options []string, defaultValue string) (string, error) {
	result := ""
	prompt := &survey.Select{
		Message: message,
		Options: options,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return "", err
	}
	return result, nil
}

// DefaultPrompter is the prompter used in production
var DefaultPrompter Prompter = &SurveyPrompter{}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create configuration file interactively",
	Long: `Prompts for configuration values and creates config.yaml.

This command guides you through the Google credentials, the Drive root folder,
the database and lock connections, and the run summary email settings.`,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	return RunSetupWithPrompter(DefaultPrompter, cfgFile, DefaultOutput)
}

// RunSetupWithPrompter runs the setup with a given prompter (for testing)
func RunSetupWithPrompter(prompter Prompter, configPath string, out OutputWriter) error {
	if configPath == "" {
		configPath = config.DefaultPath
	}

	if _, err := os.Stat(configPath); err == nil {
		overwrite, err := prompter.Confirm("config.yaml already exists. Overwrite?", false)
		if err != nil {
			return errPromptCancelled
		}
		if !overwrite {
			fmt.Fprintln(out, "Setup cancelled.")
			return nil
		}
	}

	fmt.Fprintln(out, "Welcome to drive-distribution setup!")
	fmt.Fprintln(out)

	cfg := config.Default()

	steps := []func(Prompter, *config.Config) error{
		promptGoogle,
		promptStorage,
		promptDistribution,
		promptEmail,
	}
	for _, step := range steps {
		if err := step(prompter, cfg); err != nil {
			return err
		}
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := config.Save(cfg, configPath); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Configuration saved to %s\n", configPath)
	fmt.Fprintln(out, "Next, run 'drive-distribution migrate' to create the database tables.")
	return nil
}

// ask prompts for a value, falling back to def when the answer is empty
func ask(prompter Prompter, message, def string, required bool) (string, error) {
	v, err := prompter.Input(message, def)
	if err != nil {
		return "", errPromptCancelled
	}
	v = strings.TrimSpace(v)
	if v == "" {
		v = def
	}
	if v == "" && required {
		return "", fmt.Errorf("%s is required", strings.TrimSuffix(message, "?"))
	}
	return v, nil
}

func promptGoogle(prompter Prompter, cfg *config.Config) error {
	var err error
	if cfg.Google.CredentialsFile, err = ask(prompter, "Path to Google credentials file?", cfg.Google.CredentialsFile, true); err != nil {
		return err
	}

	serviceAccount, err := prompter.Confirm("Are these service account credentials?", false)
	if err != nil {
		return errPromptCancelled
	}
	cfg.Google.ServiceAccount = serviceAccount
	if !serviceAccount {
		if cfg.Google.TokenFile, err = ask(prompter, "Where should the OAuth token be stored?", cfg.Google.TokenFile, true); err != nil {
			return err
		}
	}

	if cfg.Google.RootFolderID, err = ask(prompter, "Google Drive folder ID to create activities under?", "", true); err != nil {
		return err
	}
	cfg.Google.SiteFolderName, err = ask(prompter, "Name of the site folder?", cfg.Google.SiteFolderName, true)
	return err
}

func promptStorage(prompter Prompter, cfg *config.Config) error {
	var err error
	if cfg.Database.DSN, err = ask(prompter, "Postgres connection string?", "postgres://localhost:5432/distribution?sslmode=disable", true); err != nil {
		return err
	}

	useRedis, err := prompter.Confirm("Use Redis to lock runs across processes?", false)
	if err != nil {
		return errPromptCancelled
	}
	if useRedis {
		cfg.Redis.Addr, err = ask(prompter, "Redis address?", "localhost:6379", true)
	}
	return err
}

func promptDistribution(prompter Prompter, cfg *config.Config) error {
	policy, err := prompter.Select(
		"When a copy is created but sharing fails:",
		[]string{string(distribution.SharePolicyStrict), string(distribution.SharePolicyRecordFile)},
		cfg.Distribution.SharePolicy,
	)
	if err != nil {
		return errPromptCancelled
	}
	cfg.Distribution.SharePolicy = policy

	cfg.Distribution.NotificationMessage, err = ask(prompter, "Message included in sharing emails (optional)?", "", false)
	return err
}

func promptEmail(prompter Prompter, cfg *config.Config) error {
	enable, err := prompter.Confirm("Send run summaries by email?", false)
	if err != nil {
		return errPromptCancelled
	}
	if !enable {
		return nil
	}
	if cfg.Google.ServiceAccount {
		return fmt.Errorf("run summaries need OAuth credentials, not a service account")
	}

	if cfg.Email.FromName, err = ask(prompter, "Display name for outgoing emails?", "", true); err != nil {
		return err
	}
	if cfg.Email.FromAddress, err = ask(prompter, "Gmail address to send from?", "", true); err != nil {
		return err
	}

	cfg.Email.Recipients = make(map[string]config.RecipientConfig)
	for {
		more, err := prompter.Confirm("Add a summary recipient?", false)
		if err != nil {
			return errPromptCancelled
		}
		if !more {
			break
		}

		key, err := ask(prompter, "  Key:", "", true)
		if err != nil {
			return err
		}
		recipient, err := promptRecipient(prompter)
		if err != nil {
			return err
		}
		cfg.Email.Recipients[strings.ToLower(key)] = recipient
	}

	return nil
}

func promptRecipient(prompter Prompter) (config.RecipientConfig, error) {
	name, err := ask(prompter, "  Full name:", "", true)
	if err != nil {
		return config.RecipientConfig{}, err
	}
	address, err := ask(prompter, "  Email:", "", true)
	if err != nil {
		return config.RecipientConfig{}, err
	}
	return config.RecipientConfig{Name: name, Address: address}, nil
}
