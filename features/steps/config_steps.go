//go:build integration

package steps

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"drive-distribution/domain/distribution"
	"drive-distribution/infrastructure/config"

	"github.com/cucumber/godog"
)

type configContext struct {
	configPath string
	tempDir    string
	cfg        *config.Config
	loadErr    error
}

// SharedConfigContext is reset before each scenario via After hook
var SharedConfigContext = &configContext{}

func InitializeConfigScenario(ctx *godog.ScenarioContext) {
	testCtx := SharedConfigContext

	// Reset context after each scenario
	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if testCtx.tempDir != "" {
			os.RemoveAll(testCtx.tempDir)
		}
		SharedConfigContext = &configContext{}
		return c, nil
	})

	ctx.Step(`^a configuration file exists at "([^"]*)"$`, testCtx.aConfigurationFileExistsAt)
	ctx.Step(`^no configuration file exists at "([^"]*)"$`, testCtx.noConfigurationFileExistsAt)
	ctx.Step(`^a configuration file containing:$`, testCtx.aConfigurationFileContaining)
	ctx.Step(`^I load the configuration$`, testCtx.iLoadTheConfiguration)
	ctx.Step(`^I attempt to load the configuration$`, testCtx.iAttemptToLoadTheConfiguration)
	ctx.Step(`^the site folder name should be "([^"]*)"$`, testCtx.theSiteFolderNameShouldBe)
	ctx.Step(`^the share failure policy should be "([^"]*)"$`, testCtx.theShareFailurePolicyShouldBe)
	ctx.Step(`^the recipient "([^"]*)" should have address "([^"]*)"$`, testCtx.theRecipientShouldHaveAddress)
	ctx.Step(`^I should receive an error about missing configuration$`, testCtx.iShouldReceiveAnErrorAboutMissingConfiguration)
	ctx.Step(`^I should receive an error mentioning "([^"]*)"$`, testCtx.iShouldReceiveAnErrorMentioning)
}

func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("could not find project root (no go.mod found)")
		}
		dir = parent
	}
}

func (c *configContext) aConfigurationFileExistsAt(path string) error {
	root, err := findProjectRoot()
	if err != nil {
		return err
	}
	c.configPath = filepath.Join(root, path)

	// Verify file actually exists
	if _, err := os.Stat(c.configPath); err != nil {
		return fmt.Errorf("expected config file at %s but it does not exist: %w", c.configPath, err)
	}
	return nil
}

func (c *configContext) noConfigurationFileExistsAt(path string) error {
	root, err := findProjectRoot()
	if err != nil {
		return err
	}
	c.configPath = filepath.Join(root, path)
	return nil
}

func (c *configContext) aConfigurationFileContaining(doc *godog.DocString) error {
	dir, err := os.MkdirTemp("", "distribution-config-*")
	if err != nil {
		return err
	}
	c.tempDir = dir
	c.configPath = filepath.Join(dir, "config.yaml")
	return os.WriteFile(c.configPath, []byte(doc.Content), 0600)
}

func (c *configContext) iLoadTheConfiguration() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return fmt.Errorf("unexpected error loading config: %w", err)
	}
	c.cfg = cfg
	return nil
}

func (c *configContext) iAttemptToLoadTheConfiguration() error {
	cfg, err := config.Load(c.configPath)
	c.cfg = cfg
	c.loadErr = err
	return nil
}

func (c *configContext) theSiteFolderNameShouldBe(expected string) error {
	if c.cfg == nil {
		return fmt.Errorf("config was not loaded")
	}
	if c.cfg.Google.SiteFolderName != expected {
		return fmt.Errorf("expected site folder name %q, got %q", expected, c.cfg.Google.SiteFolderName)
	}
	return nil
}

func (c *configContext) theShareFailurePolicyShouldBe(expected string) error {
	if c.cfg == nil {
		return fmt.Errorf("config was not loaded")
	}
	if got := c.cfg.SharePolicy(); got != distribution.SharePolicy(expected) {
		return fmt.Errorf("expected share failure policy %q, got %q", expected, got)
	}
	return nil
}

func (c *configContext) theRecipientShouldHaveAddress(key, address string) error {
	if c.cfg == nil {
		return fmt.Errorf("config was not loaded")
	}
	r, ok := c.cfg.Email.Recipients[key]
	if !ok {
		return fmt.Errorf("recipient %q not found", key)
	}
	if r.Address != address {
		return fmt.Errorf("expected address %q, got %q", address, r.Address)
	}
	return nil
}

func (c *configContext) iShouldReceiveAnErrorAboutMissingConfiguration() error {
	if c.loadErr == nil {
		return fmt.Errorf("expected an error but got none")
	}
	if !errors.Is(c.loadErr, fs.ErrNotExist) {
		return fmt.Errorf("expected a missing file error, got %v", c.loadErr)
	}
	return nil
}

func (c *configContext) iShouldReceiveAnErrorMentioning(text string) error {
	if c.loadErr == nil {
		return fmt.Errorf("expected an error but got none")
	}
	if !strings.Contains(c.loadErr.Error(), text) {
		return fmt.Errorf("expected error mentioning %q, got %v", text, c.loadErr)
	}
	return nil
}
