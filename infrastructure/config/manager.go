package config

import (
	"errors"
	"fmt"
	"net/mail"
	"sort"
	"strings"
)

// Errors for config management
var (
	ErrRecipientNotFound = errors.New("recipient not found")
	ErrCCNotFound        = errors.New("cc not found")
	ErrDuplicateKey      = errors.New("key already exists")
	ErrInvalidEmail      = errors.New("invalid email format")
)

// ConfigManager provides CRUD operations for config entries
type ConfigManager struct {
	config     *Config
	configPath string
}

// NewConfigManager creates a new config manager
func NewConfigManager(cfg *Config, configPath string) *ConfigManager {
	return &ConfigManager{
		config:     cfg,
		configPath: configPath,
	}
}

// Recipient represents a recipient entry (used for both recipients and CCs)
type Recipient struct {
	Key     string
	Name    string
	Address string
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// --- Recipient CRUD ---

// AddRecipient adds a new run summary recipient to config
func (m *ConfigManager) AddRecipient(key, name, email string) error {
	key = normalizeKey(key)
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if key == "" {
		return fmt.Errorf("recipient key is required")
	}
	if name == "" {
		return fmt.Errorf("recipient name is required")
	}
	if !isValidEmail(email) {
		return fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}

	if m.config.Email.Recipients == nil {
		m.config.Email.Recipients = make(map[string]RecipientConfig)
	}
	if _, exists := m.config.Email.Recipients[key]; exists {
		return fmt.Errorf("%w: recipient %q", ErrDuplicateKey, key)
	}

	m.config.Email.Recipients[key] = RecipientConfig{Name: name, Address: email}
	return Save(m.config, m.configPath)
}

// ListRecipients returns all recipients ordered by key
func (m *ConfigManager) ListRecipients() []Recipient {
	result := make([]Recipient, 0, len(m.config.Email.Recipients))
	for key, rc := range m.config.Email.Recipients {
		result = append(result, Recipient{Key: key, Name: rc.Name, Address: rc.Address})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result
}

// GetRecipient gets a recipient by key (case-insensitive)
func (m *ConfigManager) GetRecipient(key string) (Recipient, error) {
	key = normalizeKey(key)
	if rc, exists := m.config.Email.Recipients[key]; exists {
		return Recipient{Key: key, Name: rc.Name, Address: rc.Address}, nil
	}
	return Recipient{}, fmt.Errorf("%w: %q", ErrRecipientNotFound, key)
}

// RemoveRecipient removes a recipient by key
func (m *ConfigManager) RemoveRecipient(key string) error {
	key = normalizeKey(key)
	if _, exists := m.config.Email.Recipients[key]; !exists {
		return fmt.Errorf("%w: %q", ErrRecipientNotFound, key)
	}

	delete(m.config.Email.Recipients, key)
	return Save(m.config, m.configPath)
}

// UpdateRecipient updates a recipient's name and/or email
func (m *ConfigManager) UpdateRecipient(key, name, email string) error {
	key = normalizeKey(key)

	rc, exists := m.config.Email.Recipients[key]
	if !exists {
		return fmt.Errorf("%w: %q", ErrRecipientNotFound, key)
	}

	// Update only provided values
	if name = strings.TrimSpace(name); name != "" {
		rc.Name = name
	}
	if email = strings.TrimSpace(email); email != "" {
		if !isValidEmail(email) {
			return fmt.Errorf("%w: %q", ErrInvalidEmail, email)
		}
		rc.Address = email
	}

	m.config.Email.Recipients[key] = rc
	return Save(m.config, m.configPath)
}

// --- CC CRUD ---

// AddCC adds a default CC recipient. CCs are keyed by address.
func (m *ConfigManager) AddCC(name, email string) error {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if !isValidEmail(email) {
		return fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	if _, err := m.ccIndex(email); err == nil {
		return fmt.Errorf("%w: cc %q", ErrDuplicateKey, email)
	}

	m.config.Email.DefaultCC = append(m.config.Email.DefaultCC, RecipientConfig{Name: name, Address: email})
	return Save(m.config, m.configPath)
}

// ListCCs returns all default CC recipients
func (m *ConfigManager) ListCCs() []Recipient {
	result := make([]Recipient, 0, len(m.config.Email.DefaultCC))
	for _, cc := range m.config.Email.DefaultCC {
		result = append(result, Recipient{Key: strings.ToLower(cc.Address), Name: cc.Name, Address: cc.Address})
	}
	return result
}

// RemoveCC removes a CC by address
func (m *ConfigManager) RemoveCC(email string) error {
	idx, err := m.ccIndex(email)
	if err != nil {
		return err
	}

	m.config.Email.DefaultCC = append(m.config.Email.DefaultCC[:idx], m.config.Email.DefaultCC[idx+1:]...)
	return Save(m.config, m.configPath)
}

func (m *ConfigManager) ccIndex(email string) (int, error) {
	email = normalizeKey(email)
	for i, cc := range m.config.Email.DefaultCC {
		if strings.ToLower(cc.Address) == email {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q", ErrCCNotFound, email)
}

// isValidEmail accepts a bare address such as "park@example.com"
func isValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email && strings.Contains(email, ".")
}
