package config

import (
	"fmt"
	"sort"
	"strings"

	"drive-distribution/domain/notification"
)

// RecipientLookup resolves run summary recipients from config
type RecipientLookup struct {
	config *Config
}

// NewRecipientLookup creates a new recipient lookup from config
func NewRecipientLookup(cfg *Config) *RecipientLookup {
	return &RecipientLookup{config: cfg}
}

// LookupRecipient finds recipients matching the query (first name, last name, full name, or key).
// Returns all matches ordered by key; the caller handles ambiguity.
func (r *RecipientLookup) LookupRecipient(query string) ([]notification.Recipient, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, notification.ErrRecipientNotFound
	}

	keys := make([]string, 0, len(r.config.Email.Recipients))
	for key := range r.config.Email.Recipients {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var matches []notification.Recipient
	for _, key := range keys {
		rc := r.config.Email.Recipients[key]
		if matchesQuery(key, rc.Name, query) {
			matches = append(matches, notification.Recipient{Name: rc.Name, Address: rc.Address})
		}
	}

	if len(matches) == 0 {
		return nil, notification.ErrRecipientNotFound
	}
	return matches, nil
}

func matchesQuery(key, name, query string) bool {
	nameLower := strings.ToLower(name)
	if strings.ToLower(key) == query || nameLower == query {
		return true
	}
	parts := strings.Fields(nameLower)
	return len(parts) > 0 && (parts[0] == query || parts[len(parts)-1] == query)
}

// LookupRecipients looks up every query, accepting comma-separated values.
// Results are deduplicated by address.
func (r *RecipientLookup) LookupRecipients(queries []string) ([]notification.Recipient, error) {
	var all []notification.Recipient
	seen := make(map[string]bool)

	for _, q := range queries {
		for _, query := range strings.Split(q, ",") {
			query = strings.TrimSpace(query)
			if query == "" {
				continue
			}

			matches, err := r.LookupRecipient(query)
			if err != nil {
				return nil, fmt.Errorf("recipient %q: %w", query, err)
			}
			if len(matches) > 1 {
				names := make([]string, len(matches))
				for i, m := range matches {
					names[i] = m.Name
				}
				return nil, fmt.Errorf("%w: %q matches %s - use last name to disambiguate",
					notification.ErrAmbiguousRecipient, query, strings.Join(names, ", "))
			}

			if !seen[matches[0].Address] {
				seen[matches[0].Address] = true
				all = append(all, matches[0])
			}
		}
	}

	if len(all) == 0 {
		return nil, notification.ErrRecipientNotFound
	}
	return all, nil
}

// AllRecipients returns every configured recipient ordered by key
func (r *RecipientLookup) AllRecipients() []notification.Recipient {
	keys := make([]string, 0, len(r.config.Email.Recipients))
	for key := range r.config.Email.Recipients {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]notification.Recipient, len(keys))
	for i, key := range keys {
		rc := r.config.Email.Recipients[key]
		out[i] = notification.Recipient{Name: rc.Name, Address: rc.Address}
	}
	return out
}

// DefaultCC returns the configured default CC recipients
func (r *RecipientLookup) DefaultCC() []notification.Recipient {
	cc := make([]notification.Recipient, len(r.config.Email.DefaultCC))
	for i, rc := range r.config.Email.DefaultCC {
		cc[i] = notification.Recipient{Name: rc.Name, Address: rc.Address}
	}
	return cc
}

// Sender returns the configured from address
func (r *RecipientLookup) Sender() notification.Recipient {
	return notification.Recipient{Name: r.config.Email.FromName, Address: r.config.Email.FromAddress}
}
