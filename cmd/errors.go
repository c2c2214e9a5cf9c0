package cmd

import (
	"errors"
	"fmt"

	"drive-distribution/domain/notification"
)

// ValidationError contains details about a validation failure with suggestions
type ValidationError struct {
	Message    string
	Suggestion string
}

func (e *ValidationError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s\n\nTo fix this, %s", e.Message, e.Suggestion)
	}
	return e.Message
}

// recipientError adds a fix-it hint to recipient lookup failures
func recipientError(err error) error {
	if errors.Is(err, notification.ErrRecipientNotFound) {
		return &ValidationError{
			Message:    err.Error(),
			Suggestion: "add the recipient first:\n  drive-distribution config add recipient --key <key> --name \"<name>\" --email <address>",
		}
	}
	return err
}
