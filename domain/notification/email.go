package notification

import (
	"context"
	"time"
)

// Recipient represents an email recipient with name and address
type Recipient struct {
	Name    string
	Address string
}

// Failure is one target that did not end up created and shared
type Failure struct {
	Target string // e.g. "user 101" or "group 5"
	Status string
}

// EmailRequest contains the data of a distribution run summary
type EmailRequest struct {
	To           []Recipient
	CC           []Recipient
	CourseName   string
	ActivityName string
	Distribution string
	FolderURL    string // Drive folder of the activity
	Created      int
	Failures     []Failure
	FinishedAt   time.Time
	SenderName   string
}

// Total is the number of targets in the run
func (r *EmailRequest) Total() int {
	return r.Created + len(r.Failures)
}

// Validate checks that the email request has all required fields
func (r *EmailRequest) Validate() error {
	if len(r.To) == 0 {
		return ErrNoRecipients
	}
	for _, list := range [][]Recipient{r.To, r.CC} {
		for _, rc := range list {
			if rc.Address == "" {
				return ErrInvalidRecipient
			}
		}
	}
	if r.ActivityName == "" {
		return ErrNoActivity
	}
	return nil
}

// EmailSender defines the interface for sending emails
type EmailSender interface {
	Send(ctx context.Context, req *EmailRequest) error
}
