package distribution

import (
	"time"

	"drive-distribution/domain/roster"
)

// Activity is one distributed-document configuration.
// Distribution and Selection are fixed at creation; Sharing flips to true once.
type Activity struct {
	ID             int64
	CourseID       int64
	Name           string
	Intro          string
	DocID          string
	DocType        FileType
	Distribution   Distribution
	Permission     Permission
	ParentFolderID string
	Selection      roster.Selection
	Sharing        bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Validate checks that the distribution agrees with the roster selection
func (a *Activity) Validate() error {
	if _, err := ParsePermission(string(a.Permission)); err != nil {
		return err
	}
	if _, err := ParseFileType(string(a.DocType)); err != nil {
		return err
	}
	if _, err := Classify(a.Distribution.Base(), a.Selection.Shape()); err != nil {
		return err
	}
	if !a.Distribution.Accepts(a.Selection.Shape()) {
		return &ConfigurationError{
			Distribution: a.Distribution,
			Shape:        a.Selection.Shape(),
		}
	}
	return nil
}

// MasterLink returns the sharing URL of the master document
func (a *Activity) MasterLink() string {
	return a.DocType.Link(a.DocID)
}
