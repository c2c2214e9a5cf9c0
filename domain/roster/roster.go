package roster

import (
	"context"
	"strings"
)

// User is a course member who can receive a distributed file.
// GroupID and GroupingID annotate the container the user was resolved from, if any.
type User struct {
	ID         int64  `json:"id" db:"id"`
	FirstName  string `json:"firstname" db:"first_name"`
	LastName   string `json:"lastname" db:"last_name"`
	Email      string `json:"email" db:"email"`
	GroupID    int64  `json:"groupid,omitempty" db:"-"`
	GroupingID int64  `json:"groupingid,omitempty" db:"-"`
}

// FullName returns the first and last name joined by a space
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Group is a named subset of course members
type Group struct {
	ID       int64  `db:"id"`
	CourseID int64  `db:"course_id"`
	Name     string `db:"name"`
}

// Grouping is a named collection of groups
type Grouping struct {
	ID       int64  `db:"id"`
	CourseID int64  `db:"course_id"`
	Name     string `db:"name"`
}

// Course identifies the course an activity belongs to
type Course struct {
	ID        int64  `db:"id"`
	ShortName string `db:"short_name"`
	FullName  string `db:"full_name"`
}

// Roster defines the interface for reading course membership
// This is a port that can be implemented by different infrastructure adapters
type Roster interface {
	// GetCourse returns the course with the given id
	GetCourse(ctx context.Context, courseID int64) (*Course, error)

	// ListEnrolledStudents returns every student enrolled in the course
	ListEnrolledStudents(ctx context.Context, courseID int64) ([]User, error)

	// ListTeachers returns the teaching staff of the course
	ListTeachers(ctx context.Context, courseID int64) ([]User, error)

	// GetGroup returns the group with the given id
	GetGroup(ctx context.Context, groupID int64) (*Group, error)

	// GetGrouping returns the grouping with the given id
	GetGrouping(ctx context.Context, groupingID int64) (*Grouping, error)

	// ListGroupMembers returns the members of a group
	ListGroupMembers(ctx context.Context, groupID int64) ([]User, error)

	// ListGroupingMembers returns the members of every group in a grouping.
	// A user in several groups of the grouping may appear more than once.
	ListGroupingMembers(ctx context.Context, groupingID int64) ([]User, error)
}
