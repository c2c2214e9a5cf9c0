package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"drive-distribution/domain/roster"
)

const (
	roleEditingTeacher = 3
	roleTeacher        = 4
	roleStudent        = 5
)

// RosterStore implements roster.Roster on the course membership tables
type RosterStore struct {
	db *sqlx.DB
}

// NewRosterStore creates a new roster store
func NewRosterStore(db *sqlx.DB) *RosterStore {
	return &RosterStore{db: db}
}

// GetCourse implements roster.Roster
func (s *RosterStore) GetCourse(ctx context.Context, courseID int64) (*roster.Course, error) {
	var c roster.Course
	err := s.db.GetContext(ctx, &c, `SELECT id, short_name, full_name FROM courses WHERE id = $1`, courseID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", roster.ErrCourseNotFound, courseID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get course %d: %w", courseID, err)
	}
	return &c, nil
}

// ListEnrolledStudents implements roster.Roster
func (s *RosterStore) ListEnrolledStudents(ctx context.Context, courseID int64) ([]roster.User, error) {
	return s.users(ctx, `
		SELECT DISTINCT u.id, u.first_name, u.last_name, u.email
		FROM users u
		JOIN course_roles r ON r.user_id = u.id
		WHERE r.course_id = $1 AND r.role_id = $2
		ORDER BY u.id`, courseID, roleStudent)
}

// ListTeachers implements roster.Roster
func (s *RosterStore) ListTeachers(ctx context.Context, courseID int64) ([]roster.User, error) {
	return s.users(ctx, `
		SELECT DISTINCT u.id, u.first_name, u.last_name, u.email
		FROM users u
		JOIN course_roles r ON r.user_id = u.id
		WHERE r.course_id = $1 AND r.role_id IN ($2, $3)
		ORDER BY u.id`, courseID, roleEditingTeacher, roleTeacher)
}

// GetGroup implements roster.Roster
func (s *RosterStore) GetGroup(ctx context.Context, groupID int64) (*roster.Group, error) {
	var g roster.Group
	err := s.db.GetContext(ctx, &g, `SELECT id, course_id, name FROM groups WHERE id = $1`, groupID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: group %d", roster.ErrGroupNotFound, groupID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group %d: %w", groupID, err)
	}
	return &g, nil
}

// GetGrouping implements roster.Roster
func (s *RosterStore) GetGrouping(ctx context.Context, groupingID int64) (*roster.Grouping, error) {
	var g roster.Grouping
	err := s.db.GetContext(ctx, &g, `SELECT id, course_id, name FROM groupings WHERE id = $1`, groupingID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: grouping %d", roster.ErrGroupNotFound, groupingID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get grouping %d: %w", groupingID, err)
	}
	return &g, nil
}

// ListGroupMembers implements roster.Roster
func (s *RosterStore) ListGroupMembers(ctx context.Context, groupID int64) ([]roster.User, error) {
	return s.users(ctx, `
		SELECT u.id, u.first_name, u.last_name, u.email
		FROM users u
		JOIN group_members m ON m.user_id = u.id
		WHERE m.group_id = $1
		ORDER BY u.id`, groupID)
}

// ListGroupingMembers implements roster.Roster. A user in several groups of
// the grouping is returned once per group.
func (s *RosterStore) ListGroupingMembers(ctx context.Context, groupingID int64) ([]roster.User, error) {
	return s.users(ctx, `
		SELECT u.id, u.first_name, u.last_name, u.email
		FROM users u
		JOIN group_members m ON m.user_id = u.id
		JOIN groupings_groups gg ON gg.group_id = m.group_id
		WHERE gg.grouping_id = $1
		ORDER BY m.group_id, u.id`, groupingID)
}

func (s *RosterStore) users(ctx context.Context, query string, args ...any) ([]roster.User, error) {
	var out []roster.User
	if err := s.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return out, nil
}

// Ensure RosterStore implements roster.Roster
var _ roster.Roster = (*RosterStore)(nil)
