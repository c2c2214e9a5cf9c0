package roster

import "errors"

var (
	// ErrInvalidSelection is returned when a selection token cannot be parsed
	ErrInvalidSelection = errors.New("invalid roster selection")

	// ErrEveryoneWithGroups is returned when "everyone" is combined with a group or grouping
	ErrEveryoneWithGroups = errors.New("everyone cannot be combined with a group or grouping")

	// ErrCourseNotFound is returned when the course does not exist
	ErrCourseNotFound = errors.New("course not found")

	// ErrGroupNotFound is returned when a group or grouping does not exist
	ErrGroupNotFound = errors.New("group not found")
)
