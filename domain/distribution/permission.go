package distribution

import "fmt"

// Permission is the access level granted to recipients
type Permission string

const (
	PermissionEdit    Permission = "edit"
	PermissionComment Permission = "comment"
	PermissionView    Permission = "view"
)

// Role is a document store role
type Role string

const (
	RoleWriter    Role = "writer"
	RoleReader    Role = "reader"
	RoleCommenter Role = "commenter"
)

// Grant is a base role plus the commenter flag layered on top of it
type Grant struct {
	Role      Role
	Commenter bool
}

var grants = map[Permission]Grant{
	PermissionEdit:    {Role: RoleWriter},
	PermissionComment: {Role: RoleReader, Commenter: true},
	PermissionView:    {Role: RoleReader},
}

// ParsePermission parses a permission keyword
func ParsePermission(s string) (Permission, error) {
	p := Permission(s)
	if _, ok := grants[p]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPermission, s)
	}
	return p, nil
}

// ClassifyPermission maps a permission keyword to its role and commenter flag
func ClassifyPermission(keyword string) (Grant, error) {
	p, err := ParsePermission(keyword)
	if err != nil {
		return Grant{}, err
	}
	return p.Grant(), nil
}

// Grant returns the role and commenter flag for the permission
func (p Permission) Grant() Grant {
	return grants[p]
}

// DriveRole returns the single role name used by Drive v3, which folds the
// commenter flag into the role instead of carrying additional roles.
func (g Grant) DriveRole() string {
	if g.Commenter && g.Role == RoleReader {
		return string(RoleCommenter)
	}
	return string(g.Role)
}

// PermissionRequest grants one user access to one file
type PermissionRequest struct {
	FileID  string
	Email   string
	Grant   Grant
	Notify  bool
	Message string
}
