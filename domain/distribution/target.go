package distribution

import (
	"strconv"
	"strings"

	"drive-distribution/domain/roster"
)

// Kind discriminates what a target is
type Kind string

const (
	KindUser     Kind = "user"
	KindGroup    Kind = "group"
	KindGrouping Kind = "grouping"
)

// Target is the unit that receives one distributed copy or access grant
type Target struct {
	Kind    Kind
	ID      int64
	Name    string
	Email   string
	Members []roster.User

	// GroupID and GroupingID place a user target inside a container
	GroupID    int64
	GroupingID int64
}

// UserTarget builds a target for a single student
func UserTarget(u roster.User) Target {
	return Target{
		Kind:       KindUser,
		ID:         u.ID,
		Name:       u.FullName(),
		Email:      u.Email,
		GroupID:    u.GroupID,
		GroupingID: u.GroupingID,
	}
}

// GroupTarget builds a target for a group and its members
func GroupTarget(g roster.Group, members []roster.User) Target {
	return Target{Kind: KindGroup, ID: g.ID, Name: g.Name, Members: members}
}

// GroupingTarget builds a target for a grouping and its members
func GroupingTarget(g roster.Grouping, members []roster.User) Target {
	return Target{Kind: KindGrouping, ID: g.ID, Name: g.Name, Members: members}
}

// GroupKey returns the correlation key of a group
func GroupKey(id int64) string {
	return "g" + strconv.FormatInt(id, 10)
}

// GroupingKey returns the correlation key of a grouping
func GroupingKey(id int64) string {
	return "gg" + strconv.FormatInt(id, 10)
}

// Key returns the trailing name segment that identifies the target in a batch.
// Groups and groupings are prefixed so their id spaces cannot collide.
func (t Target) Key() string {
	switch t.Kind {
	case KindGroup:
		return GroupKey(t.ID)
	case KindGrouping:
		return GroupingKey(t.ID)
	default:
		return strconv.FormatInt(t.ID, 10)
	}
}

// ContainerKey returns the key of the group or grouping a user target sits in
func (t Target) ContainerKey() string {
	switch {
	case t.Kind != KindUser:
		return t.Key()
	case t.GroupID != 0:
		return GroupKey(t.GroupID)
	case t.GroupingID != 0:
		return GroupingKey(t.GroupingID)
	default:
		return ""
	}
}

// Recipients returns the users who must be granted access for this target
func (t Target) Recipients() []roster.User {
	if t.Kind == KindUser {
		return []roster.User{{ID: t.ID, Email: t.Email, GroupID: t.GroupID, GroupingID: t.GroupingID}}
	}
	return t.Members
}

// Owner returns the (user, group, grouping) triple records are stored under
func (t Target) Owner() (userID, groupID, groupingID int64) {
	switch t.Kind {
	case KindGroup:
		return 0, t.ID, 0
	case KindGrouping:
		return 0, 0, t.ID
	default:
		return t.ID, t.GroupID, t.GroupingID
	}
}

// CopyName builds "<title>_<name>_<key>" for a target's copy
func CopyName(title string, t Target) string {
	return title + "_" + cleanSegment(t.Name) + "_" + t.Key()
}

// FolderName builds "<name>_<key>" for a target's folder
func FolderName(t Target) string {
	return cleanSegment(t.Name) + "_" + t.Key()
}

// TrailingKey returns the last underscore-delimited segment of a name
func TrailingKey(name string) (string, bool) {
	i := strings.LastIndex(name, "_")
	if i < 0 || i == len(name)-1 {
		return "", false
	}
	return name[i+1:], true
}

func cleanSegment(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "unnamed"
	}
	return s
}

// TargetSet is the resolved roster for one run
type TargetSet struct {
	// Containers are the groups and groupings that need a folder, with their members
	Containers []Target
	// Targets are the units that receive a copy, in distribution order
	Targets []Target
}

// Len returns the number of targets
func (s TargetSet) Len() int {
	return len(s.Targets)
}
