package roster

import (
	"context"
	"fmt"

	"drive-distribution/domain/distribution"
	"drive-distribution/domain/roster"
)

// Resolver turns a roster selection into distribution targets
type Resolver struct {
	roster roster.Roster
}

// NewResolver creates a resolver reading membership from r
func NewResolver(r roster.Roster) *Resolver {
	return &Resolver{roster: r}
}

// Resolve returns the targets for a selection. When the selection is everyone
// and students is non-empty, students replaces the enrolment lookup.
// It returns distribution.ErrNoRecipients when nothing is left to distribute to.
func (r *Resolver) Resolve(ctx context.Context, courseID int64, sel roster.Selection, unit distribution.Unit, students []roster.User) (distribution.TargetSet, error) {
	var set distribution.TargetSet

	if sel.IsEveryone() {
		if unit != distribution.UnitUser {
			return set, fmt.Errorf("%w: a per-group distribution needs at least one group or grouping", distribution.ErrConfiguration)
		}

		users := students
		if len(users) == 0 {
			var err error
			users, err = r.roster.ListEnrolledStudents(ctx, courseID)
			if err != nil {
				return set, fmt.Errorf("failed to list enrolled students: %w", err)
			}
		}

		// a whole-course target belongs to no container
		for _, u := range dedupe(users) {
			u.GroupID, u.GroupingID = 0, 0
			set.Targets = append(set.Targets, distribution.UserTarget(u))
		}
		return set, requireTargets(set)
	}

	if unit == distribution.UnitUser {
		return set, fmt.Errorf("%w: a whole-course distribution cannot select groups", distribution.ErrConfiguration)
	}

	containers, err := r.containers(ctx, sel)
	if err != nil {
		return set, err
	}
	set.Containers = containers

	switch unit {
	case distribution.UnitContainer:
		set.Targets = append(set.Targets, containers...)
	case distribution.UnitMember:
		for _, c := range containers {
			for _, m := range c.Members {
				set.Targets = append(set.Targets, distribution.UserTarget(m))
			}
		}
	}

	return set, requireTargets(set)
}

// containers resolves groups first, then groupings. Empty containers are dropped.
func (r *Resolver) containers(ctx context.Context, sel roster.Selection) ([]distribution.Target, error) {
	var out []distribution.Target

	for _, id := range sel.GroupIDs() {
		g, err := r.roster.GetGroup(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to get group %d: %w", id, err)
		}
		members, err := r.roster.ListGroupMembers(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to list members of group %d: %w", id, err)
		}
		for i := range members {
			members[i].GroupID = id
			members[i].GroupingID = 0
		}
		members = dedupe(members)
		if len(members) == 0 {
			continue
		}
		out = append(out, distribution.GroupTarget(*g, members))
	}

	for _, id := range sel.GroupingIDs() {
		g, err := r.roster.GetGrouping(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to get grouping %d: %w", id, err)
		}
		members, err := r.roster.ListGroupingMembers(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to list members of grouping %d: %w", id, err)
		}
		for i := range members {
			members[i].GroupID = 0
			members[i].GroupingID = id
		}
		members = dedupe(members)
		if len(members) == 0 {
			continue
		}
		out = append(out, distribution.GroupingTarget(*g, members))
	}

	return out, nil
}

// dedupe keeps the first occurrence of each identical member record
func dedupe(users []roster.User) []roster.User {
	seen := make(map[roster.User]bool, len(users))
	out := make([]roster.User, 0, len(users))
	for _, u := range users {
		if seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}

func requireTargets(set distribution.TargetSet) error {
	if set.Len() == 0 {
		return distribution.ErrNoRecipients
	}
	return nil
}
