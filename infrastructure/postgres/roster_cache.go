package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"drive-distribution/domain/roster"
)

// CachedRoster memoises course, group and grouping lookups for a short time.
// Membership lists are cached too; a run reads each at most once.
type CachedRoster struct {
	next  roster.Roster
	cache *cache.Cache
}

// NewCachedRoster wraps next with an in-memory cache
func NewCachedRoster(next roster.Roster, ttl time.Duration) *CachedRoster {
	return &CachedRoster{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
	}
}

func cached[T any](c *CachedRoster, key string, load func() (T, error)) (T, error) {
	if v, ok := c.cache.Get(key); ok {
		return v.(T), nil
	}
	v, err := load()
	if err != nil {
		return v, err
	}
	c.cache.SetDefault(key, v)
	return v, nil
}

// GetCourse implements roster.Roster
func (c *CachedRoster) GetCourse(ctx context.Context, courseID int64) (*roster.Course, error) {
	return cached(c, fmt.Sprintf("course:%d", courseID), func() (*roster.Course, error) {
		return c.next.GetCourse(ctx, courseID)
	})
}

// ListEnrolledStudents implements roster.Roster
func (c *CachedRoster) ListEnrolledStudents(ctx context.Context, courseID int64) ([]roster.User, error) {
	return cachedUsers(c, fmt.Sprintf("students:%d", courseID), func() ([]roster.User, error) {
		return c.next.ListEnrolledStudents(ctx, courseID)
	})
}

// ListTeachers implements roster.Roster
func (c *CachedRoster) ListTeachers(ctx context.Context, courseID int64) ([]roster.User, error) {
	return cachedUsers(c, fmt.Sprintf("teachers:%d", courseID), func() ([]roster.User, error) {
		return c.next.ListTeachers(ctx, courseID)
	})
}

// GetGroup implements roster.Roster
func (c *CachedRoster) GetGroup(ctx context.Context, groupID int64) (*roster.Group, error) {
	return cached(c, fmt.Sprintf("group:%d", groupID), func() (*roster.Group, error) {
		return c.next.GetGroup(ctx, groupID)
	})
}

// GetGrouping implements roster.Roster
func (c *CachedRoster) GetGrouping(ctx context.Context, groupingID int64) (*roster.Grouping, error) {
	return cached(c, fmt.Sprintf("grouping:%d", groupingID), func() (*roster.Grouping, error) {
		return c.next.GetGrouping(ctx, groupingID)
	})
}

// ListGroupMembers implements roster.Roster
func (c *CachedRoster) ListGroupMembers(ctx context.Context, groupID int64) ([]roster.User, error) {
	return cachedUsers(c, fmt.Sprintf("group-members:%d", groupID), func() ([]roster.User, error) {
		return c.next.ListGroupMembers(ctx, groupID)
	})
}

// ListGroupingMembers implements roster.Roster
func (c *CachedRoster) ListGroupingMembers(ctx context.Context, groupingID int64) ([]roster.User, error) {
	return cachedUsers(c, fmt.Sprintf("grouping-members:%d", groupingID), func() ([]roster.User, error) {
		return c.next.ListGroupingMembers(ctx, groupingID)
	})
}

// cachedUsers hands out a copy so callers may annotate the members they get
func cachedUsers(c *CachedRoster, key string, load func() ([]roster.User, error)) ([]roster.User, error) {
	users, err := cached(c, key, load)
	if err != nil {
		return nil, err
	}
	return append([]roster.User(nil), users...), nil
}

// Ensure CachedRoster implements roster.Roster
var _ roster.Roster = (*CachedRoster)(nil)
