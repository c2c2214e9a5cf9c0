package roster

import (
	"context"
	"errors"
	"testing"

	"drive-distribution/domain/distribution"
	"drive-distribution/domain/roster"
)

// mockRoster is a mock implementation for testing
type mockRoster struct {
	students        []roster.User
	groups          map[int64]roster.Group
	groupMembers    map[int64][]roster.User
	groupings       map[int64]roster.Grouping
	groupingMembers map[int64][]roster.User
	shouldFail      bool
	failError       error
	enrolmentCalls  int
}

func (m *mockRoster) GetCourse(ctx context.Context, courseID int64) (*roster.Course, error) {
	return &roster.Course{ID: courseID}, nil
}

func (m *mockRoster) ListEnrolledStudents(ctx context.Context, courseID int64) ([]roster.User, error) {
	m.enrolmentCalls++
	if m.shouldFail {
		return nil, m.failError
	}
	return m.students, nil
}

func (m *mockRoster) ListTeachers(ctx context.Context, courseID int64) ([]roster.User, error) {
	return nil, nil
}

func (m *mockRoster) GetGroup(ctx context.Context, groupID int64) (*roster.Group, error) {
	g, ok := m.groups[groupID]
	if !ok {
		return nil, roster.ErrGroupNotFound
	}
	return &g, nil
}

func (m *mockRoster) GetGrouping(ctx context.Context, groupingID int64) (*roster.Grouping, error) {
	g, ok := m.groupings[groupingID]
	if !ok {
		return nil, roster.ErrGroupNotFound
	}
	return &g, nil
}

func (m *mockRoster) ListGroupMembers(ctx context.Context, groupID int64) ([]roster.User, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	return append([]roster.User(nil), m.groupMembers[groupID]...), nil
}

func (m *mockRoster) ListGroupingMembers(ctx context.Context, groupingID int64) ([]roster.User, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	return append([]roster.User(nil), m.groupingMembers[groupingID]...), nil
}

var (
	amy = roster.User{ID: 1, FirstName: "Amy", Email: "amy@example.com"}
	bo  = roster.User{ID: 2, FirstName: "Bo", Email: "bo@example.com"}
	cid = roster.User{ID: 3, FirstName: "Cid", Email: "cid@example.com"}
)

func selection(t *testing.T, tokens ...string) roster.Selection {
	t.Helper()
	sel, err := roster.ParseSelection(tokens)
	if err != nil {
		t.Fatalf("ParseSelection() error = %v", err)
	}
	return sel
}

func TestResolver_Everyone(t *testing.T) {
	mock := &mockRoster{students: []roster.User{amy, bo, cid}}
	r := NewResolver(mock)

	set, err := r.Resolve(context.Background(), 7, roster.Everyone(), distribution.UnitUser, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.Len() != 3 {
		t.Fatalf("expected 3 targets, got %d", set.Len())
	}
	for i, want := range []int64{1, 2, 3} {
		if set.Targets[i].ID != want || set.Targets[i].Kind != distribution.KindUser {
			t.Errorf("target %d: expected user %d, got %+v", i, want, set.Targets[i])
		}
	}
	if len(set.Containers) != 0 {
		t.Errorf("expected no containers, got %d", len(set.Containers))
	}
}

func TestResolver_ExplicitStudentsSkipEnrolment(t *testing.T) {
	mock := &mockRoster{students: []roster.User{amy, bo, cid}}
	r := NewResolver(mock)

	set, err := r.Resolve(context.Background(), 7, roster.Everyone(), distribution.UnitUser, []roster.User{bo})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.Len() != 1 || set.Targets[0].ID != bo.ID {
		t.Errorf("expected only Bo, got %+v", set.Targets)
	}
	if mock.enrolmentCalls != 0 {
		t.Errorf("expected no enrolment lookup, got %d", mock.enrolmentCalls)
	}
}

func TestResolver_ExplicitStudentsDropContainerIDs(t *testing.T) {
	r := NewResolver(&mockRoster{})
	tagged := bo
	tagged.GroupID, tagged.GroupingID = 9, 12

	set, err := r.Resolve(context.Background(), 7, roster.Everyone(), distribution.UnitUser, []roster.User{tagged})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.Len() != 1 {
		t.Fatalf("expected 1 target, got %d", set.Len())
	}
	user, group, grouping := set.Targets[0].Owner()
	if user != bo.ID || group != 0 || grouping != 0 {
		t.Errorf("expected owner (%d, 0, 0), got (%d, %d, %d)", bo.ID, user, group, grouping)
	}
}

func TestResolver_GroupingDedup(t *testing.T) {
	// G1={A,B}, G2={B,C} inside one grouping
	mock := &mockRoster{
		groupings:       map[int64]roster.Grouping{10: {ID: 10, Name: "Year 7"}},
		groupingMembers: map[int64][]roster.User{10: {amy, bo, bo, cid}},
	}
	r := NewResolver(mock)

	set, err := r.Resolve(context.Background(), 7, selection(t, "10_grouping"), distribution.UnitMember, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.Len() != 3 {
		t.Fatalf("expected {A,B,C}, got %d targets", set.Len())
	}
	for i, want := range []int64{1, 2, 3} {
		if set.Targets[i].ID != want {
			t.Errorf("target %d: expected %d, got %d", i, want, set.Targets[i].ID)
		}
		if set.Targets[i].GroupingID != 10 {
			t.Errorf("target %d: expected grouping annotation 10, got %d", i, set.Targets[i].GroupingID)
		}
	}
}

func TestResolver_EmptyGroupSkipped(t *testing.T) {
	mock := &mockRoster{
		groups: map[int64]roster.Group{
			1: {ID: 1, Name: "G1"},
			2: {ID: 2, Name: "G2"},
		},
		groupMembers: map[int64][]roster.User{1: {amy, bo}},
	}
	r := NewResolver(mock)

	set, err := r.Resolve(context.Background(), 7, selection(t, "1_group", "2_group"), distribution.UnitContainer, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.Len() != 1 {
		t.Fatalf("expected exactly 1 target, got %d", set.Len())
	}
	if set.Targets[0].Kind != distribution.KindGroup || set.Targets[0].ID != 1 {
		t.Errorf("expected group G1, got %+v", set.Targets[0])
	}
	if len(set.Containers) != 1 {
		t.Errorf("expected 1 container, got %d", len(set.Containers))
	}
	if len(set.Targets[0].Members) != 2 {
		t.Errorf("expected 2 members, got %d", len(set.Targets[0].Members))
	}
}

func TestResolver_GroupAndGroupingConcatenate(t *testing.T) {
	mock := &mockRoster{
		groups:          map[int64]roster.Group{5: {ID: 5, Name: "Blue"}},
		groupMembers:    map[int64][]roster.User{5: {amy}},
		groupings:       map[int64]roster.Grouping{5: {ID: 5, Name: "Lab"}},
		groupingMembers: map[int64][]roster.User{5: {amy, bo}},
	}
	r := NewResolver(mock)

	set, err := r.Resolve(context.Background(), 7, selection(t, "5_group", "5_grouping"), distribution.UnitMember, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.Len() != 3 {
		t.Fatalf("expected Amy twice and Bo once, got %d targets", set.Len())
	}
	if set.Targets[0].ContainerKey() != "g5" || set.Targets[1].ContainerKey() != "gg5" {
		t.Errorf("expected Amy in g5 then gg5, got %q and %q", set.Targets[0].ContainerKey(), set.Targets[1].ContainerKey())
	}
}

func TestResolver_Errors(t *testing.T) {
	lookupErr := errors.New("db down")

	tests := []struct {
		name    string
		mock    *mockRoster
		sel     []string
		unit    distribution.Unit
		wantErr error
	}{
		{
			name:    "no students enrolled",
			mock:    &mockRoster{},
			sel:     []string{"00_everyone"},
			unit:    distribution.UnitUser,
			wantErr: distribution.ErrNoRecipients,
		},
		{
			name: "all selected groups empty",
			mock: &mockRoster{
				groups: map[int64]roster.Group{1: {ID: 1}},
			},
			sel:     []string{"1_group"},
			unit:    distribution.UnitContainer,
			wantErr: distribution.ErrNoRecipients,
		},
		{
			name:    "per group unit with everyone",
			mock:    &mockRoster{students: []roster.User{amy}},
			sel:     []string{"00_everyone"},
			unit:    distribution.UnitContainer,
			wantErr: distribution.ErrConfiguration,
		},
		{
			name:    "flat unit with groups",
			mock:    &mockRoster{},
			sel:     []string{"1_group"},
			unit:    distribution.UnitUser,
			wantErr: distribution.ErrConfiguration,
		},
		{
			name:    "unknown group",
			mock:    &mockRoster{},
			sel:     []string{"4_group"},
			unit:    distribution.UnitContainer,
			wantErr: roster.ErrGroupNotFound,
		},
		{
			name:    "roster failure",
			mock:    &mockRoster{shouldFail: true, failError: lookupErr},
			sel:     []string{"00_everyone"},
			unit:    distribution.UnitUser,
			wantErr: lookupErr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewResolver(tt.mock).Resolve(context.Background(), 7, selection(t, tt.sel...), tt.unit, nil)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
