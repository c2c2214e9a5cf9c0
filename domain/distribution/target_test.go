package distribution

import (
	"testing"

	"drive-distribution/domain/roster"
)

func TestTarget_Key(t *testing.T) {
	user := UserTarget(roster.User{ID: 101, FirstName: "Amy", LastName: "Lee", Email: "amy@example.com"})
	group := GroupTarget(roster.Group{ID: 5, Name: "Blue"}, nil)
	grouping := GroupingTarget(roster.Grouping{ID: 5, Name: "Year 7"}, nil)

	if user.Key() != "101" {
		t.Errorf("expected user key 101, got %q", user.Key())
	}
	if group.Key() != "g5" {
		t.Errorf("expected group key g5, got %q", group.Key())
	}
	if grouping.Key() != "gg5" {
		t.Errorf("expected grouping key gg5, got %q", grouping.Key())
	}
	if group.Key() == grouping.Key() {
		t.Error("group and grouping with the same id must not share a key")
	}
}

func TestCopyName_RoundTripsKey(t *testing.T) {
	tests := []struct {
		name   string
		title  string
		target Target
		want   string
	}{
		{
			name:   "student",
			title:  "Homework",
			target: UserTarget(roster.User{ID: 102, FirstName: "Bo", LastName: "Chan"}),
			want:   "Homework_Bo Chan_102",
		},
		{
			name:   "title with underscores",
			title:  "Unit_3_Essay",
			target: UserTarget(roster.User{ID: 7, FirstName: "Cid"}),
			want:   "Unit_3_Essay_Cid_7",
		},
		{
			name:   "group",
			title:  "Lab",
			target: GroupTarget(roster.Group{ID: 9, Name: "Team_A"}, nil),
			want:   "Lab_Team_A_g9",
		},
		{
			name:   "nameless grouping",
			title:  "Lab",
			target: GroupingTarget(roster.Grouping{ID: 4}, nil),
			want:   "Lab_unnamed_gg4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CopyName(tt.title, tt.target)
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
			key, ok := TrailingKey(got)
			if !ok {
				t.Fatalf("expected trailing key in %q", got)
			}
			if key != tt.target.Key() {
				t.Errorf("expected trailing key %q, got %q", tt.target.Key(), key)
			}
		})
	}
}

func TestFolderName(t *testing.T) {
	got := FolderName(GroupTarget(roster.Group{ID: 12, Name: "Red"}, nil))
	if got != "Red_g12" {
		t.Errorf("expected Red_g12, got %q", got)
	}
}

func TestTrailingKey_Invalid(t *testing.T) {
	for _, name := range []string{"", "noseparator", "ends_with_"} {
		if _, ok := TrailingKey(name); ok {
			t.Errorf("expected no trailing key for %q", name)
		}
	}
}

func TestTarget_OwnerAndContainer(t *testing.T) {
	member := UserTarget(roster.User{ID: 3, GroupID: 8})
	if u, g, gg := member.Owner(); u != 3 || g != 8 || gg != 0 {
		t.Errorf("unexpected owner (%d,%d,%d)", u, g, gg)
	}
	if member.ContainerKey() != "g8" {
		t.Errorf("expected container g8, got %q", member.ContainerKey())
	}

	groupingMember := UserTarget(roster.User{ID: 3, GroupingID: 2})
	if groupingMember.ContainerKey() != "gg2" {
		t.Errorf("expected container gg2, got %q", groupingMember.ContainerKey())
	}

	grouping := GroupingTarget(roster.Grouping{ID: 2}, []roster.User{{ID: 1}, {ID: 2}})
	if u, g, gg := grouping.Owner(); u != 0 || g != 0 || gg != 2 {
		t.Errorf("unexpected owner (%d,%d,%d)", u, g, gg)
	}
	if len(grouping.Recipients()) != 2 {
		t.Errorf("expected 2 recipients, got %d", len(grouping.Recipients()))
	}

	if (UserTarget(roster.User{ID: 1})).ContainerKey() != "" {
		t.Error("expected no container for a flat user target")
	}
}
