package roster

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// EveryoneToken is the selection token that targets every enrolled student
const EveryoneToken = "00_everyone"

// Shape describes which kinds of containers a selection names
type Shape string

const (
	ShapeEveryone      Shape = "everyone"
	ShapeGroup         Shape = "group"
	ShapeGrouping      Shape = "grouping"
	ShapeGroupGrouping Shape = "group_grouping"
)

// ConditionType is the kind of container a condition refers to
type ConditionType string

const (
	TypeGroup    ConditionType = "group"
	TypeGrouping ConditionType = "grouping"
)

// Condition selects one group or grouping
type Condition struct {
	ID   int64         `json:"id"`
	Type ConditionType `json:"type"`
}

// Selection is the declarative roster condition stored on an activity.
// An empty selection targets everyone.
type Selection struct {
	Conditions []Condition
}

// Everyone returns the selection that targets every enrolled student
func Everyone() Selection {
	return Selection{}
}

// ParseSelection parses form tokens of the form "<id>_<type>", e.g. "5_group" or "7_grouping".
// The token "00_everyone" selects every student and cannot be combined with other tokens.
func ParseSelection(tokens []string) (Selection, error) {
	var (
		sel      Selection
		everyone bool
		seen     = make(map[Condition]bool)
	)

	for _, raw := range tokens {
		token := strings.TrimSpace(raw)
		if token == "" {
			continue
		}
		if token == EveryoneToken {
			everyone = true
			continue
		}

		idPart, typePart, ok := strings.Cut(token, "_")
		if !ok {
			return Selection{}, fmt.Errorf("%w: %q", ErrInvalidSelection, token)
		}

		id, err := strconv.ParseInt(idPart, 10, 64)
		if err != nil || id <= 0 {
			return Selection{}, fmt.Errorf("%w: bad id in %q", ErrInvalidSelection, token)
		}

		cond := Condition{ID: id, Type: ConditionType(typePart)}
		if cond.Type != TypeGroup && cond.Type != TypeGrouping {
			return Selection{}, fmt.Errorf("%w: unknown type in %q", ErrInvalidSelection, token)
		}

		if seen[cond] {
			continue
		}
		seen[cond] = true
		sel.Conditions = append(sel.Conditions, cond)
	}

	if everyone && len(sel.Conditions) > 0 {
		return Selection{}, ErrEveryoneWithGroups
	}

	return sel, nil
}

// ParseConditions decodes the stored JSON condition list
func ParseConditions(data []byte) (Selection, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return Everyone(), nil
	}

	var conds []Condition
	if err := json.Unmarshal(data, &conds); err != nil {
		return Selection{}, fmt.Errorf("%w: %v", ErrInvalidSelection, err)
	}

	tokens := make([]string, 0, len(conds))
	for _, c := range conds {
		tokens = append(tokens, fmt.Sprintf("%d_%s", c.ID, c.Type))
	}
	return ParseSelection(tokens)
}

// JSON encodes the selection as the stored condition list
func (s Selection) JSON() ([]byte, error) {
	conds := s.Conditions
	if conds == nil {
		conds = []Condition{}
	}
	return json.Marshal(conds)
}

// IsEveryone reports whether the selection targets every enrolled student
func (s Selection) IsEveryone() bool {
	return len(s.Conditions) == 0
}

// Shape returns the selection shape used to classify the distribution
func (s Selection) Shape() Shape {
	groups, groupings := len(s.GroupIDs()), len(s.GroupingIDs())
	switch {
	case groups > 0 && groupings > 0:
		return ShapeGroupGrouping
	case groups > 0:
		return ShapeGroup
	case groupings > 0:
		return ShapeGrouping
	default:
		return ShapeEveryone
	}
}

// GroupIDs returns the selected group ids in selection order
func (s Selection) GroupIDs() []int64 {
	return s.idsOf(TypeGroup)
}

// GroupingIDs returns the selected grouping ids in selection order
func (s Selection) GroupingIDs() []int64 {
	return s.idsOf(TypeGrouping)
}

func (s Selection) idsOf(t ConditionType) []int64 {
	var ids []int64
	for _, c := range s.Conditions {
		if c.Type == t {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// Tokens renders the selection back to form tokens
func (s Selection) Tokens() []string {
	if s.IsEveryone() {
		return []string{EveryoneToken}
	}
	tokens := make([]string, 0, len(s.Conditions))
	for _, c := range s.Conditions {
		tokens = append(tokens, fmt.Sprintf("%d_%s", c.ID, c.Type))
	}
	return tokens
}
