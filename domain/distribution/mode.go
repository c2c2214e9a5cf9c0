package distribution

import (
	"fmt"

	"drive-distribution/domain/roster"
)

// BaseMode is the distribution choice made when an activity is created
type BaseMode string

const (
	// BaseStdCopy gives every student their own copy
	BaseStdCopy BaseMode = "std_copy"
	// BaseShareSame shares one file with every student
	BaseShareSame BaseMode = "dist_share_same"
	// BaseGroupCopy gives every group or grouping one copy
	BaseGroupCopy BaseMode = "group_copy"
)

// Distribution is one of the nine canonical distributions
type Distribution string

const (
	StdCopy                Distribution = "std_copy"
	StdCopyGroup           Distribution = "std_copy_group"
	StdCopyGrouping        Distribution = "std_copy_grouping"
	StdCopyGroupGrouping   Distribution = "std_copy_group_grouping"
	ShareSame              Distribution = "dist_share_same"
	ShareSameGroup         Distribution = "dist_share_same_group"
	ShareSameGrouping      Distribution = "dist_share_same_grouping"
	ShareSameGroupGrouping Distribution = "dist_share_same_group_grouping"
	GroupCopy              Distribution = "group_copy"
)

// Unit says what a single target of a distribution is
type Unit int

const (
	// UnitUser targets individual students with no container
	UnitUser Unit = iota
	// UnitMember targets individual students placed inside their group or grouping folder
	UnitMember
	// UnitContainer targets groups and groupings themselves
	UnitContainer
)

var classification = map[BaseMode]map[roster.Shape]Distribution{
	BaseStdCopy: {
		roster.ShapeEveryone:      StdCopy,
		roster.ShapeGroup:         StdCopyGroup,
		roster.ShapeGrouping:      StdCopyGrouping,
		roster.ShapeGroupGrouping: StdCopyGroupGrouping,
	},
	BaseShareSame: {
		roster.ShapeEveryone:      ShareSame,
		roster.ShapeGroup:         ShareSameGroup,
		roster.ShapeGrouping:      ShareSameGrouping,
		roster.ShapeGroupGrouping: ShareSameGroupGrouping,
	},
	BaseGroupCopy: {
		roster.ShapeGroup:         GroupCopy,
		roster.ShapeGrouping:      GroupCopy,
		roster.ShapeGroupGrouping: GroupCopy,
	},
}

// Classify maps a base mode and selection shape to its canonical distribution
func Classify(base BaseMode, shape roster.Shape) (Distribution, error) {
	shapes, ok := classification[base]
	if !ok {
		return "", fmt.Errorf("%w: %w: base mode %q", ErrConfiguration, ErrUnknownDistribution, base)
	}
	d, ok := shapes[shape]
	if !ok {
		return "", fmt.Errorf("%w: %s cannot be used with selection %q", ErrConfiguration, base, shape)
	}
	return d, nil
}

// ParseDistribution parses a stored identifier. The legacy per-shape
// identifiers grouping_copy and group_grouping_copy map to GroupCopy.
func ParseDistribution(s string) (Distribution, error) {
	switch s {
	case "grouping_copy", "group_grouping_copy":
		return GroupCopy, nil
	}
	for _, d := range Distributions() {
		if string(d) == s {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDistribution, s)
}

// Distributions lists every canonical distribution
func Distributions() []Distribution {
	return []Distribution{
		StdCopy, StdCopyGroup, StdCopyGrouping, StdCopyGroupGrouping,
		ShareSame, ShareSameGroup, ShareSameGrouping, ShareSameGroupGrouping,
		GroupCopy,
	}
}

// Base returns the base mode the distribution was classified from
func (d Distribution) Base() BaseMode {
	switch d {
	case StdCopy, StdCopyGroup, StdCopyGrouping, StdCopyGroupGrouping:
		return BaseStdCopy
	case ShareSame, ShareSameGroup, ShareSameGrouping, ShareSameGroupGrouping:
		return BaseShareSame
	default:
		return BaseGroupCopy
	}
}

// Unit returns what a single target is for this distribution
func (d Distribution) Unit() Unit {
	switch d {
	case StdCopy, ShareSame:
		return UnitUser
	case StdCopyGroup, StdCopyGrouping, StdCopyGroupGrouping:
		return UnitMember
	default:
		return UnitContainer
	}
}

// NeedsFolders reports whether the distribution creates a folder per group or grouping
func (d Distribution) NeedsFolders() bool {
	return d.Unit() != UnitUser
}

// CopiesMaster reports whether the master is copied rather than shared directly
func (d Distribution) CopiesMaster() bool {
	return d != ShareSame
}

// Accepts reports whether the distribution is consistent with a selection shape
func (d Distribution) Accepts(shape roster.Shape) bool {
	got, err := Classify(d.Base(), shape)
	return err == nil && got == d
}

// LegacyName returns the identifier the original storage used for the
// group copy family, which encoded the selection shape in the name.
func (d Distribution) LegacyName(shape roster.Shape) string {
	if d != GroupCopy {
		return string(d)
	}
	switch shape {
	case roster.ShapeGrouping:
		return "grouping_copy"
	case roster.ShapeGroupGrouping:
		return "group_grouping_copy"
	default:
		return string(d)
	}
}
