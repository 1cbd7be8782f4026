package mg

import "fmt"

// RelationKind says how a feature takes part in a derivation.
type RelationKind uint8

const (
	LeftMerge              RelationKind = iota // =x
	RightMerge                                 // x=
	LeftMergeIntermediate                      // =x, not the last selection
	RightMergeIntermediate                     // x=, not the last selection
	LeftMergeHead                              // =>x
	RightMergeHead                             // x<=
	MinusMove                                  // -x
	PlusMove                                   // +x
	State                                      // x
)

// Relations lists every kind in declaration order.
var Relations = []RelationKind{
	LeftMerge, RightMerge,
	LeftMergeIntermediate, RightMergeIntermediate,
	LeftMergeHead, RightMergeHead,
	MinusMove, PlusMove,
	State,
}

var relationTags = [...]string{
	LeftMerge:              "LMerge",
	RightMerge:             "RMerge",
	LeftMergeIntermediate:  "LMergeInter",
	RightMergeIntermediate: "RMergeInter",
	LeftMergeHead:          "LMergeHead",
	RightMergeHead:         "RMergeHead",
	MinusMove:              "MinusMove",
	PlusMove:               "PlusMove",
	State:                  "State",
}

// String returns the interchange tag of the relation.
func (r RelationKind) String() string {
	if int(r) < len(relationTags) {
		return relationTags[r]
	}
	return fmt.Sprintf("RelationKind(%d)", r)
}

// ParseRelation maps an interchange tag back to its kind.
func ParseRelation(tag string) (RelationKind, error) {
	for _, r := range Relations {
		if relationTags[r] == tag {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown relation tag %q", tag)
}

// MarshalText implements encoding.TextMarshaler.
func (r RelationKind) MarshalText() ([]byte, error) {
	if int(r) >= len(relationTags) {
		return nil, fmt.Errorf("invalid relation kind %d", r)
	}
	return []byte(relationTags[r]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *RelationKind) UnmarshalText(b []byte) error {
	k, err := ParseRelation(string(b))
	if err != nil {
		return err
	}
	*r = k
	return nil
}

// IsMerge reports whether the kind selects another state, in any variant.
func (r RelationKind) IsMerge() bool {
	switch r {
	case LeftMerge, RightMerge,
		LeftMergeIntermediate, RightMergeIntermediate,
		LeftMergeHead, RightMergeHead:
		return true
	case MinusMove, PlusMove, State:
		return false
	}
	panic(fmt.Sprintf("mg: unhandled relation %s", r))
}

// IsIntermediate reports whether the kind is a non-final merge.
func (r RelationKind) IsIntermediate() bool {
	return r == LeftMergeIntermediate || r == RightMergeIntermediate
}

// IsMove reports whether the kind is a movement feature.
func (r RelationKind) IsMove() bool {
	return r == MinusMove || r == PlusMove
}

// IsNode reports whether features of this kind are realised as graph nodes.
func (r RelationKind) IsNode() bool {
	switch r {
	case LeftMerge, RightMerge, LeftMergeHead, RightMergeHead, State:
		return true
	case LeftMergeIntermediate, RightMergeIntermediate, MinusMove, PlusMove:
		return false
	}
	panic(fmt.Sprintf("mg: unhandled relation %s", r))
}

// Intermediate returns the intermediate variant of a merge kind.
// Left head merges collapse to LeftMergeIntermediate, right ones to
// RightMergeIntermediate. Non-merge kinds are returned unchanged.
func (r RelationKind) Intermediate() RelationKind {
	switch r {
	case LeftMerge, LeftMergeHead, LeftMergeIntermediate:
		return LeftMergeIntermediate
	case RightMerge, RightMergeHead, RightMergeIntermediate:
		return RightMergeIntermediate
	case MinusMove, PlusMove, State:
		return r
	}
	panic(fmt.Sprintf("mg: unhandled relation %s", r))
}
