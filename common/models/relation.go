package models

import "strings"

// Relation describes how a member relates to the member it is attached under
type Relation string

const (
	RelationSpouse  Relation = "spouse"
	RelationChild   Relation = "child"
	RelationSibling Relation = "sibling"
	RelationParent  Relation = "parent"
	RelationOther   Relation = "other"
)

// ParseRelation normalises free-form input into a Relation.
// Unknown or empty values map to RelationOther.
func ParseRelation(s string) Relation {
	switch Relation(strings.ToLower(strings.TrimSpace(s))) {
	case RelationSpouse:
		return RelationSpouse
	case RelationChild:
		return RelationChild
	case RelationSibling:
		return RelationSibling
	case RelationParent:
		return RelationParent
	default:
		return RelationOther
	}
}

// IsSpouse reports whether the member is laid out beside its parent node
func (r Relation) IsSpouse() bool {
	return r == RelationSpouse
}

// String implements fmt.Stringer
func (r Relation) String() string {
	return string(r)
}

// UnmarshalText normalises relation values coming from JSON or forms
func (r *Relation) UnmarshalText(text []byte) error {
	*r = ParseRelation(string(text))
	return nil
}
