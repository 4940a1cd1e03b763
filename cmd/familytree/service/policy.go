package service

import "fmt"

// DeletePolicy decides what happens to the children of a deleted member
type DeletePolicy string

const (
	// DeleteBlock refuses to delete a member that still has children
	DeleteBlock DeletePolicy = "block"
	// DeleteCascade deletes the member and everything below it
	DeleteCascade DeletePolicy = "cascade"
	// DeleteReparent moves the children up to the deleted member's parent
	DeleteReparent DeletePolicy = "reparent"
)

// ParseDeletePolicy parses a config value; empty means DeleteBlock
func ParseDeletePolicy(s string) (DeletePolicy, error) {
	switch DeletePolicy(s) {
	case "", DeleteBlock:
		return DeleteBlock, nil
	case DeleteCascade:
		return DeleteCascade, nil
	case DeleteReparent:
		return DeleteReparent, nil
	default:
		return "", fmt.Errorf("unknown delete policy: %q", s)
	}
}
