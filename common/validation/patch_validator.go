package validation

import (
	"encoding/json"
	"fmt"
	"sort"
)

// MaxPatchKeys bounds the number of top-level keys in one merge patch
const MaxPatchKeys = 32

// readOnly are member attributes a patch may never touch
var readOnly = map[string]bool{
	"id":         true,
	"owner_id":   true,
	"created_at": true,
	"updated_at": true,
}

// PatchValidator checks RFC 7396 merge patches aimed at a member before they
// are merged. Values are limited to scalars: a member document is flat.
type PatchValidator struct {
	allowed map[string]bool
}

// NewPatchValidator creates a validator accepting only the given keys
func NewPatchValidator(keys ...string) *PatchValidator {
	allowed := make(map[string]bool, len(keys))
	for _, k := range keys {
		allowed[k] = true
	}
	return &PatchValidator{allowed: allowed}
}

// Validate returns an error describing the first problem found in patch
func (v *PatchValidator) Validate(patch []byte) error {
	var doc map[string]interface{}
	if err := json.Unmarshal(patch, &doc); err != nil {
		return fmt.Errorf("patch must be a JSON object: %v", err)
	}
	if doc == nil {
		return fmt.Errorf("patch must be a JSON object, got null")
	}
	if len(doc) > MaxPatchKeys {
		return fmt.Errorf("patch has %d keys, at most %d allowed", len(doc), MaxPatchKeys)
	}

	// Sorted so the reported key is stable
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := v.validateKey(k, doc[k]); err != nil {
			return err
		}
	}
	return nil
}

func (v *PatchValidator) validateKey(key string, value interface{}) error {
	if readOnly[key] {
		return fmt.Errorf("field %q is read-only", key)
	}
	if !v.allowed[key] {
		return fmt.Errorf("unknown field %q", key)
	}

	switch value.(type) {
	case nil, string, bool, float64:
		return nil
	default:
		return fmt.Errorf("field %q must be a string, number, boolean or null, got %T", key, value)
	}
}
