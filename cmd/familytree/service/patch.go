package service

import (
	"context"
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/google/uuid"

	"github.com/vanshavali/familytree/common/models"
	"github.com/vanshavali/familytree/common/validation"
)

var memberPatch = validation.NewPatchValidator(
	"name", "address", "generation_id", "relation", "mobile", "dob",
	"is_alive", "occupation", "education", "facebook_id", "photo_url",
	"parent_id",
)

// Patch applies an RFC 7396 merge patch to member id's editable fields.
// Setting "parent_id" to null detaches the member to the root.
func (c *TreeController) Patch(ctx context.Context, sess *models.Session, id uuid.UUID, patch []byte) (*models.Member, error) {
	const op = "patch"
	if sess == nil {
		return nil, fail(models.CategoryUnauthenticated, op, ErrNoSession)
	}

	unlock := c.locks.Lock(sess.UserID)
	defer unlock()

	m, err := c.patch(ctx, sess.UserID, id, patch)
	if ferr := c.finish(ctx, sess.UserID, op, models.CategorySaveFailure, &id, err); ferr != nil {
		return nil, ferr
	}
	return m, nil
}

func (c *TreeController) patch(ctx context.Context, owner, id uuid.UUID, patch []byte) (*models.Member, error) {
	if err := memberPatch.Validate(patch); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	existing, err := c.members.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	doc := patchDocument{MemberFields: existing.Fields()}
	if existing.ParentID != nil {
		p := existing.ParentID.String()
		doc.ParentID = &p
	}
	original, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode member: %w", err)
	}

	merged, err := jsonpatch.MergePatch(original, patch)
	if err != nil {
		return nil, fmt.Errorf("%w: merge patch: %v", ErrInvalidInput, err)
	}

	var out patchDocument
	if err := json.Unmarshal(merged, &out); err != nil {
		return nil, fmt.Errorf("%w: patched member: %v", ErrInvalidInput, err)
	}

	in := UpdateInput{MemberFields: out.MemberFields}
	switch {
	case out.ParentID == nil && existing.ParentID != nil:
		detach := ""
		in.ParentID = &detach
	case out.ParentID != nil && (existing.ParentID == nil || *out.ParentID != existing.ParentID.String()):
		in.ParentID = out.ParentID
	}

	c.log.Debug("applying merge patch", "user_id", owner, "member_id", id, "bytes", len(patch))
	return c.update(ctx, owner, id, in)
}
