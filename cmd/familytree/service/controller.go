package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vanshavali/familytree/common/appstate"
	"github.com/vanshavali/familytree/common/logger"
	"github.com/vanshavali/familytree/common/models"
	"github.com/vanshavali/familytree/common/queue"
	"github.com/vanshavali/familytree/common/telemetry"
	"github.com/vanshavali/familytree/common/tree"
)

// TreeController mediates every member mutation and keeps each user's
// displayed tree consistent with the store. The tree is never patched in
// place: every successful mutation is followed by a full fetch and rebuild.
type TreeController struct {
	members  MemberStore
	states   *appstate.Store
	queue    queue.Queue
	validate *Validator
	filter   *Filter
	policy   DeletePolicy
	metrics  *telemetry.Metrics
	log      *logger.Logger

	locks *keyedMutex
	now   func() time.Time
}

// NewTreeController creates the controller. q may be nil.
func NewTreeController(
	members MemberStore,
	states *appstate.Store,
	q queue.Queue,
	validate *Validator,
	filter *Filter,
	policy DeletePolicy,
	metrics *telemetry.Metrics,
	log *logger.Logger,
) *TreeController {
	return &TreeController{
		members:  members,
		states:   states,
		queue:    q,
		validate: validate,
		filter:   filter,
		policy:   policy,
		metrics:  metrics,
		log:      log,
		locks:    newKeyedMutex(),
		now:      time.Now,
	}
}

// Policy returns the configured delete policy
func (c *TreeController) Policy() DeletePolicy {
	return c.policy
}

// CreateInput is the member form plus the member to attach under.
// A nil AttachTo creates the root.
type CreateInput struct {
	AttachTo *uuid.UUID `json:"attach_to"`
	models.MemberFields
}

// UpdateInput replaces every mutable field. ParentID is only applied when
// present: "" detaches the member to the root, a uuid moves it.
type UpdateInput struct {
	ParentID *string `json:"parent_id,omitempty"`
	models.MemberFields
}

// SessionChanged keeps state in step with the session: sign-in loads the
// tree, sign-out clears it. AuthService runs it as a SessionHook.
func (c *TreeController) SessionChanged(ctx context.Context, typ models.EventType, userID uuid.UUID) error {
	switch typ {
	case models.EventSignedIn:
		_, err := c.Refresh(ctx, userID)
		return err
	case models.EventSignedOut:
		return c.Clear(ctx, userID)
	default:
		return nil
	}
}

// Clear drops the user's state
func (c *TreeController) Clear(ctx context.Context, userID uuid.UUID) error {
	unlock := c.locks.Lock(userID)
	defer unlock()

	if _, err := c.states.Dispatch(ctx, userID, appstate.SignedOut{}); err != nil {
		return fmt.Errorf("failed to clear state: %w", err)
	}
	c.log.Info("state cleared", "user_id", userID)
	return nil
}

// Refresh re-fetches the user's members and rebuilds the tree.
// On failure the previously loaded tree is kept and the state carries fetch_failure.
func (c *TreeController) Refresh(ctx context.Context, userID uuid.UUID) (appstate.State, error) {
	unlock := c.locks.Lock(userID)
	defer unlock()

	return c.refreshLocked(ctx, userID)
}

// Reload is Refresh for the session's user
func (c *TreeController) Reload(ctx context.Context, sess *models.Session) (appstate.State, error) {
	if sess == nil {
		return appstate.State{}, fail(models.CategoryUnauthenticated, "refresh", ErrNoSession)
	}
	return c.Refresh(ctx, sess.UserID)
}

func (c *TreeController) refreshLocked(ctx context.Context, userID uuid.UUID) (appstate.State, error) {
	const op = "refresh"
	start := time.Now()

	if _, err := c.states.Dispatch(ctx, userID, appstate.SignedIn{UserID: userID}, appstate.FetchStarted{}); err != nil {
		return appstate.State{}, fail(models.CategoryFetchFailure, op, err)
	}

	members, err := c.members.ListByOwner(ctx, userID)
	var root *tree.Node
	if err == nil {
		root, err = tree.Build(members)
	}
	if err != nil {
		c.metrics.Rebuild(start, 0, err)
		c.log.Error("failed to rebuild tree", "user_id", userID, "error", err)

		st, serr := c.states.Dispatch(ctx, userID, appstate.FetchFailed{Detail: err.Error()})
		if serr != nil {
			c.log.Warn("failed to record fetch failure", "user_id", userID, "error", serr)
		}
		return st, fail(models.CategoryFetchFailure, op, err)
	}

	var detached []models.Member
	if root != nil {
		detached = tree.Detached(members, root)
	}

	st, err := c.states.Dispatch(ctx, userID, appstate.FetchSucceeded{
		Members:  members,
		Tree:     root,
		Detached: detached,
		At:       c.now().UTC(),
	})
	if err != nil {
		c.metrics.Rebuild(start, 0, err)
		return st, fail(models.CategoryFetchFailure, op, err)
	}

	c.metrics.Rebuild(start, len(members), nil)
	c.log.Debug("tree rebuilt", "user_id", userID, "members", len(members), "detached", len(detached))
	return st, nil
}

// State returns the user's state, loading it on first use
func (c *TreeController) State(ctx context.Context, sess *models.Session) (appstate.State, error) {
	if sess == nil {
		return appstate.State{}, fail(models.CategoryUnauthenticated, "state", ErrNoSession)
	}

	unlock := c.locks.Lock(sess.UserID)
	defer unlock()

	return c.stateLocked(ctx, sess.UserID)
}

func (c *TreeController) stateLocked(ctx context.Context, userID uuid.UUID) (appstate.State, error) {
	st, err := c.states.Load(ctx, userID)
	if err != nil {
		return st, fail(models.CategoryFetchFailure, "state", err)
	}
	if st.Phase == appstate.PhaseSignedOut || !st.Loaded() {
		return c.refreshLocked(ctx, userID)
	}
	return st, nil
}

// Dispatch applies a view action (form open/close, dismiss error) to the user's state
func (c *TreeController) Dispatch(ctx context.Context, sess *models.Session, action appstate.Action) (appstate.State, error) {
	const op = "form"
	if sess == nil {
		return appstate.State{}, fail(models.CategoryUnauthenticated, op, ErrNoSession)
	}

	unlock := c.locks.Lock(sess.UserID)
	defer unlock()

	st, err := c.stateLocked(ctx, sess.UserID)
	if err != nil {
		return st, err
	}

	switch a := action.(type) {
	case appstate.OpenEditForm:
		if !hasMember(st.Members, a.MemberID) {
			return st, fail(models.CategoryFetchFailure, op, models.ErrNotFound)
		}
	case appstate.OpenCreateForm:
		if a.AttachTo != nil && !hasMember(st.Members, *a.AttachTo) {
			return st, fail(models.CategorySaveFailure, op, ErrParentNotFound)
		}
	}

	st, err = c.states.Dispatch(ctx, sess.UserID, action)
	if err != nil {
		return st, fail(models.CategoryFetchFailure, op, err)
	}
	return st, nil
}

func hasMember(members []models.Member, id uuid.UUID) bool {
	for i := range members {
		if members[i].ID == id {
			return true
		}
	}
	return false
}

// Detail returns one member, looking in the current tree before the store
func (c *TreeController) Detail(ctx context.Context, sess *models.Session, id uuid.UUID) (*models.Member, error) {
	const op = "detail"
	if sess == nil {
		return nil, fail(models.CategoryUnauthenticated, op, ErrNoSession)
	}

	st, err := c.states.Load(ctx, sess.UserID)
	if err == nil && st.Tree != nil {
		if n := st.Tree.Find(id); n != nil {
			m := n.Member
			return &m, nil
		}
	}

	m, err := c.members.Get(ctx, sess.UserID, id)
	if err != nil {
		return nil, fail(models.CategoryFetchFailure, op, err)
	}
	return m, nil
}

// List returns the flat member list, optionally filtered by a CEL expression
func (c *TreeController) List(ctx context.Context, sess *models.Session, filter string) ([]models.Member, error) {
	const op = "list"
	if sess == nil {
		return nil, fail(models.CategoryUnauthenticated, op, ErrNoSession)
	}

	members, err := c.members.ListByOwner(ctx, sess.UserID)
	if err != nil {
		return nil, fail(models.CategoryFetchFailure, op, err)
	}

	out, err := c.filter.Apply(filter, members)
	if err != nil {
		return nil, fail(models.CategoryFetchFailure, op, err)
	}
	return out, nil
}

// Create inserts a member attached under in.AttachTo
func (c *TreeController) Create(ctx context.Context, sess *models.Session, in CreateInput) (*models.Member, error) {
	const op = "create"
	if sess == nil {
		return nil, fail(models.CategoryUnauthenticated, op, ErrNoSession)
	}

	unlock := c.locks.Lock(sess.UserID)
	defer unlock()

	m, err := c.create(ctx, sess.UserID, in)
	if ferr := c.finish(ctx, sess.UserID, op, models.CategorySaveFailure, idOf(m), err); ferr != nil {
		return nil, ferr
	}
	return m, nil
}

func (c *TreeController) create(ctx context.Context, owner uuid.UUID, in CreateInput) (*models.Member, error) {
	if err := c.validate.Struct(in.MemberFields); err != nil {
		return nil, err
	}

	var parent *uuid.UUID
	if in.AttachTo != nil {
		if _, err := c.members.Get(ctx, owner, *in.AttachTo); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return nil, ErrParentNotFound
			}
			return nil, err
		}
		id := *in.AttachTo
		parent = &id
	} else {
		members, err := c.members.ListByOwner(ctx, owner)
		if err != nil {
			return nil, err
		}
		for i := range members {
			if members[i].IsRoot() {
				return nil, ErrRootExists
			}
		}
	}

	now := c.now().UTC()
	m := &models.Member{
		ID:        uuid.New(),
		OwnerID:   owner,
		ParentID:  parent,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.Apply(in.MemberFields)

	if err := c.members.Insert(ctx, m); err != nil {
		return nil, err
	}

	c.log.Info("member created", "user_id", owner, "member_id", m.ID, "relation", m.Relation)
	return m, nil
}

// Update replaces the mutable fields of member id
func (c *TreeController) Update(ctx context.Context, sess *models.Session, id uuid.UUID, in UpdateInput) (*models.Member, error) {
	const op = "update"
	if sess == nil {
		return nil, fail(models.CategoryUnauthenticated, op, ErrNoSession)
	}

	unlock := c.locks.Lock(sess.UserID)
	defer unlock()

	m, err := c.update(ctx, sess.UserID, id, in)
	if ferr := c.finish(ctx, sess.UserID, op, models.CategorySaveFailure, &id, err); ferr != nil {
		return nil, ferr
	}
	return m, nil
}

func (c *TreeController) update(ctx context.Context, owner, id uuid.UUID, in UpdateInput) (*models.Member, error) {
	if err := c.validate.Struct(in.MemberFields); err != nil {
		return nil, err
	}

	existing, err := c.members.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	if in.ParentID != nil {
		parent, err := c.resolveParent(ctx, existing, *in.ParentID)
		if err != nil {
			return nil, err
		}
		existing.ParentID = parent
	}

	existing.Apply(in.MemberFields)
	existing.UpdatedAt = c.now().UTC()

	if err := c.members.Update(ctx, existing); err != nil {
		return nil, err
	}

	c.log.Info("member updated", "user_id", owner, "member_id", id)
	return existing, nil
}

// resolveParent checks a requested parent change and returns the new parent id
func (c *TreeController) resolveParent(ctx context.Context, m *models.Member, raw string) (*uuid.UUID, error) {
	members, err := c.members.ListByOwner(ctx, m.OwnerID)
	if err != nil {
		return nil, err
	}

	if raw == "" {
		for i := range members {
			if members[i].IsRoot() && members[i].ID != m.ID {
				return nil, ErrRootExists
			}
		}
		return nil, nil
	}

	pid, err := uuid.Parse(raw)
	if err != nil {
		return nil, &ValidationError{Fields: map[string]string{"parent_id": "uuid"}}
	}
	if m.ParentID != nil && *m.ParentID == pid {
		return m.ParentID, nil
	}
	if m.IsRoot() {
		return nil, ErrRootMove
	}
	if !hasMember(members, pid) {
		return nil, ErrParentNotFound
	}

	cycle, err := tree.WouldCycle(members, m.ID, pid)
	if err != nil && !errors.Is(err, tree.ErrCycle) {
		return nil, err
	}
	if cycle {
		return nil, fmt.Errorf("%w: %s under %s", tree.ErrCycle, m.ID, pid)
	}
	return &pid, nil
}

// patchDocument is the JSON a merge patch is applied to
type patchDocument struct {
	models.MemberFields
	ParentID *string `json:"parent_id"`
}

// Delete removes member id according to the delete policy
func (c *TreeController) Delete(ctx context.Context, sess *models.Session, id uuid.UUID) error {
	const op = "delete"
	if sess == nil {
		return fail(models.CategoryUnauthenticated, op, ErrNoSession)
	}

	unlock := c.locks.Lock(sess.UserID)
	defer unlock()

	err := c.remove(ctx, sess.UserID, id)
	return c.finish(ctx, sess.UserID, op, models.CategoryDeleteFailure, &id, err)
}

func (c *TreeController) remove(ctx context.Context, owner, id uuid.UUID) error {
	existing, err := c.members.Get(ctx, owner, id)
	if err != nil {
		return err
	}

	members, err := c.members.ListByOwner(ctx, owner)
	if err != nil {
		return err
	}
	children := childIndex(members)
	kids := children[id]

	switch c.policy {
	case DeleteCascade:
		ids := subtreeIDs(children, id)
		if err := c.members.DeleteTree(ctx, owner, ids); err != nil {
			return err
		}
		c.log.Info("member deleted with descendants", "user_id", owner, "member_id", id, "count", len(ids))

	case DeleteReparent:
		if len(kids) == 0 {
			if err := c.members.Delete(ctx, owner, id); err != nil {
				return err
			}
			break
		}
		// a moved spouse would read as the grandparent's partner
		if n := countSpouses(members, kids); n > 0 {
			return fmt.Errorf("%w: %d spouse(s) cannot be reparented", ErrHasDescendants, n)
		}
		// promoting several children of the root would leave several roots
		if existing.IsRoot() && len(kids) > 1 {
			return fmt.Errorf("%w: root has %d children", ErrHasDescendants, len(kids))
		}
		if err := c.members.Reparent(ctx, owner, id, existing.ParentID); err != nil {
			return err
		}
		c.log.Info("member deleted, children reparented", "user_id", owner, "member_id", id, "children", len(kids))

	default:
		if len(kids) > 0 {
			return fmt.Errorf("%w: %d children", ErrHasDescendants, len(kids))
		}
		if err := c.members.Delete(ctx, owner, id); err != nil {
			return err
		}
		c.log.Info("member deleted", "user_id", owner, "member_id", id)
	}
	return nil
}

func childIndex(members []models.Member) map[uuid.UUID][]uuid.UUID {
	idx := make(map[uuid.UUID][]uuid.UUID, len(members))
	for i := range members {
		if p := members[i].ParentID; p != nil {
			idx[*p] = append(idx[*p], members[i].ID)
		}
	}
	return idx
}

// subtreeIDs lists id and everything below it, children before parents
func countSpouses(members []models.Member, ids []uuid.UUID) int {
	want := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	n := 0
	for i := range members {
		if _, ok := want[members[i].ID]; ok && members[i].Relation == models.RelationSpouse {
			n++
		}
	}
	return n
}

func subtreeIDs(children map[uuid.UUID][]uuid.UUID, id uuid.UUID) []uuid.UUID {
	seen := map[uuid.UUID]struct{}{}
	var out []uuid.UUID
	var visit func(uuid.UUID)
	visit = func(n uuid.UUID) {
		if _, ok := seen[n]; ok {
			return
		}
		seen[n] = struct{}{}
		for _, k := range children[n] {
			visit(k)
		}
		out = append(out, n)
	}
	visit(id)
	return out
}

// finish records the outcome of a mutation. Failures set the state error and
// leave the tree alone. Success closes the form, publishes tree.changed and
// rebuilds; a failed rebuild does not undo the stored mutation.
func (c *TreeController) finish(ctx context.Context, owner uuid.UUID, op string, category models.ErrorCategory, memberID *uuid.UUID, err error) error {
	c.metrics.Mutation(op, err)

	log := c.log.WithUserID(owner.String())
	if memberID != nil {
		log = log.WithMemberID(memberID.String())
	}

	if err != nil {
		log.Warn("member mutation failed", "op", op, "error", err)
		if _, serr := c.states.Dispatch(ctx, owner,
			appstate.SignedIn{UserID: owner},
			appstate.MutationFailed{Category: category, Detail: err.Error()},
		); serr != nil {
			log.Warn("failed to record mutation failure", "error", serr)
		}
		return fail(category, op, err)
	}

	if _, serr := c.states.Dispatch(ctx, owner, appstate.SignedIn{UserID: owner}, appstate.MutationSucceeded{Op: op}); serr != nil {
		log.Warn("failed to record mutation", "error", serr)
	}
	c.publishChange(ctx, owner, op, memberID)

	if _, rerr := c.refreshLocked(ctx, owner); rerr != nil {
		log.Warn("refresh after mutation failed", "op", op, "error", rerr)
	}
	return nil
}

func (c *TreeController) publishChange(ctx context.Context, owner uuid.UUID, op string, memberID *uuid.UUID) {
	if c.queue == nil {
		return
	}

	data, err := json.Marshal(models.Event{
		Type:     models.EventTreeChanged,
		UserID:   owner,
		MemberID: memberID,
		Op:       op,
		At:       c.now().UTC(),
	})
	if err != nil {
		c.log.Warn("failed to encode tree event", "error", err)
		return
	}
	if err := c.queue.Publish(ctx, models.TopicMembers, owner.String(), data); err != nil {
		c.log.Warn("failed to publish tree event", "op", op, "error", err)
	}
}

func idOf(m *models.Member) *uuid.UUID {
	if m == nil {
		return nil
	}
	id := m.ID
	return &id
}
