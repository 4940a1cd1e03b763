package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshavali/familytree/common/appstate"
	"github.com/vanshavali/familytree/common/cache"
	"github.com/vanshavali/familytree/common/logger"
	"github.com/vanshavali/familytree/common/models"
	"github.com/vanshavali/familytree/common/tree"
)

type fixture struct {
	ctrl    *TreeController
	members *memMembers
	sess    *models.Session
}

// stepClock returns strictly increasing times so created_at ordering is stable
func stepClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func newFixture(t *testing.T, policy DeletePolicy) *fixture {
	t.Helper()

	c := cache.NewMemoryCache(logger.Discard())
	t.Cleanup(func() { c.Close() })

	filter, err := NewFilter()
	require.NoError(t, err)

	members := newMemMembers()
	ctrl := NewTreeController(members, appstate.NewStore(c, time.Hour), nil, NewValidator(), filter, policy, nil, logger.Discard())
	ctrl.now = stepClock()

	return &fixture{
		ctrl:    ctrl,
		members: members,
		sess:    &models.Session{Token: "t", UserID: uuid.New(), Email: "a@b.np"},
	}
}

func fields(name string, gen int, rel models.Relation) models.MemberFields {
	f := models.DefaultMemberFields()
	f.Name = name
	f.Address = "Kathmandu"
	f.GenerationID = gen
	f.Relation = rel
	return f
}

func (f *fixture) create(t *testing.T, parent *uuid.UUID, name string, gen int, rel models.Relation) *models.Member {
	t.Helper()
	m, err := f.ctrl.Create(context.Background(), f.sess, CreateInput{AttachTo: parent, MemberFields: fields(name, gen, rel)})
	require.NoError(t, err)
	return m
}

func (f *fixture) state(t *testing.T) appstate.State {
	t.Helper()
	st, err := f.ctrl.State(context.Background(), f.sess)
	require.NoError(t, err)
	return st
}

func names(nodes []*tree.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Member.Name)
	}
	return out
}

func TestController_SpouseAndChild(t *testing.T) {
	f := newFixture(t, DeleteBlock)

	ram := f.create(t, nil, "Ram", 1, models.RelationOther)
	f.create(t, &ram.ID, "Sita", 1, models.RelationSpouse)
	f.create(t, &ram.ID, "Lav", 2, models.RelationChild)

	st := f.state(t)
	require.NotNil(t, st.Tree)
	assert.Equal(t, appstate.PhaseReady, st.Phase)
	assert.Equal(t, "Ram", st.Tree.Member.Name)
	assert.Equal(t, []string{"Sita", "Lav"}, names(st.Tree.Children))
	assert.Equal(t, []string{"Sita"}, names(st.Tree.Spouses()))
	assert.Equal(t, []string{"Lav"}, names(st.Tree.Descendants()))
	assert.Empty(t, st.Detached)
	assert.Nil(t, st.Error)
}

func TestController_CreateIsVisibleAfterRefresh(t *testing.T) {
	f := newFixture(t, DeleteBlock)

	before := f.state(t)
	assert.Nil(t, before.Tree)

	ram := f.create(t, nil, "Ram", 1, models.RelationOther)

	after := f.state(t)
	require.NotNil(t, after.Tree)
	assert.Equal(t, ram.ID, after.Tree.Member.ID)
	assert.Greater(t, after.Version, before.Version)
	assert.Len(t, after.Members, 1)
	assert.Equal(t, f.sess.UserID, after.Members[0].OwnerID)
}

func TestController_RequiresSession(t *testing.T) {
	f := newFixture(t, DeleteBlock)
	ctx := context.Background()

	_, err := f.ctrl.Create(ctx, nil, CreateInput{MemberFields: fields("Ram", 1, models.RelationOther)})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoSession)
	assert.Equal(t, models.CategoryUnauthenticated, CategoryOf(err))

	err = f.ctrl.Delete(ctx, nil, uuid.New())
	assert.Equal(t, models.CategoryUnauthenticated, CategoryOf(err))

	_, err = f.ctrl.State(ctx, nil)
	assert.Equal(t, models.CategoryUnauthenticated, CategoryOf(err))
	assert.Zero(t, f.members.count())
}

func TestController_CreateFailures(t *testing.T) {
	f := newFixture(t, DeleteBlock)
	ctx := context.Background()
	ram := f.create(t, nil, "Ram", 1, models.RelationOther)
	missing := uuid.New()

	tests := []struct {
		name  string
		input CreateInput
		want  error
	}{
		{"second root", CreateInput{MemberFields: fields("Shyam", 1, models.RelationOther)}, ErrRootExists},
		{"unknown parent", CreateInput{AttachTo: &missing, MemberFields: fields("Hari", 2, models.RelationChild)}, ErrParentNotFound},
		{"missing name", CreateInput{AttachTo: &ram.ID, MemberFields: fields("", 2, models.RelationChild)}, ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ctrl.Create(ctx, f.sess, tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, models.CategorySaveFailure, CategoryOf(err))

			st := f.state(t)
			require.NotNil(t, st.Error)
			assert.Equal(t, models.CategorySaveFailure, st.Error.Category)
		})
	}

	assert.Equal(t, 1, f.members.count())
}

func TestController_ValidationReportsFields(t *testing.T) {
	f := newFixture(t, DeleteBlock)

	in := fields("Ram", 1, models.RelationOther)
	in.Address = ""
	in.Mobile = "call me"
	_, err := f.ctrl.Create(context.Background(), f.sess, CreateInput{MemberFields: in})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "required", verr.Fields["address"])
	assert.Equal(t, "tel", verr.Fields["mobile"])
}

func TestController_FetchFailureKeepsTree(t *testing.T) {
	f := newFixture(t, DeleteBlock)
	ctx := context.Background()
	ram := f.create(t, nil, "Ram", 1, models.RelationOther)

	f.members.failList(errors.New("connection refused"))
	st, err := f.ctrl.Refresh(ctx, f.sess.UserID)
	require.Error(t, err)
	assert.Equal(t, models.CategoryFetchFailure, CategoryOf(err))

	require.NotNil(t, st.Tree)
	assert.Equal(t, ram.ID, st.Tree.Member.ID)
	require.NotNil(t, st.Error)
	assert.Equal(t, models.CategoryFetchFailure, st.Error.Category)

	f.members.failList(nil)
	st, err = f.ctrl.Refresh(ctx, f.sess.UserID)
	require.NoError(t, err)
	assert.Nil(t, st.Error)
}

func TestController_MutationStoredWhenRefreshFails(t *testing.T) {
	f := newFixture(t, DeleteBlock)
	ctx := context.Background()
	ram := f.create(t, nil, "Ram", 1, models.RelationOther)

	in := UpdateInput{MemberFields: fields("Ramesh", 1, models.RelationOther)}
	f.members.failList(errors.New("timeout"))
	_, err := f.ctrl.Update(ctx, f.sess, ram.ID, in)
	require.NoError(t, err)
	f.members.failList(nil)

	got, err := f.members.Get(ctx, f.sess.UserID, ram.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ramesh", got.Name)
}

func TestController_DeletePolicies(t *testing.T) {
	ctx := context.Background()

	// Ram -> Lav -> Kush, Ram -> Sita (spouse)
	setup := func(t *testing.T, policy DeletePolicy) (*fixture, map[string]*models.Member) {
		f := newFixture(t, policy)
		ram := f.create(t, nil, "Ram", 1, models.RelationOther)
		sita := f.create(t, &ram.ID, "Sita", 1, models.RelationSpouse)
		lav := f.create(t, &ram.ID, "Lav", 2, models.RelationChild)
		kush := f.create(t, &lav.ID, "Kush", 3, models.RelationChild)
		return f, map[string]*models.Member{"Ram": ram, "Sita": sita, "Lav": lav, "Kush": kush}
	}

	t.Run("block refuses a parent", func(t *testing.T) {
		f, m := setup(t, DeleteBlock)
		err := f.ctrl.Delete(ctx, f.sess, m["Lav"].ID)
		assert.ErrorIs(t, err, ErrHasDescendants)
		assert.Equal(t, models.CategoryDeleteFailure, CategoryOf(err))
		assert.Equal(t, 4, f.members.count())
	})

	t.Run("block deletes a leaf", func(t *testing.T) {
		f, m := setup(t, DeleteBlock)
		require.NoError(t, f.ctrl.Delete(ctx, f.sess, m["Kush"].ID))
		st := f.state(t)
		assert.Equal(t, 3, st.Tree.Size())
		assert.Nil(t, st.Tree.Find(m["Kush"].ID))
	})

	t.Run("cascade removes the subtree", func(t *testing.T) {
		f, m := setup(t, DeleteCascade)
		require.NoError(t, f.ctrl.Delete(ctx, f.sess, m["Lav"].ID))
		assert.Equal(t, 2, f.members.count())
		st := f.state(t)
		assert.Equal(t, []string{"Sita"}, names(st.Tree.Children))
	})

	t.Run("reparent moves children up", func(t *testing.T) {
		f, m := setup(t, DeleteReparent)
		require.NoError(t, f.ctrl.Delete(ctx, f.sess, m["Lav"].ID))
		st := f.state(t)
		assert.Equal(t, []string{"Sita", "Kush"}, names(st.Tree.Children))
	})

	t.Run("reparent refuses a root with several children", func(t *testing.T) {
		f, m := setup(t, DeleteReparent)
		err := f.ctrl.Delete(ctx, f.sess, m["Ram"].ID)
		assert.ErrorIs(t, err, ErrHasDescendants)
	})

	t.Run("missing member", func(t *testing.T) {
		f, _ := setup(t, DeleteBlock)
		err := f.ctrl.Delete(ctx, f.sess, uuid.New())
		assert.ErrorIs(t, err, models.ErrNotFound)
		assert.Equal(t, models.CategoryDeleteFailure, CategoryOf(err))
	})
}

func TestController_ReparentRootWithOneChild(t *testing.T) {
	f := newFixture(t, DeleteReparent)
	ram := f.create(t, nil, "Ram", 1, models.RelationOther)
	lav := f.create(t, &ram.ID, "Lav", 2, models.RelationChild)

	require.NoError(t, f.ctrl.Delete(context.Background(), f.sess, ram.ID))
	st := f.state(t)
	require.NotNil(t, st.Tree)
	assert.Equal(t, lav.ID, st.Tree.Member.ID)
}

func TestController_ReparentRefusesSpouses(t *testing.T) {
	f := newFixture(t, DeleteReparent)
	ctx := context.Background()
	ram := f.create(t, nil, "Ram", 1, models.RelationOther)
	f.create(t, &ram.ID, "Sita", 1, models.RelationSpouse)
	lav := f.create(t, &ram.ID, "Lav", 2, models.RelationChild)
	f.create(t, &lav.ID, "Urmila", 2, models.RelationSpouse)
	f.create(t, &lav.ID, "Kush", 3, models.RelationChild)

	err := f.ctrl.Delete(ctx, f.sess, lav.ID)
	assert.ErrorIs(t, err, ErrHasDescendants)
	assert.Equal(t, models.CategoryDeleteFailure, CategoryOf(err))
	assert.Equal(t, 5, f.members.count())

	st := f.state(t)
	assert.Equal(t, []string{"Sita", "Lav"}, names(st.Tree.Children))
}

func TestController_UpdateParent(t *testing.T) {
	f := newFixture(t, DeleteBlock)
	ctx := context.Background()
	ram := f.create(t, nil, "Ram", 1, models.RelationOther)
	lav := f.create(t, &ram.ID, "Lav", 2, models.RelationChild)
	kush := f.create(t, &lav.ID, "Kush", 3, models.RelationChild)

	move := func(id uuid.UUID, parent string) error {
		m, err := f.members.Get(ctx, f.sess.UserID, id)
		require.NoError(t, err)
		_, err = f.ctrl.Update(ctx, f.sess, id, UpdateInput{ParentID: &parent, MemberFields: m.Fields()})
		return err
	}

	err := move(lav.ID, kush.ID.String())
	assert.ErrorIs(t, err, tree.ErrCycle)

	err = move(ram.ID, kush.ID.String())
	assert.ErrorIs(t, err, ErrRootMove)

	err = move(kush.ID, "")
	assert.ErrorIs(t, err, ErrRootExists)

	err = move(kush.ID, "not-a-uuid")
	assert.ErrorIs(t, err, ErrInvalidInput)

	require.NoError(t, move(kush.ID, ram.ID.String()))
	st := f.state(t)
	assert.Equal(t, []string{"Lav", "Kush"}, names(st.Tree.Children))
}

func TestController_Patch(t *testing.T) {
	f := newFixture(t, DeleteBlock)
	ctx := context.Background()
	ram := f.create(t, nil, "Ram", 1, models.RelationOther)
	lav := f.create(t, &ram.ID, "Lav", 2, models.RelationChild)
	kush := f.create(t, &lav.ID, "Kush", 3, models.RelationChild)

	m, err := f.ctrl.Patch(ctx, f.sess, kush.ID, []byte(`{"occupation":"Farmer","mobile":"+977 9800000000"}`))
	require.NoError(t, err)
	assert.Equal(t, "Farmer", m.Occupation)
	assert.Equal(t, "Kush", m.Name)
	assert.Equal(t, lav.ID, *m.ParentID)

	patch, _ := json.Marshal(map[string]string{"parent_id": ram.ID.String()})
	m, err = f.ctrl.Patch(ctx, f.sess, kush.ID, patch)
	require.NoError(t, err)
	assert.Equal(t, ram.ID, *m.ParentID)

	_, err = f.ctrl.Patch(ctx, f.sess, kush.ID, []byte(`{"parent_id":null}`))
	assert.ErrorIs(t, err, ErrRootExists)

	_, err = f.ctrl.Patch(ctx, f.sess, kush.ID, []byte(`{"name":""}`))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.ctrl.Patch(ctx, f.sess, kush.ID, []byte(`not json`))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.ctrl.Patch(ctx, f.sess, kush.ID, []byte(`{"owner_id":"`+uuid.NewString()+`"}`))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestController_Forms(t *testing.T) {
	f := newFixture(t, DeleteBlock)
	ctx := context.Background()
	ram := f.create(t, nil, "Ram", 1, models.RelationOther)

	st, err := f.ctrl.Dispatch(ctx, f.sess, appstate.OpenCreateForm{AttachTo: &ram.ID, Relation: "Spouse"})
	require.NoError(t, err)
	assert.True(t, st.Form.Open)
	assert.Equal(t, appstate.FormCreate, st.Form.Mode)
	assert.Equal(t, models.RelationSpouse, st.Form.Values.Relation)

	st, err = f.ctrl.Dispatch(ctx, f.sess, appstate.OpenEditForm{MemberID: ram.ID})
	require.NoError(t, err)
	assert.Equal(t, appstate.FormEdit, st.Form.Mode)
	assert.Equal(t, "Ram", st.Form.Values.Name)

	_, err = f.ctrl.Dispatch(ctx, f.sess, appstate.OpenEditForm{MemberID: uuid.New()})
	assert.ErrorIs(t, err, models.ErrNotFound)

	st, err = f.ctrl.Dispatch(ctx, f.sess, appstate.CloseForm{})
	require.NoError(t, err)
	assert.False(t, st.Form.Open)
}

func TestController_SuccessClosesForm(t *testing.T) {
	f := newFixture(t, DeleteBlock)
	ctx := context.Background()
	ram := f.create(t, nil, "Ram", 1, models.RelationOther)

	_, err := f.ctrl.Dispatch(ctx, f.sess, appstate.OpenCreateForm{AttachTo: &ram.ID})
	require.NoError(t, err)

	f.create(t, &ram.ID, "Lav", 2, models.RelationChild)
	st := f.state(t)
	assert.False(t, st.Form.Open)
}

func TestController_DetailAndList(t *testing.T) {
	f := newFixture(t, DeleteBlock)
	ctx := context.Background()
	ram := f.create(t, nil, "Ram", 1, models.RelationOther)
	f.create(t, &ram.ID, "Lav", 2, models.RelationChild)

	m, err := f.ctrl.Detail(ctx, f.sess, ram.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ram", m.Name)

	_, err = f.ctrl.Detail(ctx, f.sess, uuid.New())
	assert.ErrorIs(t, err, models.ErrNotFound)

	list, err := f.ctrl.List(ctx, f.sess, `generation >= 2`)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Lav", list[0].Name)

	_, err = f.ctrl.List(ctx, f.sess, `generation +`)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestController_OwnersAreIsolated(t *testing.T) {
	f := newFixture(t, DeleteBlock)
	ctx := context.Background()
	ram := f.create(t, nil, "Ram", 1, models.RelationOther)

	other := &models.Session{Token: "o", UserID: uuid.New()}
	_, err := f.ctrl.Detail(ctx, other, ram.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = f.ctrl.Create(ctx, other, CreateInput{AttachTo: &ram.ID, MemberFields: fields("Hari", 2, models.RelationChild)})
	assert.ErrorIs(t, err, ErrParentNotFound)

	st, err := f.ctrl.State(ctx, other)
	require.NoError(t, err)
	assert.Nil(t, st.Tree)
}

func TestController_SessionChanged(t *testing.T) {
	f := newFixture(t, DeleteBlock)
	ctx := context.Background()
	f.create(t, nil, "Ram", 1, models.RelationOther)

	require.NoError(t, f.ctrl.SessionChanged(ctx, models.EventSignedOut, f.sess.UserID))

	st, err := f.ctrl.states.Load(ctx, f.sess.UserID)
	require.NoError(t, err)
	assert.Equal(t, appstate.PhaseSignedOut, st.Phase)

	require.NoError(t, f.ctrl.SessionChanged(ctx, models.EventSignedIn, f.sess.UserID))

	st, err = f.ctrl.states.Load(ctx, f.sess.UserID)
	require.NoError(t, err)
	assert.Equal(t, appstate.PhaseReady, st.Phase)
	require.NotNil(t, st.Tree)

	assert.NoError(t, f.ctrl.SessionChanged(ctx, models.EventTreeChanged, f.sess.UserID))
}
