package appstate

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshavali/familytree/common/models"
	"github.com/vanshavali/familytree/common/tree"
)

func loadedState(t *testing.T) (State, models.Member) {
	t.Helper()

	user := uuid.New()
	root := models.Member{ID: uuid.New(), OwnerID: user, Name: "Ram", Address: "Kathmandu", GenerationID: 1, IsAlive: true}
	members := []models.Member{root}
	built, err := tree.Build(members)
	require.NoError(t, err)

	s := Reduce(SignedOutState(), SignedIn{UserID: user})
	s = Reduce(s, FetchStarted{})
	s = Reduce(s, FetchSucceeded{Members: members, Tree: built, At: time.Now()})
	return s, root
}

func TestReduce_InitialFetchShowsLoading(t *testing.T) {
	user := uuid.New()

	s := Reduce(SignedOutState(), SignedIn{UserID: user})
	assert.Equal(t, PhaseLoading, s.Phase)
	assert.Equal(t, user, s.UserID)

	s = Reduce(s, FetchStarted{})
	assert.Equal(t, PhaseLoading, s.Phase)

	s = Reduce(s, FetchSucceeded{At: time.Now()})
	assert.Equal(t, PhaseReady, s.Phase)
	assert.Equal(t, int64(1), s.Version)

	// a refresh of a ready state stays ready
	s = Reduce(s, FetchStarted{})
	assert.Equal(t, PhaseReady, s.Phase)
}

func TestReduce_FetchFailureKeepsTree(t *testing.T) {
	s, root := loadedState(t)

	s = Reduce(s, FetchStarted{})
	s = Reduce(s, FetchFailed{Detail: "connection refused"})

	assert.Equal(t, PhaseReady, s.Phase)
	require.NotNil(t, s.Tree)
	assert.Equal(t, root.ID, s.Tree.Member.ID)
	require.NotNil(t, s.Error)
	assert.Equal(t, models.CategoryFetchFailure, s.Error.Category)

	s = Reduce(s, FetchSucceeded{Members: s.Members, Tree: s.Tree, At: time.Now()})
	assert.Nil(t, s.Error)
	assert.Equal(t, int64(2), s.Version)
}

func TestReduce_FirstFetchFailureLeavesEmptyReadyState(t *testing.T) {
	s := Reduce(SignedOutState(), SignedIn{UserID: uuid.New()})
	s = Reduce(s, FetchFailed{})

	assert.Equal(t, PhaseReady, s.Phase)
	assert.Nil(t, s.Tree)
	assert.False(t, s.Loaded())
}

func TestReduce_Forms(t *testing.T) {
	s, root := loadedState(t)

	s = Reduce(s, OpenCreateForm{AttachTo: &root.ID, Relation: "Spouse"})
	assert.True(t, s.Form.Open)
	assert.Equal(t, FormCreate, s.Form.Mode)
	assert.Equal(t, root.ID, *s.Form.AttachTo)
	assert.Equal(t, models.RelationSpouse, s.Form.Values.Relation)
	assert.True(t, s.Form.Values.IsAlive)
	assert.Equal(t, 1, s.Form.Values.GenerationID)

	s = Reduce(s, CloseForm{})
	assert.False(t, s.Form.Open)

	s = Reduce(s, OpenEditForm{MemberID: root.ID})
	assert.Equal(t, FormEdit, s.Form.Mode)
	assert.Equal(t, "Ram", s.Form.Values.Name)
	assert.Equal(t, root.ID, *s.Form.MemberID)

	before := s
	s = Reduce(s, OpenEditForm{MemberID: uuid.New()})
	assert.Equal(t, before.Form, s.Form)
}

func TestReduce_Mutations(t *testing.T) {
	s, _ := loadedState(t)
	s = Reduce(s, OpenCreateForm{})

	s = Reduce(s, MutationFailed{Category: models.CategorySaveFailure, Detail: "boom"})
	assert.True(t, s.Form.Open, "form stays open for a retry")
	assert.Equal(t, models.CategorySaveFailure, s.Error.Category)
	assert.NotNil(t, s.Tree)

	s = Reduce(s, DismissError{})
	assert.Nil(t, s.Error)

	s = Reduce(s, MutationSucceeded{Op: "create"})
	assert.False(t, s.Form.Open)
	assert.Nil(t, s.Error)
}

func TestReduce_SignedOutIgnoresViewActions(t *testing.T) {
	s, _ := loadedState(t)
	s = Reduce(s, SignedOut{})
	assert.Equal(t, SignedOutState(), s)

	s = Reduce(s, OpenCreateForm{})
	s = Reduce(s, FetchSucceeded{At: time.Now()})
	assert.Equal(t, SignedOutState(), s)
}

func TestReduce_SignedInAgainKeepsState(t *testing.T) {
	s, _ := loadedState(t)
	again := Reduce(s, SignedIn{UserID: s.UserID})
	assert.Equal(t, s.Version, again.Version)
	assert.Equal(t, PhaseReady, again.Phase)

	other := Reduce(s, SignedIn{UserID: uuid.New()})
	assert.Equal(t, PhaseLoading, other.Phase)
	assert.Nil(t, other.Tree)
}
