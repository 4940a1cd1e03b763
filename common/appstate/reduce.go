package appstate

import (
	"github.com/vanshavali/familytree/common/models"
)

// Reduce returns the state that follows s after a. It never mutates s.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case SignedIn:
		if s.UserID == a.UserID && s.Phase != PhaseSignedOut {
			return s
		}
		return State{UserID: a.UserID, Phase: PhaseLoading}

	case SignedOut:
		return SignedOutState()
	}

	// Everything below needs a signed-in user
	if s.Phase == PhaseSignedOut {
		return s
	}

	switch a := a.(type) {
	case FetchStarted:
		// only the first fetch shows the loading phase
		if !s.Loaded() {
			s.Phase = PhaseLoading
		}

	case FetchSucceeded:
		s.Phase = PhaseReady
		s.Members = a.Members
		s.Tree = a.Tree
		s.Detached = a.Detached
		s.LoadedAt = a.At
		s.Version++
		if s.Error != nil && s.Error.Category == models.CategoryFetchFailure {
			s.Error = nil
		}

	case FetchFailed:
		// the previous tree stays on screen
		s.Phase = PhaseReady
		s.Error = &Error{Category: models.CategoryFetchFailure, Detail: a.Detail}

	case MutationSucceeded:
		s.Form = Form{}
		s.Error = nil

	case MutationFailed:
		s.Error = &Error{Category: a.Category, Detail: a.Detail}

	case OpenCreateForm:
		values := models.DefaultMemberFields()
		if a.Relation != "" {
			values.Relation = models.ParseRelation(string(a.Relation))
		}
		s.Form = Form{
			Open:     true,
			Mode:     FormCreate,
			AttachTo: a.AttachTo,
			Values:   values,
		}

	case OpenEditForm:
		for i := range s.Members {
			if s.Members[i].ID == a.MemberID {
				id := a.MemberID
				s.Form = Form{
					Open:     true,
					Mode:     FormEdit,
					MemberID: &id,
					Values:   s.Members[i].Fields(),
				}
				break
			}
		}

	case CloseForm:
		s.Form = Form{}

	case DismissError:
		s.Error = nil
	}

	return s
}
