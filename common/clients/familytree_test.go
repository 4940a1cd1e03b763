package clients

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshavali/familytree/common/logger"
	"github.com/vanshavali/familytree/common/models"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *FamilyTreeClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewFamilyTreeClient(srv.URL+"/", 0, logger.Discard())
}

func TestClient_SendsTokenAndLanguage(t *testing.T) {
	var auth, lang string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		lang = r.Header.Get("Accept-Language")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"tree":null,"detached":[],"version":0,"message":"No family members found"}`)
	})

	ctx := WithLanguage(WithToken(context.Background(), "tok"), "ne")
	resp, err := c.Tree(ctx)
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok", auth)
	assert.Equal(t, "ne", lang)
	assert.Nil(t, resp.Tree)
	assert.Equal(t, "No family members found", resp.Message)
}

func TestClient_NoTokenNoHeader(t *testing.T) {
	var auth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.SignOut(context.Background()))
	assert.Empty(t, auth)
}

func TestClient_APIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"save_failure","message":"Please check the highlighted fields.","fields":{"name":"required"}}`)
	})

	_, err := c.CreateMember(context.Background(), CreateMemberRequest{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "save_failure", apiErr.Category)
	assert.Equal(t, "required", apiErr.Fields["name"])
}

func TestClient_NonJSONError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})

	_, err := c.Members(context.Background(), "")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Contains(t, apiErr.Detail, "bad gateway")
}

func TestClient_CreateAndFilter(t *testing.T) {
	parent := uuid.New()
	var got map[string]interface{}
	var query string

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodPost:
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(models.Member{ID: uuid.New(), ParentID: &parent, Name: "Lav"})
		case http.MethodGet:
			query = r.URL.Query().Get("filter")
			_, _ = io.WriteString(w, `{"members":[{"name":"Lav"}],"count":1}`)
		}
	})

	fields := models.DefaultMemberFields()
	fields.Name = "Lav"
	m, err := c.CreateMember(context.Background(), CreateMemberRequest{AttachTo: &parent, MemberFields: fields})
	require.NoError(t, err)
	assert.Equal(t, "Lav", m.Name)
	assert.Equal(t, parent.String(), got["attach_to"])
	assert.Equal(t, "Lav", got["name"])

	members, err := c.Members(context.Background(), `name == "Lav"`)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, `name == "Lav"`, query)
}

func TestClient_Text(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/tree/text", r.URL.Path)
		_, _ = io.WriteString(w, "Ram = Sita\n  Lav\n")
	})

	text, err := c.Text(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ram = Sita\n  Lav\n", text)
}
