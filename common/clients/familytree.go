package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vanshavali/familytree/common/models"
	"github.com/vanshavali/familytree/common/tree"
)

// FamilyTreeClient talks to the familytree API.
// Authenticated calls need a ctx carrying the token via WithToken().
type FamilyTreeClient struct {
	baseURL string
	http    *HTTPClient
	logger  Logger
}

// NewFamilyTreeClient creates a new familytree client
func NewFamilyTreeClient(baseURL string, timeout time.Duration, logger Logger) *FamilyTreeClient {
	return &FamilyTreeClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    NewHTTPClient(&http.Client{Timeout: timeout}, logger),
		logger:  logger,
	}
}

// TreeResponse is the body of GET /api/v1/tree
type TreeResponse struct {
	Tree     *tree.Node      `json:"tree"`
	Detached []models.Member `json:"detached"`
	Version  int64           `json:"version"`
	LoadedAt time.Time       `json:"loaded_at"`
	Message  string          `json:"message,omitempty"`
}

// CreateMemberRequest adds a member under AttachTo, or the root when nil
type CreateMemberRequest struct {
	AttachTo *uuid.UUID `json:"attach_to,omitempty"`
	models.MemberFields
}

func (c *FamilyTreeClient) do(ctx context.Context, method, path string, in, out interface{}, want int) error {
	var body io.Reader
	if in != nil {
		switch v := in.(type) {
		case json.RawMessage:
			body = bytes.NewReader(v)
		default:
			data, err := json.Marshal(in)
			if err != nil {
				return fmt.Errorf("failed to encode request: %w", err)
			}
			body = bytes.NewReader(data)
		}
	}

	resp, err := c.http.DoRequest(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to call %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}

	if s, ok := out.(*string); ok {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}
		*s = string(data)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// SignUp creates an account and returns its first session
func (c *FamilyTreeClient) SignUp(ctx context.Context, email, password string) (*models.Session, error) {
	var sess models.Session
	creds := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/signup", creds, &sess, http.StatusCreated); err != nil {
		return nil, err
	}
	c.logger.Info("signed up", "email", sess.Email)
	return &sess, nil
}

// SignIn exchanges credentials for a session
func (c *FamilyTreeClient) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	var sess models.Session
	creds := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/signin", creds, &sess, http.StatusOK); err != nil {
		return nil, err
	}
	c.logger.Info("signed in", "email", sess.Email)
	return &sess, nil
}

// SignOut revokes the session carried by ctx
func (c *FamilyTreeClient) SignOut(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/v1/auth/signout", nil, nil, http.StatusNoContent)
}

// Tree fetches the built tree
func (c *FamilyTreeClient) Tree(ctx context.Context) (*TreeResponse, error) {
	var out TreeResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/tree", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Text fetches the tree rendered as indented text
func (c *FamilyTreeClient) Text(ctx context.Context) (string, error) {
	var out string
	if err := c.do(ctx, http.MethodGet, "/api/v1/tree/text", nil, &out, http.StatusOK); err != nil {
		return "", err
	}
	return out, nil
}

// Layout fetches card positions and connectors
func (c *FamilyTreeClient) Layout(ctx context.Context) (*tree.Layout, error) {
	var out tree.Layout
	if err := c.do(ctx, http.MethodGet, "/api/v1/tree/layout", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Members lists members, optionally narrowed by a filter expression
func (c *FamilyTreeClient) Members(ctx context.Context, filter string) ([]models.Member, error) {
	path := "/api/v1/members"
	if filter != "" {
		path += "?filter=" + url.QueryEscape(filter)
	}

	var out struct {
		Members []models.Member `json:"members"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Members, nil
}

// CreateMember adds a member
func (c *FamilyTreeClient) CreateMember(ctx context.Context, req CreateMemberRequest) (*models.Member, error) {
	var out models.Member
	if err := c.do(ctx, http.MethodPost, "/api/v1/members", req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// PatchMember applies a JSON merge patch to a member
func (c *FamilyTreeClient) PatchMember(ctx context.Context, id uuid.UUID, patch json.RawMessage) (*models.Member, error) {
	var out models.Member
	if err := c.do(ctx, http.MethodPatch, "/api/v1/members/"+id.String(), patch, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteMember removes a member
func (c *FamilyTreeClient) DeleteMember(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/members/"+id.String(), nil, nil, http.StatusNoContent)
}
