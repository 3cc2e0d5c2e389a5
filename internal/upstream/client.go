// Package upstream is the client for the portfolio REST backend. One
// generic client covers every resource; a Resource descriptor names the
// collection path and the cache tag that scopes its reads.
//
// Error contract: a response with a JSON body is always returned as an
// Envelope, even on non-2xx status: the backend reports business failures
// through success:false, not through transport errors. Only network-level
// failures (or a non-JSON body) produce a Go error. There are no retries and
// no client-side timeouts; a failed call surfaces once.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hversson/atrium/internal/apperr"
	"github.com/hversson/atrium/internal/session"
)

// Envelope is the backend response shape: success flag, human message, and
// the payload for list/get operations.
type Envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Resource describes one backend collection.
type Resource struct {
	Name string // singular name used in routes and events
	Path string // collection path on the backend
	Tag  string // cache tag invalidated by mutations
}

// The portfolio collections this gateway manages.
var (
	Blog       = Resource{Name: "blog", Path: "/blog", Tag: "BLOG"}
	Project    = Resource{Name: "project", Path: "/project", Tag: "PROJECT"}
	Skill      = Resource{Name: "skill", Path: "/skill", Tag: "SKILL"}
	Experience = Resource{Name: "experience", Path: "/experience", Tag: "EXPERIENCE"}
	Contact    = Resource{Name: "contact", Path: "/contact", Tag: "CONTACT"}
	Dashboard  = Resource{Name: "dashboard", Path: "/dashboard-info", Tag: "DASHBOARD"}
)

// Client talks to the backend on behalf of the current session.
type Client struct {
	baseURL string
	httpc   *http.Client
	cache   *TagCache
}

// NewClient creates a Client for the backend at baseURL.
func NewClient(baseURL string, cache *TagCache) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{},
		cache:   cache,
	}
}

// token returns the session credential from ctx, failing closed when it is
// absent instead of sending a malformed Authorization header.
func token(ctx context.Context) (string, error) {
	t, ok := session.TokenFrom(ctx)
	if !ok || t == "" {
		return "", apperr.ErrNoSession
	}
	return t, nil
}

// List fetches the collection, serving repeat reads from the tag cache
// until a mutation invalidates it.
func (c *Client) List(ctx context.Context, res Resource) (*Envelope, error) {
	return c.cachedGet(ctx, res, res.Path)
}

// Get fetches a single entity by id.
func (c *Client) Get(ctx context.Context, res Resource, id string) (*Envelope, error) {
	return c.cachedGet(ctx, res, res.Path+"/"+id)
}

// Create posts a multipart payload (JSON "data" part plus "file" parts) and
// invalidates the resource tag.
func (c *Client) Create(ctx context.Context, res Resource, data map[string]any, files []File) (*Envelope, error) {
	return c.mutate(ctx, res, http.MethodPost, res.Path, data, files)
}

// Update patches an entity with the same multipart convention as Create.
func (c *Client) Update(ctx context.Context, res Resource, id string, data map[string]any, files []File) (*Envelope, error) {
	return c.mutate(ctx, res, http.MethodPatch, res.Path+"/"+id, data, files)
}

// Delete removes an entity and invalidates the resource tag.
func (c *Client) Delete(ctx context.Context, res Resource, id string) (*Envelope, error) {
	tok, err := token(ctx)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+res.Path+"/"+id, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+tok)

	env, err := c.do(req)
	if err != nil {
		return nil, err
	}
	c.invalidateAfterMutation(res)
	return env, nil
}

// Login exchanges credentials for an access token. It is the one call that
// carries no session credential.
func (c *Client) Login(ctx context.Context, email, password string) (*Envelope, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

// Logout tells the backend to drop the session.
func (c *Client) Logout(ctx context.Context) (*Envelope, error) {
	tok, err := token(ctx)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/logout", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	return c.do(req)
}

func (c *Client) cachedGet(ctx context.Context, res Resource, path string) (*Envelope, error) {
	tok, err := token(ctx)
	if err != nil {
		return nil, err
	}
	if env, ok := c.cache.Get(res.Tag, path); ok {
		return env, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+tok)

	env, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if env.Success {
		c.cache.Set(res.Tag, path, env)
	}
	return env, nil
}

func (c *Client) mutate(ctx context.Context, res Resource, method, path string, data map[string]any, files []File) (*Envelope, error) {
	tok, err := token(ctx)
	if err != nil {
		return nil, err
	}
	body, contentType, err := buildMultipart(data, files)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("Content-Type", contentType)

	env, err := c.do(req)
	if err != nil {
		return nil, err
	}
	c.invalidateAfterMutation(res)
	return env, nil
}

// invalidateAfterMutation drops the mutated resource's cached reads along
// with the dashboard summary, whose counts aggregate every collection.
func (c *Client) invalidateAfterMutation(res Resource) {
	c.cache.Invalidate(res.Tag)
	if res.Tag != Dashboard.Tag {
		c.cache.Invalidate(Dashboard.Tag)
	}
}

func (c *Client) do(req *http.Request) (*Envelope, error) {
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("upstream: read response: %w", err)
	}

	env := &Envelope{}
	if err := json.Unmarshal(raw, env); err != nil {
		return nil, fmt.Errorf("upstream: %s %s: status %d with non-JSON body", req.Method, req.URL.Path, resp.StatusCode)
	}
	return env, nil
}
