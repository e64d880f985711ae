// Package client is a typed HTTP client for the case tracking API that keeps
// the signed-in session in a SessionStore between runs.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hongminglow/casetrack-be/internal/cases"
	"github.com/hongminglow/casetrack-be/internal/models"
	"github.com/hongminglow/casetrack-be/internal/models/dto"
	"github.com/hongminglow/casetrack-be/internal/pagination"
)

var (
	// ErrSessionExpired is returned when the server rejects the stored token.
	// The session has already been cleared when it is returned.
	ErrSessionExpired = errors.New("session expired, log in again")
	// ErrNotRestored is returned by calls made before Restore or Login.
	ErrNotRestored = errors.New("client session not restored")
	// ErrNotSignedIn is returned by calls that need a token when there is none.
	ErrNotSignedIn = errors.New("not signed in")
	// ErrSelfDelete guards against removing the signed-in account.
	ErrSelfDelete = errors.New("you cannot delete your own account")
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Client talks to one API base URL on behalf of one session.
type Client struct {
	baseURL string
	http    *http.Client
	store   SessionStore

	mu       sync.Mutex
	session  Session
	restored bool
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New returns a client for baseURL. Call Restore before anything that needs
// the stored session.
func New(baseURL string, store SessionStore, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		store:   store,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Restore loads the persisted session. A missing or unreadable snapshot
// leaves the client signed out without error.
func (c *Client) Restore(ctx context.Context) error {
	s, err := c.store.Load(ctx)
	if err != nil && !errors.Is(err, ErrNoSession) {
		return err
	}
	c.mu.Lock()
	c.session = s
	c.restored = true
	c.mu.Unlock()
	return nil
}

// Session returns a copy of the current session.
func (c *Client) Session() (Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.restored {
		return Session{}, ErrNotRestored
	}
	return c.session, nil
}

// Login exchanges credentials for a token, loads the user's dashboards and
// persists the result. The first accessible dashboard and module become
// current.
func (c *Client) Login(ctx context.Context, identifier, password string) (Session, error) {
	login, err := call[dto.LoginResponse](ctx, c, "", http.MethodPost, "/login", nil,
		dto.LoginRequest{Identifier: identifier, Password: password})
	if err != nil {
		return Session{}, err
	}
	me, err := call[dto.MeResponse](ctx, c, login.Token, http.MethodGet, "/me", nil, nil)
	if err != nil {
		return Session{}, err
	}
	s := Session{User: me.User, Token: login.Token, Dashboards: me.Dashboards}
	if len(s.Dashboards) > 0 {
		s.CurrentDashboard = s.Dashboards[0].Dashboard.Key
		if mods := s.Dashboards[0].Modules; len(mods) > 0 {
			s.CurrentModule = mods[0].Key
		}
	}
	if err := c.store.Save(ctx, s); err != nil {
		return Session{}, err
	}
	c.mu.Lock()
	c.session = s
	c.restored = true
	c.mu.Unlock()
	return s, nil
}

// Logout forgets the session locally and in the store.
func (c *Client) Logout(ctx context.Context) error {
	c.mu.Lock()
	c.session = Session{}
	c.restored = true
	c.mu.Unlock()
	return c.store.Clear(ctx)
}

// Me refreshes the user and dashboard access from the server. The current
// dashboard and module are kept when still accessible.
func (c *Client) Me(ctx context.Context) (Session, error) {
	token, err := c.token()
	if err != nil {
		return Session{}, err
	}
	me, err := call[dto.MeResponse](ctx, c, token, http.MethodGet, "/me", nil, nil)
	if err != nil {
		return Session{}, err
	}
	c.mu.Lock()
	s := c.session
	s.User = me.User
	s.Dashboards = me.Dashboards
	if _, ok := findModule(s.Dashboards, s.CurrentDashboard, s.CurrentModule); !ok {
		s.CurrentDashboard, s.CurrentModule = "", ""
		if len(s.Dashboards) > 0 {
			s.CurrentDashboard = s.Dashboards[0].Dashboard.Key
			if mods := s.Dashboards[0].Modules; len(mods) > 0 {
				s.CurrentModule = mods[0].Key
			}
		}
	}
	c.session = s
	c.mu.Unlock()
	return s, c.store.Save(ctx, s)
}

// SelectDashboard switches the current dashboard and module. An empty module
// selects the dashboard's first visible module.
func (c *Client) SelectDashboard(ctx context.Context, dashboard, module string) (Session, error) {
	c.mu.Lock()
	if !c.restored {
		c.mu.Unlock()
		return Session{}, ErrNotRestored
	}
	s := c.session
	c.mu.Unlock()

	module, ok := findModule(s.Dashboards, dashboard, module)
	if !ok {
		return Session{}, fmt.Errorf("no access to %s/%s", dashboard, module)
	}
	s.CurrentDashboard, s.CurrentModule = dashboard, module
	if err := c.store.Save(ctx, s); err != nil {
		return Session{}, err
	}
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
	return s, nil
}

// findModule resolves module within dashboard, defaulting to the first
// module when module is empty.
func findModule(access []models.DashboardAccess, dashboard, module string) (string, bool) {
	for _, a := range access {
		if a.Dashboard.Key != dashboard {
			continue
		}
		if module == "" {
			if len(a.Modules) == 0 {
				return "", true
			}
			return a.Modules[0].Key, true
		}
		for _, m := range a.Modules {
			if m.Key == module {
				return module, true
			}
		}
	}
	return "", false
}

// CaseListOptions narrows and orders a case listing.
type CaseListOptions struct {
	Filter cases.Filter
	Order  cases.Order
	Page   pagination.Params
}

func (o CaseListOptions) values() url.Values {
	q := o.Filter.Values()
	if o.Order.Field != "" {
		q.Set("sort", o.Order.Field)
		if o.Order.Desc {
			q.Set("order", "desc")
		} else {
			q.Set("order", "asc")
		}
	}
	if o.Page.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Page.Limit))
	}
	if o.Page.Offset > 0 {
		q.Set("offset", strconv.Itoa(o.Page.Offset))
	}
	return q
}

func (c *Client) ListCases(ctx context.Context, opts CaseListOptions) (pagination.Page[models.Case], error) {
	return authed[pagination.Page[models.Case]](ctx, c, http.MethodGet, "/cases", opts.values(), nil)
}

func (c *Client) CaseStats(ctx context.Context, f cases.Filter) (cases.Summary, error) {
	return authed[cases.Summary](ctx, c, http.MethodGet, "/cases/stats", f.Values(), nil)
}

func (c *Client) GetCase(ctx context.Context, number string) (models.Case, error) {
	return authed[models.Case](ctx, c, http.MethodGet, "/cases/"+url.PathEscape(number), nil, nil)
}

func (c *Client) CreateCase(ctx context.Context, req dto.CaseRequest) (models.Case, error) {
	return authed[models.Case](ctx, c, http.MethodPost, "/cases", nil, req)
}

func (c *Client) UpdateCase(ctx context.Context, number string, req dto.CaseRequest) (models.Case, error) {
	return authed[models.Case](ctx, c, http.MethodPut, "/cases/"+url.PathEscape(number), nil, req)
}

func (c *Client) DeleteCase(ctx context.Context, number string) error {
	_, err := authed[json.RawMessage](ctx, c, http.MethodDelete, "/cases/"+url.PathEscape(number), nil, nil)
	return err
}

func (c *Client) ListUsers(ctx context.Context, p pagination.Params) (pagination.Page[models.User], error) {
	q := url.Values{}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Offset > 0 {
		q.Set("offset", strconv.Itoa(p.Offset))
	}
	return authed[pagination.Page[models.User]](ctx, c, http.MethodGet, "/users", q, nil)
}

func (c *Client) CreateUser(ctx context.Context, req dto.CreateUserRequest) (models.User, error) {
	return authed[models.User](ctx, c, http.MethodPost, "/users", nil, req)
}

// DeleteUser removes another account. Deleting the signed-in account is
// refused before any request is sent.
func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	s, err := c.Session()
	if err != nil {
		return err
	}
	if s.User.ID == id {
		return ErrSelfDelete
	}
	_, err = authed[json.RawMessage](ctx, c, http.MethodDelete, "/users/"+strconv.FormatInt(id, 10), nil, nil)
	return err
}

func (c *Client) token() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.restored {
		return "", ErrNotRestored
	}
	if !c.session.Active() {
		return "", ErrNotSignedIn
	}
	return c.session.Token, nil
}

// expire drops the session after the server rejected token. A session
// replaced concurrently by a new login is left alone.
func (c *Client) expire(ctx context.Context, token string) error {
	c.mu.Lock()
	if c.session.Token != token {
		c.mu.Unlock()
		return nil
	}
	c.session = Session{}
	c.mu.Unlock()
	return c.store.Clear(ctx)
}

func authed[T any](ctx context.Context, c *Client, method, path string, query url.Values, body any) (T, error) {
	var zero T
	token, err := c.token()
	if err != nil {
		return zero, err
	}
	return call[T](ctx, c, token, method, path, query, body)
}

func call[T any](ctx context.Context, c *Client, token, method, path string, query url.Values, body any) (T, error) {
	var zero T
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return zero, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return zero, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return zero, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)

	if resp.StatusCode == http.StatusUnauthorized && token != "" {
		if err := c.expire(ctx, token); err != nil {
			return zero, err
		}
		return zero, ErrSessionExpired
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := env.Message
		if decodeErr != nil || msg == "" {
			msg = "request failed"
		}
		return zero, &APIError{Status: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return zero, fmt.Errorf("decode response: %w", decodeErr)
	}

	var out T
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return zero, fmt.Errorf("decode data: %w", err)
	}
	return out, nil
}
