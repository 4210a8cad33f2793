package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/naveenspark/tempo/pkg/domain"
)

// Client is the time-tracking API client.
type Client struct {
	baseURL         string
	token           string
	httpClient      *http.Client
	retryMaxElapsed time.Duration
	log             zerolog.Logger
}

// New creates a new API client. An empty token is allowed for the
// unauthenticated endpoints (health, login, register).
func New(baseURL, token string, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		retryMaxElapsed: 2 * time.Second,
		log:             zerolog.Nop(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("client.New: %w", err)
		}
	}
	return c, nil
}

// WithToken returns a copy of c that authenticates as token.
// The copy shares the underlying http.Client.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// --- Health and auth ---

// Health checks GET /healthz. Any non-2xx response is an error.
func (c *Client) Health(ctx context.Context) error {
	if err := c.doRequest(ctx, http.MethodGet, "/healthz", nil, nil); err != nil {
		return fmt.Errorf("client.Health: %w", err)
	}
	return nil
}

// Login exchanges email and password for an access token.
// The backend expects an OAuth2 password form with the email as username.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.AuthToken, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	var tok domain.AuthToken
	if err := c.postForm(ctx, "/auth/token", form, &tok); err != nil {
		return nil, fmt.Errorf("client.Login: %w", err)
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("client.Login: empty access token")
	}
	return &tok, nil
}

// Register creates an account. Depending on the backend the response is the
// created user or a token envelope carrying the user.
func (c *Client) Register(ctx context.Context, req domain.RegisterRequest) (*domain.Registration, error) {
	var raw json.RawMessage
	if err := c.post(ctx, "/auth/register", req, &raw); err != nil {
		return nil, fmt.Errorf("client.Register: %w", err)
	}

	var envelope domain.AuthToken
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.User != nil {
		reg := &domain.Registration{User: *envelope.User}
		if envelope.AccessToken != "" {
			reg.Token = &envelope
		}
		return reg, nil
	}

	var u domain.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("client.Register: decode response: %w", err)
	}
	return &domain.Registration{User: u}, nil
}

// Me returns the authenticated user's profile.
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var u domain.User
	if err := c.get(ctx, "/auth/me", &u); err != nil {
		return nil, fmt.Errorf("client.Me: %w", err)
	}
	return &u, nil
}

// --- Projects ---

// ListProjects returns the caller's projects.
func (c *Client) ListProjects(ctx context.Context) ([]domain.Project, error) {
	var projects []domain.Project
	if err := c.get(ctx, "/projects/", &projects); err != nil {
		return nil, fmt.Errorf("client.ListProjects: %w", err)
	}
	return projects, nil
}

// GetProject fetches a single project by ID.
func (c *Client) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	var p domain.Project
	if err := c.get(ctx, "/projects/"+url.PathEscape(id), &p); err != nil {
		return nil, fmt.Errorf("client.GetProject: %w", err)
	}
	return &p, nil
}

// CreateProject creates a new project.
func (c *Client) CreateProject(ctx context.Context, req domain.ProjectCreate) (*domain.Project, error) {
	var created domain.Project
	if err := c.post(ctx, "/projects/", req, &created); err != nil {
		return nil, fmt.Errorf("client.CreateProject: %w", err)
	}
	return &created, nil
}

// UpdateProject applies a partial update to a project.
func (c *Client) UpdateProject(ctx context.Context, id string, req domain.ProjectUpdate) (*domain.Project, error) {
	var updated domain.Project
	if err := c.doRequest(ctx, http.MethodPut, "/projects/"+url.PathEscape(id), req, &updated); err != nil {
		return nil, fmt.Errorf("client.UpdateProject: %w", err)
	}
	return &updated, nil
}

// DeleteProject deletes a project.
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	if err := c.doRequest(ctx, http.MethodDelete, "/projects/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("client.DeleteProject: %w", err)
	}
	return nil
}

// --- Timer ---

// StartTimer starts a timer and returns the running entry.
func (c *Client) StartTimer(ctx context.Context, req domain.TimerStart) (*domain.TimeEntry, error) {
	if req.Tags == nil {
		req.Tags = []string{}
	}
	var entry domain.TimeEntry
	if err := c.post(ctx, "/timer/start", req, &entry); err != nil {
		return nil, fmt.Errorf("client.StartTimer: %w", err)
	}
	return &entry, nil
}

// StopTimer stops the running timer and returns the completed entry.
func (c *Client) StopTimer(ctx context.Context) (*domain.TimeEntry, error) {
	var entry domain.TimeEntry
	if err := c.post(ctx, "/timer/stop", struct{}{}, &entry); err != nil {
		return nil, fmt.Errorf("client.StopTimer: %w", err)
	}
	return &entry, nil
}

// CurrentTimer returns the running entry, or nil when no timer is running.
func (c *Client) CurrentTimer(ctx context.Context) (*domain.TimeEntry, error) {
	var entry domain.TimeEntry
	if err := c.get(ctx, "/timer/current", &entry); err != nil {
		if IsStatus(err, http.StatusNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("client.CurrentTimer: %w", err)
	}
	return &entry, nil
}

// ListEntries returns time entries, most recent first.
func (c *Client) ListEntries(ctx context.Context, skip, limit int) ([]domain.TimeEntry, error) {
	params := url.Values{}
	params.Set("skip", strconv.Itoa(skip))
	params.Set("limit", strconv.Itoa(limit))

	var entries []domain.TimeEntry
	if err := c.get(ctx, "/timer/entries?"+params.Encode(), &entries); err != nil {
		return nil, fmt.Errorf("client.ListEntries: %w", err)
	}
	return entries, nil
}

// GetEntry fetches a single time entry.
func (c *Client) GetEntry(ctx context.Context, id string) (*domain.TimeEntry, error) {
	var entry domain.TimeEntry
	if err := c.get(ctx, "/timer/entries/"+url.PathEscape(id), &entry); err != nil {
		return nil, fmt.Errorf("client.GetEntry: %w", err)
	}
	return &entry, nil
}

// UpdateEntry applies a partial update to a time entry.
func (c *Client) UpdateEntry(ctx context.Context, id string, req domain.TimeEntryUpdate) (*domain.TimeEntry, error) {
	var entry domain.TimeEntry
	if err := c.doRequest(ctx, http.MethodPut, "/timer/entries/"+url.PathEscape(id), req, &entry); err != nil {
		return nil, fmt.Errorf("client.UpdateEntry: %w", err)
	}
	return &entry, nil
}

// DeleteEntry deletes a time entry.
func (c *Client) DeleteEntry(ctx context.Context, id string) error {
	if err := c.doRequest(ctx, http.MethodDelete, "/timer/entries/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("client.DeleteEntry: %w", err)
	}
	return nil
}

// --- Reports ---

// DailySummary returns per-day totals of completed entries in [start, end].
func (c *Client) DailySummary(ctx context.Context, start, end time.Time) ([]domain.DailySummary, error) {
	var rows []domain.DailySummary
	if err := c.get(ctx, "/reports/summary/daily?"+rangeParams(start, end), &rows); err != nil {
		return nil, fmt.Errorf("client.DailySummary: %w", err)
	}
	return rows, nil
}

// ProjectSummary returns per-project totals of completed entries in [start, end].
func (c *Client) ProjectSummary(ctx context.Context, start, end time.Time) ([]domain.ProjectSummary, error) {
	var rows []domain.ProjectSummary
	if err := c.get(ctx, "/reports/summary/project?"+rangeParams(start, end), &rows); err != nil {
		return nil, fmt.Errorf("client.ProjectSummary: %w", err)
	}
	return rows, nil
}

// TagSummary returns per-tag totals of completed entries in [start, end].
func (c *Client) TagSummary(ctx context.Context, start, end time.Time) ([]domain.TagSummary, error) {
	var rows []domain.TagSummary
	if err := c.get(ctx, "/reports/summary/tags?"+rangeParams(start, end), &rows); err != nil {
		return nil, fmt.Errorf("client.TagSummary: %w", err)
	}
	return rows, nil
}

func rangeParams(start, end time.Time) string {
	params := url.Values{}
	if !start.IsZero() {
		params.Set("start_date", start.UTC().Format(time.RFC3339))
	}
	if !end.IsZero() {
		params.Set("end_date", end.UTC().Format(time.RFC3339))
	}
	return params.Encode()
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	return c.doRequest(ctx, http.MethodPost, path, body, out)
}

// get retries 408/429/500 responses with exponential backoff for at most
// retryMaxElapsed. Other failures return immediately.
func (c *Client) get(ctx context.Context, path string, out any) error {
	if c.retryMaxElapsed <= 0 {
		return c.doRequest(ctx, http.MethodGet, path, nil, out)
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = 100 * time.Millisecond
	exp.MaxInterval = time.Second
	exp.MaxElapsedTime = c.retryMaxElapsed

	attempt := 0
	op := func() error {
		attempt++
		err := c.doRequest(ctx, http.MethodGet, path, nil, out)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return backoff.Permanent(err)
		}
		c.log.Debug().Err(err).Str("path", path).Int("attempt", attempt).Msg("retrying request")
		return err
	}
	return backoff.Retry(op, backoff.WithContext(exp, ctx))
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.send(req, out)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Op: req.Method + " " + req.URL.Path, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode >= 400 {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB max error body
		if readErr != nil {
			return &HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read body: %v", readErr)}
		}
		return &HTTPError{StatusCode: resp.StatusCode, Message: errorMessage(resp.StatusCode, respBody)}
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// errorMessage extracts a human-readable message from an error body. FastAPI
// sends {"detail": "..."} or, for validation errors, {"detail": [{"msg": ...}]}.
func errorMessage(status int, body []byte) string {
	var apiErr struct {
		Detail json.RawMessage `json:"detail"`
		Error  string          `json:"error"`
	}
	if json.Unmarshal(body, &apiErr) == nil {
		if len(apiErr.Detail) > 0 {
			var s string
			if json.Unmarshal(apiErr.Detail, &s) == nil && s != "" {
				return s
			}
			var items []struct {
				Msg string `json:"msg"`
			}
			if json.Unmarshal(apiErr.Detail, &items) == nil && len(items) > 0 {
				msgs := make([]string, 0, len(items))
				for _, it := range items {
					if it.Msg != "" {
						msgs = append(msgs, it.Msg)
					}
				}
				if len(msgs) > 0 {
					return strings.Join(msgs, "; ")
				}
			}
		}
		if apiErr.Error != "" {
			return apiErr.Error
		}
	}
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return msg
	}
	return http.StatusText(status)
}
