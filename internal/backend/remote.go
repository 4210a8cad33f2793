package backend

import (
	"context"
	"time"

	"github.com/naveenspark/tempo/pkg/client"
	"github.com/naveenspark/tempo/pkg/domain"
)

// Remote serves every operation from the REST API.
type Remote struct {
	c *client.Client
}

// NewRemote wraps an API client. The client's own token is ignored; each call
// authenticates with the token it is given.
func NewRemote(c *client.Client) *Remote {
	return &Remote{c: c}
}

func (r *Remote) Name() string { return "remote" }

func (r *Remote) as(token string) *client.Client {
	return r.c.WithToken(token)
}

func (r *Remote) Login(ctx context.Context, email, password string) (*domain.AuthToken, error) {
	tok, err := r.as("").Login(ctx, email, password)
	if err != nil {
		return nil, classify("login", err)
	}
	if tok.User == nil {
		u, err := r.as(tok.AccessToken).Me(ctx)
		if err != nil {
			return nil, classify("login", err)
		}
		tok.User = u
	}
	return tok, nil
}

func (r *Remote) Register(ctx context.Context, req domain.RegisterRequest) (*domain.Registration, error) {
	reg, err := r.as("").Register(ctx, req)
	return reg, classify("register", err)
}

func (r *Remote) Me(ctx context.Context, token string) (*domain.User, error) {
	u, err := r.as(token).Me(ctx)
	return u, classify("me", err)
}

func (r *Remote) ListProjects(ctx context.Context, token string) ([]domain.Project, error) {
	projects, err := r.as(token).ListProjects(ctx)
	return projects, classify("list projects", err)
}

func (r *Remote) CreateProject(ctx context.Context, token string, req domain.ProjectCreate) (*domain.Project, error) {
	p, err := r.as(token).CreateProject(ctx, req)
	return p, classify("create project", err)
}

func (r *Remote) UpdateProject(ctx context.Context, token, id string, req domain.ProjectUpdate) (*domain.Project, error) {
	p, err := r.as(token).UpdateProject(ctx, id, req)
	return p, classify("update project", err)
}

func (r *Remote) DeleteProject(ctx context.Context, token, id string) error {
	return classify("delete project", r.as(token).DeleteProject(ctx, id))
}

func (r *Remote) StartTimer(ctx context.Context, token string, req domain.TimerStart) (*domain.TimeEntry, error) {
	e, err := r.as(token).StartTimer(ctx, req)
	return e, classify("start timer", err)
}

func (r *Remote) StopTimer(ctx context.Context, token string, _ domain.TimeEntry) (*domain.TimeEntry, error) {
	e, err := r.as(token).StopTimer(ctx)
	return e, classify("stop timer", err)
}

func (r *Remote) CurrentTimer(ctx context.Context, token string) (*domain.TimeEntry, error) {
	e, err := r.as(token).CurrentTimer(ctx)
	return e, classify("current timer", err)
}

func (r *Remote) ListEntries(ctx context.Context, token string, skip, limit int) ([]domain.TimeEntry, error) {
	entries, err := r.as(token).ListEntries(ctx, skip, limit)
	return entries, classify("list entries", err)
}

func (r *Remote) UpdateEntry(ctx context.Context, token, id string, req domain.TimeEntryUpdate) (*domain.TimeEntry, error) {
	e, err := r.as(token).UpdateEntry(ctx, id, req)
	return e, classify("update entry", err)
}

func (r *Remote) DeleteEntry(ctx context.Context, token, id string) error {
	return classify("delete entry", r.as(token).DeleteEntry(ctx, id))
}

func (r *Remote) DailySummary(ctx context.Context, token string, start, end time.Time) ([]domain.DailySummary, error) {
	rows, err := r.as(token).DailySummary(ctx, start, end)
	return rows, classify("daily summary", err)
}

func (r *Remote) ProjectSummary(ctx context.Context, token string, start, end time.Time) ([]domain.ProjectSummary, error) {
	rows, err := r.as(token).ProjectSummary(ctx, start, end)
	return rows, classify("project summary", err)
}

func (r *Remote) TagSummary(ctx context.Context, token string, start, end time.Time) ([]domain.TagSummary, error) {
	rows, err := r.as(token).TagSummary(ctx, start, end)
	return rows, classify("tag summary", err)
}
