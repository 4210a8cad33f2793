// Package backend defines the capability the stores call into and its two
// implementations: Remote (the REST API) and Local (an on-disk SQLite
// fallback). A Selector picks one per call from the cached reachability flag.
package backend

import (
	"context"
	"strings"
	"time"

	"github.com/naveenspark/tempo/pkg/domain"
)

// LocalTokenPrefix marks credentials issued by the local backend.
const LocalTokenPrefix = "local:"

// Backend is everything the session, timer, project and report stores need
// from a data source. token is the caller's credential; it is ignored by the
// unauthenticated operations.
type Backend interface {
	Name() string

	Login(ctx context.Context, email, password string) (*domain.AuthToken, error)
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.Registration, error)
	Me(ctx context.Context, token string) (*domain.User, error)

	ListProjects(ctx context.Context, token string) ([]domain.Project, error)
	CreateProject(ctx context.Context, token string, req domain.ProjectCreate) (*domain.Project, error)
	UpdateProject(ctx context.Context, token, id string, req domain.ProjectUpdate) (*domain.Project, error)
	DeleteProject(ctx context.Context, token, id string) error

	StartTimer(ctx context.Context, token string, req domain.TimerStart) (*domain.TimeEntry, error)
	// StopTimer stops the running entry. running is the caller's view of the
	// timer; a backend that never saw the start records it from there.
	StopTimer(ctx context.Context, token string, running domain.TimeEntry) (*domain.TimeEntry, error)
	CurrentTimer(ctx context.Context, token string) (*domain.TimeEntry, error)
	ListEntries(ctx context.Context, token string, skip, limit int) ([]domain.TimeEntry, error)
	UpdateEntry(ctx context.Context, token, id string, req domain.TimeEntryUpdate) (*domain.TimeEntry, error)
	DeleteEntry(ctx context.Context, token, id string) error

	DailySummary(ctx context.Context, token string, start, end time.Time) ([]domain.DailySummary, error)
	ProjectSummary(ctx context.Context, token string, start, end time.Time) ([]domain.ProjectSummary, error)
	TagSummary(ctx context.Context, token string, start, end time.Time) ([]domain.TagSummary, error)
}

// IsLocalToken reports whether token was issued by the local backend.
func IsLocalToken(token string) bool {
	return strings.HasPrefix(token, LocalTokenPrefix)
}
